// Package narrative asks a language model to explain a significance
// report in plain language. The engine never imports it.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/gkobilansky/abkit/internal/config"
	"github.com/gkobilansky/abkit/internal/report"
	"github.com/gkobilansky/abkit/internal/stats"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("narrator not configured")

// Narrator turns a prompt into prose.
type Narrator interface {
	Interpret(ctx context.Context, system, prompt string) (string, error)
}

type OpenAINarrator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *slog.Logger
}

// NewOpenAINarrator builds a narrator from cfg. The API key is read from
// the environment variable cfg.APIKeyEnv names.
func NewOpenAINarrator(cfg config.NarrativeConfig, logger *slog.Logger) (*OpenAINarrator, error) {
	env := cfg.APIKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	apiKey := strings.TrimSpace(os.Getenv(env))
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrNotConfigured, env)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAINarrator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

func (n *OpenAINarrator) Interpret(ctx context.Context, system, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: n.temperature,
	}
	if n.maxTokens > 0 {
		req.MaxCompletionTokens = n.maxTokens
	}

	n.logger.Debug("requesting interpretation", "model", n.model)
	resp, err := n.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("interpretation request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("interpretation response had no choices")
	}
	n.logger.Debug("received interpretation", "finish_reason", resp.Choices[0].FinishReason)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Interpret builds the interpretation prompt for r and sends it to n.
func Interpret(ctx context.Context, n Narrator, r *stats.SignificanceReport, experimentContext string) (string, error) {
	prompt, err := report.InterpretationPrompt(r, experimentContext)
	if err != nil {
		return "", err
	}
	return n.Interpret(ctx, report.SystemPrompt, prompt)
}
