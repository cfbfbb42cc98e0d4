package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gkobilansky/abkit/internal/stats"
)

// SystemPrompt frames the narrative collaborator as an experimentation
// analyst.
const SystemPrompt = `You are an experienced product analyst who explains A/B test results to product managers.
Be precise about what is and is not statistically significant, and never overstate certainty.`

// InterpretationPrompt renders r and optional free-text experiment
// context into a request for a plain-language interpretation.
func InterpretationPrompt(r *stats.SignificanceReport, experimentContext string) (string, error) {
	var table bytes.Buffer
	if err := WriteSignificanceTable(&table, r); err != nil {
		return "", err
	}

	details := strings.TrimSpace(experimentContext)
	if details == "" {
		details = "No experiment details provided."
	}

	var b strings.Builder
	b.WriteString("Interpret the following A/B/C test results:\n\n")
	b.WriteString(table.String())
	fmt.Fprintf(&b, "\nSignificance Level: %s\n", FormatPercent(r.Alpha))
	b.WriteString("Note: p-values come from unpooled two-proportion z-tests against the control, without continuity correction or multiple-comparison adjustment.\n")
	b.WriteString("\nExperiment Details:\n")
	b.WriteString(details)
	b.WriteString(`

Provide a clear, concise interpretation of these results for a product manager.
Include whether any results are statistically significant, what this means practically,
and any recommendations or next steps. If multiple variants outperform the control,
discuss which one might be the best choice and why.

If experiment details were provided, incorporate relevant aspects into your interpretation
and recommendations, and consider how the results align with the product goals they describe.
`)
	return b.String(), nil
}
