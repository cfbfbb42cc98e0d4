package store

import (
	"encoding/json"
	"time"
)

type Kind string

const (
	KindSignificance Kind = "significance"
	KindPlan         Kind = "plan"
	KindCurve        Kind = "duration_curve"
	KindScenarios    Kind = "scenarios"
)

// Valid reports whether k is one of the known analysis kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSignificance, KindPlan, KindCurve, KindScenarios:
		return true
	}
	return false
}

// Analysis is a saved engine run: the request that produced it and the
// result it returned, both kept as JSON.
type Analysis struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner"`
	Kind      Kind            `json:"kind"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
