package store

import "context"

// Store defines the interface for saved analysis storage
type Store interface {
	SaveAnalysis(ctx context.Context, owner string, kind Kind, name string, input, result any) (*Analysis, error)
	GetAnalysis(ctx context.Context, id string) (*Analysis, error)
	ListAnalyses(ctx context.Context, owner string) ([]*Analysis, error)
	DeleteAnalysis(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}
