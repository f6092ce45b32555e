package hypothesis

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for analysis record data access
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListSummaries(ctx context.Context, limit int) ([]*Summary, error)
	RecentSymbols(ctx context.Context, limit int) ([]string, error)
}
