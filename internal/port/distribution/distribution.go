package distribution

import (
	"context"

	domaindist "github.com/alanyang/agentflow/internal/domain/distribution"
)

type Repository interface {
	// CreateBatch stores every entry of one upload atomically: either all
	// entries are committed or none are.
	CreateBatch(ctx context.Context, entries []domaindist.Entry) ([]domaindist.Entry, error)
	// List returns entries with their agent joined, newest upload first.
	List(ctx context.Context, filters domaindist.ListFilters) ([]domaindist.Entry, error)
}
