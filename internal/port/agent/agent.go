package agent

import (
	"context"

	"github.com/google/uuid"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
)

// Repository manages the agent roster in the database.
type Repository interface {
	Create(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (domainagent.Agent, error)
	// List returns the roster newest-first, the order the dashboard shows.
	List(ctx context.Context) ([]domainagent.Agent, error)
	// Delete removes the agent and its distribution entries in one transaction
	// and reports how many entries went with it.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
