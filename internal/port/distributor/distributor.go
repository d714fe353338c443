package distributor

import (
	"context"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	"github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/record"
)

// Distributor snapshots the roster and splits records across it.
// It never writes: persisting the groups is the caller's job.
type Distributor interface {
	Snapshot(ctx context.Context) ([]domainagent.Agent, error)
	Partition(records []record.Record, agents []domainagent.Agent) ([]distribution.Group, error)
}
