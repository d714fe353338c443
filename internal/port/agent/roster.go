package agent

import (
	"context"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
)

// RosterReader is the narrow interface the distributor needs.
// ListForDistribution returns agents oldest-first (created_at, then id), the
// canonical round-robin order.
type RosterReader interface {
	ListForDistribution(ctx context.Context) ([]domainagent.Agent, error)
}
