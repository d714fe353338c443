package distributor

import (
	"context"
	"fmt"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	"github.com/alanyang/agentflow/internal/domain/apperr"
	"github.com/alanyang/agentflow/internal/domain/distribution"
	"github.com/alanyang/agentflow/internal/domain/record"
	portagent "github.com/alanyang/agentflow/internal/port/agent"
	portdist "github.com/alanyang/agentflow/internal/port/distributor"
)

var ErrNoAgents = apperr.Validation("No agents found. Please create agents first.")

var _ portdist.Distributor = (*Service)(nil)

// Service splits records round-robin across the roster.
// [ISP] Depends on RosterReader (1 method), not the full agent Repository.
type Service struct {
	roster portagent.RosterReader
}

func NewService(roster portagent.RosterReader) *Service {
	return &Service{roster: roster}
}

// Snapshot reads the roster in distribution order. The snapshot is not held
// against concurrent roster changes; an agent deleted before the batch commits
// fails the whole batch on its foreign key.
func (s *Service) Snapshot(ctx context.Context) ([]domainagent.Agent, error) {
	agents, err := s.roster.ListForDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot roster: %w", err)
	}
	if len(agents) == 0 {
		return nil, ErrNoAgents
	}
	return agents, nil
}

func (s *Service) Partition(records []record.Record, agents []domainagent.Agent) ([]distribution.Group, error) {
	return Partition(records, agents)
}

// Partition assigns record i to agent i mod N. It returns one group per agent,
// in agent order, including agents that received nothing; record order is
// preserved inside each group.
func Partition(records []record.Record, agents []domainagent.Agent) ([]distribution.Group, error) {
	n := len(agents)
	if n == 0 {
		return nil, ErrNoAgents
	}

	groups := make([]distribution.Group, n)
	for i, a := range agents {
		groups[i] = distribution.Group{
			Agent:   a,
			Records: make([]record.Record, 0, len(records)/n+1),
		}
	}
	for i, rec := range records {
		g := &groups[i%n]
		g.Records = append(g.Records, rec)
	}
	return groups, nil
}
