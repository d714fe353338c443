package distribution

import (
	"time"

	"github.com/google/uuid"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	"github.com/alanyang/agentflow/internal/domain/record"
)

// AgentRef is the slice of the owning agent joined into listings.
type AgentRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Entry is one agent's share of one upload. Entries are never mutated; they
// disappear only when their agent is deleted.
//
// On the wire agentId is always the bare agent UUID. Listings add the joined
// agent as a separate "agent" object, so clients read the name from
// agent.name rather than from a populated agentId.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	BatchID    uuid.UUID       `json:"batchId"`
	AgentID    uuid.UUID       `json:"agentId"`
	Agent      *AgentRef       `json:"agent,omitempty"`
	Records    []record.Record `json:"records"`
	FileName   string          `json:"fileName"`
	UploadDate time.Time       `json:"uploadDate"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func NewEntry(batchID, agentID uuid.UUID, records []record.Record, fileName string, uploadDate time.Time) Entry {
	return Entry{
		ID:         uuid.New(),
		BatchID:    batchID,
		AgentID:    agentID,
		Records:    records,
		FileName:   fileName,
		UploadDate: uploadDate,
		CreatedAt:  uploadDate,
	}
}

// Group is the records assigned to one agent by a partition.
type Group struct {
	Agent   domainagent.Agent
	Records []record.Record
}

type AgentCount struct {
	AgentName   string `json:"agentName"`
	RecordCount int    `json:"recordCount"`
}

// Summary is the upload response body.
type Summary struct {
	TotalRecords   int          `json:"totalRecords"`
	ValidRecords   int          `json:"validRecords"`
	InvalidRecords int          `json:"invalidRecords"`
	AgentCount     int          `json:"agentCount"`
	Distribution   []AgentCount `json:"distribution"`
}

// BuildSummary projects the counters of one upload and the groups that were
// written, in the order given.
func BuildSummary(total, valid, agentCount int, written []Group) Summary {
	counts := make([]AgentCount, 0, len(written))
	for _, g := range written {
		counts = append(counts, AgentCount{AgentName: g.Agent.Name, RecordCount: len(g.Records)})
	}
	return Summary{
		TotalRecords:   total,
		ValidRecords:   valid,
		InvalidRecords: total - valid,
		AgentCount:     agentCount,
		Distribution:   counts,
	}
}

type ListFilters struct {
	AgentID *uuid.UUID
}
