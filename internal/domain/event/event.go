package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAgentCreated        Type = "agent_created"
	TypeAgentDeleted        Type = "agent_deleted"
	TypeDistributionCreated Type = "distribution_created"
)

// Channel is a domain-scoped Postgres NOTIFY channel.
// All event types within a domain share one LISTEN connection.
type Channel string

const (
	ChannelAgent        Channel = "agent"
	ChannelDistribution Channel = "distribution"
)

var typeToChannel = map[Type]Channel{
	TypeAgentCreated:        ChannelAgent,
	TypeAgentDeleted:        ChannelAgent,
	TypeDistributionCreated: ChannelDistribution,
}

// ChannelFor returns the domain channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state.
// Dashboards refetch from the API when they see one.
type Event struct {
	Type      Type      `json:"type"`
	EntityID  uuid.UUID `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, entityID uuid.UUID) Event {
	return Event{
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
