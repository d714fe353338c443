//go:build integration

package testutil

import (
	"context"
	"sync"

	"github.com/alanyang/agentflow/internal/domain/event"
	porteventbus "github.com/alanyang/agentflow/internal/port/eventbus"
)

// CaptureBus is an in-process EventBus that records every published event.
// Subscribers registered on it are invoked synchronously.
type CaptureBus struct {
	mu       sync.Mutex
	Events   []event.Event
	handlers map[event.Channel][]porteventbus.Handler
}

func (b *CaptureBus) Publish(ctx context.Context, e event.Event) error {
	b.mu.Lock()
	b.Events = append(b.Events, e)
	hs := append([]porteventbus.Handler(nil), b.handlers[event.ChannelFor(e.Type)]...)
	b.mu.Unlock()

	for _, h := range hs {
		h(ctx, e)
	}
	return nil
}

func (b *CaptureBus) Subscribe(_ context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[event.Channel][]porteventbus.Handler)
	}
	b.handlers[ch] = append(b.handlers[ch], handler)
	return noopSubscription{}, nil
}

// OfType returns the recorded events of one type, in publish order.
func (b *CaptureBus) OfType(t event.Type) []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event.Event
	for _, e := range b.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}
