// Package eventbus fans roster and distribution changes out to every server
// process over Postgres LISTEN/NOTIFY. A payload is the JSON of one
// event.Event; it names the changed entity and carries no state.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/agentflow/internal/domain/event"
	porteventbus "github.com/alanyang/agentflow/internal/port/eventbus"
)

const (
	channelPrefix  = "agentflow_"
	reconnectDelay = time.Second
)

// ErrUnroutable is returned by Publish for an event type with no channel.
var ErrUnroutable = errors.New("event type has no channel")

var _ porteventbus.EventBus = (*Bus)(nil)

// Bus holds one pooled connection per subscription for as long as it listens.
type Bus struct {
	pool *pgxpool.Pool

	mu        sync.Mutex
	listeners map[*listener]struct{}
}

func New(pool *pgxpool.Pool) *Bus {
	return &Bus{
		pool:      pool,
		listeners: make(map[*listener]struct{}),
	}
}

func (b *Bus) Publish(ctx context.Context, e event.Event) error {
	ch := event.ChannelFor(e.Type)
	if ch == "" {
		return fmt.Errorf("%w: %q", ErrUnroutable, e.Type)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", e.Type, err)
	}
	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", pgChannel(ch), string(payload)); err != nil {
		return fmt.Errorf("notifying %s: %w", pgChannel(ch), err)
	}
	return nil
}

// Subscribe returns once LISTEN is in place, so events published after it
// returns are delivered. Handlers run one at a time on the listener's
// goroutine. A dropped connection is replaced; events sent while it was down
// are lost, which dashboards tolerate because they refetch on the next event.
func (b *Bus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	l := &listener{
		bus:     b,
		channel: pgChannel(ch),
		handler: handler,
		done:    make(chan struct{}),
	}

	conn, err := l.listen(ctx)
	if err != nil {
		return nil, err
	}

	lctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()

	go l.run(lctx, conn)
	return l, nil
}

// Close stops every listener and waits for their connections to go back to
// the pool. Call it before closing the pool.
func (b *Bus) Close() {
	b.mu.Lock()
	ls := make([]*listener, 0, len(b.listeners))
	for l := range b.listeners {
		ls = append(ls, l)
	}
	b.mu.Unlock()

	for _, l := range ls {
		l.Unsubscribe()
	}
}

func pgChannel(ch event.Channel) string {
	return channelPrefix + string(ch)
}

type listener struct {
	bus     *Bus
	channel string
	handler porteventbus.Handler
	cancel  context.CancelFunc
	done    chan struct{}
}

func (l *listener) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := l.bus.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for %s: %w", l.channel, err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listening on %s: %w", l.channel, err)
	}
	return conn, nil
}

func (l *listener) run(ctx context.Context, conn *pgxpool.Conn) {
	defer func() {
		l.bus.mu.Lock()
		delete(l.bus.listeners, l)
		l.bus.mu.Unlock()
		close(l.done)
	}()

	for {
		err := l.deliver(ctx, conn)
		if ctx.Err() != nil {
			return
		}

		// The session may have lost its LISTEN; start over on a fresh one.
		slog.WarnContext(ctx, "event listener lost its connection", "channel", l.channel, "error", err)
		conn = nil
		for conn == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			if conn, err = l.listen(ctx); err != nil {
				slog.WarnContext(ctx, "event listener reconnect failed", "channel", l.channel, "error", err)
			}
		}
		slog.InfoContext(ctx, "event listener reconnected", "channel", l.channel)
	}
}

// deliver dispatches notifications until the connection fails or ctx ends. It
// always gives conn back to the pool: after UNLISTEN when the listener is
// stopping, or destroyed when the connection is suspect.
func (l *listener) deliver(ctx context.Context, conn *pgxpool.Conn) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				unlistenCtx, cancel := context.WithTimeout(context.Background(), reconnectDelay)
				_, _ = conn.Exec(unlistenCtx, "UNLISTEN "+l.channel)
				cancel()
				conn.Release()
			} else {
				conn.Hijack().Close(context.Background())
			}
			return err
		}

		var e event.Event
		if err := json.Unmarshal([]byte(n.Payload), &e); err != nil {
			slog.WarnContext(ctx, "dropping malformed event", "channel", l.channel, "error", err)
			continue
		}
		l.handler(ctx, e)
	}
}

func (l *listener) Unsubscribe() {
	l.cancel()
	<-l.done
}
