package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Veraticus/spice-ledger/internal/conversation"
)

// DefaultWorkers bounds how many events are handled at once, across all
// users, when no limit is configured.
const DefaultWorkers = 64

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Handled    uint64
	SendFailed uint64
}

// lane is the pending events of one user. A lane exists exactly while a
// goroutine is draining it.
type lane struct {
	queue []conversation.Event
}

// Dispatcher gives every user with pending events its own lane. A lane is
// drained by one goroutine, so a user's events are handled strictly in
// arrival order, while lanes of different users run independently. Reading
// updates never waits on a handler.
type Dispatcher struct {
	platform Platform
	handler  Handler
	logger   *slog.Logger
	slots    chan struct{}
	lanes    map[string]*lane
	wg       sync.WaitGroup
	mu       sync.Mutex

	handled    atomic.Uint64
	sendFailed atomic.Uint64
}

// NewDispatcher creates a dispatcher handling at most workers events at once.
func NewDispatcher(platform Platform, handler Handler, workers int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		platform: platform,
		handler:  handler,
		logger:   logger,
		slots:    make(chan struct{}, workers),
		lanes:    make(map[string]*lane),
	}
}

// Run consumes platform updates until the stream closes or ctx is cancelled.
// Queued events are drained before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	updates, err := d.platform.Updates(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to updates: %w", err)
	}

	d.logger.Info("dispatcher started", "max_concurrent", cap(d.slots))

feed:
	for {
		select {
		case <-ctx.Done():
			break feed
		case ev, ok := <-updates:
			if !ok {
				break feed
			}
			d.enqueue(ctx, ev)
		}
	}

	d.wg.Wait()
	d.logger.Info("dispatcher stopped",
		"handled", d.handled.Load(),
		"send_failed", d.sendFailed.Load())
	return nil
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Handled:    d.handled.Load(),
		SendFailed: d.sendFailed.Load(),
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, ev conversation.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l, ok := d.lanes[ev.UserID]; ok {
		l.queue = append(l.queue, ev)
		return
	}

	d.lanes[ev.UserID] = &lane{queue: []conversation.Event{ev}}
	d.wg.Add(1)
	go d.drain(ctx, ev.UserID)
}

// next pops the user's oldest event, closing the lane when it is empty.
func (d *Dispatcher) next(userID string) (conversation.Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := d.lanes[userID]
	if len(l.queue) == 0 {
		delete(d.lanes, userID)
		return conversation.Event{}, false
	}
	ev := l.queue[0]
	l.queue[0] = conversation.Event{}
	l.queue = l.queue[1:]
	return ev, true
}

func (d *Dispatcher) drain(ctx context.Context, userID string) {
	defer d.wg.Done()

	// Queued events are still answered after shutdown begins.
	hctx := context.WithoutCancel(ctx)
	for {
		ev, ok := d.next(userID)
		if !ok {
			return
		}
		d.handle(hctx, ev)
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev conversation.Event) {
	d.slots <- struct{}{}
	defer func() { <-d.slots }()

	start := time.Now()
	reply := d.handler.Handle(ctx, ev)
	for _, msg := range reply.Messages {
		if err := d.platform.Send(ctx, ev.UserID, msg); err != nil {
			d.sendFailed.Add(1)
			d.logger.Warn("failed to deliver reply",
				"user_id", ev.UserID,
				"error", err)
		}
	}

	d.handled.Add(1)
	d.logger.Debug("event handled",
		"user_id", ev.UserID,
		"kind", ev.Kind.String(),
		"duration", time.Since(start))
}
