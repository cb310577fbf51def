package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/events"
)

// OnceGuard claims a key at most once within a TTL window. The redis
// persistence wrapper implements it for multi-replica deployments.
type OnceGuard interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// CreationNotifier defers the "ticket created" notification until attached
// images finish uploading, so the notice goes out with its media. Creation
// arms a fallback timer covering tickets with no images at all; every image
// upload resets a short debounce timer. Whichever timer fires first wins,
// and a fire-once guard collapses repeated upload calls into a single
// notice.
type CreationNotifier struct {
	mu         sync.Mutex
	pending    map[int64]*pendingNotice
	done       map[int64]struct{}
	dispatcher events.Dispatcher
	guard      OnceGuard
	debounce   time.Duration
	fallback   time.Duration
	guardTTL   time.Duration
	logger     *zap.Logger
}

type pendingNotice struct {
	timer      *time.Timer
	ticket     domain.Ticket
	imageCount int
}

// NewCreationNotifier constructs the notifier. guard may be nil for
// single-instance deployments; the in-process done set still guarantees
// at-most-once per process.
func NewCreationNotifier(dispatcher events.Dispatcher, guard OnceGuard, debounce, fallback, guardTTL time.Duration, logger *zap.Logger) *CreationNotifier {
	if debounce <= 0 {
		debounce = 5 * time.Second
	}
	if fallback <= 0 {
		fallback = 2 * time.Minute
	}
	if guardTTL <= 0 {
		guardTTL = 24 * time.Hour
	}
	return &CreationNotifier{
		pending:    make(map[int64]*pendingNotice),
		done:       make(map[int64]struct{}),
		dispatcher: dispatcher,
		guard:      guard,
		debounce:   debounce,
		fallback:   fallback,
		guardTTL:   guardTTL,
		logger:     logger,
	}
}

// Arm schedules the fallback notice for a freshly created ticket.
func (n *CreationNotifier) Arm(ticket *domain.Ticket) {
	n.schedule(ticket, 0, n.fallback)
}

// ImagesAttached resets the debounce timer after an image upload, updating
// the snapshot that the eventual notice will carry.
func (n *CreationNotifier) ImagesAttached(ticket *domain.Ticket, imageCount int) {
	n.schedule(ticket, imageCount, n.debounce)
}

func (n *CreationNotifier) schedule(ticket *domain.Ticket, imageCount int, delay time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, fired := n.done[ticket.ID]; fired {
		return
	}
	ticketID := ticket.ID
	if p, ok := n.pending[ticketID]; ok {
		p.timer.Stop()
		p.ticket = *ticket
		if imageCount > p.imageCount {
			p.imageCount = imageCount
		}
		p.timer = time.AfterFunc(delay, func() { n.fire(ticketID) })
		return
	}
	p := &pendingNotice{ticket: *ticket, imageCount: imageCount}
	p.timer = time.AfterFunc(delay, func() { n.fire(ticketID) })
	n.pending[ticketID] = p
}

func (n *CreationNotifier) fire(ticketID int64) {
	n.mu.Lock()
	p, ok := n.pending[ticketID]
	if !ok {
		n.mu.Unlock()
		return
	}
	delete(n.pending, ticketID)
	if _, fired := n.done[ticketID]; fired {
		n.mu.Unlock()
		return
	}
	n.done[ticketID] = struct{}{}
	ticket := p.ticket
	imageCount := p.imageCount
	n.mu.Unlock()

	if n.guard != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		acquired, err := n.guard.AcquireOnce(ctx, fmt.Sprintf("ticket:creation_notice:%d", ticketID), n.guardTTL)
		if err != nil {
			// Delivery beats strict dedupe when the guard is unreachable.
			n.logger.Warn("creation notice guard unavailable; sending anyway",
				zap.Int64("ticket_id", ticketID), zap.Error(err))
		} else if !acquired {
			return
		}
	}

	_ = n.dispatcher.Publish(context.Background(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketCreateFinalized,
		TicketID:  ticketID,
		ActorID:   ticket.ReportedBy,
		Timestamp: time.Now(),
		Payload: events.TicketCreateFinalizedPayload{
			Ticket:     ticket,
			ImageCount: imageCount,
		},
	})
}

// Stop cancels all pending timers. Notices not yet fired are dropped.
func (n *CreationNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, p := range n.pending {
		p.timer.Stop()
		delete(n.pending, id)
	}
}
