package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/plantops/maintenance-service/internal/domain"
	"github.com/plantops/maintenance-service/internal/events"
	"github.com/plantops/maintenance-service/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository. ApplyTransition checks
// the expected status under the same lock that mutates the store, matching
// the conditional UPDATE semantics of the real repository. It doubles as
// the StatusHistoryRepository read side.
type fakeTicketRepo struct {
	mu        sync.Mutex
	nextID    int64
	tickets   map[int64]domain.Ticket
	history   []domain.StatusHistoryEntry
	createErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[int64]domain.Ticket)}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket, entry *domain.StatusHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	now := time.Now()
	ticket.ID = f.nextID
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	f.tickets[ticket.ID] = *ticket
	entry.ID = int64(len(f.history) + 1)
	entry.TicketID = ticket.ID
	entry.ChangedAt = now
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := t
	return &copied, nil
}

func (f *fakeTicketRepo) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tickets {
		if t.TicketNumber == number {
			copied := t
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range f.tickets {
		if filter.ReportedBy != nil && t.ReportedBy != *filter.ReportedBy {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTicketRepo) ApplyTransition(_ context.Context, ticket *domain.Ticket, expected domain.TicketStatus, entry *domain.StatusHistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tickets[ticket.ID]
	if !ok || stored.Status != expected {
		return repository.ErrStatusConflict
	}
	ticket.UpdatedAt = time.Now()
	f.tickets[ticket.ID] = *ticket
	entry.ID = int64(len(f.history) + 1)
	entry.ChangedAt = ticket.UpdatedAt
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeTicketRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.StatusHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StatusHistoryEntry
	for _, e := range f.history {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func containsStatus(statuses []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type fakePersonRepo struct {
	mu     sync.Mutex
	people map[int64]domain.Person
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{people: make(map[int64]domain.Person)}
}

func (f *fakePersonRepo) add(p domain.Person) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.people[p.ID] = p
}

func (f *fakePersonRepo) GetByID(_ context.Context, id int64) (*domain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := p
	return &copied, nil
}

func (f *fakePersonRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.people[id]
	if !ok {
		return pgx.ErrNoRows
	}
	p.PasswordHash = passwordHash
	f.people[id] = p
	return nil
}

func (f *fakePersonRepo) GetByEmail(_ context.Context, email string) (*domain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.people {
		if p.Email == email {
			copied := p
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeGrantRepo struct {
	mu     sync.Mutex
	levels map[int64]int
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{levels: make(map[int64]int)}
}

func (f *fakeGrantRepo) grant(personID int64, level int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if level > f.levels[personID] {
		f.levels[personID] = level
	}
}

func (f *fakeGrantRepo) ActiveLevel(_ context.Context, personID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[personID], nil
}

func (f *fakeGrantRepo) ListByPerson(_ context.Context, personID int64) ([]domain.ApprovalGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	level, ok := f.levels[personID]
	if !ok {
		return nil, nil
	}
	return []domain.ApprovalGrant{{PersonID: personID, ApprovalLevel: level, IsActive: true}}, nil
}

type fakeImageRepo struct {
	mu     sync.Mutex
	nextID int64
	images []domain.TicketImage
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{}
}

func (f *fakeImageRepo) Create(_ context.Context, image *domain.TicketImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	image.ID = f.nextID
	image.UploadedAt = time.Now()
	f.images = append(f.images, *image)
	return nil
}

func (f *fakeImageRepo) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketImage
	for _, img := range f.images {
		if img.TicketID == ticketID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImageRepo) CountByTicket(_ context.Context, ticketID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, img := range f.images {
		if img.TicketID == ticketID {
			count++
		}
	}
	return count, nil
}

// recordingDispatcher delivers events synchronously and records them so
// tests observe publication without timing games.
type recordingDispatcher struct {
	mu        sync.Mutex
	events    []events.Event
	listeners map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{listeners: make(map[events.EventType][]events.EventHandler)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.events = append(d.events, event)
	handlers := append([]events.EventHandler{}, d.listeners[event.Type]...)
	d.mu.Unlock()
	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *recordingDispatcher) recorded() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}

func (d *recordingDispatcher) recordedOfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range d.recorded() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeEmailSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeEmailSender) all() []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMail{}, f.sent...)
}

type sentPush struct {
	to   string
	text string
}

type fakeLinePusher struct {
	mu     sync.Mutex
	pushed []sentPush
	err    error
}

func (f *fakeLinePusher) Push(_ context.Context, lineUserID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.pushed = append(f.pushed, sentPush{to: lineUserID, text: text})
	return nil
}

func (f *fakeLinePusher) all() []sentPush {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentPush{}, f.pushed...)
}

// fakeOnceGuard mimics the redis SETNX guard.
type fakeOnceGuard struct {
	mu      sync.Mutex
	claimed map[string]struct{}
	err     error
}

func newFakeOnceGuard() *fakeOnceGuard {
	return &fakeOnceGuard{claimed: make(map[string]struct{})}
}

func (f *fakeOnceGuard) AcquireOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.claimed[key]; ok {
		return false, nil
	}
	f.claimed[key] = struct{}{}
	return true, nil
}
