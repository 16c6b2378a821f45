package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Emissary/internal/delivery"
	"github.com/shaiso/Emissary/internal/domain"
)

// memPublication — публикация в памяти для тестов.
type memPublication struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	status      domain.PublicationStatus
	scheduledAt *time.Time
	createdAt   time.Time
}

// memPost — PENDING-пост в памяти (хранится только то,
// что видит sweeper).
type memPost struct {
	publicationID uuid.UUID
	status        domain.PostStatus
	effectiveAt   *time.Time
}

// memStore реализует PublicationStore и PostStore поверх слайсов.
// Conditional-семантика claim воспроизведена под мьютексом.
type memStore struct {
	mu    sync.Mutex
	pubs  []*memPublication
	posts []*memPost

	expireErr  error
	listDueErr error
	claimErr   error

	// dueOverride подменяет результат ListDue: позволяет воспроизвести
	// гонку "кандидат выбран, но захвачен другим процессом".
	dueOverride []uuid.UUID
}

func (m *memStore) addPub(status domain.PublicationStatus, scheduledAt *time.Time, createdAt time.Time) *memPublication {
	p := &memPublication{
		id:          uuid.New(),
		ownerID:     uuid.New(),
		status:      status,
		scheduledAt: scheduledAt,
		createdAt:   createdAt,
	}
	m.pubs = append(m.pubs, p)
	return p
}

func (m *memStore) pub(id uuid.UUID) *memPublication {
	for _, p := range m.pubs {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (m *memStore) ExpireScheduledBefore(ctx context.Context, cutoff time.Time) ([]domain.PublicationExpired, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expireErr != nil {
		return nil, m.expireErr
	}

	var expired []domain.PublicationExpired
	for _, p := range m.pubs {
		if p.status != domain.PublicationStatusScheduled || p.scheduledAt == nil {
			continue
		}
		// Strict less-than: scheduledAt == cutoff is not expired.
		if p.scheduledAt.Before(cutoff) {
			p.status = domain.PublicationStatusExpired
			expired = append(expired, domain.PublicationExpired{
				PublicationID: p.id,
				OwnerID:       p.ownerID,
				ScheduledAt:   *p.scheduledAt,
			})
		}
	}
	return expired, nil
}

func (m *memStore) ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listDueErr != nil {
		return nil, m.listDueErr
	}
	if m.dueOverride != nil {
		return m.dueOverride, nil
	}

	var due []*memPublication
	for _, p := range m.pubs {
		if p.status != domain.PublicationStatusScheduled || p.scheduledAt == nil {
			continue
		}
		// Less-than-or-equal: scheduledAt == now is due.
		if !p.scheduledAt.After(now) {
			due = append(due, p)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].scheduledAt.Equal(*due[j].scheduledAt) {
			return due[i].scheduledAt.Before(*due[j].scheduledAt)
		}
		return due[i].createdAt.Before(due[j].createdAt)
	})

	ids := make([]uuid.UUID, len(due))
	for i, p := range due {
		ids[i] = p.id
	}
	return ids, nil
}

func (m *memStore) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.claimErr != nil {
		return false, m.claimErr
	}

	p := m.pub(id)
	if p == nil || p.status != domain.PublicationStatusScheduled {
		return false, nil
	}
	p.status = domain.PublicationStatusProcessing
	return true, nil
}

func (m *memStore) FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, post := range m.posts {
		if post.status != domain.PostStatusPending || post.effectiveAt == nil {
			continue
		}
		if post.effectiveAt.Before(cutoff) {
			post.status = domain.PostStatusFailed
			n++
		}
	}
	return n, nil
}

// memLocker — замок в памяти с честной set-if-absent семантикой.
type memLocker struct {
	mu       sync.Mutex
	held     bool
	token    string
	denyAll  bool
	acquires int
	releases int

	acquireErr error
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl time.Duration, now time.Time) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.acquires++
	if l.acquireErr != nil {
		return "", false, l.acquireErr
	}
	if l.denyAll || l.held {
		return "", false, nil
	}
	l.held = true
	l.token = uuid.New().String()
	return l.token, true, nil
}

func (l *memLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.releases++
	if l.held && l.token == token {
		l.held = false
	}
	return nil
}

// permissiveLocker выдаёт замок всем — имитирует окно после истечения
// TTL, когда два процесса одновременно считают себя держателями.
type permissiveLocker struct{}

func (permissiveLocker) Acquire(ctx context.Context, key string, ttl time.Duration, now time.Time) (string, bool, error) {
	return uuid.New().String(), true, nil
}

func (permissiveLocker) Release(ctx context.Context, key, token string) error {
	return nil
}

// memBackend — delivery backend в памяти.
type memBackend struct {
	mu    sync.Mutex
	calls []uuid.UUID
	opts  []delivery.Options

	errFor map[uuid.UUID]error

	// block, если не nil, задерживает каждый Dispatch до закрытия канала.
	block chan struct{}
}

func (b *memBackend) Dispatch(ctx context.Context, publicationID uuid.UUID, opts delivery.Options) error {
	if b.block != nil {
		<-b.block
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, publicationID)
	b.opts = append(b.opts, opts)

	if err, ok := b.errFor[publicationID]; ok {
		return err
	}
	return nil
}

func (b *memBackend) callCount(id uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.calls {
		if c == id {
			n++
		}
	}
	return n
}

// memHook копит события просрочки.
type memHook struct {
	mu     sync.Mutex
	events []domain.PublicationExpired
	err    error
}

func (h *memHook) PublicationExpired(ctx context.Context, ev domain.PublicationExpired) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, ev)
	return h.err
}

// failingHook всегда возвращает ошибку.
type failingHook struct{}

func (failingHook) PublicationExpired(ctx context.Context, ev domain.PublicationExpired) error {
	return fmt.Errorf("notification sink unavailable")
}

func timePtr(t time.Time) *time.Time {
	return &t
}
