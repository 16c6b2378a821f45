package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Emissary/internal/domain"
)

// testScheduler собирает Scheduler поверх in-memory фейков
// с фиксированным "сейчас".
func testScheduler(store *memStore, locker Locker, backend *memBackend, now time.Time, hooks ...ExpiryHook) *Scheduler {
	return New(Config{
		PublicationStore: store,
		PostStore:        store,
		Locker:           locker,
		Backend:          backend,
		Hooks:            hooks,
		Lookback:         3 * time.Hour,
		Now:              func() time.Time { return now },
	})
}

func TestRunNow_LockNotAcquired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-time.Hour)), now.Add(-2*time.Hour))

	locker := &memLocker{denyAll: true}
	backend := &memBackend{}
	s := testScheduler(store, locker, backend, now)

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Skipped {
		t.Error("pass should be skipped when the lock is held elsewhere")
	}
	if result.Reason != ReasonLockNotAcquired {
		t.Errorf("expected reason %q, got %q", ReasonLockNotAcquired, result.Reason)
	}
	if result.TriggeredPublications != 0 || result.ExpiredPublications != 0 {
		t.Errorf("skipped pass must not report work: %+v", result)
	}

	// The due publication was not touched.
	if store.pubs[0].status != domain.PublicationStatusScheduled {
		t.Errorf("publication must stay SCHEDULED, got %s", store.pubs[0].status)
	}
	if len(backend.calls) != 0 {
		t.Errorf("backend must not be called, got %d calls", len(backend.calls))
	}
}

func TestRunNow_LockAcquireError(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	locker := &memLocker{acquireErr: errors.New("store unreachable")}
	s := testScheduler(&memStore{}, locker, &memBackend{}, now)

	_, err := s.RunNow(context.Background())
	if err == nil {
		t.Fatal("expected error when the lock store is unreachable")
	}
}

// Lookback 3h, now 12:00. A scheduled 08:00 expires, B scheduled 11:00
// is claimed and dispatched, C scheduled 13:00 is untouched.
func TestRunNow_FullPass(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}

	pubA := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-4*time.Hour)), now.Add(-5*time.Hour))
	pubB := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-time.Hour)), now.Add(-2*time.Hour))
	pubC := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(time.Hour)), now.Add(-time.Hour))

	locker := &memLocker{}
	backend := &memBackend{}
	hook := &memHook{}
	s := testScheduler(store, locker, backend, now, hook)

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Skipped {
		t.Fatal("pass should not be skipped")
	}
	if result.ExpiredPublications != 1 {
		t.Errorf("expected 1 expired publication, got %d", result.ExpiredPublications)
	}
	if result.TriggeredPublications != 1 {
		t.Errorf("expected 1 triggered publication, got %d", result.TriggeredPublications)
	}

	if pubA.status != domain.PublicationStatusExpired {
		t.Errorf("A must be EXPIRED, got %s", pubA.status)
	}
	if pubB.status != domain.PublicationStatusProcessing {
		t.Errorf("B must be PROCESSING after claim, got %s", pubB.status)
	}
	if pubC.status != domain.PublicationStatusScheduled {
		t.Errorf("C must stay SCHEDULED, got %s", pubC.status)
	}

	if len(backend.calls) != 1 || backend.calls[0] != pubB.id {
		t.Errorf("backend must be called exactly once with B, got %v", backend.calls)
	}
	if len(backend.opts) != 1 || !backend.opts[0].SkipLock {
		t.Error("dispatch must pass skip_lock: the claim was already performed here")
	}

	// The owner of A was notified through the hook.
	if len(hook.events) != 1 || hook.events[0].PublicationID != pubA.id {
		t.Errorf("expected one expiry event for A, got %v", hook.events)
	}

	if locker.releases != 1 {
		t.Errorf("lock must be released once, got %d", locker.releases)
	}
}

func TestRunNow_ExpiryAndDueBoundaries(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-3 * time.Hour)
	store := &memStore{}

	// Exactly at the cutoff: NOT expired (strict less-than)...
	atCutoff := store.addPub(domain.PublicationStatusScheduled, timePtr(cutoff), cutoff.Add(-time.Hour))
	// ...and exactly at now: IS due (less-than-or-equal).
	atNow := store.addPub(domain.PublicationStatusScheduled, timePtr(now), now.Add(-time.Hour))

	backend := &memBackend{}
	s := testScheduler(store, &memLocker{}, backend, now)

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ExpiredPublications != 0 {
		t.Errorf("scheduledAt == cutoff must not expire, got %d expired", result.ExpiredPublications)
	}
	if atCutoff.status == domain.PublicationStatusExpired {
		t.Error("publication at the cutoff boundary must not be expired")
	}

	if backend.callCount(atNow.id) != 1 {
		t.Error("publication with scheduledAt == now must be dispatched")
	}
	// atCutoff is also due (cutoff < now), so both were triggered.
	if result.TriggeredPublications != 2 {
		t.Errorf("expected 2 triggered, got %d", result.TriggeredPublications)
	}
}

func TestRunNow_DispatchOrderIsAuthoringOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC)
	store := &memStore{}

	// P2 is added to the store first, but P1 is scheduled earlier:
	// dispatch order must follow scheduledAt, not insertion order.
	p2 := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-4*time.Minute)), now.Add(-time.Hour))
	p1 := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-5*time.Minute)), now.Add(-time.Hour))

	// Same scheduledAt: created_at breaks the tie.
	p3 := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-4*time.Minute)), now.Add(-30*time.Minute))

	backend := &memBackend{}
	s := testScheduler(store, &memLocker{}, backend, now)

	if _, err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []uuid.UUID{p1.id, p2.id, p3.id}
	if len(backend.calls) != len(want) {
		t.Fatalf("expected %d dispatches, got %d", len(want), len(backend.calls))
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Fatalf("dispatch order broken at %d: got %v, want %v", i, backend.calls, want)
		}
	}
}

func TestRunNow_DispatchErrorDoesNotAbortPass(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}

	p1 := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-3*time.Minute)), now.Add(-time.Hour))
	p2 := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-2*time.Minute)), now.Add(-time.Hour))
	p3 := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-time.Minute)), now.Add(-time.Hour))

	backend := &memBackend{errFor: map[uuid.UUID]error{p2.id: errors.New("backend exploded")}}
	locker := &memLocker{}
	s := testScheduler(store, locker, backend, now)

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("per-candidate failure must not fail the pass: %v", err)
	}

	// All three candidates were attempted, two succeeded.
	if len(backend.calls) != 3 {
		t.Errorf("expected 3 dispatch attempts, got %d", len(backend.calls))
	}
	if result.TriggeredPublications != 2 {
		t.Errorf("expected 2 successful triggers, got %d", result.TriggeredPublications)
	}

	// The failed one stays PROCESSING: reconciliation is the backend's job.
	if p2.status != domain.PublicationStatusProcessing {
		t.Errorf("failed candidate must stay PROCESSING, got %s", p2.status)
	}
	if p1.status != domain.PublicationStatusProcessing || p3.status != domain.PublicationStatusProcessing {
		t.Error("unrelated candidates must still be processed")
	}
	if locker.releases != 1 {
		t.Errorf("lock must be released, got %d releases", locker.releases)
	}
}

func TestRunNow_ClaimLostIsSilentSkip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}

	// Already PROCESSING: selection raced against another scheduler.
	taken := store.addPub(domain.PublicationStatusProcessing, timePtr(now.Add(-time.Minute)), now.Add(-time.Hour))
	free := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-time.Minute)), now.Add(-time.Hour))
	store.dueOverride = []uuid.UUID{taken.id, free.id}

	backend := &memBackend{}
	s := testScheduler(store, &memLocker{}, backend, now)

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("claim loss is not an error: %v", err)
	}

	if backend.callCount(taken.id) != 0 {
		t.Error("lost claim must not reach the backend")
	}
	if backend.callCount(free.id) != 1 {
		t.Error("remaining candidate must still be dispatched")
	}
	if result.TriggeredPublications != 1 {
		t.Errorf("expected 1 trigger, got %d", result.TriggeredPublications)
	}
}

func TestRunNow_ProcessingIsNeverReclaimed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}

	pub := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-time.Minute)), now.Add(-time.Hour))
	backend := &memBackend{errFor: map[uuid.UUID]error{pub.id: errors.New("backend down")}}
	s := testScheduler(store, &memLocker{}, backend, now)

	// First pass claims and fails dispatch: publication stuck PROCESSING.
	if _, err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.status != domain.PublicationStatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", pub.status)
	}

	// Second pass: the claim predicate requires SCHEDULED, nothing happens.
	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.callCount(pub.id) != 1 {
		t.Errorf("stuck PROCESSING publication must not be re-dispatched, got %d calls", backend.callCount(pub.id))
	}
	if result.TriggeredPublications != 0 {
		t.Errorf("expected 0 triggers on the second pass, got %d", result.TriggeredPublications)
	}
}

func TestRunNow_SweepErrorStillReleasesLock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{expireErr: errors.New("db unreachable")}
	locker := &memLocker{}
	backend := &memBackend{}
	s := testScheduler(store, locker, backend, now)

	result, err := s.RunNow(context.Background())
	if err == nil {
		t.Fatal("pass-level failure must be surfaced to the caller")
	}

	if locker.releases != 1 {
		t.Errorf("lock must be released even when the pass fails, got %d releases", locker.releases)
	}
	if result.Skipped {
		t.Error("a failed pass is not a skipped pass")
	}
	if len(backend.calls) != 0 {
		t.Error("nothing must be dispatched after a sweep failure")
	}
}

func TestRunNow_SelectErrorKeepsSweepCounts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{listDueErr: errors.New("db unreachable")}
	store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-4*time.Hour)), now.Add(-5*time.Hour))

	locker := &memLocker{}
	s := testScheduler(store, locker, &memBackend{}, now)

	result, err := s.RunNow(context.Background())
	if err == nil {
		t.Fatal("expected selection error")
	}

	// The sweep already ran; its counts survive in the result.
	if result.ExpiredPublications != 1 {
		t.Errorf("expected accumulated expiry count 1, got %d", result.ExpiredPublications)
	}
	if locker.releases != 1 {
		t.Errorf("lock must be released, got %d releases", locker.releases)
	}
}

func TestRunNow_ReentrantInvocationSkips(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-time.Minute)), now.Add(-time.Hour))

	block := make(chan struct{})
	backend := &memBackend{block: block}
	s := testScheduler(store, &memLocker{}, backend, now)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.RunNow(context.Background())
	}()

	// Wait until the first pass is inside dispatch.
	deadline := time.After(2 * time.Second)
	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first pass never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Skipped || result.Reason != ReasonPassInProgress {
		t.Errorf("overlapping invocation must be skipped locally, got %+v", result)
	}

	close(block)
	wg.Wait()
}

func TestRunNow_HookFailureIsIsolated(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	pub := store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-4*time.Hour)), now.Add(-5*time.Hour))

	after := &memHook{}
	s := testScheduler(store, &memLocker{}, &memBackend{}, now, failingHook{}, after)

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("hook failure must never surface: %v", err)
	}

	if result.ExpiredPublications != 1 {
		t.Errorf("expiry must not be rolled back by a hook failure, got %d", result.ExpiredPublications)
	}
	// The hook after the failing one still ran.
	if len(after.events) != 1 || after.events[0].PublicationID != pub.id {
		t.Errorf("subsequent hooks must still fire, got %v", after.events)
	}
}

func TestRunNow_ExpiredPostsCounted(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	pub := store.addPub(domain.PublicationStatusProcessing, nil, now.Add(-5*time.Hour))

	store.posts = append(store.posts,
		&memPost{publicationID: pub.id, status: domain.PostStatusPending, effectiveAt: timePtr(now.Add(-4 * time.Hour))},
		&memPost{publicationID: pub.id, status: domain.PostStatusPending, effectiveAt: timePtr(now.Add(-time.Minute))},
	)

	s := testScheduler(store, &memLocker{}, &memBackend{}, now)

	result, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ExpiredPosts != 1 {
		t.Errorf("only the post beyond the cutoff expires, got %d", result.ExpiredPosts)
	}
	if store.posts[0].status != domain.PostStatusFailed {
		t.Errorf("overdue post must be FAILED, got %s", store.posts[0].status)
	}
	if store.posts[1].status != domain.PostStatusPending {
		t.Errorf("recent post must stay PENDING, got %s", store.posts[1].status)
	}
}

func TestRunNow_SweepIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}
	store.addPub(domain.PublicationStatusScheduled, timePtr(now.Add(-4*time.Hour)), now.Add(-5*time.Hour))

	hook := &memHook{}
	s := testScheduler(store, &memLocker{}, &memBackend{}, now, hook)

	first, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ExpiredPublications != 1 {
		t.Errorf("first sweep expires once, got %d", first.ExpiredPublications)
	}
	if second.ExpiredPublications != 0 {
		t.Errorf("repeated sweep must be a no-op, got %d", second.ExpiredPublications)
	}
	if len(hook.events) != 1 {
		t.Errorf("expiry notification must be emitted exactly once, got %d", len(hook.events))
	}
}

// Two schedulers share the store while both hold "the lock"
// (the TTL-expiry window). The conditional claim still guarantees
// every publication is dispatched exactly once.
func TestConcurrentSchedulers_ClaimExactlyOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{}

	var ids []uuid.UUID
	for i := 0; i < 20; i++ {
		p := store.addPub(domain.PublicationStatusScheduled,
			timePtr(now.Add(-time.Duration(i+1)*time.Minute)), now.Add(-time.Hour))
		ids = append(ids, p.id)
	}

	backend := &memBackend{}
	s1 := testScheduler(store, permissiveLocker{}, backend, now)
	s2 := testScheduler(store, permissiveLocker{}, backend, now)

	var wg sync.WaitGroup
	for _, s := range []*Scheduler{s1, s2} {
		wg.Add(1)
		go func(s *Scheduler) {
			defer wg.Done()
			if _, err := s.RunNow(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(s)
	}
	wg.Wait()

	for _, id := range ids {
		if n := backend.callCount(id); n != 1 {
			t.Errorf("publication %s dispatched %d times, want exactly 1", id, n)
		}
	}
}
