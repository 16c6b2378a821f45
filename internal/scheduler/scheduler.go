package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Emissary/internal/delivery"
	"github.com/shaiso/Emissary/internal/domain"
	"github.com/shaiso/Emissary/internal/telemetry"
)

// Default configuration values.
const (
	// defaultLockTTL должен превышать худшую длительность прохода:
	// замок упавшего держателя истекает сам, не оставляя deadlock.
	defaultLockTTL = 10 * time.Minute

	// defaultLookback — окно терпимости к опозданию доставки.
	defaultLookback = 60 * time.Minute

	// defaultLockKey — имя замка прохода, общее для всех экземпляров.
	defaultLockKey = "scheduler:pass"
)

// Причины пропуска прохода.
const (
	// ReasonLockNotAcquired — замок держит другой процесс.
	ReasonLockNotAcquired = "lock_not_acquired"

	// ReasonPassInProgress — проход ещё идёт в этом же процессе.
	ReasonPassInProgress = "pass_in_progress"
)

// PublicationStore — операции над публикациями, нужные ядру.
type PublicationStore interface {
	// ExpireScheduledBefore переводит просроченные SCHEDULED-публикации
	// в EXPIRED и возвращает события для уведомлений.
	ExpireScheduledBefore(ctx context.Context, cutoff time.Time) ([]domain.PublicationExpired, error)

	// ListDue возвращает ID due-публикаций в порядке
	// scheduled_at ASC, created_at ASC.
	ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// Claim атомарно захватывает публикацию (SCHEDULED → PROCESSING).
	// false без ошибки — гонка проиграна другому процессу.
	Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// PostStore — операции над постами, нужные ядру.
type PostStore interface {
	// FailPendingBefore переводит просроченные PENDING-посты
	// в FAILED("EXPIRED") и возвращает их количество.
	FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Locker — распределённый замок с TTL.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration, now time.Time) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// RunResult — сводка одного прохода. Живёт только в памяти вызова:
// нужна наблюдаемости и тестам, в БД не сохраняется.
type RunResult struct {
	// Skipped — проход не выполнялся (замок или busy-флаг).
	Skipped bool `json:"skipped"`

	// Reason — причина пропуска (заполнена при Skipped).
	Reason string `json:"reason,omitempty"`

	// ExpiredPublications — публикаций переведено в EXPIRED.
	ExpiredPublications int `json:"expired_publications"`

	// ExpiredPosts — постов переведено в FAILED("EXPIRED").
	ExpiredPosts int64 `json:"expired_posts"`

	// TriggeredPublications — публикаций захвачено и успешно
	// отправлено в delivery backend.
	TriggeredPublications int `json:"triggered_publications"`
}

// Scheduler — Run Coordinator: владеет полным циклом одного прохода.
type Scheduler struct {
	pubStore  PublicationStore
	postStore PostStore
	locker    Locker
	backend   delivery.Backend
	hooks     []ExpiryHook

	lockKey  string
	lockTTL  time.Duration
	lookback time.Duration

	// nowFn фиксирует "сейчас" один раз на проход.
	nowFn func() time.Time

	logger *slog.Logger

	// busy-флаг защищает от повторного входа внутри процесса,
	// не обращаясь к общему хранилищу. Пересечение между процессами
	// исключает распределённый замок.
	mu      sync.Mutex
	running bool
}

// Config — конфигурация Scheduler.
type Config struct {
	PublicationStore PublicationStore
	PostStore        PostStore
	Locker           Locker
	Backend          delivery.Backend

	// Hooks — best-effort хуки по просроченным публикациям
	// (уведомления владельцам). Ошибки хуков не прерывают проход.
	Hooks []ExpiryHook

	LockKey  string        // имя замка (default: "scheduler:pass")
	LockTTL  time.Duration // TTL замка (default: 10m)
	Lookback time.Duration // окно просрочки (default: 60m)

	// Now — источник времени (default: time.Now). Подменяется в тестах.
	Now func() time.Time

	Logger *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	lockKey := cfg.LockKey
	if lockKey == "" {
		lockKey = defaultLockKey
	}

	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}

	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		pubStore:  cfg.PublicationStore,
		postStore: cfg.PostStore,
		locker:    cfg.Locker,
		backend:   cfg.Backend,
		hooks:     cfg.Hooks,
		lockKey:   lockKey,
		lockTTL:   lockTTL,
		lookback:  lookback,
		nowFn:     nowFn,
		logger:    logger,
	}
}

// RunNow выполняет один полный проход планировщика.
//
// Идемпотентная точка входа: вызывается периодически по расписанию
// или по требованию оператора. Порядок шагов фиксирован:
//
//  1. busy-флаг (повторный вход в этом процессе → skipped)
//  2. distributed lock (замок занят → skipped, это не ошибка)
//  3. sweep: сначала просрочить, потом выбирать — множества disjoint
//  4. select due
//  5. claim + dispatch, строго последовательно
//  6. unlock — гарантированно, даже при ошибке шага 3–5
//
// Ошибка уровня прохода возвращается вызывающему после снятия замка
// вместе с накопленными к этому моменту счётчиками.
func (s *Scheduler) RunNow(ctx context.Context) (RunResult, error) {
	if !s.tryBegin() {
		s.logger.Debug("pass already in progress, skipping")
		telemetry.PassesTotal.WithLabelValues(telemetry.PassSkipped).Inc()
		return RunResult{Skipped: true, Reason: ReasonPassInProgress}, nil
	}
	defer s.end()

	now := s.nowFn()

	token, ok, err := s.locker.Acquire(ctx, s.lockKey, s.lockTTL, now)
	if err != nil {
		telemetry.PassesTotal.WithLabelValues(telemetry.PassFailed).Inc()
		return RunResult{}, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	if !ok {
		// Другой экземпляр уже ведёт проход. Не повторяем в рамках
		// этого вызова — следующий тик попробует снова.
		s.logger.Debug("scheduler lock held elsewhere, skipping pass")
		telemetry.PassesTotal.WithLabelValues(telemetry.PassSkipped).Inc()
		return RunResult{Skipped: true, Reason: ReasonLockNotAcquired}, nil
	}

	start := time.Now()
	result, passErr := s.pass(ctx, now)

	// Замок снимается всегда, в том числе после ошибки прохода:
	// держать его до истечения TTL после временного сбоя нельзя.
	if err := s.locker.Release(ctx, s.lockKey, token); err != nil {
		s.logger.Warn("failed to release scheduler lock",
			"lock_key", s.lockKey,
			"error", err,
		)
	}

	telemetry.PassDuration.Observe(time.Since(start).Seconds())

	if passErr != nil {
		telemetry.PassesTotal.WithLabelValues(telemetry.PassFailed).Inc()
		return result, passErr
	}

	telemetry.PassesTotal.WithLabelValues(telemetry.PassCompleted).Inc()
	s.logger.Info("scheduling pass completed",
		"expired_publications", result.ExpiredPublications,
		"expired_posts", result.ExpiredPosts,
		"triggered_publications", result.TriggeredPublications,
	)
	return result, nil
}

// pass выполняет шаги sweep → select → dispatch под уже взятым замком.
func (s *Scheduler) pass(ctx context.Context, now time.Time) (RunResult, error) {
	var result RunResult

	win := ComputeWindow(now, s.lookback)

	// Sweep выполняется безусловно на каждом проходе, до выборки:
	// сначала просрочить, потом рассматривать к отправке.
	expiredPubs, expiredPosts, err := s.sweep(ctx, win)
	result.ExpiredPublications = expiredPubs
	result.ExpiredPosts = expiredPosts
	if err != nil {
		return result, fmt.Errorf("sweep: %w", err)
	}

	due, err := s.pubStore.ListDue(ctx, win.Now)
	if err != nil {
		return result, fmt.Errorf("select due publications: %w", err)
	}

	result.TriggeredPublications = s.dispatchAll(ctx, due, win.Now)
	return result, nil
}

// tryBegin взводит busy-флаг. false — проход уже идёт.
func (s *Scheduler) tryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
