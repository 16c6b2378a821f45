package scheduler

import (
	"context"
	"fmt"

	"github.com/shaiso/Emissary/internal/telemetry"
)

// sweep переводит просроченную работу в терминальные статусы.
//
// Порядок: сначала публикации (SCHEDULED → EXPIRED), затем посты
// (PENDING → FAILED("EXPIRED")). Batch-update без optimistic-проверок:
// просрочка идемпотентна, повторный sweep этих строк уже не увидит.
//
// Возвращает счётчики, накопленные до первой ошибки: если публикации
// просрочены, а update постов упал, счётчик публикаций сохраняется
// в результате прохода.
func (s *Scheduler) sweep(ctx context.Context, win Window) (int, int64, error) {
	expired, err := s.pubStore.ExpireScheduledBefore(ctx, win.ExpiryCutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("expire publications: %w", err)
	}

	if len(expired) > 0 {
		s.logger.Info("expired overdue publications",
			"count", len(expired),
			"cutoff", win.ExpiryCutoff,
		)
		telemetry.ExpiredPublicationsTotal.Add(float64(len(expired)))

		// Уведомления — после перехода и вне его: сбой хука
		// логируется и не откатывает просрочку.
		for _, ev := range expired {
			s.fireExpiryHooks(ctx, ev)
		}
	}

	expiredPosts, err := s.postStore.FailPendingBefore(ctx, win.ExpiryCutoff)
	if err != nil {
		return len(expired), 0, fmt.Errorf("fail pending posts: %w", err)
	}

	if expiredPosts > 0 {
		s.logger.Info("failed overdue posts",
			"count", expiredPosts,
			"cutoff", win.ExpiryCutoff,
		)
		telemetry.ExpiredPostsTotal.Add(float64(expiredPosts))
	}

	return len(expired), expiredPosts, nil
}
