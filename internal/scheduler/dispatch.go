package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Emissary/internal/delivery"
	"github.com/shaiso/Emissary/internal/telemetry"
)

// dispatchAll прогоняет due-публикации через claim + dispatch.
//
// Цикл строго последовательный и ждёт завершения каждого dispatch
// перед захватом следующего кандидата — только так порядок
// scheduled_at/created_at доезжает до backend end-to-end.
// Распараллеливание здесь перемешало бы многосерийный контент
// при разной латентности backend.
//
// Ошибка одного кандидата логируется и не прерывает цикл:
// плохая публикация не должна блокировать чужую due-работу.
func (s *Scheduler) dispatchAll(ctx context.Context, due []uuid.UUID, now time.Time) int {
	if len(due) == 0 {
		return 0
	}

	s.logger.Debug("found due publications", "count", len(due))

	triggered := 0
	for _, id := range due {
		ok, err := s.claimAndDispatch(ctx, id, now)
		if err != nil {
			s.logger.Error("failed to dispatch publication",
				"publication_id", id,
				"error", err,
			)
			telemetry.DispatchFailuresTotal.Inc()
			continue
		}
		if ok {
			triggered++
		}
	}

	telemetry.TriggeredPublicationsTotal.Add(float64(triggered))
	return triggered
}

// claimAndDispatch обрабатывает одного кандидата.
//
// Claim — единственный разрешённый способ перевести публикацию
// в PROCESSING. Ноль затронутых строк означает, что публикацию
// уже захватил другой процесс (или её статус сменила авторская
// подсистема) — кандидат молча пропускается.
//
// После успешного claim backend вызывается синхронно с skip_lock:
// повторную проверку расписания он делать не должен, захват уже
// выполнен здесь. При ошибке dispatch публикация остаётся
// в PROCESSING; её судьбу решает reconciliation самого backend,
// ядро её повторно не захватывает (claim требует SCHEDULED).
func (s *Scheduler) claimAndDispatch(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	claimed, err := s.pubStore.Claim(ctx, id, now)
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}
	if !claimed {
		s.logger.Debug("claim lost, publication taken elsewhere", "publication_id", id)
		return false, nil
	}

	if err := s.backend.Dispatch(ctx, id, delivery.Options{SkipLock: true}); err != nil {
		return false, fmt.Errorf("dispatch: %w", err)
	}

	s.logger.Info("publication dispatched", "publication_id", id)
	return true, nil
}
