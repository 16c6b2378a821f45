package main

import (
	"context"
	"log/slog"

	"github.com/shaiso/Emissary/internal/mq"
	"github.com/shaiso/Emissary/internal/scheduler"
)

// eventedRunner оборачивает PassRunner и публикует сводку каждого
// выполненного прохода в очередь событий. Пропущенные проходы
// не публикуются — они не несут информации о работе.
type eventedRunner struct {
	inner    scheduler.PassRunner
	notifier *mq.Notifier
	logger   *slog.Logger
}

func (r *eventedRunner) RunNow(ctx context.Context) (scheduler.RunResult, error) {
	result, err := r.inner.RunNow(ctx)
	if err != nil || result.Skipped {
		return result, err
	}

	if pubErr := r.notifier.PublishPassCompleted(ctx, result); pubErr != nil {
		r.logger.Warn("failed to publish pass.completed", "error", pubErr)
	}

	return result, err
}
