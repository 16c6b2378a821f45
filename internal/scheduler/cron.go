package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// passCronParser — парсер cron-выражений расписания проходов.
var passCronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParsePassSchedule парсит cron-выражение расписания проходов.
func ParsePassSchedule(expr string) (cron.Schedule, error) {
	schedule, err := passCronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse pass schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// ValidatePassSchedule проверяет валидность cron-выражения.
func ValidatePassSchedule(expr string) error {
	_, err := ParsePassSchedule(expr)
	return err
}

// PassRunner — точка запуска одного прохода. Реализуется Scheduler
// и декораторами вокруг него.
type PassRunner interface {
	RunNow(ctx context.Context) (RunResult, error)
}

// Runner периодически запускает RunNow по cron-расписанию.
//
// Ошибка отдельного прохода логируется, цикл продолжается:
// мониторинг сбоев — через метрики и лог, не через остановку сервиса.
// Наложение тиков безопасно: RunNow сам отсекает повторный вход
// busy-флагом.
type Runner struct {
	scheduler PassRunner
	schedule  cron.Schedule
	logger    *slog.Logger
}

// NewRunner создаёт Runner с заданным cron-выражением.
func NewRunner(s PassRunner, expr string, logger *slog.Logger) (*Runner, error) {
	schedule, err := ParsePassSchedule(expr)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		scheduler: s,
		schedule:  schedule,
		logger:    logger,
	}, nil
}

// Run крутит цикл проходов до отмены контекста.
func (r *Runner) Run(ctx context.Context) error {
	for {
		now := time.Now()
		next := r.schedule.Next(now)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := r.scheduler.RunNow(ctx); err != nil {
			r.logger.Error("scheduling pass failed", "error", err)
		}
	}
}
