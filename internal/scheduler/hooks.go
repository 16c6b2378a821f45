package scheduler

import (
	"context"

	"github.com/shaiso/Emissary/internal/domain"
)

// ExpiryHook — хук, вызываемый после перевода публикации в EXPIRED.
//
// Хуки выполняются по порядку регистрации, каждый изолирован:
// ошибка одного логируется и не мешает ни остальным хукам,
// ни самому проходу. Побочные эффекты (уведомления владельцу)
// живут здесь, а не внутри sweep-цикла.
type ExpiryHook interface {
	PublicationExpired(ctx context.Context, ev domain.PublicationExpired) error
}

// ExpiryHookFunc — адаптер функции под ExpiryHook.
type ExpiryHookFunc func(ctx context.Context, ev domain.PublicationExpired) error

// PublicationExpired вызывает f.
func (f ExpiryHookFunc) PublicationExpired(ctx context.Context, ev domain.PublicationExpired) error {
	return f(ctx, ev)
}

// fireExpiryHooks запускает все хуки для одного события. Best-effort.
func (s *Scheduler) fireExpiryHooks(ctx context.Context, ev domain.PublicationExpired) {
	for _, h := range s.hooks {
		if err := h.PublicationExpired(ctx, ev); err != nil {
			s.logger.Warn("expiry hook failed",
				"publication_id", ev.PublicationID,
				"owner_id", ev.OwnerID,
				"error", err,
			)
		}
	}
}
