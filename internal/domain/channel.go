package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel — внешнее назначение доставки (аккаунт соцсети, мессенджер).
//
// Планировщик смотрит только на Active и ArchivedAt: посты в неактивные
// или архивные каналы sweeper не просрочивает (они заморожены вместе
// с каналом).
type Channel struct {
	// ID — уникальный идентификатор канала.
	ID uuid.UUID `json:"id"`

	// ProjectID — проект-владелец канала.
	ProjectID uuid.UUID `json:"project_id"`

	// Name — отображаемое имя канала.
	Name string `json:"name"`

	// Active — канал подключён и принимает доставку.
	Active bool `json:"active"`

	// ArchivedAt — время архивации канала.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`
}

// IsDeliverable возвращает true, если в канал можно доставлять.
func (c *Channel) IsDeliverable() bool {
	return c.Active && c.ArchivedAt == nil
}
