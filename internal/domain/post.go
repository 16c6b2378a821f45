package domain

import (
	"time"

	"github.com/google/uuid"
)

// Post — одно плечо доставки публикации в конкретный канал.
//
// У публикации может быть несколько постов (по одному на канал).
// Пост наследует время публикации от родителя, если своё не задано.
type Post struct {
	// ID — уникальный идентификатор поста.
	ID uuid.UUID `json:"id"`

	// PublicationID — родительская публикация.
	PublicationID uuid.UUID `json:"publication_id"`

	// ChannelID — канал доставки.
	ChannelID uuid.UUID `json:"channel_id"`

	// Status — текущий статус.
	Status PostStatus `json:"status"`

	// ScheduledAt — собственное время доставки поста.
	// Nil — используется scheduled_at публикации.
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	// PublishedAt — фактическое время доставки.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// ErrorMessage — текст ошибки доставки (или "EXPIRED" от sweeper).
	ErrorMessage string `json:"error_message,omitempty"`

	// CreatedAt — время создания; вторичный ключ порядка доставки.
	CreatedAt time.Time `json:"created_at"`
}

// EffectiveScheduledAt возвращает действующее время доставки поста:
// собственное ScheduledAt либо время родительской публикации.
// Возвращает nil, если не задано ни то, ни другое.
func (p *Post) EffectiveScheduledAt(parent *Publication) *time.Time {
	if p.ScheduledAt != nil {
		return p.ScheduledAt
	}
	if parent != nil {
		return parent.ScheduledAt
	}
	return nil
}

// MarkPublished переводит пост в PUBLISHED.
func (p *Post) MarkPublished(now time.Time) {
	p.Status = PostStatusPublished
	p.PublishedAt = &now
	p.ErrorMessage = ""
}

// MarkFailed переводит пост в FAILED с текстом ошибки.
func (p *Post) MarkFailed(errMsg string) {
	p.Status = PostStatusFailed
	p.ErrorMessage = errMsg
}
