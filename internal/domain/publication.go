package domain

import (
	"time"

	"github.com/google/uuid"
)

// Publication — единица контента, запланированная к доставке
// в один или несколько каналов.
//
// Публикация создаётся авторской подсистемой в DRAFT, переводится
// в SCHEDULED с заполненным ScheduledAt, после чего её судьбой
// распоряжается планировщик: захват (PROCESSING), доставка через
// delivery backend или просрочка (EXPIRED).
type Publication struct {
	// ID — уникальный идентификатор публикации.
	ID uuid.UUID `json:"id"`

	// ProjectID — проект, которому принадлежит публикация.
	ProjectID uuid.UUID `json:"project_id"`

	// OwnerID — автор публикации; получатель уведомлений о просрочке.
	OwnerID uuid.UUID `json:"owner_id"`

	// Status — текущий статус.
	Status PublicationStatus `json:"status"`

	// ScheduledAt — плановое время доставки.
	// Nil для DRAFT/READY без расписания.
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`

	// ProcessingStartedAt — время захвата планировщиком.
	// Выставляется только атомарным claim.
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`

	// ArchivedAt — время архивации. Архивные публикации планировщик
	// не трогает: не просрочивает и не отправляет.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`

	// CreatedAt — время создания; вторичный ключ сортировки
	// при выборке due-публикаций.
	CreatedAt time.Time `json:"created_at"`
}

// IsArchived возвращает true, если публикация в архиве.
func (p *Publication) IsArchived() bool {
	return p.ArchivedAt != nil
}

// EffectiveAt — производное отображаемое время публикации:
// max(время последнего опубликованного поста, scheduled_at, created_at).
// latestPublished передаётся снаружи (агрегат по постам).
func (p *Publication) EffectiveAt(latestPublished *time.Time) time.Time {
	eff := p.CreatedAt
	if p.ScheduledAt != nil && p.ScheduledAt.After(eff) {
		eff = *p.ScheduledAt
	}
	if latestPublished != nil && latestPublished.After(eff) {
		eff = *latestPublished
	}
	return eff
}

// MarkProcessing переводит публикацию в PROCESSING локально
// (в памяти). Персистентный переход делает только conditional update
// в репозитории; метод нужен, чтобы доменный объект отражал уже
// выполненный claim.
func (p *Publication) MarkProcessing(now time.Time) {
	p.Status = PublicationStatusProcessing
	p.ProcessingStartedAt = &now
}

// PublicationExpired — событие о просроченной публикации.
// Передаётся в post-transition hooks после sweep.
type PublicationExpired struct {
	// PublicationID — просроченная публикация.
	PublicationID uuid.UUID `json:"publication_id"`

	// OwnerID — кому отправить уведомление.
	OwnerID uuid.UUID `json:"owner_id"`

	// ScheduledAt — на когда публикация была запланирована.
	ScheduledAt time.Time `json:"scheduled_at"`
}
