package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Emissary/internal/domain"
	"github.com/shaiso/Emissary/internal/scheduler"
)

// Pass DTOs

// PassResponse — сводка прохода планировщика.
type PassResponse struct {
	Skipped               bool   `json:"skipped"`
	Reason                string `json:"reason,omitempty"`
	ExpiredPublications   int    `json:"expired_publications"`
	ExpiredPosts          int64  `json:"expired_posts"`
	TriggeredPublications int    `json:"triggered_publications"`
}

// PassFromResult конвертирует scheduler.RunResult в PassResponse.
func PassFromResult(r scheduler.RunResult) PassResponse {
	return PassResponse{
		Skipped:               r.Skipped,
		Reason:                r.Reason,
		ExpiredPublications:   r.ExpiredPublications,
		ExpiredPosts:          r.ExpiredPosts,
		TriggeredPublications: r.TriggeredPublications,
	}
}

// Publication DTOs

// PublicationResponse — ответ с публикацией.
type PublicationResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ProjectID           uuid.UUID  `json:"project_id"`
	OwnerID             uuid.UUID  `json:"owner_id"`
	Status              string     `json:"status"`
	ScheduledAt         *time.Time `json:"scheduled_at,omitempty"`
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	ArchivedAt          *time.Time `json:"archived_at,omitempty"`
	EffectiveAt         time.Time  `json:"effective_at"`
	CreatedAt           time.Time  `json:"created_at"`
}

// PublicationFromDomain конвертирует domain.Publication в PublicationResponse.
func PublicationFromDomain(p *domain.Publication, effectiveAt time.Time) PublicationResponse {
	return PublicationResponse{
		ID:                  p.ID,
		ProjectID:           p.ProjectID,
		OwnerID:             p.OwnerID,
		Status:              string(p.Status),
		ScheduledAt:         p.ScheduledAt,
		ProcessingStartedAt: p.ProcessingStartedAt,
		ArchivedAt:          p.ArchivedAt,
		EffectiveAt:         effectiveAt,
		CreatedAt:           p.CreatedAt,
	}
}

// Post DTOs

// PostResponse — ответ с постом.
type PostResponse struct {
	ID            uuid.UUID  `json:"id"`
	PublicationID uuid.UUID  `json:"publication_id"`
	ChannelID     uuid.UUID  `json:"channel_id"`
	Status        string     `json:"status"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// PostFromDomain конвертирует domain.Post в PostResponse.
func PostFromDomain(p domain.Post) PostResponse {
	return PostResponse{
		ID:            p.ID,
		PublicationID: p.PublicationID,
		ChannelID:     p.ChannelID,
		Status:        string(p.Status),
		ScheduledAt:   p.ScheduledAt,
		PublishedAt:   p.PublishedAt,
		Error:         p.ErrorMessage,
		CreatedAt:     p.CreatedAt,
	}
}
