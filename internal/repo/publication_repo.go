package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Emissary/internal/domain"
)

// PublicationRepo — репозиторий для работы с публикациями.
type PublicationRepo struct {
	pool *pgxpool.Pool
}

// NewPublicationRepo создаёт новый PublicationRepo.
func NewPublicationRepo(pool *pgxpool.Pool) *PublicationRepo {
	return &PublicationRepo{pool: pool}
}

// Create создаёт новую публикацию.
func (r *PublicationRepo) Create(ctx context.Context, pub *domain.Publication) error {
	query := `
		INSERT INTO publications (id, project_id, owner_id, status, scheduled_at,
		                          processing_started_at, archived_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		pub.ID,
		pub.ProjectID,
		pub.OwnerID,
		pub.Status,
		pub.ScheduledAt,
		pub.ProcessingStartedAt,
		pub.ArchivedAt,
		pub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert publication: %w", err)
	}
	return nil
}

// GetByID возвращает публикацию по ID.
func (r *PublicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Publication, error) {
	query := `
		SELECT id, project_id, owner_id, status, scheduled_at,
		       processing_started_at, archived_at, created_at
		FROM publications
		WHERE id = $1
	`
	return r.scanPublication(r.pool.QueryRow(ctx, query, id))
}

// ListDue возвращает ID публикаций, чьё время пришло.
//
// Публикация due, если она SCHEDULED, не в архиве, и либо её собственный
// scheduled_at <= now, либо действующее время хотя бы одного PENDING-поста
// (своё или унаследованное) <= now.
//
// Порядок — scheduled_at ASC, затем created_at ASC. Это жёсткое
// требование: многосерийный контент в один канал должен уходить
// в авторском порядке, а dispatch-цикл обрабатывает список строго
// последовательно.
func (r *PublicationRepo) ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT p.id
		FROM publications p
		WHERE p.status = 'SCHEDULED'
		  AND p.archived_at IS NULL
		  AND (
		        (p.scheduled_at IS NOT NULL AND p.scheduled_at <= $1)
		        OR EXISTS (
		              SELECT 1 FROM posts ps
		              WHERE ps.publication_id = p.id
		                AND ps.status = 'PENDING'
		                AND COALESCE(ps.scheduled_at, p.scheduled_at) <= $1
		        )
		  )
		ORDER BY p.scheduled_at ASC NULLS LAST, p.created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due publications: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due publication: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Claim атомарно захватывает публикацию: SCHEDULED → PROCESSING.
//
// Возвращает true только если update затронул ровно одну строку.
// Ноль строк — другой процесс уже захватил публикацию (или её статус
// изменился); это штатный проигрыш гонки, не ошибка.
func (r *PublicationRepo) Claim(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE publications
		SET status = 'PROCESSING', processing_started_at = $2
		WHERE id = $1 AND status = 'SCHEDULED'
	`
	result, err := r.pool.Exec(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("claim publication: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// ExpireScheduledBefore переводит в EXPIRED все SCHEDULED-публикации
// с scheduled_at строго раньше cutoff (не архивные, проект не архивный).
//
// Batch-update без optimistic-проверки: просрочка идемпотентна,
// повторный sweep уже не увидит эти строки как SCHEDULED.
func (r *PublicationRepo) ExpireScheduledBefore(ctx context.Context, cutoff time.Time) ([]domain.PublicationExpired, error) {
	query := `
		UPDATE publications p
		SET status = 'EXPIRED'
		FROM projects pr
		WHERE pr.id = p.project_id
		  AND p.status = 'SCHEDULED'
		  AND p.scheduled_at IS NOT NULL
		  AND p.scheduled_at < $1
		  AND p.archived_at IS NULL
		  AND pr.archived_at IS NULL
		RETURNING p.id, p.owner_id, p.scheduled_at
	`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("expire publications: %w", err)
	}
	defer rows.Close()

	var expired []domain.PublicationExpired
	for rows.Next() {
		var ev domain.PublicationExpired
		if err := rows.Scan(&ev.PublicationID, &ev.OwnerID, &ev.ScheduledAt); err != nil {
			return nil, fmt.Errorf("scan expired publication: %w", err)
		}
		expired = append(expired, ev)
	}
	return expired, rows.Err()
}

// EffectiveAt возвращает производное отображаемое время публикации:
// max(последний published_at постов, scheduled_at, created_at).
// Считается на чтении, поэтому всегда актуально без пересчётов на записи.
func (r *PublicationRepo) EffectiveAt(ctx context.Context, id uuid.UUID) (time.Time, error) {
	query := `
		SELECT GREATEST(
			p.created_at,
			COALESCE(p.scheduled_at, p.created_at),
			COALESCE(
				(SELECT MAX(ps.published_at) FROM posts ps
				 WHERE ps.publication_id = p.id AND ps.status = 'PUBLISHED'),
				p.created_at
			)
		)
		FROM publications p
		WHERE p.id = $1
	`
	var eff time.Time
	err := r.pool.QueryRow(ctx, query, id).Scan(&eff)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("effective at: %w", err)
	}
	return eff, nil
}

func (r *PublicationRepo) scanPublication(row pgx.Row) (*domain.Publication, error) {
	var p domain.Publication

	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.OwnerID,
		&p.Status,
		&p.ScheduledAt,
		&p.ProcessingStartedAt,
		&p.ArchivedAt,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan publication: %w", err)
	}
	return &p, nil
}
