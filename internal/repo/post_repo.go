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

// PostRepo — репозиторий для работы с постами.
type PostRepo struct {
	pool *pgxpool.Pool
}

// NewPostRepo создаёт новый PostRepo.
func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// Create создаёт новый пост.
func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	query := `
		INSERT INTO posts (id, publication_id, channel_id, status,
		                   scheduled_at, published_at, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.PublicationID,
		post.ChannelID,
		post.Status,
		post.ScheduledAt,
		post.PublishedAt,
		nullString(post.ErrorMessage),
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID возвращает пост по ID.
func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	query := `
		SELECT id, publication_id, channel_id, status,
		       scheduled_at, published_at, error_message, created_at
		FROM posts
		WHERE id = $1
	`
	return r.scanPost(r.pool.QueryRow(ctx, query, id))
}

// ListByPublication возвращает посты публикации в порядке создания.
func (r *PostRepo) ListByPublication(ctx context.Context, publicationID uuid.UUID) ([]domain.Post, error) {
	query := `
		SELECT id, publication_id, channel_id, status,
		       scheduled_at, published_at, error_message, created_at
		FROM posts
		WHERE publication_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := r.scanPostFromRows(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	return posts, rows.Err()
}

// FailPendingBefore переводит в FAILED("EXPIRED") все PENDING-посты,
// чьё действующее время доставки (своё scheduled_at либо унаследованное
// от публикации) строго раньше cutoff.
//
// Не трогает посты архивных публикаций, архивных проектов
// и неактивных/архивных каналов. Возвращает число затронутых строк.
func (r *PostRepo) FailPendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE posts ps
		SET status = 'FAILED', error_message = $2
		FROM publications p
		JOIN projects pr ON pr.id = p.project_id
		JOIN channels c ON c.project_id = pr.id
		WHERE p.id = ps.publication_id
		  AND c.id = ps.channel_id
		  AND ps.status = 'PENDING'
		  AND COALESCE(ps.scheduled_at, p.scheduled_at) < $1
		  AND p.archived_at IS NULL
		  AND pr.archived_at IS NULL
		  AND c.active = TRUE
		  AND c.archived_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query, cutoff, domain.ExpiredErrorMessage)
	if err != nil {
		return 0, fmt.Errorf("fail pending posts: %w", err)
	}
	return result.RowsAffected(), nil
}

// MarkPublished переводит пост в PUBLISHED с фактическим временем доставки.
func (r *PostRepo) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = 'PUBLISHED', published_at = $2, error_message = NULL
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, publishedAt)
	if err != nil {
		return fmt.Errorf("mark post published: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed переводит пост в FAILED с текстом ошибки.
func (r *PostRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	query := `
		UPDATE posts
		SET status = 'FAILED', error_message = $2
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("mark post failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostRepo) scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	var errMsg *string

	err := row.Scan(
		&p.ID,
		&p.PublicationID,
		&p.ChannelID,
		&p.Status,
		&p.ScheduledAt,
		&p.PublishedAt,
		&errMsg,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	if errMsg != nil {
		p.ErrorMessage = *errMsg
	}
	return &p, nil
}

func (r *PostRepo) scanPostFromRows(rows pgx.Rows) (*domain.Post, error) {
	var p domain.Post
	var errMsg *string

	err := rows.Scan(
		&p.ID,
		&p.PublicationID,
		&p.ChannelID,
		&p.Status,
		&p.ScheduledAt,
		&p.PublishedAt,
		&errMsg,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan post: %w", err)
	}
	if errMsg != nil {
		p.ErrorMessage = *errMsg
	}
	return &p, nil
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
