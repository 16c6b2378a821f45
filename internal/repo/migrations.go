package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — DDL всех таблиц ядра.
//
// Statements идемпотентны (IF NOT EXISTS), поэтому Migrate можно
// безопасно вызывать на каждом старте сервиса.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		archived_at TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS channels (
		id          UUID PRIMARY KEY,
		project_id  UUID NOT NULL REFERENCES projects(id),
		name        TEXT NOT NULL,
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		archived_at TIMESTAMPTZ,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS publications (
		id                    UUID PRIMARY KEY,
		project_id            UUID NOT NULL REFERENCES projects(id),
		owner_id              UUID NOT NULL,
		status                TEXT NOT NULL DEFAULT 'DRAFT',
		scheduled_at          TIMESTAMPTZ,
		processing_started_at TIMESTAMPTZ,
		archived_at           TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_publications_due
		ON publications (scheduled_at, created_at)
		WHERE status = 'SCHEDULED' AND archived_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS posts (
		id             UUID PRIMARY KEY,
		publication_id UUID NOT NULL REFERENCES publications(id),
		channel_id     UUID NOT NULL REFERENCES channels(id),
		status         TEXT NOT NULL DEFAULT 'PENDING',
		scheduled_at   TIMESTAMPTZ,
		published_at   TIMESTAMPTZ,
		error_message  TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_posts_publication
		ON posts (publication_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS scheduler_locks (
		key         TEXT PRIMARY KEY,
		owner_token UUID NOT NULL,
		acquired_at TIMESTAMPTZ NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate применяет DDL-схему ядра.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
