package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LockRepo — распределённый замок над таблицей scheduler_locks.
//
// Семантика "set-if-absent-with-expiry": захватить замок может либо
// первый пришедший, либо любой процесс после истечения expires_at
// предыдущего владельца (упавший держатель не превращается в deadlock).
// Release — compare-and-delete по токену владельца: чужой замок,
// перехваченный после истечения нашего TTL, мы не снимем.
type LockRepo struct {
	pool *pgxpool.Pool
}

// NewLockRepo создаёт новый LockRepo.
func NewLockRepo(pool *pgxpool.Pool) *LockRepo {
	return &LockRepo{pool: pool}
}

// Acquire пытается захватить именованный замок с TTL.
//
// Возвращает (token, true) при успехе и ("", false), если замок держит
// другой живой процесс. Неудача захвата — штатный сигнал "пропусти
// проход", а не ошибка; error возвращается только при проблемах с БД.
func (r *LockRepo) Acquire(ctx context.Context, key string, ttl time.Duration, now time.Time) (string, bool, error) {
	token := uuid.New()

	// Upsert проходит в двух случаях: строки нет (insert) либо
	// строка есть, но её expires_at уже в прошлом (перехват).
	query := `
		INSERT INTO scheduler_locks (key, owner_token, acquired_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET owner_token = EXCLUDED.owner_token,
		    acquired_at = EXCLUDED.acquired_at,
		    expires_at  = EXCLUDED.expires_at
		WHERE scheduler_locks.expires_at <= $3
	`
	result, err := r.pool.Exec(ctx, query, key, token, now, now.Add(ttl))
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %q: %w", key, err)
	}
	if result.RowsAffected() == 0 {
		return "", false, nil
	}
	return token.String(), true, nil
}

// Release снимает замок, если токен совпадает с токеном владельца.
//
// Ноль затронутых строк — не ошибка: наш TTL истёк и замок либо
// удалён, либо перехвачен другим процессом.
func (r *LockRepo) Release(ctx context.Context, key, token string) error {
	ownerToken, err := uuid.Parse(token)
	if err != nil {
		return fmt.Errorf("release lock %q: bad token: %w", key, err)
	}

	query := `DELETE FROM scheduler_locks WHERE key = $1 AND owner_token = $2`
	if _, err := r.pool.Exec(ctx, query, key, ownerToken); err != nil {
		return fmt.Errorf("release lock %q: %w", key, err)
	}
	return nil
}
