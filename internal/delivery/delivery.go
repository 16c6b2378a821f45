package delivery

import (
	"context"

	"github.com/google/uuid"
)

// Options — опции одного вызова доставки.
type Options struct {
	// SkipLock — backend не должен сам перепроверять и перезахватывать
	// состояние расписания: атомарный claim уже выполнило ядро.
	SkipLock bool `json:"skip_lock"`
}

// Backend — внешний исполнитель платформенной публикации.
//
// Ядро вызывает Dispatch синхронно после успешного claim; терминальные
// статусы публикации и постов (PUBLISHED/PARTIAL/FAILED) выставляет
// сам backend. Ошибка Dispatch оставляет публикацию в PROCESSING —
// её разбор остаётся за reconciliation backend-а.
type Backend interface {
	Dispatch(ctx context.Context, publicationID uuid.UUID, opts Options) error
}
