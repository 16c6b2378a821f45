package domain

// PublicationStatus — статус публикации.
//
// Жизненный цикл:
//
//	DRAFT → READY → SCHEDULED → PROCESSING → PUBLISHED
//	                          ↘ EXPIRED                ↘ PARTIAL
//	                                                   ↘ FAILED
//
// Переход SCHEDULED → PROCESSING выполняется только через атомарный
// claim планировщика (conditional update). Терминальные статусы
// PUBLISHED/PARTIAL/FAILED выставляет delivery backend, EXPIRED — sweeper.
type PublicationStatus string

const (
	// PublicationStatusDraft — черновик, редактируется автором.
	PublicationStatusDraft PublicationStatus = "DRAFT"

	// PublicationStatusReady — готова к публикации, но не запланирована.
	PublicationStatusReady PublicationStatus = "READY"

	// PublicationStatusScheduled — запланирована на scheduled_at.
	PublicationStatusScheduled PublicationStatus = "SCHEDULED"

	// PublicationStatusProcessing — захвачена планировщиком, доставка идёт.
	PublicationStatusProcessing PublicationStatus = "PROCESSING"

	// PublicationStatusPublished — все посты доставлены успешно.
	PublicationStatusPublished PublicationStatus = "PUBLISHED"

	// PublicationStatusPartial — часть постов доставлена, часть упала.
	PublicationStatusPartial PublicationStatus = "PARTIAL"

	// PublicationStatusFailed — доставка не удалась ни для одного поста.
	PublicationStatusFailed PublicationStatus = "FAILED"

	// PublicationStatusExpired — просрочена: scheduled_at вышел за
	// окно lookback до того, как публикацию кто-то захватил.
	PublicationStatusExpired PublicationStatus = "EXPIRED"
)

// IsTerminal возвращает true, если статус финальный.
func (s PublicationStatus) IsTerminal() bool {
	switch s {
	case PublicationStatusPublished, PublicationStatusPartial,
		PublicationStatusFailed, PublicationStatusExpired:
		return true
	default:
		return false
	}
}

// IsClaimable возвращает true, если публикацию можно захватить.
// Захват разрешён только из SCHEDULED.
func (s PublicationStatus) IsClaimable() bool {
	return s == PublicationStatusScheduled
}

// PostStatus — статус отдельного поста (одного канала доставки).
//
// Жизненный цикл:
//
//	PENDING → PROCESSING → PUBLISHED
//	                     ↘ FAILED
//
// PENDING → FAILED("EXPIRED") — единственный переход, который делает
// sweeper; всё остальное — зона delivery backend.
type PostStatus string

const (
	// PostStatusPending — пост создан и ждёт доставки.
	PostStatusPending PostStatus = "PENDING"

	// PostStatusProcessing — пост в процессе доставки.
	PostStatusProcessing PostStatus = "PROCESSING"

	// PostStatusPublished — пост доставлен в канал.
	PostStatusPublished PostStatus = "PUBLISHED"

	// PostStatusFailed — доставка поста не удалась (или пост просрочен).
	PostStatusFailed PostStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s PostStatus) IsTerminal() bool {
	switch s {
	case PostStatusPublished, PostStatusFailed:
		return true
	default:
		return false
	}
}

// ExpiredErrorMessage — текст ошибки, который sweeper записывает
// в просроченный пост.
const ExpiredErrorMessage = "EXPIRED"
