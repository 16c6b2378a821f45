package api

import (
	"net/http"
)

// TriggerPass запускает проход планировщика по требованию.
// POST /api/v1/passes
//
// Эндпоинт идемпотентен: если проход уже идёт или замок занят другим
// экземпляром, возвращается сводка со skipped=true, это не ошибка.
func (h *Handler) TriggerPass(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.RunNow(r.Context())
	if err != nil {
		// Частичные счётчики прохода теряются намеренно:
		// оператор перезапустит проход после устранения сбоя.
		InternalError(w, h.logger, err)
		return
	}

	Success(w, PassFromResult(result))
}

// Health возвращает состояние сервиса.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
