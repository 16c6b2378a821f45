package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Passes
	mux.Handle("POST /api/v1/passes", chain(http.HandlerFunc(h.TriggerPass)))

	// Publications (read-only: запись — зона авторской подсистемы)
	mux.Handle("GET /api/v1/publications/{id}", chain(http.HandlerFunc(h.GetPublication)))
	mux.Handle("GET /api/v1/publications/{id}/posts", chain(http.HandlerFunc(h.ListPublicationPosts)))

	// Health — без middleware, дёргается часто
	mux.Handle("GET /healthz", http.HandlerFunc(h.Health))
}
