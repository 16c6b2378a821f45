package api

import (
	"net/http"

	"github.com/google/uuid"
)

// GetPublication возвращает публикацию по ID.
// GET /api/v1/publications/{id}
func (h *Handler) GetPublication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid publication id")
		return
	}

	pub, err := h.publicationRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "publication not found") {
		return
	}

	effectiveAt, err := h.publicationRepo.EffectiveAt(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "publication not found") {
		return
	}

	Success(w, PublicationFromDomain(pub, effectiveAt))
}

// ListPublicationPosts возвращает посты публикации.
// GET /api/v1/publications/{id}/posts
func (h *Handler) ListPublicationPosts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid publication id")
		return
	}

	// Проверяем, что публикация существует
	_, err = h.publicationRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "publication not found") {
		return
	}

	posts, err := h.postRepo.ListByPublication(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]PostResponse, len(posts))
	for i, p := range posts {
		result[i] = PostFromDomain(p)
	}

	List(w, result, len(result))
}
