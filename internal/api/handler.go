package api

import (
	"log/slog"

	"github.com/shaiso/Emissary/internal/repo"
	"github.com/shaiso/Emissary/internal/scheduler"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	runner          scheduler.PassRunner
	publicationRepo *repo.PublicationRepo
	postRepo        *repo.PostRepo
	logger          *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Runner          scheduler.PassRunner
	PublicationRepo *repo.PublicationRepo
	PostRepo        *repo.PostRepo
	Logger          *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		runner:          cfg.Runner,
		publicationRepo: cfg.PublicationRepo,
		postRepo:        cfg.PostRepo,
		logger:          logger,
	}
}
