package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/wayly/internal/models"
)

type Repository struct {
	db  Database
	log *slog.Logger
}

type Interface interface {
	FindPlace(ctx context.Context, country, query string) (*models.Place, error)
	SavePlace(ctx context.Context, country, query string, place models.Place) error
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, log *slog.Logger) *Repository {
	return &Repository{db: db, log: log}
}
