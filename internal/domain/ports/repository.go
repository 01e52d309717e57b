package ports

import (
	"context"

	"podstream/internal/domain"
)

type EpisodeRepository interface {
	Create(ctx context.Context, e domain.EpisodeRecord) error
	Get(ctx context.Context, id domain.EpisodeID) (domain.EpisodeRecord, error)
	// List returns all episodes sorted by creation time descending.
	List(ctx context.Context) ([]domain.EpisodeRecord, error)
	Delete(ctx context.Context, id domain.EpisodeID) error
	Count(ctx context.Context) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, u domain.UserRecord) error
	GetByEmail(ctx context.Context, email string) (domain.UserRecord, error)
	Get(ctx context.Context, id domain.UserID) (domain.UserRecord, error)
	GetMany(ctx context.Context, ids []domain.UserID) ([]domain.UserRecord, error)
}
