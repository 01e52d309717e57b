package usecase

import (
	"context"
	"errors"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

type GetEpisode struct {
	Episodes ports.EpisodeRepository
	Users    ports.UserRepository
}

func (uc GetEpisode) Execute(ctx context.Context, id domain.EpisodeID) (domain.EpisodeWithOwner, error) {
	record, err := uc.Episodes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.EpisodeWithOwner{}, err
		}
		return domain.EpisodeWithOwner{}, wrapRepo(err)
	}

	out := domain.EpisodeWithOwner{EpisodeRecord: record}
	if user, err := uc.Users.Get(ctx, record.OwnerID); err == nil {
		out.Owner = user.AsOwner()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.EpisodeWithOwner{}, wrapRepo(err)
	}
	return out, nil
}
