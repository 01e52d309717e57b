package usecase

import (
	"context"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

type ListEpisodes struct {
	Episodes ports.EpisodeRepository
	Users    ports.UserRepository
}

// Execute lists episodes newest-first with owners resolved in one batch
// lookup. Episodes whose owner no longer resolves keep a zero-valued Owner.
func (uc ListEpisodes) Execute(ctx context.Context) ([]domain.EpisodeWithOwner, error) {
	records, err := uc.Episodes.List(ctx)
	if err != nil {
		return nil, wrapRepo(err)
	}

	owners, err := uc.resolveOwners(ctx, records)
	if err != nil {
		return nil, err
	}

	out := make([]domain.EpisodeWithOwner, 0, len(records))
	for _, record := range records {
		out = append(out, domain.EpisodeWithOwner{
			EpisodeRecord: record,
			Owner:         owners[record.OwnerID],
		})
	}
	return out, nil
}

func (uc ListEpisodes) resolveOwners(ctx context.Context, records []domain.EpisodeRecord) (map[domain.UserID]domain.Owner, error) {
	seen := make(map[domain.UserID]struct{}, len(records))
	ids := make([]domain.UserID, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.OwnerID]; ok {
			continue
		}
		seen[record.OwnerID] = struct{}{}
		ids = append(ids, record.OwnerID)
	}

	users, err := uc.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, wrapRepo(err)
	}
	owners := make(map[domain.UserID]domain.Owner, len(users))
	for _, user := range users {
		owners[user.ID] = user.AsOwner()
	}
	return owners, nil
}
