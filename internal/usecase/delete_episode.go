package usecase

import (
	"context"
	"errors"
	"log/slog"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

type DeleteEpisode struct {
	Episodes ports.EpisodeRepository
	Blobs    ports.BlobStore
	Logger   *slog.Logger
}

// Execute removes the episode document and its blobs. Blob deletion is
// best-effort: each failure is logged and swallowed, then the document is
// deleted last so the index record always goes away once ownership passes.
func (uc DeleteEpisode) Execute(ctx context.Context, id domain.EpisodeID, requesterID domain.UserID) error {
	record, err := uc.Episodes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return wrapRepo(err)
	}

	if record.OwnerID != requesterID {
		return ErrForbidden
	}

	logger := uc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := uc.Blobs.Delete(ctx, record.AudioFileID); err != nil {
		logger.Warn("audio blob delete failed",
			slog.String("episodeId", string(id)),
			slog.String("blobId", string(record.AudioFileID)),
			slog.String("error", err.Error()),
		)
	}
	if record.ImageFileID != "" {
		if err := uc.Blobs.Delete(ctx, record.ImageFileID); err != nil {
			logger.Warn("image blob delete failed",
				slog.String("episodeId", string(id)),
				slog.String("blobId", string(record.ImageFileID)),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := uc.Episodes.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return wrapRepo(err)
	}
	return nil
}
