package usecase

import (
	"bytes"
	"context"
	"strings"
	"time"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

// FileInput is one uploaded part held fully in memory; the HTTP layer bounds
// upload size before any bytes reach this use case.
type FileInput struct {
	Data        []byte
	Filename    string
	ContentType string
}

type CreateEpisode struct {
	Episodes ports.EpisodeRepository
	Blobs    ports.BlobStore
	// ProbeDuration extracts duration seconds from audio bytes; best-effort.
	ProbeDuration func(data []byte, contentType string) (int64, bool)
	NewID         func() domain.EpisodeID
	Now           func() time.Time
}

type CreateEpisodeInput struct {
	OwnerID     domain.UserID
	Title       string
	Description string
	Author      string
	Category    string
	Audio       *FileInput
	Image       *FileInput
}

func (uc CreateEpisode) Execute(ctx context.Context, input CreateEpisodeInput) (domain.EpisodeRecord, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	author := strings.TrimSpace(input.Author)
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = domain.DefaultCategory
	}

	switch {
	case title == "" || description == "" || author == "":
		return domain.EpisodeRecord{}, invalid("title, description and author are required")
	case len(title) > domain.MaxTitleLen:
		return domain.EpisodeRecord{}, invalid("title cannot be more than 200 characters")
	case len(description) > domain.MaxDescriptionLen:
		return domain.EpisodeRecord{}, invalid("description cannot be more than 2000 characters")
	case input.Audio == nil || len(input.Audio.Data) == 0:
		return domain.EpisodeRecord{}, invalid("an audio file is required")
	}

	var duration int64
	if uc.ProbeDuration != nil {
		if d, ok := uc.ProbeDuration(input.Audio.Data, input.Audio.ContentType); ok {
			duration = d
		}
	}

	// The audio blob goes in first; its id becomes the durable reference.
	// A crash between here and the document insert leaves an orphan blob,
	// never a document without its audio.
	audioID, err := uc.Blobs.Upload(ctx, bytes.NewReader(input.Audio.Data), ports.BlobUpload{
		Filename:    input.Audio.Filename,
		ContentType: input.Audio.ContentType,
		Role:        domain.BlobRoleAudio,
		UploaderID:  input.OwnerID,
	})
	if err != nil {
		return domain.EpisodeRecord{}, wrapStorage(err)
	}

	var imageID domain.BlobID
	if input.Image != nil && len(input.Image.Data) > 0 {
		imageID, err = uc.Blobs.Upload(ctx, bytes.NewReader(input.Image.Data), ports.BlobUpload{
			Filename:    input.Image.Filename,
			ContentType: input.Image.ContentType,
			Role:        domain.BlobRoleImage,
			UploaderID:  input.OwnerID,
		})
		if err != nil {
			return domain.EpisodeRecord{}, wrapStorage(err)
		}
	}

	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}

	record := domain.EpisodeRecord{
		ID:              uc.NewID(),
		Title:           title,
		Description:     description,
		Author:          author,
		Category:        category,
		AudioFileID:     audioID,
		ImageFileID:     imageID,
		DurationSeconds: duration,
		FileSizeBytes:   int64(len(input.Audio.Data)),
		OwnerID:         input.OwnerID,
		CreatedAt:       now(),
		UpdatedAt:       now(),
	}
	if err := uc.Episodes.Create(ctx, record); err != nil {
		return domain.EpisodeRecord{}, wrapRepo(err)
	}
	return record, nil
}
