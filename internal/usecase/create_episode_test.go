package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"podstream/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newCreateEpisode(repo *fakeEpisodeRepo, blobs *fakeBlobStore) CreateEpisode {
	n := 0
	return CreateEpisode{
		Episodes: repo,
		Blobs:    blobs,
		ProbeDuration: func(data []byte, contentType string) (int64, bool) {
			return 90, true
		},
		NewID: func() domain.EpisodeID {
			n++
			return domain.EpisodeID(newHexID(n))
		},
		Now: fixedNow,
	}
}

func newHexID(n int) string {
	const hex = "0123456789abcdef"
	return "64000000000000000000000" + string(hex[n%16])
}

func validCreateInput() CreateEpisodeInput {
	return CreateEpisodeInput{
		OwnerID:     "64f000000000000000000001",
		Title:       "First Episode",
		Description: "About things",
		Author:      "A. Author",
		Audio: &FileInput{
			Data:        []byte("mp3-bytes"),
			Filename:    "ep1.mp3",
			ContentType: "audio/mpeg",
		},
	}
}

func TestCreateEpisode(t *testing.T) {
	repo := newFakeEpisodeRepo()
	blobs := newFakeBlobStore()
	uc := newCreateEpisode(repo, blobs)

	record, err := uc.Execute(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if record.AudioFileID == "" {
		t.Fatal("expected audio blob reference")
	}
	if record.ImageFileID != "" {
		t.Fatalf("expected no image blob, got %q", record.ImageFileID)
	}
	if record.Category != domain.DefaultCategory {
		t.Fatalf("expected default category, got %q", record.Category)
	}
	if record.DurationSeconds != 90 {
		t.Fatalf("expected probed duration 90, got %d", record.DurationSeconds)
	}
	if record.FileSizeBytes != int64(len("mp3-bytes")) {
		t.Fatalf("unexpected fileSize %d", record.FileSizeBytes)
	}
	if _, err := repo.Get(context.Background(), record.ID); err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if blobs.count() != 1 {
		t.Fatalf("expected 1 stored blob, got %d", blobs.count())
	}
}

func TestCreateEpisodeWithImage(t *testing.T) {
	repo := newFakeEpisodeRepo()
	blobs := newFakeBlobStore()
	uc := newCreateEpisode(repo, blobs)

	input := validCreateInput()
	input.Image = &FileInput{Data: []byte("png-bytes"), Filename: "cover.png", ContentType: "image/png"}

	record, err := uc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if record.ImageFileID == "" {
		t.Fatal("expected image blob reference")
	}
	if blobs.count() != 2 {
		t.Fatalf("expected 2 stored blobs, got %d", blobs.count())
	}
}

func TestCreateEpisodeMissingAudio(t *testing.T) {
	repo := newFakeEpisodeRepo()
	blobs := newFakeBlobStore()
	uc := newCreateEpisode(repo, blobs)

	input := validCreateInput()
	input.Audio = nil

	_, err := uc.Execute(context.Background(), input)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if blobs.count() != 0 {
		t.Fatal("no blob should be persisted on validation failure")
	}
	if n, _ := repo.Count(context.Background()); n != 0 {
		t.Fatal("no document should be persisted on validation failure")
	}
}

func TestCreateEpisodeMissingFields(t *testing.T) {
	repo := newFakeEpisodeRepo()
	blobs := newFakeBlobStore()
	uc := newCreateEpisode(repo, blobs)

	for _, mutate := range []func(*CreateEpisodeInput){
		func(in *CreateEpisodeInput) { in.Title = "  " },
		func(in *CreateEpisodeInput) { in.Description = "" },
		func(in *CreateEpisodeInput) { in.Author = "" },
	} {
		input := validCreateInput()
		mutate(&input)
		if _, err := uc.Execute(context.Background(), input); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	}
	if blobs.count() != 0 {
		t.Fatal("no blob should be persisted on validation failure")
	}
}

func TestCreateEpisodeStorageFailure(t *testing.T) {
	repo := newFakeEpisodeRepo()
	blobs := newFakeBlobStore()
	blobs.uploadErr = errors.New("disk full")
	uc := newCreateEpisode(repo, blobs)

	_, err := uc.Execute(context.Background(), validCreateInput())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if n, _ := repo.Count(context.Background()); n != 0 {
		t.Fatal("no document should be persisted when upload fails")
	}
}

func TestCreateEpisodeDurationProbeFailureNonFatal(t *testing.T) {
	repo := newFakeEpisodeRepo()
	blobs := newFakeBlobStore()
	uc := newCreateEpisode(repo, blobs)
	uc.ProbeDuration = func(data []byte, contentType string) (int64, bool) { return 0, false }

	record, err := uc.Execute(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if record.DurationSeconds != 0 {
		t.Fatalf("expected zero duration, got %d", record.DurationSeconds)
	}
}

func TestCreateEpisodeRepoFailureLeavesOrphanBlob(t *testing.T) {
	repo := newFakeEpisodeRepo()
	repo.createErr = errors.New("mongo down")
	blobs := newFakeBlobStore()
	uc := newCreateEpisode(repo, blobs)

	_, err := uc.Execute(context.Background(), validCreateInput())
	if !errors.Is(err, ErrRepository) {
		t.Fatalf("expected ErrRepository, got %v", err)
	}
	// Orphan blob cleanup is not compensated; the blob stays behind.
	if blobs.count() != 1 {
		t.Fatalf("expected orphan blob to remain, got %d", blobs.count())
	}
}
