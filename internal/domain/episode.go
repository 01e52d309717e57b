package domain

import (
	"errors"
	"strings"
	"time"
)

type EpisodeID string
type BlobID string
type UserID string

const DefaultCategory = "General"

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 2000
)

// EpisodeRecord is the persisted metadata document for one published episode.
// AudioFileID is immutable for the record's lifetime; blob cleanup happens
// only as part of episode deletion.
type EpisodeRecord struct {
	ID              EpisodeID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	AudioFileID     BlobID    `json:"audioFileId"`
	ImageFileID     BlobID    `json:"imageFileId,omitempty"`
	DurationSeconds int64     `json:"duration,omitempty"`
	FileSizeBytes   int64     `json:"fileSize"`
	OwnerID         UserID    `json:"uploadedBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Owner is the safe subset of a user embedded in episode payloads.
type Owner struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EpisodeWithOwner pairs an episode with its resolved owner. Owner may be
// zero-valued when the referenced user no longer resolves (weak reference).
type EpisodeWithOwner struct {
	EpisodeRecord
	Owner Owner `json:"owner"`
}

// Validate checks domain invariants for EpisodeRecord.
func (e EpisodeRecord) Validate() error {
	if e.ID == "" {
		return errors.New("episode id is required")
	}
	if strings.TrimSpace(e.Title) == "" {
		return errors.New("title is required")
	}
	if len(e.Title) > MaxTitleLen {
		return errors.New("title too long")
	}
	if strings.TrimSpace(e.Description) == "" {
		return errors.New("description is required")
	}
	if len(e.Description) > MaxDescriptionLen {
		return errors.New("description too long")
	}
	if strings.TrimSpace(e.Author) == "" {
		return errors.New("author is required")
	}
	if e.AudioFileID == "" {
		return errors.New("audio file reference is required")
	}
	if e.OwnerID == "" {
		return errors.New("owner is required")
	}
	if e.DurationSeconds < 0 {
		return errors.New("duration must not be negative")
	}
	if e.FileSizeBytes < 0 {
		return errors.New("fileSize must not be negative")
	}
	return nil
}
