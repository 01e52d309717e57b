package client

import (
	"fmt"
	"strings"
	"time"
)

// Episode is the view-model shape the API's summary/detail payloads map
// into. AudioURL is empty on list items; the API only exposes it on detail
// responses.
type Episode struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Author          string    `json:"author"`
	Category        string    `json:"category"`
	AudioURL        string    `json:"audioUrl"`
	ImageURL        *string   `json:"imageUrl"`
	DurationSeconds int64     `json:"durationSeconds"`
	FileSizeBytes   int64     `json:"fileSizeBytes"`
	Owner           Owner     `json:"owner"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FormatDuration renders the episode length as MM:SS, or HH:MM:SS from one
// hour up. Unknown durations render as "--:--".
func (e Episode) FormatDuration() string {
	if e.DurationSeconds <= 0 {
		return "--:--"
	}
	hours := e.DurationSeconds / 3600
	minutes := (e.DurationSeconds % 3600) / 60
	seconds := e.DurationSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatSize renders the audio size with a binary unit.
func (e Episode) FormatSize() string {
	const unit = 1024
	size := e.FileSizeBytes
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

// resolveURL turns the API's relative media paths into absolute URLs
// against the client's base.
func resolveURL(baseURL, path string) string {
	if path == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(baseURL, "/") + path
}

func (e *Episode) absolutize(baseURL string) {
	e.AudioURL = resolveURL(baseURL, e.AudioURL)
	if e.ImageURL != nil {
		resolved := resolveURL(baseURL, *e.ImageURL)
		e.ImageURL = &resolved
	}
}
