// Package media extracts best-effort metadata from uploaded audio.
package media

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/dhowden/tag"
	"github.com/tcolgate/mp3"
)

// ProbeDuration scans MPEG audio frames and returns the total duration in
// whole seconds. Only MPEG audio is supported; anything else returns ok=false.
// Extraction failure never blocks episode creation, so errors are folded
// into ok=false.
func ProbeDuration(data []byte, contentType string) (seconds int64, ok bool) {
	if !isMPEGAudio(contentType) {
		return 0, false
	}
	decoder := mp3.NewDecoder(bytes.NewReader(data))
	var frame mp3.Frame
	var skipped int
	var total float64
	for {
		err := decoder.Decode(&frame, &skipped)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, false
		}
		total += frame.Duration().Seconds()
	}
	if total <= 0 {
		return 0, false
	}
	return int64(total), true
}

// Tags holds the subset of container tags useful for prefilling upload
// metadata.
type Tags struct {
	Title  string
	Artist string
}

// ReadTags reads container metadata (ID3 and friends) from the audio bytes.
func ReadTags(r io.ReadSeeker) (Tags, error) {
	meta, err := tag.ReadFrom(r)
	if err != nil {
		return Tags{}, err
	}
	return Tags{
		Title:  strings.TrimSpace(meta.Title()),
		Artist: strings.TrimSpace(meta.Artist()),
	}, nil
}

func isMPEGAudio(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "audio/mpeg"), strings.HasPrefix(ct, "audio/mp3"):
		return true
	default:
		return false
	}
}
