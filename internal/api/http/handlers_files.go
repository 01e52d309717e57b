package apihttp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"podstream/internal/domain"
	"podstream/internal/metrics"
)

func (s *Server) handleAudioFile(w http.ResponseWriter, r *http.Request) {
	s.handleFile(w, r, "/api/files/audio/", "audio", "audio/mpeg")
}

func (s *Server) handleImageFile(w http.ResponseWriter, r *http.Request) {
	s.handleFile(w, r, "/api/files/image/", "image", "image/jpeg")
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request, prefix, kind, fallbackType string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.blobs == nil {
		writeError(w, http.StatusInternalServerError, "blob store not configured")
		return
	}

	id := domain.BlobID(strings.TrimPrefix(r.URL.Path, prefix))
	if id == "" || strings.Contains(string(id), "/") {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	info, err := s.blobs.Stat(r.Context(), id)
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}

	metrics.StreamRequestsTotal.WithLabelValues(kind).Inc()

	contentType := info.ContentType
	if contentType == "" {
		contentType = fallbackType
	}

	start, end := int64(0), info.Length-1
	status := http.StatusOK
	contentRange := ""
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" && kind == "audio" {
		var rangeErr error
		start, end, rangeErr = parseByteRange(rangeHeader, info.Length)
		switch {
		case errors.Is(rangeErr, errRangeNotSatisfiable):
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", info.Length))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		case rangeErr != nil:
			// Malformed range: fall through to a full-body 200.
			start, end = 0, info.Length-1
		default:
			status = http.StatusPartialContent
			contentRange = fmt.Sprintf("bytes %d-%d/%d", start, end, info.Length)
		}
	}

	length := end - start + 1

	// Media headers must wait until the stream is actually open; a failed
	// open still needs a clean JSON error response, and a stale
	// Content-Length would truncate it on the wire.
	setMediaHeaders := func() {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", contentDisposition(info.Filename))
		if kind == "audio" {
			w.Header().Set("Accept-Ranges", "bytes")
		} else {
			// Blob ids are never reused for different bytes, so images are
			// safe to cache indefinitely.
			w.Header().Set("Cache-Control", "public, max-age=31536000")
		}
		if contentRange != "" {
			w.Header().Set("Content-Range", contentRange)
		}
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}

	if r.Method == http.MethodHead {
		setMediaHeaders()
		w.WriteHeader(status)
		return
	}

	var stream io.ReadCloser
	if status == http.StatusPartialContent {
		stream, _, err = s.blobs.DownloadRange(r.Context(), id, start, length)
	} else {
		stream, _, err = s.blobs.Download(r.Context(), id)
	}
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}
	defer stream.Close()

	setMediaHeaders()
	w.WriteHeader(status)
	written, err := io.Copy(w, stream)
	metrics.StreamBytesTotal.WithLabelValues(kind).Add(float64(written))
	if err != nil {
		// Headers are already out; all we can do is log the truncation.
		s.logger.Warn("blob stream aborted",
			slog.String("blobId", string(id)),
			slog.String("kind", kind),
			slog.Int64("writtenBytes", written),
			slog.String("error", err.Error()),
		)
	}
}

func contentDisposition(filename string) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		return "inline"
	}
	return mime.FormatMediaType("inline", map[string]string{"filename": name})
}
