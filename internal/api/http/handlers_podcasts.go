package apihttp

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"podstream/internal/domain"
	"podstream/internal/metrics"
	"podstream/internal/usecase"
)

type episodeSummary struct {
	ID              domain.EpisodeID `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Author          string           `json:"author"`
	Category        string           `json:"category"`
	ImageURL        *string          `json:"imageUrl"`
	DurationSeconds int64            `json:"durationSeconds,omitempty"`
	FileSizeBytes   int64            `json:"fileSizeBytes"`
	Owner           ownerResponse    `json:"owner"`
	CreatedAt       time.Time        `json:"createdAt"`
}

type episodeDetail struct {
	episodeSummary
	AudioURL string `json:"audioUrl"`
}

type ownerResponse struct {
	ID    domain.UserID `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
}

func audioURL(id domain.BlobID) string {
	return "/api/files/audio/" + string(id)
}

func imageURL(id domain.BlobID) *string {
	if id == "" {
		return nil
	}
	url := "/api/files/image/" + string(id)
	return &url
}

func toEpisodeSummary(ep domain.EpisodeWithOwner) episodeSummary {
	return episodeSummary{
		ID:              ep.ID,
		Title:           ep.Title,
		Description:     ep.Description,
		Author:          ep.Author,
		Category:        ep.Category,
		ImageURL:        imageURL(ep.ImageFileID),
		DurationSeconds: ep.DurationSeconds,
		FileSizeBytes:   ep.FileSizeBytes,
		Owner:           ownerResponse(ep.Owner),
		CreatedAt:       ep.CreatedAt,
	}
}

func toEpisodeDetail(ep domain.EpisodeWithOwner) episodeDetail {
	return episodeDetail{
		episodeSummary: toEpisodeSummary(ep),
		AudioURL:       audioURL(ep.AudioFileID),
	}
}

func (s *Server) handlePodcasts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.listEpisodes == nil {
		writeError(w, http.StatusInternalServerError, "list episodes use case not configured")
		return
	}

	episodes, err := s.listEpisodes.Execute(r.Context())
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}

	summaries := make([]episodeSummary, 0, len(episodes))
	for _, ep := range episodes {
		summaries = append(summaries, toEpisodeSummary(ep))
	}
	writeList(w, http.StatusOK, len(summaries), summaries)
}

func (s *Server) handlePodcastCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.createEpisode == nil {
		writeError(w, http.StatusInternalServerError, "create episode use case not configured")
		return
	}

	principal, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.UploadFailuresTotal.WithLabelValues("too_large").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		metrics.UploadFailuresTotal.WithLabelValues("bad_form").Inc()
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	audio, ok := s.readFilePart(w, r, "audio", "audio/")
	if !ok {
		return
	}
	image, ok := s.readFilePart(w, r, "image", "image/")
	if !ok {
		return
	}

	input := usecase.CreateEpisodeInput{
		OwnerID:     principal.UserID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Author:      r.FormValue("author"),
		Category:    r.FormValue("category"),
		Audio:       audio,
		Image:       image,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	record, err := s.createEpisode.Execute(ctx, input)
	if err != nil {
		if errors.Is(err, usecase.ErrValidation) {
			metrics.UploadFailuresTotal.WithLabelValues("validation").Inc()
		} else {
			metrics.UploadFailuresTotal.WithLabelValues("storage").Inc()
		}
		s.writeUseCaseError(w, err)
		return
	}

	metrics.UploadsTotal.Inc()
	metrics.UploadBytesTotal.Add(float64(record.FileSizeBytes))
	go s.BroadcastLibrary(context.Background())

	detail := toEpisodeDetail(domain.EpisodeWithOwner{
		EpisodeRecord: record,
		Owner:         domain.Owner{ID: principal.UserID, Name: principal.Name, Email: principal.Email},
	})
	writeData(w, http.StatusCreated, detail)
}

// readFilePart pulls one optional file part out of the parsed form. A part
// that is present but has the wrong content type prefix is a 400; a missing
// part returns nil so the use case can decide whether it was required.
func (s *Server) readFilePart(w http.ResponseWriter, r *http.Request, field, typePrefix string) (*usecase.FileInput, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, true
		}
		writeError(w, http.StatusBadRequest, "invalid "+field+" part")
		return nil, false
	}
	defer file.Close()

	contentType := partContentType(header)
	if !strings.HasPrefix(contentType, typePrefix) {
		metrics.UploadFailuresTotal.WithLabelValues("content_type").Inc()
		writeError(w, http.StatusBadRequest, "the "+field+" file must be of type "+typePrefix+"*")
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read "+field+" part")
		return nil, false
	}

	return &usecase.FileInput{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
	}, true
}

func partContentType(header *multipart.FileHeader) string {
	raw := header.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return mediaType
}

func (s *Server) handlePodcastByID(w http.ResponseWriter, r *http.Request) {
	id := domain.EpisodeID(strings.TrimPrefix(r.URL.Path, "/api/podcast/"))
	if id == "" || strings.Contains(string(id), "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetPodcast(w, r, id)
	case http.MethodDelete:
		s.handleDeletePodcast(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGetPodcast(w http.ResponseWriter, r *http.Request, id domain.EpisodeID) {
	if s.getEpisode == nil {
		writeError(w, http.StatusInternalServerError, "get episode use case not configured")
		return
	}

	episode, err := s.getEpisode.Execute(r.Context(), id)
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}
	writeData(w, http.StatusOK, toEpisodeDetail(episode))
}

func (s *Server) handleDeletePodcast(w http.ResponseWriter, r *http.Request, id domain.EpisodeID) {
	if s.deleteEpisode == nil {
		writeError(w, http.StatusInternalServerError, "delete episode use case not configured")
		return
	}

	principal, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := s.deleteEpisode.Execute(ctx, id, principal.UserID); err != nil {
		s.writeUseCaseError(w, err)
		return
	}

	go s.BroadcastLibrary(context.Background())
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "episode deleted"})
}
