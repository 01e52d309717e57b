// Package client is the Go consumer of the podstream REST API: typed
// wrappers over the HTTP surface plus the view-model mapping used by the
// terminal front end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("request rejected")
	ErrServer       = errors.New("server error")
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
}

type Session struct {
	Token string `json:"token"`
	User  Owner  `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, password, name string) (Session, error) {
	var session Session
	err := c.postJSON(ctx, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &session)
	if err != nil {
		return Session{}, err
	}
	c.token = session.Token
	return session, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var session Session
	err := c.postJSON(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return Session{}, err
	}
	c.token = session.Token
	return session, nil
}

func (c *Client) ListEpisodes(ctx context.Context) ([]Episode, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/podcasts", nil, "")
	if err != nil {
		return nil, err
	}
	var episodes []Episode
	if err := c.do(req, &episodes); err != nil {
		return nil, err
	}
	for i := range episodes {
		episodes[i].absolutize(c.baseURL)
	}
	return episodes, nil
}

func (c *Client) GetEpisode(ctx context.Context, id string) (Episode, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/podcast/"+id, nil, "")
	if err != nil {
		return Episode{}, err
	}
	var episode Episode
	if err := c.do(req, &episode); err != nil {
		return Episode{}, err
	}
	episode.absolutize(c.baseURL)
	return episode, nil
}

// Upload is one media part of a CreateEpisode call.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreateEpisodeInput struct {
	Title       string
	Description string
	Author      string
	Category    string
	Audio       Upload
	Image       *Upload
}

func (c *Client) CreateEpisode(ctx context.Context, input CreateEpisodeInput) (Episode, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"title":       input.Title,
		"description": input.Description,
		"author":      input.Author,
		"category":    input.Category,
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return Episode{}, err
		}
	}

	if err := writeFilePart(writer, "audio", input.Audio); err != nil {
		return Episode{}, err
	}
	if input.Image != nil {
		if err := writeFilePart(writer, "image", *input.Image); err != nil {
			return Episode{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return Episode{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/podcast", body, writer.FormDataContentType())
	if err != nil {
		return Episode{}, err
	}
	var episode Episode
	if err := c.do(req, &episode); err != nil {
		return Episode{}, err
	}
	episode.absolutize(c.baseURL)
	return episode, nil
}

func (c *Client) DeleteEpisode(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/podcast/"+id, nil, "")
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// DownloadAudio streams an episode's audio. The caller owns the reader.
func (c *Client) DownloadAudio(ctx context.Context, audioURL string) (io.ReadCloser, string, error) {
	url := audioURL
	if !strings.Contains(url, "://") {
		url = c.baseURL + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", statusError(resp.StatusCode, "")
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func writeFilePart(writer *multipart.Writer, field string, upload Upload) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, upload.Filename))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(upload.Data)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return statusError(resp.StatusCode, "")
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return statusError(resp.StatusCode, env.Message)
	}
	if out == nil || env.Data == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func statusError(status int, message string) error {
	var sentinel error
	switch {
	case status == http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case status == http.StatusForbidden:
		sentinel = ErrForbidden
	case status == http.StatusNotFound:
		sentinel = ErrNotFound
	case status >= 400 && status < 500:
		sentinel = ErrValidation
	default:
		sentinel = ErrServer
	}
	if message == "" {
		return fmt.Errorf("%w (http %d)", sentinel, status)
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}
