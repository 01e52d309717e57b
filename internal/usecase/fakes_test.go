package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

type fakeEpisodeRepo struct {
	mu       sync.Mutex
	records  map[domain.EpisodeID]domain.EpisodeRecord
	createErr error
	getErr    error
	deleteErr error
}

func newFakeEpisodeRepo() *fakeEpisodeRepo {
	return &fakeEpisodeRepo{records: map[domain.EpisodeID]domain.EpisodeRecord{}}
}

func (f *fakeEpisodeRepo) Create(ctx context.Context, e domain.EpisodeRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[e.ID]; ok {
		return domain.ErrAlreadyExists
	}
	f.records[e.ID] = e
	return nil
}

func (f *fakeEpisodeRepo) Get(ctx context.Context, id domain.EpisodeID) (domain.EpisodeRecord, error) {
	if f.getErr != nil {
		return domain.EpisodeRecord{}, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return domain.EpisodeRecord{}, domain.ErrNotFound
	}
	return record, nil
}

func (f *fakeEpisodeRepo) List(ctx context.Context) ([]domain.EpisodeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EpisodeRecord, 0, len(f.records))
	for _, record := range f.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEpisodeRepo) Delete(ctx context.Context, id domain.EpisodeID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeEpisodeRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	users   map[domain.UserID]domain.UserRecord
	byEmail map[string]domain.UserID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:   map[domain.UserID]domain.UserRecord{},
		byEmail: map[string]domain.UserID{},
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := f.byEmail[email]; ok {
		return domain.ErrAlreadyExists
	}
	f.users[u.ID] = u
	f.byEmail[email] = u.ID
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.UserRecord{}, domain.ErrNotFound
	}
	return f.users[id], nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id domain.UserID) (domain.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return domain.UserRecord{}, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetMany(ctx context.Context, ids []domain.UserID) ([]domain.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.UserRecord, 0, len(ids))
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

type storedBlob struct {
	data []byte
	info domain.BlobInfo
}

type fakeBlobStore struct {
	mu        sync.Mutex
	blobs     map[domain.BlobID]storedBlob
	nextID    int
	uploadErr error
	deleteErr error
	deleted   []domain.BlobID
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[domain.BlobID]storedBlob{}}
}

func (f *fakeBlobStore) Upload(ctx context.Context, src io.Reader, meta ports.BlobUpload) (domain.BlobID, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := domain.BlobID(fmt.Sprintf("6500000000000000000000%02x", f.nextID))
	f.blobs[id] = storedBlob{
		data: data,
		info: domain.BlobInfo{
			ID:          id,
			Length:      int64(len(data)),
			ContentType: meta.ContentType,
			Filename:    meta.Filename,
			Role:        meta.Role,
			UploaderID:  meta.UploaderID,
		},
	}
	return id, nil
}

func (f *fakeBlobStore) Download(ctx context.Context, id domain.BlobID) (io.ReadCloser, domain.BlobInfo, error) {
	return f.DownloadRange(ctx, id, 0, -1)
}

func (f *fakeBlobStore) DownloadRange(ctx context.Context, id domain.BlobID, offset, length int64) (io.ReadCloser, domain.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.blobs[id]
	if !ok {
		return nil, domain.BlobInfo{}, domain.ErrNotFound
	}
	data := blob.data
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	data = data[offset:]
	if length >= 0 && length < int64(len(data)) {
		data = data[:length]
	}
	return io.NopCloser(bytes.NewReader(data)), blob.info, nil
}

func (f *fakeBlobStore) Stat(ctx context.Context, id domain.BlobID) (domain.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, ok := f.blobs[id]
	if !ok {
		return domain.BlobInfo{}, domain.ErrNotFound
	}
	return blob.info, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, id domain.BlobID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.blobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.blobs, id)
	return nil
}

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}
