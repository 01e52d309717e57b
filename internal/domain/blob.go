package domain

// BlobRole records which episode field a blob backs.
type BlobRole string

const (
	BlobRoleAudio BlobRole = "audio"
	BlobRoleImage BlobRole = "image"
)

// BlobInfo describes a stored blob. ContentType and Filename come from the
// uploader; Length is the stored byte count reported by the blob store.
type BlobInfo struct {
	ID          BlobID
	Length      int64
	ContentType string
	Filename    string
	Role        BlobRole
	UploaderID  UserID
}
