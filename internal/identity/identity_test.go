package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podstream/internal/domain"
)

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("", time.Hour)
	require.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc, err := New("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := svc.IssueToken(domain.UserID("64f000000000000000000001"), "a@b.com", "A")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("64f000000000000000000001"), principal.UserID)
	assert.Equal(t, "a@b.com", principal.Email)
	assert.Equal(t, "A", principal.Name)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := New("secret-one", time.Hour)
	require.NoError(t, err)
	verifier, err := New("secret-two", time.Hour)
	require.NoError(t, err)

	token, err := issuer.IssueToken("64f000000000000000000001", "a@b.com", "A")
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc, err := New("test-secret", time.Minute)
	require.NoError(t, err)

	issuedAt := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.IssueToken("64f000000000000000000001", "a@b.com", "A")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.VerifyToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc, err := New("test-secret", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.VerifyToken(token)
		assert.ErrorIs(t, err, ErrUnauthorized, "token %q", token)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
}
