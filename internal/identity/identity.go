// Package identity issues and verifies signed bearer tokens and hashes
// account passwords. Verification is stateless; there is no revocation list,
// so a discarded token stays valid until its natural expiry.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"podstream/internal/domain"
)

var ErrUnauthorized = errors.New("unauthorized")

const bcryptCost = 12

// Principal is the identity carried by a verified token.
type Principal struct {
	UserID domain.UserID
	Email  string
	Name   string
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Service struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// New constructs the identity service. The signing secret must be non-empty;
// main treats a missing secret as a fatal configuration error.
func New(secret string, expiry time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	return &Service{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

func (s *Service) IssueToken(userID domain.UserID, email, name string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			Issuer:    "podstream",
		},
		Email: email,
		Name:  name,
	})
	return token.SignedString(s.secret)
}

func (s *Service) VerifyToken(tokenStr string) (Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return Principal{}, ErrUnauthorized
	}
	return Principal{UserID: domain.UserID(c.Subject), Email: c.Email, Name: c.Name}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
