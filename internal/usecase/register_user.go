package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type RegisterUser struct {
	Users        ports.UserRepository
	HashPassword func(password string) (string, error)
	NewID        func() domain.UserID
	Now          func() time.Time
}

type RegisterUserInput struct {
	Email    string
	Password string
	Name     string
}

func (uc RegisterUser) Execute(ctx context.Context, input RegisterUserInput) (domain.UserRecord, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)

	if email == "" || input.Password == "" || name == "" {
		return domain.UserRecord{}, invalid("email, password and name are required")
	}
	if !emailRegex.MatchString(email) {
		return domain.UserRecord{}, invalid("email address is not valid")
	}

	// Pre-check for a friendlier error; the unique index is the authority.
	if _, err := uc.Users.GetByEmail(ctx, email); err == nil {
		return domain.UserRecord{}, ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.UserRecord{}, wrapRepo(err)
	}

	hash, err := uc.HashPassword(input.Password)
	if err != nil {
		return domain.UserRecord{}, err
	}

	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}

	record := domain.UserRecord{
		ID:           uc.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now(),
	}
	if err := uc.Users.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.UserRecord{}, ErrEmailTaken
		}
		return domain.UserRecord{}, wrapRepo(err)
	}
	return record, nil
}
