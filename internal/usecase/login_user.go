package usecase

import (
	"context"
	"errors"
	"strings"

	"podstream/internal/domain"
	"podstream/internal/domain/ports"
)

type LoginUser struct {
	Users         ports.UserRepository
	CheckPassword func(hash, password string) bool
}

type LoginUserInput struct {
	Email    string
	Password string
}

func (uc LoginUser) Execute(ctx context.Context, input LoginUserInput) (domain.UserRecord, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return domain.UserRecord{}, invalid("email and password are required")
	}

	user, err := uc.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Same error for unknown email and wrong password.
			return domain.UserRecord{}, ErrInvalidCredentials
		}
		return domain.UserRecord{}, wrapRepo(err)
	}
	if !uc.CheckPassword(user.PasswordHash, input.Password) {
		return domain.UserRecord{}, ErrInvalidCredentials
	}
	return user, nil
}
