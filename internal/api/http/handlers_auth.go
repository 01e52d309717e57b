package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"podstream/internal/domain"
	"podstream/internal/usecase"
)

type userResponse struct {
	ID    domain.UserID `json:"id"`
	Email string        `json:"email"`
	Name  string        `json:"name"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u domain.UserRecord) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.registerUser == nil || s.tokens == nil {
		writeError(w, http.StatusInternalServerError, "register use case not configured")
		return
	}

	var body registerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := s.registerUser.Execute(ctx, usecase.RegisterUserInput{
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
	})
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}

	token, err := s.tokens.IssueToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}

	writeData(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(user)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.loginUser == nil || s.tokens == nil {
		writeError(w, http.StatusInternalServerError, "login use case not configured")
		return
	}

	var body loginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := s.loginUser.Execute(ctx, usecase.LoginUserInput{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}

	token, err := s.tokens.IssueToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.writeUseCaseError(w, err)
		return
	}

	writeData(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}
