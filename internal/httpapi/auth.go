package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/apierr"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/auth"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// userSummary is the account shape returned to clients. The password hash
// never leaves the store through this type.
type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func summarize(u *user.User) userSummary {
	return userSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "email, password (min 8 characters) and name are required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if _, err := h.store.FindByEmail(ctx, email); err == nil {
		writeError(w, r, apierr.CodeConflict, "an account with this email already exists")
		return
	} else if !errors.Is(err, user.ErrUserNotFound) {
		logRequestError(r.Context(), h.log, "signup lookup failed", err, "")
		writeError(w, r, apierr.CodeInternal, "failed to create account")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logRequestError(r.Context(), h.log, "password hashing failed", err, "")
		writeError(w, r, apierr.CodeInternal, "failed to create account")
		return
	}

	created, err := h.store.Create(ctx, user.NewUserInput{
		Email:    email,
		Password: hash,
		Name:     strings.TrimSpace(req.Name),
	})
	if err != nil {
		logRequestError(r.Context(), h.log, "user creation failed", err, "")
		writeError(w, r, apierr.CodeInternal, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": summarize(created)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "email and password are required")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	u, err := h.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeError(w, r, apierr.CodeUnauthorized, "invalid email or password")
			return
		}
		logRequestError(r.Context(), h.log, "login lookup failed", err, "")
		writeError(w, r, apierr.CodeInternal, "failed to log in")
		return
	}

	if !auth.CheckPassword(u.Password, req.Password) {
		writeError(w, r, apierr.CodeUnauthorized, "invalid email or password")
		return
	}

	token := u.ID
	if h.authMode == auth.ModeHS256 {
		token, err = auth.IssueToken(h.secret, u.ID, h.tokenTTL)
		if err != nil {
			logRequestError(r.Context(), h.log, "token issuance failed", err, u.ID)
			writeError(w, r, apierr.CodeInternal, "failed to log in")
			return
		}
	}

	if err := h.store.UpdateLastActive(ctx, u.ID); err != nil {
		logRequestError(r.Context(), h.log, "updating last active failed", err, u.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  summarize(u),
	})
}
