// Package httpapi exposes the REST surface: auth, profile and tracking
// routes, the chatbot endpoints, and the storage admin interface.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/apierr"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/logging"
)

const maxBodyBytes = 1 << 20 // 1MB of JSON covers every request this API accepts

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code string, message string) {
	writeJSON(w, apierr.ToStatusCode(code), apierr.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// decodeJSON reads and validates a request body into dst. dst must carry
// validator tags for field level checks to apply.
func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// decodeBody reads a request body without struct validation. Used where the
// payload is free-form.
func decodeBody(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logging.WithRequestID(logger, reqID)
	}
	logger.Error(message, slog.String("userId", userID), slog.Any("error", err))
}
