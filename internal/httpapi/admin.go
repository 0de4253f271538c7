package httpapi

import (
	"context"
	"net/http"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/apierr"
)

type storageActionRequest struct {
	Action string `json:"action" validate:"required"`
}

func (h *Handler) getStorageInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if r.URL.Query().Get("action") == "health" {
		if h.remote == nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"health": map[string]any{
					"status":  "unavailable",
					"details": map[string]any{"reason": "object storage is not configured"},
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"health": h.remote.HealthCheck(ctx)})
		return
	}

	info, err := h.store.StorageInfo(ctx)
	if err != nil {
		logRequestError(r.Context(), h.log, "storage info failed", err, "")
		writeError(w, r, apierr.CodeInternal, "failed to read storage info")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"storage": info})
}

func (h *Handler) storageAction(w http.ResponseWriter, r *http.Request) {
	var req storageActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "action is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	switch req.Action {
	case "migrate-to-s3":
		count, err := h.store.MigrateToRemote(ctx)
		if err != nil {
			logRequestError(r.Context(), h.log, "migration failed", err, "")
			writeError(w, r, apierr.CodeInternal, "migration to object storage failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"message":       "Migration completed",
			"migratedUsers": count,
		})

	case "create-backup":
		if h.remote == nil {
			writeError(w, r, apierr.CodeBadRequest, "object storage is not configured")
			return
		}
		users, err := h.store.GetAll(ctx)
		if err != nil {
			logRequestError(r.Context(), h.log, "loading users for backup failed", err, "")
			writeError(w, r, apierr.CodeInternal, "backup failed")
			return
		}
		key, err := h.remote.CreateBackup(ctx, users)
		if err != nil {
			logRequestError(r.Context(), h.log, "backup failed", err, "")
			writeError(w, r, apierr.CodeInternal, "backup failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"message":   "Backup created",
			"backupKey": key,
		})

	case "test-s3-connection":
		if h.remote == nil {
			writeError(w, r, apierr.CodeBadRequest, "object storage is not configured")
			return
		}
		health := h.remote.HealthCheck(ctx)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": health.Status == "healthy",
			"health":  health,
		})

	default:
		writeError(w, r, apierr.CodeBadRequest, "unknown action: "+req.Action)
	}
}

// storageEcho mirrors the request body back with the current storage info.
// Used by the frontend to verify round-trip serialization against whichever
// backend is active.
func (h *Handler) storageEcho(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	info, err := h.store.StorageInfo(ctx)
	if err != nil {
		logRequestError(r.Context(), h.log, "storage info failed", err, "")
		writeError(w, r, apierr.CodeInternal, "failed to read storage info")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"echo":    body,
		"storage": info,
	})
}

func (h *Handler) debugUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	users, err := h.store.GetAll(ctx)
	if err != nil {
		logRequestError(r.Context(), h.log, "debug listing failed", err, "")
		writeError(w, r, apierr.CodeInternal, "failed to list users")
		return
	}

	summaries := make([]userSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, summarize(&users[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(summaries),
		"users": summaries,
	})
}
