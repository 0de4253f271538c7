package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/apierr"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

type profileUpdateRequest struct {
	Name           *string           `json:"name,omitempty"`
	Email          *string           `json:"email,omitempty" validate:"omitempty,email"`
	Bio            *string           `json:"bio,omitempty"`
	ProfilePicture *string           `json:"profilePicture,omitempty"`
	Preferences    *user.Preferences `json:"preferences,omitempty"`
}

type moodEntryRequest struct {
	Mood             int      `json:"mood" validate:"required,min=1,max=10"`
	Notes            string   `json:"notes"`
	Triggers         []string `json:"triggers"`
	CopingStrategies []string `json:"copingStrategies"`
}

type weeklyCheckinRequest struct {
	OverallMood       int      `json:"overallMood" validate:"required,min=1,max=10"`
	SleepQuality      int      `json:"sleepQuality" validate:"required,min=1,max=10"`
	StressLevel       int      `json:"stressLevel" validate:"required,min=1,max=10"`
	ExerciseFrequency int      `json:"exerciseFrequency" validate:"min=0,max=7"`
	SocialConnection  int      `json:"socialConnection" validate:"omitempty,min=1,max=10"`
	Notes             string   `json:"notes"`
	Improvements      []string `json:"improvements"`
	Challenges        []string `json:"challenges"`
}

type favoriteResourceRequest struct {
	Type  string `json:"type" validate:"required"`
	Title string `json:"title" validate:"required"`
	URL   string `json:"url"`
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.authorizeUser(w, r, userID) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	u, err := h.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			writeError(w, r, apierr.CodeNotFound, "user not found")
			return
		}
		logRequestError(r.Context(), h.log, "profile lookup failed", err, userID)
		writeError(w, r, apierr.CodeInternal, "failed to load profile")
		return
	}

	if err := h.store.UpdateLastActive(ctx, userID); err != nil {
		logRequestError(r.Context(), h.log, "updating last active failed", err, userID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":    summarize(u),
		"profile": u.Profile,
	})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.authorizeUser(w, r, userID) {
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "invalid profile update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if req.Name != nil || req.Email != nil {
		if err := h.store.Update(ctx, userID, user.UserUpdate{Name: req.Name, Email: req.Email}); err != nil {
			h.writeStoreError(w, r, "failed to update account", err, userID)
			return
		}
	}

	profile, err := h.store.UpdateProfile(ctx, userID, user.ProfileUpdate{
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
		Preferences:    req.Preferences,
	})
	if err != nil {
		h.writeStoreError(w, r, "failed to update profile", err, userID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"profile": profile,
	})
}

func (h *Handler) addMoodEntry(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.authorizeUser(w, r, userID) {
		return
	}

	var req moodEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "mood must be between 1 and 10")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.store.AddMoodEntry(ctx, userID, user.MoodEntryInput{
		Mood:             req.Mood,
		Notes:            req.Notes,
		Triggers:         req.Triggers,
		CopingStrategies: req.CopingStrategies,
	})
	if err != nil {
		h.writeStoreError(w, r, "failed to add mood entry", err, userID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mood entry added successfully",
	})
}

func (h *Handler) addWeeklyCheckin(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.authorizeUser(w, r, userID) {
		return
	}

	var req weeklyCheckinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "check-in scores must be between 1 and 10")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.store.AddWeeklyCheckin(ctx, userID, user.WeeklyCheckinInput{
		OverallMood:       req.OverallMood,
		SleepQuality:      req.SleepQuality,
		StressLevel:       req.StressLevel,
		ExerciseFrequency: req.ExerciseFrequency,
		SocialConnection:  req.SocialConnection,
		Notes:             req.Notes,
		Improvements:      req.Improvements,
		Challenges:        req.Challenges,
	})
	if err != nil {
		h.writeStoreError(w, r, "failed to add weekly check-in", err, userID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Weekly check-in saved successfully",
	})
}

func (h *Handler) addFavoriteResource(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if !h.authorizeUser(w, r, userID) {
		return
	}

	var req favoriteResourceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "type and title are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	err := h.store.AddFavoriteResource(ctx, userID, user.FavoriteResourceInput{
		Type:  req.Type,
		Title: req.Title,
		URL:   req.URL,
	})
	if err != nil {
		h.writeStoreError(w, r, "failed to save favorite resource", err, userID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Resource added to favorites",
	})
}

// writeStoreError maps store sentinels onto the error envelope.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, message string, err error, userID string) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, r, apierr.CodeNotFound, "user not found")
	case errors.Is(err, user.ErrSessionNotFound):
		writeError(w, r, apierr.CodeNotFound, "chat session not found")
	default:
		logRequestError(r.Context(), h.log, message, err, userID)
		writeError(w, r, apierr.CodeInternal, message)
	}
}
