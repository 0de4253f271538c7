package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/apierr"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/chatbot"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

type createSessionRequest struct {
	UserID string `json:"userId" validate:"required"`
	Title  string `json:"title"`
}

type saveMessageRequest struct {
	UserID  string           `json:"userId" validate:"required"`
	Message user.ChatMessage `json:"message"`
}

type renameSessionRequest struct {
	UserID string `json:"userId" validate:"required"`
	Title  string `json:"title" validate:"required"`
}

type chatRequest struct {
	UserID   string            `json:"userId"`
	Messages []chatbot.Message `json:"messages" validate:"required,min=1"`
}

// sessionSummary is the list shape for /api/chatbot/history.
type sessionSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CreatedAt     string `json:"createdAt"`
	LastMessageAt string `json:"lastMessageAt"`
	MessageCount  int    `json:"messageCount"`
	LastMessage   string `json:"lastMessage,omitempty"`
}

func summarizeSession(s user.ChatSession) sessionSummary {
	summary := sessionSummary{
		ID:            s.ID,
		Title:         s.Title,
		CreatedAt:     s.CreatedAt,
		LastMessageAt: s.LastMessageAt,
		MessageCount:  len(s.Messages),
	}
	if len(s.Messages) > 0 {
		last := s.Messages[len(s.Messages)-1].Content
		if len(last) > 100 {
			last = last[:100] + "..."
		}
		summary.LastMessage = last
	}
	return summary
}

func (h *Handler) getChatHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, r, apierr.CodeBadRequest, "userId query parameter is required")
		return
	}
	if !h.authorizeUser(w, r, userID) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	sessions, err := h.store.GetChatHistory(ctx, userID)
	if err != nil {
		h.writeStoreError(w, r, "failed to load chat history", err, userID)
		return
	}

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, summarizeSession(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"chatHistory": summaries})
}

func (h *Handler) createChatSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "userId is required")
		return
	}
	if !h.authorizeUser(w, r, req.UserID) {
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = chatbot.DeriveTitle("")
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	sessionID, err := h.store.CreateChatSession(ctx, req.UserID, title)
	if err != nil {
		h.writeStoreError(w, r, "failed to create chat session", err, req.UserID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": sessionID,
		"message":   "Chat session created",
	})
}

func (h *Handler) deleteChatSessionByQuery(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	sessionID := r.URL.Query().Get("sessionId")
	if userID == "" || sessionID == "" {
		writeError(w, r, apierr.CodeBadRequest, "userId and sessionId query parameters are required")
		return
	}
	h.removeSession(w, r, userID, sessionID)
}

func (h *Handler) getChatSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, r, apierr.CodeBadRequest, "userId query parameter is required")
		return
	}
	if !h.authorizeUser(w, r, userID) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	session, err := h.store.GetChatSession(ctx, userID, sessionID)
	if err != nil {
		h.writeStoreError(w, r, "failed to load chat session", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"session": session,
	})
}

func (h *Handler) saveChatMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req saveMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "userId and message are required")
		return
	}
	if !h.authorizeUser(w, r, req.UserID) {
		return
	}
	if strings.TrimSpace(req.Message.Content) == "" {
		writeError(w, r, apierr.CodeBadRequest, "message content is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.store.SaveChatMessage(ctx, req.UserID, sessionID, req.Message); err != nil {
		h.writeStoreError(w, r, "failed to save chat message", err, req.UserID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) renameChatSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req renameSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "userId and title are required")
		return
	}
	if !h.authorizeUser(w, r, req.UserID) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.store.UpdateChatSessionTitle(ctx, req.UserID, sessionID, strings.TrimSpace(req.Title)); err != nil {
		h.writeStoreError(w, r, "failed to rename chat session", err, req.UserID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) deleteChatSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, r, apierr.CodeBadRequest, "userId query parameter is required")
		return
	}
	h.removeSession(w, r, userID, sessionID)
}

func (h *Handler) removeSession(w http.ResponseWriter, r *http.Request, userID, sessionID string) {
	if !h.authorizeUser(w, r, userID) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.store.DeleteChatSession(ctx, userID, sessionID); err != nil {
		h.writeStoreError(w, r, "failed to delete chat session", err, userID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Chat session deleted",
	})
}

func (h *Handler) postChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, apierr.CodeBadRequest, "messages are required")
		return
	}
	if req.UserID != "" && !h.authorizeUser(w, r, req.UserID) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.chat.Chat(ctx, req.UserID, req.Messages)
	if err != nil {
		var rateErr *chatbot.RateLimitError
		switch {
		case errors.As(err, &rateErr):
			writeError(w, r, apierr.CodeRateLimited, rateErr.Reason)
		case errors.Is(err, chatbot.ErrEmptyConversation):
			writeError(w, r, apierr.CodeBadRequest, "conversation has no user message")
		default:
			logRequestError(r.Context(), h.log, "chat turn failed", err, req.UserID)
			writeError(w, r, apierr.CodeInternal, "failed to generate a response")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.UsageStats())
}
