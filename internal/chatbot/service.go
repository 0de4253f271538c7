package chatbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

// ErrEmptyConversation is returned when a chat request carries no messages.
var ErrEmptyConversation = errors.New("conversation has no messages")

// RateLimitError reports that the usage tracker refused the request.
type RateLimitError struct {
	Reason string
}

func (e *RateLimitError) Error() string {
	return e.Reason
}

// UserStore is the slice of the user store the chat pipeline needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Message          string      `json:"message"`
	TokensUsed       int         `json:"tokensUsed"`
	RequestCost      string      `json:"requestCost"`
	IsCrisisResponse bool        `json:"isCrisisResponse"`
	UserContext      UserContext `json:"userContext"`
}

// Service orchestrates chat turns: crisis screening, usage gating, context
// enrichment, and the model call.
type Service struct {
	store     UserStore
	assistant Assistant
	tracker   *UsageTracker
	log       *slog.Logger
}

// NewService wires the chat pipeline.
func NewService(store UserStore, assistant Assistant, tracker *UsageTracker, log *slog.Logger) (*Service, error) {
	if tracker == nil {
		return nil, errors.New("usage tracker is required")
	}
	if assistant == nil {
		assistant = NewTemplateAssistant()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, assistant: assistant, tracker: tracker, log: log}, nil
}

// Chat runs one turn of the conversation. Crisis language in the latest user
// message short-circuits before any usage accounting; the canned response is
// free and always available. userID may be empty, in which case no context
// enrichment happens.
func (s *Service) Chat(ctx context.Context, userID string, messages []Message) (*ChatResult, error) {
	latest := latestUserMessage(messages)
	if latest == "" {
		return nil, ErrEmptyConversation
	}

	if DetectCrisis(latest) {
		s.log.Warn("crisis language detected, returning support resources", "userID", userID)
		return &ChatResult{
			Message:          CrisisResponse,
			TokensUsed:       0,
			RequestCost:      "0.0000",
			IsCrisisResponse: true,
		}, nil
	}

	if allowed, reason := s.tracker.CanMakeRequest(); !allowed {
		return nil, &RateLimitError{Reason: reason}
	}

	userCtx := s.lookupContext(ctx, userID)

	system := systemPrompt() + userCtx.PromptBlock()
	reply, tokens, err := s.assistant.Respond(ctx, system, messages)
	if err != nil {
		return nil, fmt.Errorf("assistant respond: %w", err)
	}

	usage := s.tracker.RecordRequest(tokens)
	s.log.Info("chat turn completed",
		"userID", userID,
		"tokens", tokens,
		"requestCost", usage.RequestCost,
		"dailyTotal", usage.DailyTotal)

	return &ChatResult{
		Message:     reply,
		TokensUsed:  tokens,
		RequestCost: fmt.Sprintf("%.4f", usage.RequestCost),
		UserContext: userCtx,
	}, nil
}

// UsageStats exposes the tracker's counters.
func (s *Service) UsageStats() UsageStats {
	return s.tracker.Stats()
}

// lookupContext loads the user's tracking summary. Lookup failures degrade to
// an empty context rather than failing the chat turn.
func (s *Service) lookupContext(ctx context.Context, userID string) UserContext {
	if userID == "" || s.store == nil {
		return UserContext{}
	}
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			s.log.Warn("loading user context failed", "userID", userID, "error", err)
		}
		return UserContext{}
	}
	return BuildUserContext(u)
}

func latestUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

// DeriveTitle builds a session title from the first prompt, capped at six
// words and title-cased.
func DeriveTitle(prompt string) string {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return fmt.Sprintf("Chat %s", time.Now().Format("Jan 02 15:04"))
	}
	words := strings.Fields(trimmed)
	if len(words) > 6 {
		words = words[:6]
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func systemPrompt() string {
	return `You are a compassionate mental health support companion for a mental wellness app. Your role is to provide emotional support, coping strategies, and general mental health education.

Guidelines:
- Be warm, empathetic, and non-judgmental in every response
- Listen actively and validate the user's feelings before offering suggestions
- Offer evidence-based coping strategies: breathing exercises, grounding techniques, journaling prompts, cognitive reframing
- Encourage professional help when appropriate, but never diagnose conditions or prescribe treatment
- Keep responses concise and conversational, around 2-4 sentences unless the user asks for detail
- If the user mentions self-harm or suicide, immediately provide crisis resources: the 988 Suicide & Crisis Lifeline and the Crisis Text Line (text HOME to 741741)
- Reference the user's tracking data when it is provided, but do so gently and only when relevant
- You are a support tool, not a replacement for therapy; remind users of this when they ask for clinical advice`
}
