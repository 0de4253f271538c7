package chatbot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

// Message is one turn of a conversation as submitted by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assistant encapsulates model-backed responses. Respond returns the reply
// text and the total token count reported by the backend (0 when unknown).
type Assistant interface {
	Respond(ctx context.Context, system string, messages []Message) (string, int, error)
	Close() error
}

// AssistantConfig wires Gemini access.
type AssistantConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
}

// GeminiAssistant talks to the Gemini API.
type GeminiAssistant struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGeminiAssistant returns an Assistant backed by Gemini.
func NewGeminiAssistant(ctx context.Context, cfg AssistantConfig) (Assistant, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 400
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	if apiKey == "" {
		return nil, errors.New("gemini api key missing")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	return &GeminiAssistant{client: client, model: model, maxTokens: maxTokens}, nil
}

// Close releases underlying Gemini resources.
func (g *GeminiAssistant) Close() error {
	return nil
}

// Respond generates a reply from the full conversation history.
func (g *GeminiAssistant) Respond(ctx context.Context, system string, messages []Message) (string, int, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		contents = append(contents, genai.NewContentFromText(sanitizeInput(msg.Content), roleForMessage(msg.Role)))
	}
	if len(contents) == 0 {
		return "", 0, errors.New("no messages to respond to")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(float32(0.7)),
		MaxOutputTokens:   int32(g.maxTokens),
	})
	if err != nil {
		return "", 0, err
	}

	output := strings.TrimSpace(resp.Text())
	if output == "" {
		return "", 0, errors.New("gemini returned empty response")
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return output, tokens, nil
}

// sanitizeInput neutralizes common prompt injection patterns in user input.
func sanitizeInput(input string) string {
	sanitized := input

	patterns := []string{
		"ignore previous instructions",
		"forget all previous",
		"new instructions:",
		"system:",
		"you are now",
		"pretend you are",
		"act as if",
		"roleplay as",
	}

	lower := strings.ToLower(sanitized)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(pattern))
			sanitized = re.ReplaceAllString(sanitized, "[redacted]")
		}
	}

	if len(sanitized) > 2000 {
		sanitized = sanitized[:2000] + "..."
	}
	return sanitized
}

func roleForMessage(role string) genai.Role {
	if role == "assistant" {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// TemplateAssistant is a fallback when Gemini is unavailable.
type TemplateAssistant struct{}

// NewTemplateAssistant returns a deterministic responder.
func NewTemplateAssistant() Assistant {
	return &TemplateAssistant{}
}

// Respond returns a static message indicating the assistant is offline.
func (t *TemplateAssistant) Respond(ctx context.Context, system string, messages []Message) (string, int, error) {
	return "I'm currently unavailable, but your wellbeing still matters. " +
		"Consider journaling how you feel right now, or logging a mood entry so we can pick this up later. " +
		"If you need to talk to someone immediately, the 988 Suicide & Crisis Lifeline is available 24/7.", 0, nil
}

// Close is a no-op for the template assistant.
func (t *TemplateAssistant) Close() error { return nil }
