package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/auth"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/chatbot"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/server"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

// newTestServer stands up the full router on a local file store with noop
// auth, so the bearer token is the user ID.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	file := user.NewFileStore(filepath.Join(t.TempDir(), "users.json"), logger)
	store := user.NewHybridStore(file, nil, false, logger)

	tracker := chatbot.NewUsageTracker(nil)
	chatService, err := chatbot.NewService(store, chatbot.NewTemplateAssistant(), tracker, logger)
	if err != nil {
		t.Fatalf("chat service: %v", err)
	}

	verifier, err := auth.NewVerifier(auth.Config{Mode: auth.ModeNoop})
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}

	handler := NewHandler(store, chatService, nil, verifier, auth.ModeNoop, "", time.Hour, logger)
	router := server.NewRouter("mental-health-api-test", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	// Middleware failures write plain text; tolerate non-JSON bodies.
	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func signupUser(t *testing.T, srv *httptest.Server, email, name string) string {
	t.Helper()
	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "", map[string]any{
		"email":    email,
		"password": "password123",
		"name":     name,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %v", resp.StatusCode, payload)
	}
	u := payload["user"].(map[string]any)
	return u["id"].(string)
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(t)

	userID := signupUser(t, srv, "alice@example.com", "Alice")
	if userID == "" {
		t.Fatal("signup returned an empty user id")
	}

	// Duplicate email is refused.
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
		"name":     "Alice Again",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", resp.StatusCode)
	}

	// Short password is refused.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "", map[string]any{
		"email":    "bob@example.com",
		"password": "short",
		"name":     "Bob",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak password status = %d, want 400", resp.StatusCode)
	}

	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %v", resp.StatusCode, payload)
	}
	if payload["token"] != userID {
		t.Fatalf("noop login token = %v, want the user id", payload["token"])
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}
}

func TestProfileAndMoodFlow(t *testing.T) {
	srv := newTestServer(t)
	userID := signupUser(t, srv, "alice@example.com", "Alice")

	resp, payload := doJSON(t, http.MethodGet, srv.URL+"/api/profile/"+userID, userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile status = %d, body = %v", resp.StatusCode, payload)
	}
	if payload["profile"] == nil || payload["user"] == nil {
		t.Fatalf("profile payload missing keys: %v", payload)
	}

	// A token for another user cannot read this profile.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/profile/"+userID, "someone_else", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user profile status = %d, want 403", resp.StatusCode)
	}

	// No token at all is unauthorized.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/profile/"+userID, "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous profile status = %d, want 401", resp.StatusCode)
	}

	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/api/profile/"+userID+"/mood", userID, map[string]any{
		"mood":  7,
		"notes": "pretty good day",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add mood status = %d, body = %v", resp.StatusCode, payload)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/profile/"+userID+"/mood", userID, map[string]any{
		"mood": 15,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out-of-range mood status = %d, want 400", resp.StatusCode)
	}

	resp, payload = doJSON(t, http.MethodPut, srv.URL+"/api/profile/"+userID, userID, map[string]any{
		"bio": "learning to slow down",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update profile status = %d, body = %v", resp.StatusCode, payload)
	}
	profile := payload["profile"].(map[string]any)
	if profile["bio"] != "learning to slow down" {
		t.Fatalf("bio = %v", profile["bio"])
	}
}

func TestChatSessionFlow(t *testing.T) {
	srv := newTestServer(t)
	userID := signupUser(t, srv, "alice@example.com", "Alice")

	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/api/chatbot/history", userID, map[string]any{
		"userId": userID,
		"title":  "Evening Thoughts",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create session status = %d, body = %v", resp.StatusCode, payload)
	}
	sessionID := payload["sessionId"].(string)

	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/api/chatbot/session/"+sessionID, userID, map[string]any{
		"userId": userID,
		"message": map[string]any{
			"id":        "msg_1",
			"role":      "user",
			"content":   "today was hard but I managed",
			"timestamp": "2026-03-01T20:00:00.000Z",
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save message status = %d, body = %v", resp.StatusCode, payload)
	}

	resp, payload = doJSON(t, http.MethodGet, srv.URL+"/api/chatbot/history?userId="+userID, userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d, body = %v", resp.StatusCode, payload)
	}
	history := payload["chatHistory"].([]any)
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	summary := history[0].(map[string]any)
	if summary["messageCount"].(float64) != 1 {
		t.Fatalf("messageCount = %v, want 1", summary["messageCount"])
	}
	if summary["lastMessage"] != "today was hard but I managed" {
		t.Fatalf("lastMessage = %v", summary["lastMessage"])
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/chatbot/session/"+sessionID, userID, map[string]any{
		"userId": userID,
		"title":  "A Better Title",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/chatbot/session/"+sessionID+"?userId="+userID, userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/chatbot/session/"+sessionID+"?userId="+userID, userID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted session status = %d, want 404", resp.StatusCode)
	}
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(t)
	userID := signupUser(t, srv, "alice@example.com", "Alice")

	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/api/chatbot/chat", userID, map[string]any{
		"userId": userID,
		"messages": []map[string]any{
			{"role": "user", "content": "I had a rough week"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d, body = %v", resp.StatusCode, payload)
	}
	if payload["message"] == "" {
		t.Fatal("chat returned an empty message")
	}
	if payload["isCrisisResponse"].(bool) {
		t.Fatal("benign message flagged as crisis")
	}

	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/api/chatbot/chat", userID, map[string]any{
		"userId": userID,
		"messages": []map[string]any{
			{"role": "user", "content": "I want to end my life"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("crisis chat status = %d", resp.StatusCode)
	}
	if !payload["isCrisisResponse"].(bool) {
		t.Fatal("crisis message not flagged")
	}
	if payload["requestCost"] != "0.0000" {
		t.Fatalf("crisis requestCost = %v, want 0.0000", payload["requestCost"])
	}

	resp, payload = doJSON(t, http.MethodGet, srv.URL+"/api/chatbot/usage", userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("usage status = %d", resp.StatusCode)
	}
	// Only the non-crisis turn counts.
	if payload["requestsToday"].(float64) != 1 {
		t.Fatalf("requestsToday = %v, want 1", payload["requestsToday"])
	}
}

func TestStorageAdminEndpoints(t *testing.T) {
	srv := newTestServer(t)
	signupUser(t, srv, "alice@example.com", "Alice")

	resp, payload := doJSON(t, http.MethodGet, srv.URL+"/api/admin/storage", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("storage info status = %d", resp.StatusCode)
	}
	storage := payload["storage"].(map[string]any)
	if storage["storageType"] != "local" {
		t.Fatalf("storageType = %v, want local", storage["storageType"])
	}
	if storage["userCount"].(float64) != 1 {
		t.Fatalf("userCount = %v, want 1", storage["userCount"])
	}

	resp, payload = doJSON(t, http.MethodGet, srv.URL+"/api/admin/storage?action=health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	health := payload["health"].(map[string]any)
	if health["status"] != "unavailable" {
		t.Fatalf("health status = %v, want unavailable without object storage", health["status"])
	}

	// Migration needs a configured remote backend.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/admin/storage", "", map[string]any{
		"action": "migrate-to-s3",
	})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("migrate without remote status = %d, want 500", resp.StatusCode)
	}

	resp, payload = doJSON(t, http.MethodGet, srv.URL+"/api/debug/users", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("debug users status = %d", resp.StatusCode)
	}
	users := payload["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("debug users = %d, want 1", len(users))
	}
	if _, hasPassword := users[0].(map[string]any)["password"]; hasPassword {
		t.Fatal("debug listing must not expose password hashes")
	}
}
