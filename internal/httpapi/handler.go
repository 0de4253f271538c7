package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/apierr"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/auth"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/chatbot"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/s3store"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

const serviceTimeout = 15 * time.Second

// Handler bundles the dependencies shared by all route groups.
type Handler struct {
	store    *user.HybridStore
	chat     *chatbot.Service
	remote   *s3store.Store // nil when object storage is not configured
	verifier auth.Verifier
	authMode auth.Mode
	secret   string
	tokenTTL time.Duration
	log      *slog.Logger
}

// NewHandler wires the REST surface. remote may be nil.
func NewHandler(store *user.HybridStore, chat *chatbot.Service, remote *s3store.Store, verifier auth.Verifier, mode auth.Mode, secret string, tokenTTL time.Duration, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Handler{
		store:    store,
		chat:     chat,
		remote:   remote,
		verifier: verifier,
		authMode: mode,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// RegisterRoutes mounts every route group on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/login", h.login)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.verifier))

		r.Route("/api/profile/{userId}", func(r chi.Router) {
			r.Get("/", h.getProfile)
			r.Put("/", h.updateProfile)
			r.Post("/mood", h.addMoodEntry)
			r.Post("/checkin", h.addWeeklyCheckin)
			r.Post("/favorites", h.addFavoriteResource)
		})

		r.Route("/api/chatbot", func(r chi.Router) {
			r.Get("/history", h.getChatHistory)
			r.Post("/history", h.createChatSession)
			r.Delete("/history", h.deleteChatSessionByQuery)

			r.Route("/session/{sessionId}", func(r chi.Router) {
				r.Get("/", h.getChatSession)
				r.Post("/", h.saveChatMessage)
				r.Put("/", h.renameChatSession)
				r.Delete("/", h.deleteChatSession)
			})

			r.Post("/chat", h.postChat)
			r.Get("/usage", h.getUsage)
		})
	})

	r.Route("/api/admin/storage", func(r chi.Router) {
		r.Get("/", h.getStorageInfo)
		r.Post("/", h.storageAction)
		r.Put("/", h.storageEcho)
	})

	r.Get("/api/debug/users", h.debugUsers)
}

// authorizeUser rejects requests whose bearer subject does not match the
// user the route operates on.
func (h *Handler) authorizeUser(w http.ResponseWriter, r *http.Request, userID string) bool {
	principal, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apierr.CodeUnauthorized, "missing authentication")
		return false
	}
	if principal.UserID != userID {
		writeError(w, r, apierr.CodeForbidden, "token does not match requested user")
		return false
	}
	return true
}
