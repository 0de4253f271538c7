package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/auth"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/chatbot"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/config"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/httpapi"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/logging"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/s3store"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/server"
	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger("mental-health-api")

	fileStore := user.NewFileStore(cfg.Storage.UsersFile, logger)

	// The remote adapter is built whenever credentials are present, even with
	// USE_S3_STORAGE off, so the admin migration endpoint can reach the bucket.
	var remote *s3store.Store
	if cfg.Storage.RemoteConfigured() {
		remote, err = s3store.NewStore(ctx, s3store.Config{
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			Endpoint:        cfg.Storage.Endpoint,
			Environment:     cfg.Environment,
		}, logger)
		if err != nil {
			panic(fmt.Errorf("object storage: %w", err))
		}
	}

	var storeRemote user.Remote
	if remote != nil {
		storeRemote = remote
	}
	store := user.NewHybridStore(fileStore, storeRemote, cfg.Storage.UseS3, logger)
	if err := store.Initialize(ctx); err != nil {
		panic(fmt.Errorf("store init: %w", err))
	}

	assistant, err := chatbot.NewGeminiAssistant(ctx, chatbot.AssistantConfig{
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
	if err != nil {
		logger.Warn("gemini unavailable, using template assistant", "error", err)
		assistant = chatbot.NewTemplateAssistant()
	}
	defer assistant.Close()

	tracker := chatbot.NewUsageTracker(nil)
	chatService, err := chatbot.NewService(store, assistant, tracker, logger)
	if err != nil {
		panic(fmt.Errorf("chat service: %w", err))
	}

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:   cfg.Auth.Mode,
		Secret: cfg.Auth.Secret,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	handler := httpapi.NewHandler(store, chatService, remote, verifier, cfg.Auth.Mode, cfg.Auth.Secret, cfg.Auth.TokenTTL, logger)

	router := server.NewRouter("mental-health-api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
