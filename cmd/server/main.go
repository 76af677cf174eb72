package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bandchat/config"
	"bandchat/handlers"
	"bandchat/repository"
	"bandchat/services"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	// --- config/env ---
	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load config")
	}
	logger, closeLog, err := config.NewLogger(cfg.Log, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("open log")
	}
	defer closeLog()

	logger.Info().Str("port", cfg.Server.Port).Msg("starting chat server")

	// --- repos (in-memory for now) ---
	userRepo := repository.NewInMemoryUserRepo()
	messageRepo := repository.NewInMemoryMessageRepo()
	chatRepo := repository.NewInMemoryChatRepo()
	participantRepo := repository.NewInMemoryParticipantRepo()
	uploadRepo := repository.NewInMemoryUploadRepo()

	// --- create default room ---
	defaultRoom, err := chatRepo.Create("General", false, 0)
	if err != nil {
		logger.Warn().Err(err).Msg("could not create default room")
	} else {
		logger.Info().Str("name", defaultRoom.Name).Int64("id", defaultRoom.ID).Msg("created default room")
	}

	// --- services ---
	authSvc := services.NewAuthService(userRepo, &cfg.Server)
	chatSvc := services.NewChatService(chatRepo, messageRepo, participantRepo)
	msgSvc := services.NewMessageService(messageRepo, chatSvc, userRepo, uploadRepo, &cfg.Server, logger)
	uploadSvc := services.NewUploadService(uploadRepo, cfg.Server.MaxUploadBytes)

	router := handlers.NewRouter(logger, handlers.Services{
		Auth:           authSvc,
		Chats:          chatSvc,
		Messages:       msgSvc,
		Uploads:        uploadSvc,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	// --- server setup ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Msgf("chat server running on http://localhost:%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
		closeLog()
		os.Exit(1)
	}
	logger.Info().Msg("server exited")
}
