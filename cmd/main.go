package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/kfupm-ics/soccer-tournament/config"
	"github.com/kfupm-ics/soccer-tournament/db"
	"github.com/kfupm-ics/soccer-tournament/handlers"
	"github.com/kfupm-ics/soccer-tournament/live"
	"github.com/kfupm-ics/soccer-tournament/repositories"
	api "github.com/kfupm-ics/soccer-tournament/routes"
	"github.com/kfupm-ics/soccer-tournament/services"
	"github.com/kfupm-ics/soccer-tournament/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.CrestStorageConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize crest storage", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("crest storage initialized")
	} else {
		logger.Warn("crest storage not configured, uploads disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()

	txManager := repositories.NewTxManager(dbConn)
	scheduledRepo := repositories.NewPostgresScheduledMatchRepository(dbConn)
	playedRepo := repositories.NewPostgresPlayedMatchRepository(dbConn)
	detailRepo := repositories.NewPostgresMatchDetailRepository(dbConn)
	refRepo := repositories.NewPostgresReferenceRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)

	authService := services.NewAuthService(userRepo)
	matchService := services.NewMatchService(txManager, scheduledRepo, playedRepo, detailRepo, refRepo, hub, logger)
	tournamentService := services.NewTournamentService(txManager, tournamentRepo, refRepo)
	teamService := services.NewTeamService(teamRepo, refRepo, uploader)

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	teamHandler := handlers.NewTeamHandler(teamService)
	matchHandler := handlers.NewMatchHandler(matchService)
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Config{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
	}, authHandler, tournamentHandler, teamHandler, matchHandler, wsHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
