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

	"github.com/boulodrome/tournament-engine/config"
	"github.com/boulodrome/tournament-engine/db"
	"github.com/boulodrome/tournament-engine/handlers"
	"github.com/boulodrome/tournament-engine/live"
	"github.com/boulodrome/tournament-engine/middleware"
	"github.com/boulodrome/tournament-engine/repositories"
	api "github.com/boulodrome/tournament-engine/routes"
	"github.com/boulodrome/tournament-engine/services"
	"github.com/boulodrome/tournament-engine/storage"
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
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, result photo evidence is disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()
	logger.Info("live event hub started")

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	ttRepo := repositories.NewPostgresTournamentTeamRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	activationRepo := repositories.NewPostgresMatchActivationRepository(dbConn)
	matchPlayerRepo := repositories.NewPostgresMatchPlayerRepository(dbConn)
	resultRepo := repositories.NewPostgresMatchResultRepository(dbConn)
	transactor := repositories.NewSQLTransactor(dbConn)
	logger.Info("repositories initialized")

	teamService := services.NewTeamService(teamRepo)
	courtService := services.NewCourtService(courtRepo, matchRepo, transactor, logger)
	progressionService := services.NewProgressionService(services.ProgressionServiceDeps{
		TournamentRepo:  tournamentRepo,
		TournamentTeams: ttRepo,
		MatchRepo:       matchRepo,
		RoundRepo:       roundRepo,
		StageRepo:       stageRepo,
		Transactor:      transactor,
		Publisher:       hub,
		Logger:          logger,
	})
	matchService := services.NewMatchService(services.MatchServiceDeps{
		MatchRepo:       matchRepo,
		ActivationRepo:  activationRepo,
		MatchPlayerRepo: matchPlayerRepo,
		ResultRepo:      resultRepo,
		TournamentRepo:  tournamentRepo,
		TournamentTeams: ttRepo,
		TeamService:     teamService,
		CourtService:    courtService,
		Transactor:      transactor,
		Uploader:        uploader,
		Publisher:       hub,
		Rating:          services.NewLoggingRatingNotifier(logger),
		Progression:     progressionService,
		Logger:          logger,
	})
	tournamentService := services.NewTournamentService(tournamentRepo, ttRepo, stageRepo, matchRepo)
	logger.Info("services initialized")

	// The sweeper retries court assignment for matches parked in the
	// waiting queue, across every active tournament.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		logger.Info("waiting court sweeper started", slog.Duration("interval", cfg.SweepInterval))

		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepInterval)
			tournaments, err := tournamentService.List(ctx, true)
			if err != nil {
				logger.Error("sweeper: failed to list active tournaments", slog.Any("error", err))
				cancel()
				continue
			}
			for _, t := range tournaments {
				assigned, err := matchService.AssignWaitingCourts(ctx, t.ID)
				if err != nil {
					logger.Error("sweeper: court assignment failed",
						slog.Int("tournament_id", t.ID), slog.Any("error", err))
					continue
				}
				if assigned > 0 {
					logger.Info("sweeper: assigned courts to waiting matches",
						slog.Int("tournament_id", t.ID), slog.Int("assigned", assigned))
				}
			}
			cancel()
		}
	}()

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	matchHandler := handlers.NewMatchHandler(matchService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, progressionService, matchService)
	courtHandler := handlers.NewCourtHandler(courtService)
	adminHandler := handlers.NewAdminHandler(matchService, progressionService)
	wsHandler := handlers.NewWebSocketHandler(hub)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, matchHandler, tournamentHandler, courtHandler, adminHandler, wsHandler)
	logger.Info("routes configured")

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
		logger.Info("server stopped gracefully")
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
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
