package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/timeshare-be/internal/api"
	"github.com/isdelr/timeshare-be/internal/auth"
	"github.com/isdelr/timeshare-be/internal/config"
	"github.com/isdelr/timeshare-be/internal/database"
	"github.com/isdelr/timeshare-be/internal/logger"
	"github.com/isdelr/timeshare-be/internal/monitoring"
	"github.com/isdelr/timeshare-be/internal/services"
	"github.com/isdelr/timeshare-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	sharingStore := services.NewSQLSharingStore(db)
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, cfg.AdminEmails)
	sharingService := services.NewSharingService(sharingStore, eventService, nil)
	timeService := services.NewTimeService(db, sharingStore)
	teamService := services.NewTeamService(sharingStore, timeService)

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(15 * time.Second)
	go statUpdater.Run()

	rotator := monitoring.NewCodeRotator(sharingService, eventService, hub, cfg.CodeRotationInterval)
	if cfg.CodeRotationAutostart {
		rotator.Start()
	}

	router := api.NewRouter(api.Dependencies{
		Hub:            hub,
		Tokens:         auth.NewManager(cfg.JWTSecret),
		Users:          userService,
		Sharing:        sharingService,
		Times:          timeService,
		Team:           teamService,
		Events:         eventService,
		Rotator:        rotator,
		Stats:          statUpdater,
		AllowedOrigins: cfg.AllowedOrigins,
		RotationEvery:  cfg.CodeRotationInterval,
		SecureCookies:  cfg.IsProduction(),
		Version:        version,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	rotator.Stop()
	statUpdater.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
