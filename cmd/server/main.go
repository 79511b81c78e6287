// Package main is the entry point for the numbers lottery service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"numbers-lottery/internal/config"
	"numbers-lottery/internal/engine"
	"numbers-lottery/internal/game"
	"numbers-lottery/internal/game/hundredblock"
	"numbers-lottery/internal/game/threedigit"
	"numbers-lottery/internal/game/twelvesymbol"
	"numbers-lottery/internal/game/twodigit"
	"numbers-lottery/internal/handler"
	"numbers-lottery/internal/model"
	"numbers-lottery/internal/notify"
	"numbers-lottery/internal/pkg/db"
	"numbers-lottery/internal/pkg/lock"
	"numbers-lottery/internal/repository"
	"numbers-lottery/internal/scheduler"
	"numbers-lottery/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	loc, err := cfg.Draw.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve draw timezone")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	walletRepo := repository.NewWalletRepository(dbPool.Pool)
	ticketRepo := repository.NewTicketRepository(dbPool.Pool, walletRepo)
	resultRepo := repository.NewResultRepository(dbPool.Pool)
	settingsRepo := repository.NewSettingsRepository(dbPool.Pool)
	manualRepo := repository.NewManualOutcomeRepository(dbPool.Pool)

	// Register game variants
	registry := game.NewRegistry()
	for _, v := range []game.Variant{
		twodigit.New(),
		threedigit.New(),
		twelvesymbol.New(),
		hundredblock.New(),
	} {
		if err := registry.Register(v); err != nil {
			log.Fatal().Err(err).Str("variant", string(v.Key())).Msg("Failed to register game")
		}
	}
	log.Info().Int("game_count", registry.Count()).Msg("Games registered")

	// Outcome sinks
	hub := notify.NewHub()
	defer hub.Close()

	telegram, err := notify.NewTelegramNotifier(&cfg.Telegram)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram notifier")
	}

	// Draw engine
	guard := lock.NewSlotGuard()
	drawEngine := engine.New(
		registry, guard, engine.NewSelector(),
		ticketRepo, resultRepo, settingsRepo, manualRepo,
		hub, telegram,
	)

	// Draw scheduler
	schedules := make([]scheduler.VariantSchedule, 0, len(model.AllVariants()))
	for _, v := range model.AllVariants() {
		gameCfg := cfg.Games.Game(v)
		if !gameCfg.Enabled {
			log.Info().Str("variant", string(v)).Msg("Game disabled, not scheduling draws")
			continue
		}
		schedules = append(schedules, scheduler.VariantSchedule{
			Variant:         v,
			IntervalMinutes: gameCfg.IntervalMinutes,
		})
	}
	sched := scheduler.New(drawEngine, loc, cfg.Draw.OpenHour, cfg.Draw.CloseHour, schedules)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start draw scheduler")
	}

	// Services and HTTP API
	ticketService := service.NewTicketService(registry, guard, ticketRepo, resultRepo, settingsRepo, cfg.Draw.TicketValid)
	walletService := service.NewWalletService(walletRepo)

	router := handler.NewRouter(&handler.RouterDeps{
		Tickets: handler.NewTicketHandler(ticketService, sched),
		Wallet:  handler.NewWalletHandler(walletService),
		Results: handler.NewResultHandler(resultRepo, loc),
		Admin:   handler.NewAdminHandler(settingsRepo, manualRepo, sched, loc),
		Hub:     hub,
		Pool:    dbPool,
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown: stop accepting requests, let running draws finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	sched.Stop()
	log.Info().Msg("Service stopped gracefully")
}
