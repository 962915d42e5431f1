package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	apirepository "ctchen222/solo-tictactoe/internal/api/repository"
	"ctchen222/solo-tictactoe/internal/api/service"
	"ctchen222/solo-tictactoe/internal/bot"
	"ctchen222/solo-tictactoe/internal/config"
	"ctchen222/solo-tictactoe/internal/db"
	"ctchen222/solo-tictactoe/internal/events"
	"ctchen222/solo-tictactoe/internal/gameplay"
	"ctchen222/solo-tictactoe/internal/logger"
	"ctchen222/solo-tictactoe/internal/repository"
	"ctchen222/solo-tictactoe/internal/server"
	"ctchen222/solo-tictactoe/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML configuration file; when absent the environment is used")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	if err := run(conf); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(conf *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	if conf.Telemetry.Enabled {
		shutdown, err := telemetry.InitOtel(ctx, conf.Telemetry)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("Error shutting down telemetry", "error", err)
			}
		}()
	}
	logger.Init(conf.LogLevel)

	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return err
	}

	// Initialize session storage
	var (
		sessions  repository.SessionRepository
		publisher events.Publisher
	)
	switch conf.Storage.Driver {
	case "redis":
		rdb, err := db.NewRedisClient(ctx, conf.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = repository.NewSessionRepository(rdb, conf.Storage.SessionTTL)
		publisher = events.NewRedisPublisher(rdb)
	default:
		sessions = repository.NewMemorySessionRepository()
		publisher = events.NopPublisher()
	}

	// Initialize SQLite DB
	sqlDB, err := db.Open(conf.SQLite.Path)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}

	defaults, err := gameDefaults(conf.Game)
	if err != nil {
		return err
	}

	// Create repositories and services
	playerRepo := apirepository.NewPlayerRepository(sqlDB)
	playerService := service.NewPlayerService(playerRepo, conf.Auth.JWTSecret, conf.Auth.TokenTTL)
	gameService := service.NewGameService(
		sessions,
		playerRepo,
		publisher,
		bot.NewSeededSelector(conf.Game.Seed),
		metrics,
		defaults,
	)

	srv, err := server.NewServer(playerService, gameService, conf.Game.ComputerDelay)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    conf.HTTP.Addr,
		Handler: srv.Engine(),
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", conf.HTTP.Addr, "storage", conf.Storage.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("Server exiting")
	return nil
}

func gameDefaults(conf config.Game) (service.GameDefaults, error) {
	mode, err := gameplay.ParseMode(conf.DefaultMode)
	if err != nil {
		return service.GameDefaults{}, err
	}
	difficulty, err := bot.ParseDifficulty(conf.DefaultDifficulty)
	if err != nil {
		return service.GameDefaults{}, err
	}
	fallback, err := gameplay.ParseHardFallback(conf.HardFallback)
	if err != nil {
		return service.GameDefaults{}, err
	}
	return service.GameDefaults{Mode: mode, Difficulty: difficulty, HardFallback: fallback}, nil
}
