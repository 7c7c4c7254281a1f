package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"parts-bot/internal/cart"
	"parts-bot/internal/catalog"
	"parts-bot/internal/config"
	"parts-bot/internal/feed"
	"parts-bot/internal/logger"
	"parts-bot/internal/server"
	"parts-bot/internal/service"
	"parts-bot/internal/session"
	"parts-bot/internal/transport"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

// refreshLoop keeps the catalog near the staleness bound so user
// requests rarely pay for an upstream fetch.
func refreshLoop(ctx context.Context, cat *catalog.Cache, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cat.Current(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting parts ordering bot",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.Duration("refresh_interval", cfg.Catalog.RefreshInterval),
	)

	// Catalog cache over the external feed
	fetcher := feed.NewHTTPFetcher(cfg.Catalog.FeedURL, cfg.Catalog.FetchTimeout)
	cat := catalog.New(fetcher, cfg.Catalog.RefreshInterval, log)

	// Warm the cache; a failed first load only logs, the bot serves
	// an empty catalog until the feed recovers.
	cat.Current(context.Background())

	// Per-user state
	cartStore := cart.NewStore()
	sessions := session.NewRegistry(cat, cartStore)

	// Conversational core with stand-in collaborators until the chat
	// transport, PDF exporter and speech backend are attached.
	bot := service.NewBotService(
		cat,
		cartStore,
		sessions,
		transport.NewLogPresenter(log, service.NewMediaCache()),
		transport.JSONExporter{},
		transport.UnconfiguredTranscriber{},
		cfg.Bot.AdminRecipient,
		cfg.Bot.PageSize,
		log,
	)

	// Redis backs ops API rate limiting; unreachable redis only
	// disables the limiter.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, ops rate limiting disabled", zap.Error(err))
		redisClient = nil
	}

	// Background refresh keeps the snapshot warm
	refreshCtx, cancelRefresh := context.WithCancel(context.Background())
	defer cancelRefresh()
	go refreshLoop(refreshCtx, cat, cfg.Catalog.RefreshInterval)

	// Create server
	srv := server.NewServer(cfg, log, cat, bot, redisClient)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
