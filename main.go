package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/cache"
	"github.com/danielhkuo/ghpolls/cliparse"
	"github.com/danielhkuo/ghpolls/db"
	"github.com/danielhkuo/ghpolls/logging"
	"github.com/danielhkuo/ghpolls/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Until the configured logger exists
	bootstrap, _ := logging.New("info", "json")
	zap.ReplaceGlobals(bootstrap)

	// .env is optional; real environment variables win
	envErr := godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		zap.L().Fatal("error parsing flags", zap.Error(err))
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		zap.L().Fatal("logger setup failed", zap.Error(err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		zap.L().Warn("no .env file loaded", zap.Error(envErr))
	}

	// Connect to the database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL, cfg.StatementTimeout)
	if err != nil {
		zap.L().Fatal("database connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		zap.L().Fatal("schema creation failed", zap.Error(err))
	}
	zap.L().Info("database schema ready", zap.String("type", cfg.DatabaseType))

	// Image cache; charts still render without it
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	rdb, err := cache.Connect(ctx, cfg.RedisURL)
	cancel()
	if err != nil {
		zap.L().Warn("image cache unavailable, rendering every request", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// Create router
	handler, err := router.NewRouter(dbConn, rdb, cfg)
	if err != nil {
		zap.L().Fatal("router setup failed", zap.Error(err))
	}

	// Create server
	server := http.Server{
		Handler:           handler,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			zap.L().Warn("graceful shutdown failed", zap.Error(err))
			server.Close()
		}
	}()

	// Start server
	zap.L().Info("listening", zap.Int("port", cfg.Port), zap.String("base_url", cfg.BaseURL))
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Error("server closed", zap.Error(err))
	} else {
		zap.L().Info("server closed")
	}
}
