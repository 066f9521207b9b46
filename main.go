package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	r "ma/data/repos"
	av "ma/service/api/alpha_vantage"
	"ma/service/config"
	c "ma/service/core"
	"ma/service/logger"
)

func main() {
	// initialize context and signal handler, listen for interrupt and term signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger.InitLogger("market-analytics", cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	// get alpha vantage client
	var avClient *av.AlphaVantageClient
	if cfg.AlphaVantageApiKey != "" {
		avClient = av.GetClient(cfg.AlphaVantageApiKey)
	} else {
		logger.Warn().Msg("ALPHAVANTAGE_API_KEY not set, symbols cannot be synced")
	}

	// get postgres connection, without one prices come straight from alpha vantage
	var postgresConnection *r.Postgres
	if cfg.DatabaseURL != "" {
		postgresConnection, err = r.GetPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer postgresConnection.Close()

		if err := postgresConnection.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ping database")
		}
	} else {
		logger.Warn().Msg("DATABASE_URL not set, analysis runs will not be recorded")
	}

	if postgresConnection == nil && avClient == nil {
		logger.Fatal().Msg("either DATABASE_URL or ALPHAVANTAGE_API_KEY is required to source prices")
	}

	sc := c.NewServiceContext(ctx, postgresConnection, avClient, cfg.Analysis)

	// get http server, makes all of the endpoints and routes
	s := c.GetHttpServer(sc, cfg.Addr)

	go func() {
		logger.Info().Str("addr", s.Addr).Msg("starting market analytics server")
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// wait here until the context is closed (ie, ctrl+C)
	<-ctx.Done()
	logger.Info().Msg("received shutdown signal, shutting down gracefully")

	// this gives the server 10 seconds to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	logger.Info().Msg("server stopped successfully")
}
