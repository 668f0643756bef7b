package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"crowdfund/internal/adapter/repo"
	"crowdfund/internal/domain"
	"crowdfund/internal/http/handlers"
	httpapi "crowdfund/internal/http/httpapi"
	"crowdfund/internal/infra"
	"crowdfund/internal/infra/geoip"
	"crowdfund/internal/middleware"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	events := repo.NewEventRepository(runner)
	if err := events.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure journal schema")
	}

	// Payouts leave the ledger through this hook. There is no real value
	// transfer rail here, so completed withdrawals are just logged.
	payout := func(recipient string, amount int64) {
		logger.Info().
			Str("recipient", recipient).
			Int64("amount", amount).
			Msg("withdrawal paid out")
	}

	// Rebuild the in-memory ledger by replaying the persisted journal.
	stored, err := events.ListSince(ctx, 0)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load journal")
	}
	registry, err := domain.Rebuild(stored, payout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to replay journal")
	}
	logger.Info().
		Int("events", len(stored)).
		Int("campaigns", len(registry.All())).
		Msg("ledger restored from journal")

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(registry, events, logger, cfg.JWTSecret, int64(cfg.TokenTTL.Seconds()))
	router := httpapi.NewRouter(app, cfg, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
