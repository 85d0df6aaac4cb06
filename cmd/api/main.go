package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"socialgen/internal/adapter/repo"
	"socialgen/internal/batch"
	"socialgen/internal/generator"
	"socialgen/internal/http/handlers"
	"socialgen/internal/http/httpapi"
	"socialgen/internal/infra"
	"socialgen/internal/infra/geoip"
	"socialgen/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	captionPolicy := generator.DefaultCaptionPolicy()
	captionPolicy.MaxAttempts = cfg.CaptionMaxAttempts
	captionPolicy.MaxDelay = cfg.CaptionMaxBackoff
	imagePolicy := generator.DefaultImagePolicy()
	imagePolicy.MaxAttempts = cfg.ImageMaxAttempts
	imagePolicy.MaxDelay = cfg.ImageMaxBackoff

	gen, err := generator.NewClient(generator.Options{
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Organization:  cfg.OpenAIOrg,
		CaptionModel:  cfg.CaptionModel,
		ImageModel:    cfg.ImageModel,
		Logger:        &logger,
		CaptionPolicy: &captionPolicy,
		ImagePolicy:   &imagePolicy,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure generator client")
	}

	jobs := repo.NewBatchJobRepository(pool)
	posts := repo.NewPostRepository(pool)
	engine := batch.NewEngine(jobs, posts, gen, logger, cfg.BatchConcurrency)

	app := &handlers.App{
		Logger:    logger,
		Users:     repo.NewUserRepository(pool),
		Campaigns: repo.NewCampaignRepository(pool),
		Engine:    engine,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if err := engine.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("batch engine did not drain in time")
	}
	logger.Info().Msg("server stopped")
}
