package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lv-markup/internal/auth"
	"lv-markup/internal/config"
	"lv-markup/internal/db"
	"lv-markup/internal/health"
	"lv-markup/internal/httpserver"
	"lv-markup/internal/logging"
	"lv-markup/internal/markup"
	"lv-markup/internal/marketdata"
	"lv-markup/internal/pricing"
	"lv-markup/internal/profiles"

	"github.com/rs/zerolog/log"
)

func main() {
	startedAt := time.Now()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.LogLevel, cfg.ProfectMode == "development")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}

	profileStore := profiles.NewStore(pool)
	market := marketdata.NewStore(pool)
	resolver := markup.NewResolver(profileStore, profileStore, market)

	bus := marketdata.NewBus()
	pipeline := pricing.NewPipeline(resolver, bus, marketdata.NewLiveQuotes(), cfg.ResolveTimeout)
	authSvc := auth.NewService(cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL, cfg.AdminPasswordHash)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:     auth.NewHandler(authSvc),
		AuthService:     authSvc,
		ProfilesHandler: profiles.NewHandler(profileStore),
		PricingHandler:  pricing.NewHandler(pipeline),
		HealthHandler:   health.NewHandler(pool, startedAt, bus.Groups),
		QuotesWS:        httpserver.NewQuotesWSHandler(bus, authSvc, cfg.WebSocketOrigin),
		InternalToken:   cfg.InternalToken,
		RateLimiter:     httpserver.NewRateLimiter(20, 40),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", cfg.HTTPAddr).Str("mode", cfg.ProfectMode).Msg("server listening")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-stop
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("listen")
	}
}
