package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"agrirent/internal/config"
	"agrirent/internal/database"
	"agrirent/internal/middleware"
	"agrirent/internal/modules/booking"
	"agrirent/internal/modules/catalog"
	"agrirent/internal/modules/realtime"
	jwtsvc "agrirent/internal/pkg/jwt"
	"agrirent/internal/pkg/logger"
	"agrirent/internal/queue"
	"agrirent/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := repository.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var verifier *jwtsvc.Service
	if cfg.JWTSecret != "" {
		verifier = jwtsvc.New(cfg.JWTSecret, 24*time.Hour)
	} else {
		logger.Warn().Msg("JWT_SECRET is empty, client supplied user ids are trusted")
	}

	// Both integrations are optional; a nil interface disables them.
	var events booking.EventPublisher
	if cfg.RabbitMQURL != "" {
		publisher, err := queue.NewPublisher(cfg.RabbitMQURL, cfg.BookingEventsQueue)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect rabbitmq")
		}
		defer publisher.Close()
		events = publisher
	}

	hub := realtime.NewHub()

	var relay realtime.Broadcaster
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("connect redis")
		}

		r := realtime.NewRelay(rdb, hub)
		go func() {
			if err := r.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("room relay stopped")
			}
		}()
		relay = r
	}

	equipmentRepo := repository.NewEquipmentRepository(db)

	catalogService := catalog.NewService(equipmentRepo, catalog.NearbyLimits{
		DefaultRadiusKm: cfg.NearbyDefaultRadiusKm,
		MaxRadiusKm:     cfg.NearbyMaxRadiusKm,
		MaxResults:      cfg.NearbyMaxResults,
	})
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(equipmentRepo, events, cfg.BookingTimeout)

	wsHandler := realtime.NewHandler(hub, bookingService, relay, realtime.Options{
		Verifier:       verifier,
		SendBuffer:     cfg.WSSendBuffer,
		MessageRate:    cfg.WSBookingRate,
		MessageBurst:   cfg.WSBookingBurst,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	r := gin.New()
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "clients": hub.ClientCount()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/rental", wsHandler.ServeWS)

	rental := r.Group("/api/v1/rental")
	rental.Use(middleware.Identity(verifier))
	catalogHandler.RegisterRoutes(rental)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	// websocket connections are hijacked and not covered by Shutdown
	hub.Close()
	wsHandler.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("server stopped")
}
