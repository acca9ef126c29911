package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mkorchagin/shortlink/internal/auth"
	"github.com/mkorchagin/shortlink/internal/handler"
	"github.com/mkorchagin/shortlink/internal/middleware"
	"github.com/mkorchagin/shortlink/internal/repository"
	"github.com/mkorchagin/shortlink/internal/service"
	"github.com/mkorchagin/shortlink/internal/sweeper"
	"github.com/mkorchagin/shortlink/pkg/cache"
	"github.com/mkorchagin/shortlink/pkg/config"
	"github.com/mkorchagin/shortlink/pkg/idgen"
	"github.com/mkorchagin/shortlink/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New("shortlink-api", cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxAgeDays)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("db ping failed", zap.Error(err))
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatal("apply schema", zap.Error(err))
	}

	linkRepo := repository.NewLinkRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Redis backs the cache layer and, optionally, the counter generator.
	// The cache degrades to misses when Redis is down, so only the counter
	// generator makes Redis a hard dependency.
	var redisClient *redis.Client
	if cfg.CacheBackend != "memory" || cfg.Generator == "counter" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			if cfg.Generator == "counter" {
				log.Fatal("redis ping failed", zap.Error(err))
			}
			log.Warn("redis unreachable, cache starts degraded", zap.Error(err))
		}
	}

	var linkCache service.Cache
	switch cfg.CacheBackend {
	case "memory":
		linkCache = cache.NewMemoryCache(10000)
	default:
		linkCache = cache.NewRedisCache(redisClient)
	}

	var gen idgen.Generator
	switch cfg.Generator {
	case "counter":
		gen = idgen.NewCounterGenerator(redisClient)
	default:
		gen = idgen.NewRandomGenerator(cfg.CodeLength)
	}

	svc := service.NewLinkService(linkRepo, linkCache, gen, cfg.CacheTTL, log)

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	actors := middleware.NewActorResolver(tokens, userRepo)
	linkHandlers := handler.NewLinkHandler(svc, cfg.BaseURL, log)
	authHandlers := handler.NewAuthHandler(userRepo, tokens, log)

	// Reclaim state accumulated while offline before accepting traffic, then
	// keep sweeping in the background until shutdown.
	sw := sweeper.New(svc, cfg.SweepInterval, log)
	sw.SweepOnce(ctx)
	go sw.Run(ctx)

	// Setup routes. /metrics and /health are registered before the catch-all
	// redirect route so they win the match.
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware, actors.Middleware)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/register", authHandlers.Register).Methods("POST")
	api.HandleFunc("/login", authHandlers.Login).Methods("POST")
	api.HandleFunc("/links", linkHandlers.CreateLink).Methods("POST")
	api.HandleFunc("/links", linkHandlers.ListMyLinks).Methods("GET")
	api.HandleFunc("/links/{shortCode}/stats", linkHandlers.Stats).Methods("GET")
	api.HandleFunc("/links/{shortCode}/original", linkHandlers.Original).Methods("GET")
	api.HandleFunc("/links/{shortCode}/expiry", linkHandlers.SetExpiry).Methods("POST")
	api.HandleFunc("/links/{shortCode}", linkHandlers.UpdateURL).Methods("PUT")
	api.HandleFunc("/links/{shortCode}", linkHandlers.DeleteLink).Methods("DELETE")

	r.HandleFunc("/{shortCode}", linkHandlers.Redirect).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}
