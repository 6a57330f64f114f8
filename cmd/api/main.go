package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/midhun-sadanand/couchd-sub001/internal/auth"
	"github.com/midhun-sadanand/couchd-sub001/internal/handlers"
	httpserver "github.com/midhun-sadanand/couchd-sub001/internal/http"
	"github.com/midhun-sadanand/couchd-sub001/internal/logger"
	"github.com/midhun-sadanand/couchd-sub001/internal/store"
	"github.com/midhun-sadanand/couchd-sub001/internal/tmdb"
	"github.com/midhun-sadanand/couchd-sub001/internal/youtube"
)

type Config struct {
	Port               string `envconfig:"PORT" default:"8080"`
	Env                string `envconfig:"APP_ENV" default:"development"`
	LogLevel           string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL        string `envconfig:"DATABASE_URL" required:"true"`
	AllowedOrigins     string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ClerkJWKSURL       string `envconfig:"CLERK_JWKS_URL" required:"true"`
	ClerkIssuer        string `envconfig:"CLERK_JWT_ISSUER" required:"true"`
	ClerkAudience      string `envconfig:"CLERK_JWT_AUDIENCE"`
	ClerkWebhookSecret string `envconfig:"CLERK_WEBHOOK_SECRET" required:"true"`
	TMDBAPIKey         string `envconfig:"TMDB_API_KEY" required:"true"`
	TMDBBaseURL        string `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	YouTubeAPIKey      string `envconfig:"YOUTUBE_API_KEY" required:"true"`
	YouTubeBaseURL     string `envconfig:"YOUTUBE_BASE_URL" default:"https://www.googleapis.com/youtube/v3"`
}

func mustLoadEnv() Config {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		log.Fatalf("env error: %v", err)
	}
	return c
}

func mustDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sqlDB, _ := db.DB()
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db
}

func main() {
	cfg := mustLoadEnv()

	zl, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db := mustDB(cfg.DatabaseURL)
	if err := store.Migrate(db); err != nil {
		zl.Fatal("migrate failed", zap.Error(err))
	}
	st := store.New(db)
	tmdbClient := tmdb.New(cfg.TMDBAPIKey, cfg.TMDBBaseURL)
	ytClient := youtube.New(cfg.YouTubeAPIKey, cfg.YouTubeBaseURL)

	// Handlers
	wlHandler := handlers.NewWatchlistHandler(st, tmdbClient, zl)
	friendHandler := handlers.NewFriendHandler(st, zl)
	profileHandler := handlers.NewProfileHandler(st, zl)
	metaHandler := handlers.NewMetadataHandler(tmdbClient, ytClient, zl)
	webhookHandler := handlers.NewWebhookHandler(st, cfg.ClerkWebhookSecret, zl)

	// Auth middleware
	verifier := &auth.ClerkVerifier{JWKSURL: cfg.ClerkJWKSURL, Issuer: cfg.ClerkIssuer, Audience: cfg.ClerkAudience}

	mounter := func(r chi.Router) {
		// Unauthenticated surface
		r.Group(func(r chi.Router) {
			r.Post("/webhooks/clerk", webhookHandler.Clerk)
		})
		// Authed surface
		r.Group(func(r chi.Router) {
			r.Use(verifier.Middleware)
			profileHandler.Routes(r)
			r.Route("/friends", friendHandler.Routes)
			r.Route("/watchlists", wlHandler.Routes)
			r.Get("/search/movies", metaHandler.SearchMovies)
			r.Get("/search/tv", metaHandler.SearchTV)
			r.Get("/search/videos", metaHandler.SearchVideos)
		})
	}

	srv := httpserver.NewServer(zl, strings.Split(cfg.AllowedOrigins, ","), mounter)

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zl.Error("shutdown error", zap.Error(err))
	}
}
