package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/cache"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/config"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/handlers"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/migrations"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/repository"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Apply schema migrations
	if cfg.Database.Migrate {
		if err := migrations.Up(cfg.Database.DSN()); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Msg("Migrations applied")
	}

	// Signed URL cache: Redis when configured, in-process otherwise
	var urlCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisCache.Close()
		urlCache = redisCache
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis cache connected")
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		urlCache = memCache
		log.Info().Msg("Using in-process cache")
	}

	// Object storage
	photoStore, err := storage.NewPhotoStore(context.Background(), storage.Config{
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		PathStyle: cfg.Storage.PathStyle,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo store")
	}

	// APNs pusher; nil when unconfigured
	notifier, err := services.NewNotifier(services.NotifierConfig{
		KeyFile:    cfg.APNS.KeyFile,
		KeyID:      cfg.APNS.KeyID,
		TeamID:     cfg.APNS.TeamID,
		Topic:      cfg.APNS.Topic,
		Production: cfg.APNS.Production,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create APNs client")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	drinkLogRepo := repository.NewDrinkLogRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	cheerRepo := repository.NewCheerRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)

	// Initialize services
	signer := services.NewURLSigner(photoStore, urlCache)
	wsHub := services.NewWSHub()
	achievementService := services.NewAchievementService(achievementRepo, drinkLogRepo, cheerRepo, userRepo, wsHub, notifier)
	userService := services.NewUserService(userRepo, achievementRepo, photoStore, signer, cfg.JWT.Secret, cfg.JWT.TTL())
	drinkLogService := services.NewDrinkLogService(drinkLogRepo, friendshipRepo, photoStore, achievementService)
	friendshipService := services.NewFriendshipService(friendshipRepo, userRepo, achievementService, wsHub, notifier, signer)
	cheerService := services.NewCheerService(cheerRepo, drinkLogRepo, friendshipRepo, userRepo, achievementService, wsHub, notifier, signer)
	feedService := services.NewFeedService(drinkLogRepo, friendshipRepo, cheerRepo, userRepo, signer)
	analyticsService := services.NewAnalyticsService(drinkLogRepo, userRepo, friendshipRepo, signer)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, friendshipService, feedService, analyticsService)
	friendHandler := handlers.NewFriendHandler(friendshipService)
	postHandler := handlers.NewPostHandler(drinkLogService, cheerService)
	feedHandler := handlers.NewFeedHandler(feedService)
	cheerHandler := handlers.NewCheerHandler(cheerService)
	achievementHandler := handlers.NewAchievementHandler(achievementService)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, cheerService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	authRPS := cfg.RateLimit.RPS
	if authRPS <= 0 {
		authRPS = 5
	}
	authBurst := cfg.RateLimit.Burst
	if authBurst <= 0 {
		authBurst = 10
	}

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(rate.Limit(authRPS), authBurst))
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/feed", feedHandler.Get)

			r.Get("/profile/me", userHandler.Me)
			r.Patch("/profile/me", userHandler.UpdateMe)
			r.Put("/profile/me/showcase", userHandler.UpdateShowcase)
			r.Put("/profile/me/push-token", userHandler.UpdatePushToken)
			r.Get("/profile/me/analytics", userHandler.Analytics)
			r.Get("/profile/{username}", userHandler.Profile)
			r.Get("/profile/{username}/versus", userHandler.Versus)
			r.Get("/users/search", userHandler.Search)
			r.Get("/avatar/upload-url", userHandler.AvatarUploadURL)

			r.Post("/friends/add", friendHandler.Add)
			r.Post("/friends/{friendship_id}/accept", friendHandler.Accept)
			r.Post("/friends/{friendship_id}/reject", friendHandler.Reject)
			r.Delete("/friends/{username}", friendHandler.Unfriend)
			r.Get("/friends", friendHandler.List)
			r.Get("/friends/requests", friendHandler.Requests)
			r.Get("/friends/sent", friendHandler.Sent)

			r.Post("/posts/upload-url", postHandler.UploadURL)
			r.Post("/posts", postHandler.Create)
			r.Get("/posts/{post_id}", postHandler.Get)
			r.Patch("/posts/{post_id}", postHandler.Update)
			r.Delete("/posts/{post_id}", postHandler.Delete)
			r.Post("/posts/{post_id}/cheer", postHandler.Cheer)

			r.Post("/cheers/state", cheerHandler.State)
			r.Get("/cheers/unseen", cheerHandler.Unseen)
			r.Post("/cheers/seen", cheerHandler.MarkSeen)

			r.Get("/achievements", achievementHandler.Catalog)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
