package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rsumit123/willow-leather-api/internal/api"
	"github.com/rsumit123/willow-leather-api/internal/api/middleware"
	"github.com/rsumit123/willow-leather-api/internal/services"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logrus.StandardLogger()
	if cfg.IsDevelopment() {
		log.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Redis is best-effort; without it the cache layer degrades to
	// pass-through and everything still works.
	var redisClient *redis.Client
	if opt, err := redis.ParseURL(cfg.RedisURL); err != nil {
		log.Warnf("Invalid Redis URL, running without cache: %v", err)
	} else {
		redisClient = redis.NewClient(opt)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warnf("Redis unreachable, running without cache: %v", err)
			redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	cacheService := services.NewCacheService(redisClient, log)
	careerLocks := services.NewCareerLocks()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sessionManager := services.NewMatchSessionManager(rng, log)
	defer sessionManager.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	api.SetupRoutes(router, db, cfg, log, careerLocks, cacheService, sessionManager)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
