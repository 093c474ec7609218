package main

import (
	"context"
	"fmt"
	"net/http"
	"notebook-publishing-service/internal/auth"
	"notebook-publishing-service/internal/collaborator"
	"notebook-publishing-service/internal/config"
	"notebook-publishing-service/internal/db"
	"notebook-publishing-service/internal/document"
	"notebook-publishing-service/internal/keyring"
	"notebook-publishing-service/internal/middleware"
	"notebook-publishing-service/internal/rbac"
	"notebook-publishing-service/internal/worker"
	"notebook-publishing-service/redis"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const version = "1.0.0"

func main() {
	// Load configuration
	config.LoadConfig()

	logger := newLogger(config.AppConfig.Environment)

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema and seed the fixed role/permission vocabulary
	db.Migrate()
	db.SeedRoles()

	// Redis-backed cache (optional, degrades to no-op)
	cache := redis.NewCache(config.AppConfig.RedisAddress, logger)

	// Background pool for cache invalidation
	pool := worker.NewWorkerPool(4, logger)
	defer pool.Shutdown()

	// Authentication chain: issuer keys -> token authenticator
	keys := keyring.New(config.AppConfig.JWKSURL, config.AppConfig.JWTAlgorithm, logger)
	authenticator := auth.NewAuthenticator(keys, config.AppConfig.JWTAlgorithm, config.AppConfig.UsernameClaim, logger)

	// Authorization chain: role store -> authorizer
	roleStore := rbac.NewRoleStore(db.AppDb)
	authorizer := rbac.NewAuthorizer(roleStore, logger)

	// Partitioned document store + coordinator
	metadataStore := document.NewMetadataStore(db.AppDb)
	collaboratorStore := collaborator.NewStore(db.AppDb)
	contentStore := document.NewContentStore(db.AppDb)
	coordinator := document.NewCoordinator(
		metadataStore,
		collaboratorStore,
		contentStore,
		cache,
		pool,
		config.AppConfig.ShareableLinkBase,
		logger,
	)

	// Handlers and middleware
	docHandler := document.NewHandler(coordinator)
	userHandler := collaborator.NewHandler(collaboratorStore, cache)
	authMw := &middleware.Auth{Authenticator: authenticator, Identities: collaboratorStore}
	authorizeMw := &middleware.Authorize{Authorizer: authorizer, Documents: coordinator}

	// Initialize Gin router
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler(logger))

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		AllowAllOrigins:  true,
	}
	router.Use(cors.New(corsConfig))

	// Service status
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": version, "status": "healthy"})
	})

	// Sharing routes
	router.GET("/sharing", authMw.RequireAuth(), docHandler.Index)
	router.POST("/sharing", authMw.RequireAuth(), docHandler.Create)
	router.GET("/sharing/users", authMw.RequireAuth(), userHandler.Search)
	router.GET("/sharing/:id", authMw.RequireAuth(), authorizeMw.Require(rbac.ActionRead), docHandler.Show)
	router.PATCH("/sharing/:id", authMw.RequireAuth(), authorizeMw.Require(rbac.ActionUpdate), docHandler.Update)
	router.DELETE("/sharing/:id", authMw.RequireAuth(), authorizeMw.Require(rbac.ActionDelete), docHandler.Delete)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		logger.Info().Str("port", serverPort).Msg("server listening")
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	logger.Info().Msg("server shutdown complete")
}

func newLogger(environment string) zerolog.Logger {
	if environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
