package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"credential_service/internal/config"
	"credential_service/internal/handler"
	"credential_service/internal/logger"
	"credential_service/internal/middleware"
	"credential_service/internal/notify"
	"credential_service/internal/repository"
	"credential_service/internal/service"
	"credential_service/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCmd creates the serve subcommand
func NewServeCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create the accounts table before serving")
	return cmd
}

// runServe runs until ctx is cancelled, which NewServeCmd ties to SIGINT and SIGTERM
func runServe(ctx context.Context, migrate bool) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if migrate {
		if err := config.AutoMigrate(ctx, dbPool, log); err != nil {
			return err
		}
	}

	// --- Wiring ---
	jwtUtil := utils.NewJWTUtil(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	accountRepo := repository.NewAccountRepository(dbPool)

	sender := notify.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From)
	dispatcher := notify.NewDispatcher(sender, log.Named("notify"))
	defer dispatcher.Close()

	authService := service.NewAuthService(accountRepo, jwtUtil, dispatcher, log.Named("auth"))
	authHandler := handler.NewAuthHandler(authService, cfg.IsProduction(), jwtUtil.RefreshTTL())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(log, authHandler, middleware.JWTAuthMiddleware(authService), dbPool)

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server exiting")
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func newRouter(log *zap.Logger, authHandler *handler.AuthHandler, authMW gin.HandlerFunc, db pinger) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinMiddleware(log), gin.Recovery())

	// Simple CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	apiGroup := router.Group("/api/v1")
	authHandler.RegisterAuthRoutes(apiGroup, authMW)

	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
