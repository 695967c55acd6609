package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartquizzer/config"
	"smartquizzer/handlers"
	"smartquizzer/llm"
	"smartquizzer/logging"
	"smartquizzer/models"
	"smartquizzer/routes"
	"smartquizzer/services"
	"smartquizzer/session"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"
)

func main() {
	envFile := flag.String("env-file", ".env", "path to an optional .env file")
	check := flag.Bool("check", false, "verify configuration, storage and the upstream API, then exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	if cfg.APIKeyConfigured() {
		logger.Info("Groq API key loaded", "key", cfg.MaskedAPIKey(), "model", cfg.LLMModel)
	} else {
		logger.Warn("GROQ_API_KEY is not configured; quiz generation will fail until it is set",
			"help", "create a .env file with GROQ_API_KEY=your-actual-key")
	}

	// Initialize database
	db, err := config.InitDB(cfg, logger)
	if err != nil {
		fatal(logger, "Failed to connect to database", err)
	}

	// Auto-migrate database models
	if err := db.AutoMigrate(models.All()...); err != nil {
		fatal(logger, "Failed to migrate database", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(pingCtx).Err()
	cancelPing()
	if err != nil {
		fatal(logger, "Failed to connect to redis", err)
	}

	// Initialize services
	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.GroqAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	})
	authService := services.NewAuthService(db, logger)
	quizService := services.NewQuizService(llmClient, logger)
	scoreService := services.NewScoreService(db, logger)

	sessionStore := session.NewStore(redisClient, cfg.SessionTTL)
	tokens := session.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)

	if *check {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout)
		reply, err := quizService.CheckUpstream(ctx)
		cancel()
		if err != nil {
			fatal(logger, "Upstream check failed", err)
		}
		logger.Info("All checks passed", "model", llmClient.Model(), "reply", reply)
		return
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessionStore, tokens, logger)
	quizHandler := handlers.NewQuizHandler(quizService, logger)
	scoreHandler := handlers.NewScoreHandler(scoreService, logger)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())

	routes.SetupRoutes(router, authHandler, quizHandler, scoreHandler, sessionStore, tokens, logger, routes.Options{
		SessionSecret:  cfg.SessionSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = redisClient.Close()
	logger.Info("Server exited")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
