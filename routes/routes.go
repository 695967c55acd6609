package routes

import (
	"log/slog"
	"net/http"

	"smartquizzer/handlers"
	"smartquizzer/middleware"
	"smartquizzer/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionCookieName = "smartquizzer_session"

type Options struct {
	SessionSecret  string
	AllowedOrigins []string
	SecureCookies  bool
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	scoreHandler *handlers.ScoreHandler,
	store *session.Store,
	tokens *session.TokenIssuer,
	logger *slog.Logger,
	opts Options,
) {
	cookieStore := cookie.NewStore([]byte(opts.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(sessions.Sessions(sessionCookieName, cookieStore))

	// Auth routes (public)
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.GET("/logout", authHandler.Logout)

	api := router.Group("/api")
	{
		api.GET("/test-groq", quizHandler.TestUpstream)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(store, tokens, logger))
		{
			protected.GET("/profile", authHandler.GetProfile)
			protected.POST("/generate-quiz", quizHandler.GenerateQuiz)
			protected.POST("/save-score", scoreHandler.SaveScore)
			protected.GET("/history", scoreHandler.GetHistory)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
