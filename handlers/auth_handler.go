package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"smartquizzer/middleware"
	"smartquizzer/services"
	"smartquizzer/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *services.AuthService
	sessions    *session.Store
	tokens      *session.TokenIssuer
	log         *slog.Logger
}

func NewAuthHandler(authService *services.AuthService, store *session.Store, tokens *session.TokenIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    store,
		tokens:      tokens,
		log:         logger,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	_, err := h.authService.Register(c.Request.Context(), &req)
	switch {
	case errors.Is(err, services.ErrInvalidUsername):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username is required"})
		return
	case errors.Is(err, services.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email already exists"})
		return
	case errors.Is(err, services.ErrDuplicateUsername):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Username already exists"})
		return
	case err != nil:
		h.log.ErrorContext(c.Request.Context(), "registration failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Registration successful"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := h.authService.Authenticate(ctx, &req)
	if errors.Is(err, services.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid email or password"})
		return
	}
	if err != nil {
		h.log.ErrorContext(ctx, "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	identity := session.Identity{UserID: user.ID, Username: user.Username}
	sid, err := h.sessions.Create(ctx, identity)
	if err != nil {
		h.log.ErrorContext(ctx, "create session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	token, err := h.tokens.Issue(sid, identity)
	if err != nil {
		h.log.ErrorContext(ctx, "issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	cookie := sessions.Default(c)
	if previous, _ := cookie.Get(middleware.CookieSessionKey).(string); previous != "" {
		if err := h.sessions.Delete(ctx, previous); err != nil {
			h.log.WarnContext(ctx, "drop previous session", "error", err)
		}
	}
	cookie.Set(middleware.CookieSessionKey, sid)
	if err := cookie.Save(); err != nil {
		h.log.ErrorContext(ctx, "save session cookie", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Login failed"})
		return
	}

	h.log.InfoContext(ctx, "user logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Login successful", "token": token})
}

// Logout revokes whatever session the client presents and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	cookie := sessions.Default(c)

	var sids []string
	if sid, ok := middleware.SessionID(c, h.tokens); ok {
		sids = append(sids, sid)
	}
	if sid, _ := cookie.Get(middleware.CookieSessionKey).(string); sid != "" {
		sids = append(sids, sid)
	}
	for _, sid := range sids {
		if err := h.sessions.Delete(ctx, sid); err != nil {
			h.log.ErrorContext(ctx, "delete session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Logout failed"})
			return
		}
	}

	cookie.Clear()
	cookie.Options(sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true})
	if err := cookie.Save(); err != nil {
		h.log.WarnContext(ctx, "clear session cookie", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), identity.UserID)
	if errors.Is(err, services.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "load profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
