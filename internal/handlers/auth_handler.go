package handlers

import (
	"net/http"
	"net/url"

	"zaistock_backend/internal/config"
	"zaistock_backend/internal/logger"
	"zaistock_backend/internal/middleware"
	"zaistock_backend/internal/models"
	"zaistock_backend/internal/services"
	"zaistock_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.GET("/google/url", h.GoogleAuthURL)
		auth.GET("/google/callback", h.GoogleCallback)
		auth.GET("/me", middleware.OptionalAuthMiddleware(), h.Me)
		auth.POST("/logout", h.Logout)
	}

	authed := r.Group("/auth")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.GET("/profile", h.Profile)
		authed.PUT("/profile", h.UpdateProfile)
	}

	admin := r.Group("/auth")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/admin/users", h.ListUsers)
		admin.PUT("/users/:id/role", h.UpdateRole)
		admin.POST("/admin/users/:id/toggle-role", h.ToggleRole)
	}

	// Password login endpoints exist only outside production, for the
	// seeded accounts the integration tests and local frontend use.
	if !config.GetConfig().IsProduction() {
		dev := r.Group("/auth/dev")
		{
			dev.POST("/login", h.DevLogin)
			dev.GET("/users", h.DevListUsers)
		}
	}
}

func (h *AuthHandler) GoogleAuthURL(c *gin.Context) {
	state := uuid.NewString()
	c.JSON(http.StatusOK, gin.H{
		"url": h.authService.GoogleAuthURL(state),
	})
}

// GoogleCallback completes the OAuth flow. Failures never surface as
// API errors here: the browser is mid-redirect, so everything lands back
// on the frontend with a query flag.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	frontendURL := config.GetConfig().FrontendURL

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/?error=oauth_failed")
		return
	}

	result, err := h.authService.CompleteGoogleLogin(c.Request.Context(), h.GetDB(c), code)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "google login failed", err)
		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/?error=oauth_failed")
		return
	}

	h.setSessionCookie(c, result.Token)
	c.Redirect(http.StatusTemporaryRedirect,
		frontendURL+"/?auth=success&token="+url.QueryEscape(result.Token))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	cfg := config.GetConfig()
	maxAge := cfg.JWT.TTLDays * 24 * 60 * 60
	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", cfg.IsProduction(), true)
}

// Me returns the authenticated user, or null for anonymous callers.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": dto.NewUserResponse(user)})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePayoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.UpdatePayoutDetails(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", config.GetConfig().IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": len(users),
	})
}

func (h *AuthHandler) UpdateRole(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.UpdateRole(h.GetDB(c), adminID, c.Param("id"), models.UserRole(req.Role))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) ToggleRole(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.ToggleRole(h.GetDB(c), adminID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) DevLogin(c *gin.Context) {
	var req dto.DevLoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.DevLogin(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, resp.Token)
	c.JSON(http.StatusOK, resp)
}

// DevListUsers exposes the seeded accounts so a local frontend can list
// who to log in as.
func (h *AuthHandler) DevListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
