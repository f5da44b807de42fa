package middleware

import (
	"errors"
	"net/http"
	"strings"

	"zaistock_backend/internal/auth"
	"zaistock_backend/internal/logger"
	"zaistock_backend/internal/models"
	"zaistock_backend/pkg/apperrors"
	"zaistock_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// SessionCookieName is the http-only cookie carrying the token.
	SessionCookieName = "token"

	ctxUserKey   = "currentUser"
	ctxUserIDKey = "userID"
	ctxRoleKey   = "role"
)

// extractToken reads the credential from the Authorization header or,
// failing that, the session cookie. Callers may use either transport.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// resolveUser validates the token and loads the referenced user. Fails
// when the token is bad or the user no longer exists.
func resolveUser(c *gin.Context) (*models.User, error) {
	tokenStr := extractToken(c)
	if tokenStr == "" {
		return nil, apperrors.NewUnauthorizedError("Authentication required")
	}

	claims, err := auth.ParseToken(tokenStr)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid or expired token")
	}

	db := dbFromContext(c)
	var user models.User
	if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewUnauthorizedError("User not found")
		}
		return nil, apperrors.InternalError(err)
	}
	return &user, nil
}

// AuthMiddleware rejects requests without a valid session.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolveUser(c)
		if err != nil {
			var appErr *apperrors.AppError
			if !apperrors.As(err, &appErr) {
				appErr = apperrors.InternalError(err)
			}
			c.AbortWithStatusJSON(appErr.HTTPCode, apperrors.ErrorResponse{
				Success: false,
				Message: appErr.Message,
				Error:   appErr,
			})
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxUserIDKey, user.ID)
		c.Set(ctxRoleKey, user.Role)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the session when present but never
// fails; anonymous requests simply carry no identity.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := resolveUser(c); err == nil {
			c.Set(ctxUserKey, user)
			c.Set(ctxUserIDKey, user.ID)
			c.Set(ctxRoleKey, user.Role)
			c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), user.ID))
		}
		c.Next()
	}
}

// AdminMiddleware requires an authenticated admin. Must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetCurrentUser(c)
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, apperrors.ErrorResponse{
				Success: false,
				Message: "Admin access required",
				Error:   apperrors.NewForbiddenError("Admin access required"),
			})
			return
		}
		c.Next()
	}
}

// GetCurrentUser returns the resolved user, or nil for anonymous.
func GetCurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(ctxUserKey)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetUserID returns the authenticated user id, or "".
func GetUserID(c *gin.Context) string {
	val, exists := c.Get(ctxUserIDKey)
	if !exists {
		return ""
	}
	id, ok := val.(string)
	if !ok {
		return ""
	}
	return id
}

func dbFromContext(c *gin.Context) *gorm.DB {
	val, _ := c.Get(string(contextkeys.DBContextKey))
	db, _ := val.(*gorm.DB)
	return db
}
