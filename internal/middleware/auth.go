package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	userRepo "github.com/lessonforge/lessonplan-api/internal/modules/user/repository"
	"github.com/lessonforge/lessonplan-api/pkg/auth"
	"github.com/lessonforge/lessonplan-api/pkg/response"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	tokens   *auth.TokenService
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// RequireAuth resolves the bearer token, loads the user, and stores it in
// the context. Short-circuits with 401 before any handler runs.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
			c.Abort()
			return
		}

		userID, err := m.tokens.Resolve(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "could not validate credentials"})
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "could not validate credentials"})
			c.Abort()
			return
		}

		c.Set(response.ContextUserKey, user)
	}
}

// RequireActiveUser is the strict variant: valid token, existing user, and
// the account must not be deactivated.
func (m *AuthMiddleware) RequireActiveUser() gin.HandlerFunc {
	// requireAuth never calls c.Next itself, so invoking it here only runs
	// the checks; the chain advances after this middleware returns.
	requireAuth := m.RequireAuth()
	return func(c *gin.Context) {
		requireAuth(c)
		if c.IsAborted() {
			return
		}

		user, err := response.CurrentUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
			c.Abort()
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "inactive user"})
			c.Abort()
		}
	}
}
