package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lessonforge/lessonplan-api/internal/entity"
	"github.com/lessonforge/lessonplan-api/pkg/apperror"
)

// ContextUserKey is where the auth middleware stores the resolved user.
const ContextUserKey = "current_user"

// CurrentUser retrieves the authenticated user placed in the context by the
// auth middleware.
func CurrentUser(c *gin.Context) (*entity.User, error) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}

	user, ok := value.(*entity.User)
	if !ok {
		return nil, apperror.ErrUnauthorized
	}

	return user, nil
}

// Error writes a standardized error response.
func Error(c *gin.Context, err error) {
	code := apperror.Status(err)

	if code == http.StatusInternalServerError {
		log.Printf("[internal error]: %v", err)
	}

	c.JSON(code, gin.H{"detail": err.Error()})
}
