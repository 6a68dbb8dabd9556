package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lessonforge/lessonplan-api/internal/modules/user/dto"
	"github.com/lessonforge/lessonplan-api/internal/modules/user/service"
	"github.com/lessonforge/lessonplan-api/pkg/ratelimiter"
	"github.com/lessonforge/lessonplan-api/pkg/response"
	"github.com/lessonforge/lessonplan-api/pkg/validator"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validator.FormatError(err)})
		return
	}

	user, err := h.service.Register(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		respondMaybeRateLimited(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form dto.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validator.FormatError(err)})
		return
	}

	token, err := h.service.Login(c.Request.Context(), c.ClientIP(), form)
	if err != nil {
		respondMaybeRateLimited(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

func respondMaybeRateLimited(c *gin.Context, err error) {
	if rateLimitErr, ok := err.(*ratelimiter.RateLimitError); ok {
		c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
	}
	response.Error(c, err)
}

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := response.CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, err := response.CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validator.FormatError(err)})
		return
	}

	updated, err := h.service.UpdateSelf(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetByID is public: any caller may fetch a user's record by id. The
// password hash is never serialized.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
