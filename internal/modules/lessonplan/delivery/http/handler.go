package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/dto"
	"github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/service"
	"github.com/lessonforge/lessonplan-api/pkg/response"
	"github.com/lessonforge/lessonplan-api/pkg/validator"
)

type LessonPlanHandler struct {
	service service.LessonPlanService
}

func NewLessonPlanHandler(service service.LessonPlanService) *LessonPlanHandler {
	return &LessonPlanHandler{service: service}
}

func (h *LessonPlanHandler) Create(c *gin.Context) {
	user, err := response.CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateLessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validator.FormatError(err)})
		return
	}

	plan, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *LessonPlanHandler) List(c *gin.Context) {
	var query dto.ListLessonPlansQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validator.FormatError(err)})
		return
	}

	plans, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

func (h *LessonPlanHandler) ListMine(c *gin.Context) {
	user, err := response.CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var query dto.ListMineQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validator.FormatError(err)})
		return
	}

	plans, err := h.service.ListMine(c.Request.Context(), user.ID, query.Skip, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

func (h *LessonPlanHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid lesson plan id"})
		return
	}

	plan, err := h.service.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *LessonPlanHandler) Update(c *gin.Context) {
	user, err := response.CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid lesson plan id"})
		return
	}

	var req dto.UpdateLessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": validator.FormatError(err)})
		return
	}

	plan, err := h.service.Update(c.Request.Context(), user, uint(id), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *LessonPlanHandler) Delete(c *gin.Context) {
	user, err := response.CurrentUser(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid lesson plan id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), user, uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
