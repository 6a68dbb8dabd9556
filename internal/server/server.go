package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lessonforge/lessonplan-api/internal/config"
	"github.com/lessonforge/lessonplan-api/internal/middleware"
	"github.com/lessonforge/lessonplan-api/pkg/auth"
	"github.com/lessonforge/lessonplan-api/pkg/ratelimiter"

	lessonPlanHttp "github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/delivery/http"
	lessonPlanRepo "github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/repository"
	lessonPlanService "github.com/lessonforge/lessonplan-api/internal/modules/lessonplan/service"

	tagHttp "github.com/lessonforge/lessonplan-api/internal/modules/tag/delivery/http"
	tagRepo "github.com/lessonforge/lessonplan-api/internal/modules/tag/repository"
	tagService "github.com/lessonforge/lessonplan-api/internal/modules/tag/service"

	userHttp "github.com/lessonforge/lessonplan-api/internal/modules/user/delivery/http"
	userRepo "github.com/lessonforge/lessonplan-api/internal/modules/user/repository"
	userService "github.com/lessonforge/lessonplan-api/internal/modules/user/service"
)

type Server struct {
	engine *gin.Engine
}

func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	hasher := auth.NewHasher()
	limiter := ratelimiter.New(redisClient, cfg.AuthRateLimitWindow)

	users := userRepo.NewUserRepository(db)
	tags := tagRepo.NewTagRepository(db)
	plans := lessonPlanRepo.NewLessonPlanRepository(db)

	authSvc := userService.NewAuthService(users, hasher, tokens, limiter)
	authHandler := userHttp.NewAuthHandler(authSvc)

	userSvc := userService.NewUserService(users, hasher)
	userHandler := userHttp.NewUserHandler(userSvc)

	tagSvc := tagService.NewTagService(tags)
	tagHandler := tagHttp.NewTagHandler(tagSvc)

	planSvc := lessonPlanService.NewLessonPlanService(plans, tags)
	planHandler := lessonPlanHttp.NewLessonPlanHandler(planSvc)

	authMiddleware := middleware.NewAuthMiddleware(users, tokens)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, cfg.AllowedOrigins)

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Welcome to the " + cfg.ProjectName,
			"version": "1.0.0",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	requireActive := authMiddleware.RequireActiveUser()

	usersGroup := v1.Group("/users")
	{
		usersGroup.GET("/me", requireActive, userHandler.GetMe)
		usersGroup.PUT("/me", requireActive, userHandler.UpdateMe)
		usersGroup.GET("/:id", userHandler.GetByID)
	}

	plansGroup := v1.Group("/lesson-plans")
	{
		plansGroup.POST("", requireActive, planHandler.Create)
		plansGroup.POST("/", requireActive, planHandler.Create)
		plansGroup.GET("", planHandler.List)
		plansGroup.GET("/", planHandler.List)
		plansGroup.GET("/my", requireActive, planHandler.ListMine)
		plansGroup.GET("/:id", planHandler.GetByID)
		plansGroup.PUT("/:id", requireActive, planHandler.Update)
		plansGroup.DELETE("/:id", requireActive, planHandler.Delete)
	}

	tagsGroup := v1.Group("/tags")
	{
		tagsGroup.POST("", requireActive, tagHandler.Create)
		tagsGroup.POST("/", requireActive, tagHandler.Create)
		tagsGroup.GET("", tagHandler.List)
		tagsGroup.GET("/", tagHandler.List)
		tagsGroup.GET("/:id", tagHandler.GetByID)
		tagsGroup.DELETE("/:id", requireActive, tagHandler.Delete)
	}

	return &Server{engine: router}, nil
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for httptest in delivery tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
