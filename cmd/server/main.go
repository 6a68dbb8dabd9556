package main

import (
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/lessonforge/lessonplan-api/internal/config"
	"github.com/lessonforge/lessonplan-api/internal/server"
	"github.com/lessonforge/lessonplan-api/migrations"
	"github.com/lessonforge/lessonplan-api/pkg/database"
	"github.com/lessonforge/lessonplan-api/pkg/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := migrate.Up(db, migrations.FS); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// Redis is optional: without it auth endpoints run unthrottled.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	srv, err := server.New(cfg, db, redisClient)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
