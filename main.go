package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"game-achievement-system/cache"
	"game-achievement-system/handlers"
	"game-achievement-system/middleware"
	"game-achievement-system/models"
	"game-achievement-system/services"
	"game-achievement-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Println("⚠️  REDIS_ADDR environment variable not set, using default: localhost:6379")
		redisAddr = "localhost:6379"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.UserScore{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.AchievementNotification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedCatalog(db); err != nil {
		log.Fatal("failed to seed achievement catalog:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis not reachable at %s: %v (cache misses will fall back to the database)", redisAddr, err)
	}
	userCache := cache.NewUserCache(rdb)
	userLock := cache.NewUserLock(rdb)

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	taskClient := workers.NewClient(redisOpt)
	defer taskClient.Close()

	userService := services.NewUserService(db)
	eventService := services.NewEventService(db, taskClient)
	achievementService := services.NewAchievementService(db)
	statsService := services.NewStatsService(db, userCache)

	workerSrv, mux := workers.NewServer(redisOpt, db, userCache, userLock, taskClient)
	go func() {
		log.Println("Starting event processing workers...")
		if err := workerSrv.Run(mux); err != nil {
			log.Fatal("worker server error:", err)
		}
	}()

	sweeper, err := services.StartNotificationSweeper(db, taskClient)
	if err != nil {
		log.Fatal("failed to start notification sweeper:", err)
	}

	app := fiber.New()
	app.Use(middleware.RequestLogger())
	app.Use(cors.New())

	handlers.SetupEventRoutes(app, eventService)
	handlers.SetupUserRoutes(app, userService)
	handlers.SetupAchievementRoutes(app, achievementService)
	handlers.SetupStatsRoutes(app, statsService)

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Event workers running")
	log.Println("✅ Notification sweeper running (every 1m)")

	<-ctx.Done()
	log.Println("Shutting down server...")
	workerSrv.Shutdown()
	_ = sweeper.Shutdown()
	if err := app.Shutdown(); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
