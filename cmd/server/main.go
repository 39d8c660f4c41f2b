package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/nikhilm27/socialcast/configs"
	"github.com/nikhilm27/socialcast/internal/api/handlers"
	"github.com/nikhilm27/socialcast/internal/api/middleware"
	job "github.com/nikhilm27/socialcast/internal/jobs"
	"github.com/nikhilm27/socialcast/internal/media"
	"github.com/nikhilm27/socialcast/internal/platform"
	"github.com/nikhilm27/socialcast/internal/queue"
	"github.com/nikhilm27/socialcast/internal/repository"
	"github.com/nikhilm27/socialcast/internal/scheduler"
	"github.com/nikhilm27/socialcast/internal/service"
	"github.com/nikhilm27/socialcast/pkg/utils"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Api-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	scheduledPostRepo := repository.NewScheduledPostRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	cipher, err := utils.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		log.Fatalf("Invalid token encryption key: %v", err)
	}

	registry := platform.DefaultRegistry(cfg)

	r2Service, err := service.NewR2Service(cfg)
	if err != nil {
		log.Fatalf("Failed to configure media storage: %v", err)
	}
	normalizer := media.NewNormalizer(r2Service)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	tokenService := service.NewTokenService(socialAccountRepo, cipher, registry)
	accountService := service.NewAccountService(socialAccountRepo, tokenService, registry)
	publishService := service.NewPublishService(socialAccountRepo, activityRepo, tokenService, registry, normalizer)
	scheduleService := service.NewScheduleService(scheduledPostRepo, normalizer)
	activityService := service.NewActivityService(activityRepo)

	dispatcher := queue.NewDispatcher(client)
	poller := scheduler.NewPoller(scheduledPostRepo, publishService, dispatcher)

	authMiddleware := middleware.NewAuthMiddleware(cfg, userService)

	auth := handlers.NewAuthHandler(cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Get("/logout", auth.Logout)

	account := handlers.NewAccountHandler(cfg, accountService, registry)
	app.Get("/auth/:platform/callback", account.CallbackHandler)

	cronHandler := handlers.NewCronHandler(cfg, poller)
	app.Get("/cron/publish-scheduled", cronHandler.RunDuePosts)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/:platform", account.AddSocialAccount)
	api.Post("/accounts/bluesky", account.ConnectBluesky)
	api.Get("/accounts", account.ListSocialAccounts)
	api.Get("/platforms", account.ListPlatforms)
	api.Post("/accounts/remove", account.DeleteSocialAccount)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/api_key", user.RotateAPIKey)

	publish := handlers.NewPublishHandler(publishService)
	api.Post("/publish", publish.Publish)

	schedule := handlers.NewScheduleHandler(scheduleService)
	api.Post("/schedule/create", schedule.CreateScheduledPost)
	api.Get("/schedule", schedule.ListScheduledPosts)
	api.Post("/schedule/remove", schedule.RemoveScheduledPost)

	activity := handlers.NewActivityHandler(activityService)
	api.Get("/activity", activity.ListActivity)

	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, tokenService)

	queueW := queue.NewQueue(poller)

	c := cron.New()
	c.AddFunc("@every 00h01m00s", func() { poller.Tick(context.Background()) })
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishScheduled, queueW.HandlePublishScheduledTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
