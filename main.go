package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careloop/backend/config"
	"github.com/careloop/backend/engine"
	"github.com/careloop/backend/handlers"
	"github.com/careloop/backend/index"
	"github.com/careloop/backend/middleware"
	"github.com/careloop/backend/remote"
	"github.com/careloop/backend/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Fiber  *fiber.App
	Redis  *redis.Client
	Store  store.Store
	Engine *engine.Engine
	Remote *remote.Client
	Ctx    context.Context
	Config *config.Config
	Logger *zap.Logger
}

func NewApp() (*App, error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %v", err)
	}

	// Select the store backend for the link indexes
	var (
		st          store.Store
		redisClient *redis.Client
	)
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		redisOpt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis URL parsing failed: %v", err)
		}

		redisClient = redis.NewClient(redisOpt)
		maxRetries := 5
		for i := 0; i < maxRetries; i++ {
			_, err = redisClient.Ping(ctx).Result()
			if err == nil {
				break
			}
			logger.Warn("failed to connect to redis, retrying...",
				zap.Error(err),
				zap.Int("attempt", i+1))
			time.Sleep(time.Second * time.Duration(i+1))
		}
		if err != nil {
			return nil, fmt.Errorf("redis connection failed after %d attempts: %v", maxRetries, err)
		}
		st = store.NewRedisStore(redisClient, cfg.StorePrefix)
	default:
		st, err = store.NewFileStore(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %v", err)
		}
	}

	// Upstream client and reconciliation engine
	client := remote.NewClient(cfg.UpstreamBaseURL, time.Duration(cfg.UpstreamTimeout)*time.Second, logger)
	assignments := index.NewAssignmentIndex(st, logger)
	apptLinks := index.NewAppointmentLinkIndex(st, logger)
	histLinks := index.NewHistoryLinkIndex(st, logger)
	eng := engine.NewEngine(client, assignments, apptLinks, histLinks, logger)

	// Fiber setup
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Error("request error",
				zap.Error(err),
				zap.String("path", c.Path()),
				zap.Int("status", code))
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
	})

	fiberApp.Use(middleware.RecoveryMiddleware(logger))
	fiberApp.Use(middleware.RequestLogMiddleware(logger))

	// CORS configuration
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       300,
	}))

	return &App{
		Fiber:  fiberApp,
		Redis:  redisClient,
		Store:  st,
		Engine: eng,
		Remote: client,
		Ctx:    ctx,
		Config: cfg,
		Logger: logger,
	}, nil
}

func (a *App) setupRoutes() {
	patientHandler := handlers.NewPatientHandler(a.Logger, a.Engine, a.Remote)
	doctorHandler := handlers.NewDoctorHandler(a.Logger, a.Engine, a.Remote)
	admissionHandler := handlers.NewAdmissionHandler(a.Logger, a.Remote)

	api := a.Fiber.Group("/api")

	// Patient dashboard
	patients := api.Group("/patients")
	patients.Post("/", patientHandler.Register)
	patients.Get("/:id/appointments", patientHandler.GetAppointments)
	patients.Get("/:id/history", patientHandler.GetHistory)
	patients.Get("/:id/vitals", patientHandler.GetVitals)
	patients.Get("/:id/feedback", patientHandler.GetFeedback)
	patients.Post("/:id/history", patientHandler.CreateHistory)
	patients.Delete("/:id/history/:historyID", patientHandler.DeleteHistory)
	patients.Post("/:id/vitals", patientHandler.CreateVitals)
	patients.Put("/:id/doctor", patientHandler.AssignDoctor)
	patients.Delete("/:id", patientHandler.DeletePatient)

	// Doctor dashboard
	doctors := api.Group("/doctors")
	doctors.Get("/", doctorHandler.ListDoctors)
	doctors.Get("/:id/appointments", doctorHandler.GetAppointments)
	doctors.Get("/:id/patients", doctorHandler.GetAssignedPatients)
	doctors.Get("/:id/feedback", doctorHandler.GetFeedback)

	// Appointments and feedback
	api.Post("/appointments", patientHandler.CreateAppointment)
	api.Delete("/appointments/:id", patientHandler.DeleteAppointment)
	api.Put("/appointments/:id/status", doctorHandler.UpdateAppointmentStatus)
	api.Post("/feedback", patientHandler.CreateFeedback)

	// Admissions
	admissions := api.Group("/admissions")
	admissions.Get("/", admissionHandler.List)
	admissions.Post("/", admissionHandler.Create)
	admissions.Put("/:id/status", admissionHandler.UpdateStatus)
}

func (a *App) Start() error {
	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.setupRoutes()

	// Start server in a goroutine
	go func() {
		if err := a.Fiber.Listen(":" + a.Config.ServerPort); err != nil {
			a.Logger.Fatal("failed to start server",
				zap.Error(err),
				zap.String("port", a.Config.ServerPort))
		}
	}()

	a.Logger.Info("gateway started",
		zap.String("port", a.Config.ServerPort),
		zap.String("upstream", a.Config.UpstreamBaseURL),
		zap.String("storeBackend", a.Config.StoreBackend))

	// Wait for interrupt signal
	<-sigChan
	a.Logger.Info("shutting down server...")

	// Cleanup
	if err := a.Fiber.Shutdown(); err != nil {
		a.Logger.Error("error during server shutdown",
			zap.Error(err))
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("error closing redis connection",
				zap.Error(err))
		}
	}
	if err := a.Logger.Sync(); err != nil {
		log.Printf("error syncing logger: %v", err)
	}

	return nil
}

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
