package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/analysis"
	"github.com/smartcity/traffic/internal/cache"
	"github.com/smartcity/traffic/internal/control"
	httpdelivery "github.com/smartcity/traffic/internal/delivery/http"
	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/internal/forecast"
	"github.com/smartcity/traffic/internal/ingest"
	"github.com/smartcity/traffic/internal/repository/postgres"
	"github.com/smartcity/traffic/internal/simulator"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := loadConfig()

	zapLogger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Logger init error: %v", err)
	}
	defer zapLogger.Sync()

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type stores struct {
		readings domain.ReadingStore
		incident domain.IncidentStore
		control  domain.ControlStore
		health   httpdelivery.HealthChecker
	}
	var st stores

	if cfg.DatabaseURL == "" {
		zapLogger.Warn("DATABASE_URL not set, running with in-memory stores")
		mem := postgres.NewMemoryStore()
		st = stores{readings: mem, incident: mem, control: mem, health: mem}
	} else if pool, err := pgxpool.New(ctx, cfg.DatabaseURL); err != nil {
		zapLogger.Warn("could not connect to database, running with in-memory stores", zap.Error(err))
		mem := postgres.NewMemoryStore()
		st = stores{readings: mem, incident: mem, control: mem, health: mem}
	} else {
		defer pool.Close()
		zapLogger.Info("connected to PostgreSQL")
		repo := postgres.NewRepository(pool)
		st = stores{readings: repo, incident: repo, control: repo, health: repo}
	}

	// Optional analysis snapshot cache
	var snapshotCache cache.Cache
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zapLogger)
		if err != nil {
			zapLogger.Warn("redis unavailable, analysis cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			snapshotCache = redisCache
		}
	}

	// Dependency Injection: Services
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ingestSvc := ingest.NewService(st.readings, st.incident, zapLogger)
	analysisSvc := analysis.NewService(st.readings, st.incident, snapshotCache, analysis.DefaultConfig(), zapLogger)
	controlSvc := control.NewService(st.control, st.readings, control.DefaultConfig(), zapLogger)
	forecaster := forecast.NewForecaster(forecast.DefaultForecastConfig(), rng)
	forecastSvc := forecast.NewService(st.readings, forecaster, analysisSvc, forecast.DefaultConfig(), zapLogger)
	sim := simulator.New(st.readings, st.control, rng, zapLogger)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Traffic Decision Core v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: httpdelivery.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	handler := httpdelivery.NewHandler(ingestSvc, analysisSvc, controlSvc, forecastSvc, sim, st.health)
	httpdelivery.SetupRoutes(app, handler)

	// Graceful shutdown
	go func() {
		port := cfg.Port
		if port == "" {
			port = "8080"
		}
		zapLogger.Info("server starting", zap.String("port", port))
		if err := app.Listen(":" + port); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zapLogger.Warn("server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("server exited gracefully")
}

type Config struct {
	DatabaseURL   string
	Port          string
	Env           string
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("GO_ENV", "development"),
		RedisEnabled:  getEnv("REDIS_ENABLED", "false") == "true",
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
