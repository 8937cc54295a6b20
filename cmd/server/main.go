package main

import (
	"log"
	"strings"
	"time"

	"personacraft/backend/internal/config"
	"personacraft/backend/internal/handler"
	"personacraft/backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	godotenv.Load(".env.local")

	cfg := config.FromEnv()
	log.Printf("[INFO] Starting PersonaCraft env=%s validation=%v", cfg.Env, cfg.Validation.Enabled)

	if err := handler.InitGenerator(cfg); err != nil {
		log.Printf("[WARN] Failed to initialize persona generator: %v", err)
		log.Println("[WARN] Generation functionality will be unavailable")
	} else {
		log.Println("[INFO] Persona generator initialized successfully")
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// Security headers (before CORS)
	r.Use(middleware.SecurityHeaders())

	allowedOrigins := []string{}
	if gin.Mode() != gin.ReleaseMode {
		allowedOrigins = append(allowedOrigins, "http://localhost:5173")
	}
	if cfg.CloudRunURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.CloudRunURL)
	}
	if cfg.ExtraOrigins != "" {
		allowedOrigins = append(allowedOrigins, strings.Split(cfg.ExtraOrigins, ",")...)
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Accept-Language", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// One generation call per second per IP; the daily quota bounds total
	// persona spend against the model budget.
	ipLimiter := middleware.NewIPRateLimiter(rate.Every(1*time.Second), 2)
	personaQuota := middleware.NewPersonaQuota(cfg.DailyLimit)

	log.Printf("[INFO] Rate limiting enabled (daily persona limit=%d)", cfg.DailyLimit)

	// Health check endpoints (outside /api group, no rate limiting)
	r.GET("/health", handler.HandleHealth)
	r.GET("/ready", handler.HandleReadiness)

	api := r.Group("/api")
	{
		api.GET("/templates", handler.HandleGetTemplates)
		api.GET("/templates/:id", handler.HandleGetTemplate)
		api.POST("/generate-personas",
			middleware.APIKeyAuth(cfg.ClientAPIKey),
			middleware.RateLimitMiddleware(ipLimiter, personaQuota),
			handler.HandleGeneratePersonas)
	}

	log.Printf("[INFO] Server ready port=%s allowed_origins=%v", cfg.Port, allowedOrigins)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[FATAL] Failed to start server: %v", err)
	}
}
