package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizio/config"
	"quizio/handlers"
	"quizio/logger"
	"quizio/middleware"
	"quizio/models"
	"quizio/routes"
	"quizio/services"
)

func main() {
	// Load configuration; refuses to start without a signing secret
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	if _, err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
	)
	if err != nil {
		logger.L().Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize Redis (quiz code lookup cache)
	redisClient := config.InitRedis(cfg)

	// Initialize services
	tokens := services.NewTokenIssuer(cfg.JWTSecret)
	authService := services.NewAuthService(db, tokens)
	quizService := services.NewQuizService(db, redisClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.CookieName)
	quizHandler := handlers.NewQuizHandler(quizService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, quizHandler, tokens, cfg.CookieName)

	// Start server
	logger.L().Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.L().Fatal("failed to start server", zap.Error(err))
	}
}
