package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizio/handlers"
	"quizio/middleware"
	"quizio/services"
)

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	tokens *services.TokenIssuer,
	cookieName string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/session", authHandler.GetSession)
		}

		// Public user lookups
		users := api.Group("/users")
		{
			users.GET("/:id", authHandler.GetUserByID)
			users.GET("/:id/name", authHandler.GetUsernameByID)
		}

		// Quiz lookup by code is public: joining a quiz does not require
		// an account.
		api.GET("/quizzes/code/:code", quizHandler.GetQuizByCode)

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(tokens, cookieName))
		{
			// Profile
			protected.GET("/profile", authHandler.GetProfile)
			protected.PUT("/profile", authHandler.UpdateProfile)

			// Quiz routes
			quizzes := protected.Group("/quizzes")
			{
				quizzes.GET("", quizHandler.GetAllQuizzes)
				quizzes.POST("", quizHandler.CreateQuiz)
				quizzes.GET("/count", quizHandler.GetQuizCount)
				quizzes.GET("/recent", quizHandler.GetRecentQuizzes)
			}
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
