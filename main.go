package main

import (
	"log"
	"net/http"
	"os"

	"finance-advisor/api/analysis"
	"finance-advisor/api/db"
	"finance-advisor/api/handlers"
	"finance-advisor/api/kafka"
	"finance-advisor/api/llm"
	"finance-advisor/api/logger"
	"finance-advisor/api/middleware"
	"finance-advisor/api/mongodb"
	"finance-advisor/api/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	development := os.Getenv("GIN_MODE") != "release"
	if err := logger.Init(development, logger.LogLevel(os.Getenv("LOG_LEVEL"))); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
}

func main() {
	defer logger.Sync()

	if err := mongodb.InitMongoDB(); err != nil {
		logger.Get().Fatal("failed to initialize MongoDB", zap.Error(err))
	}
	defer mongodb.CloseMongoDB()

	// The recommendations catalog and the event topic are optional
	// collaborators; the pipeline runs without them.
	if err := db.InitDB(); err != nil {
		logger.Get().Warn("recommendations database unavailable", zap.Error(err))
	}
	defer db.CloseDB()

	if err := kafka.InitProducer(); err != nil {
		logger.Get().Warn("Kafka producer unavailable", zap.Error(err))
	}
	defer kafka.CloseProducer()

	pool := worker.NewPool(4)
	pool.Start()
	defer pool.Stop()

	handlers.Pipeline = analysis.New(llm.NewClient(),
		analysis.WithNotifier(analysis.MultiNotifier{pool, kafka.EventNotifier{}}))

	router := gin.Default()
	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})
	router.Use(middleware.CorsMiddleware)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is running!"})
	})
	router.GET("/metrics", gin.WrapF(pool.MetricsHandler))

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware)
	{
		api.GET("/user/verify/:user_id", handlers.VerifyAndRunAnalysis)
		api.DELETE("/user/:user_id", handlers.DeleteUser)

		api.GET("/analysis/:user_id", handlers.AnalyzeUserFinances)
		api.GET("/analysis/ideal-spending/:user_id", handlers.IdealSpending)

		api.GET("/recommendations/good-practices", handlers.ListGoodPractices)
		api.GET("/recommendations/bad-habits", handlers.ListBadHabits)

		api.GET("/sse/analysis/:user_id", handlers.StreamAnalysisSSE)
		api.GET("/ws/analysis/:user_id", handlers.StreamAnalysisWS)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Get().Info("server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Get().Fatal("failed to start server", zap.Error(err))
	}
}
