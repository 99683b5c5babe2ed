package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/product-copy-generator/internal/config"
	"github.com/phambaophuc/product-copy-generator/internal/http/handlers"
	"github.com/phambaophuc/product-copy-generator/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	handler *handlers.Handler
	config  *config.Config
	logger  *zap.Logger
}

func NewRouter(
	handler *handlers.Handler,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		handler: handler,
		config:  cfg,
		logger:  logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(r.config.Storage.MaxFileSize, r.config.Storage.MaxFiles))

	router.MaxMultipartMemory = r.config.Storage.MaxFileSize

	multipart := middleware.ValidateContentType("multipart/form-data")
	jsonBody := middleware.ValidateContentType("application/json")

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.handler.HealthCheck)
		v1.GET("/stats", r.handler.GetStats)

		generate := v1.Group("/generate", multipart)
		{
			generate.POST("", r.handler.GenerateSingle)
			generate.POST("/batch", r.handler.GenerateBatch)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.POST("", multipart, r.handler.CreateJob)
			jobs.GET("/:id", r.handler.GetJob)
		}

		v1.POST("/export", jsonBody, r.handler.Export)

		webhooks := v1.Group("/webhook")
		{
			webhooks.POST("/batch", multipart, r.handler.SendBatchWebhook)
			webhooks.POST("/product", jsonBody, r.handler.SendProductWebhook)
		}

		v1.POST("/relay/generate", jsonBody, r.handler.RelayGenerate)

		runs := v1.Group("/runs")
		{
			runs.GET("", r.handler.ListRuns)
			runs.GET("/stats", r.handler.RunStats)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Product copy generator is running",
		})
	})

	return router
}
