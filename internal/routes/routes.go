// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"receipt-emulator/internal/config"
	"receipt-emulator/internal/handler"
	"receipt-emulator/internal/middleware"
	"receipt-emulator/internal/protocol"
	"receipt-emulator/internal/service"
	"receipt-emulator/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config     *config.Config
	logger     *zap.Logger
	db         handler.HealthChecker
	jobService *service.JobService
	listeners  []protocol.Listener
	wsHandler  *handler.WebSocketHandler
}

// NewRouter creates a new router instance. db may be nil.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db handler.HealthChecker,
	jobService *service.JobService,
	listeners []protocol.Listener,
	wsHandler *handler.WebSocketHandler,
) *Router {
	return &Router{
		config:     config,
		logger:     logger,
		db:         db,
		jobService: jobService,
		listeners:  listeners,
		wsHandler:  wsHandler,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	// route dumps only when debugging outside production
	if r.config.IsDebugEnabled() && !r.config.IsProduction() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	r.addMiddleware(router)
	r.addRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "Route not found", nil)
	})
	router.NoMethod(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger, "/health", "/live", "/ready", "/swagger"))

	router.Use(middleware.CORSMiddleware(&r.config.Security))
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	maxBody := r.config.Server.MaxBodyBytes

	healthHandler := handler.NewHealthHandler(r.db, r.listeners, r.config, r.logger)
	jobHandler := handler.NewJobHandler(r.jobService, maxBody, r.logger)
	decodeHandler := handler.NewDecodeHandler(r.jobService, maxBody, r.logger)
	listenerHandler := handler.NewListenerHandler(r.listeners, r.logger)

	r.addHealthRoutes(router, healthHandler)

	apiV1 := router.Group("/api/v1")
	r.addJobRoutes(apiV1, jobHandler)
	r.addDecodeRoutes(apiV1, decodeHandler)
	r.addListenerRoutes(apiV1, listenerHandler)

	if r.wsHandler != nil {
		router.GET("/ws/jobs", r.wsHandler.HandleJobStream)
	}

	r.addDocumentationRoutes(router)

	r.logger.Debug("All routes configured successfully")
}

// addHealthRoutes sets up health check routes
func (r *Router) addHealthRoutes(router *gin.Engine, handler *handler.HealthHandler) {
	health := router.Group("")
	{
		health.GET("/health", handler.HealthCheck)
		health.GET("/ready", handler.ReadinessCheck)
		health.GET("/live", handler.LivenessCheck)
	}
}

// addJobRoutes sets up print job routes
func (r *Router) addJobRoutes(api *gin.RouterGroup, handler *handler.JobHandler) {
	jobs := api.Group("/jobs")
	{
		jobs.POST("", handler.SubmitJob)
		jobs.POST("/sample", handler.SubmitSample)
		jobs.GET("", handler.ListJobs)
		jobs.GET("/stats", handler.GetJobStats)

		job := jobs.Group("/:job_id")
		{
			job.GET("", handler.GetJob)
			job.GET("/raw", handler.GetRawArtifact)
			job.GET("/rich", handler.GetRichTextArtifact)
			job.GET("/plain", handler.GetPlainTextArtifact)
		}
	}
}

// addDecodeRoutes sets up stateless decoding routes
func (r *Router) addDecodeRoutes(api *gin.RouterGroup, handler *handler.DecodeHandler) {
	api.POST("/decode", handler.Decode)
	api.GET("/codepages", handler.ListCodepages)
}

// addListenerRoutes sets up listener status routes
func (r *Router) addListenerRoutes(api *gin.RouterGroup, handler *handler.ListenerHandler) {
	api.GET("/listeners", handler.ListListeners)
	api.GET("/ports", handler.ListSerialPorts)
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
