package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/krishi-vaani/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	logger = logger.With("component", "http.router")
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, logger))
	api.POST("/sessions", handler.StartSession)

	authed := api.Group("")
	authed.Use(sessionMiddleware(handler.sessions))
	{
		authed.PUT("/sessions/locale", handler.SetLocale)
		authed.POST("/environment", handler.Environment)

		authed.POST("/recommendations", handler.SubmitRecommendation)
		authed.GET("/recommendations", handler.Recommendation)
		authed.POST("/diagnoses", handler.SubmitDiagnosis)
		authed.GET("/diagnoses", handler.Diagnosis)

		authed.POST("/chat/threads", handler.CreateThread)
		authed.GET("/chat/threads", handler.ListThreads)
		authed.GET("/chat/threads/:id/messages", handler.ThreadMessages)
		authed.POST("/chat/threads/:id/messages", handler.SendMessage)
		authed.DELETE("/chat/threads/:id", handler.DeleteThread)
		authed.POST("/chat/threads/:id/documents", handler.UploadDocument)
		authed.GET("/chat/threads/:id/documents", handler.ThreadDocuments)
		authed.PUT("/chat/threads/:id/documents/:docId", handler.AttachDocument)

		authed.GET("/documents", handler.ListDocuments)
		authed.GET("/documents/search", handler.SearchDocuments)

		authed.GET("/experts/nearest", handler.NearestExpert)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
