package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/chat-app/internal/httpapi/handlers"
)

func NewRouter(h *handlers.Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "route not found", "data": nil})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"code": 40500, "message": "method not allowed", "data": nil})
	})

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
	})
	r.GET("/ping", h.Ping)

	api := r.Group("/api")
	api.GET("/state", h.State)
	api.GET("/models", h.ListModels)
	api.GET("/messages", h.ListMessages)
	api.POST("/messages", h.SendMessage)
	api.GET("/config", h.GetConfig)
	api.PUT("/config/:key", h.UpdateConfig)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"cost", time.Since(start),
		)
	}
}
