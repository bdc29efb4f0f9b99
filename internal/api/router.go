package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"job-ingest-go/internal/logger"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewRouter wires every route. metrics may be nil.
func NewRouter(h *Handler, metrics http.Handler, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(log))

	router.GET("/health", h.Health)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/v1")
	v1.POST("/runs", h.StartRun)
	v1.GET("/runs/latest", h.LatestRun)
	v1.POST("/salary/parse", h.ParseSalary)
	v1.GET("/roles/classify", h.ClassifyTitle)

	return router
}

// NewServer builds the http.Server for router.
func NewServer(cfg ServerConfig, router http.Handler) *http.Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.Strings("errors", c.Errors.Errors()))
			log.Error("HTTP request with errors", fields...)
			return
		}
		if strings.HasPrefix(path, "/health") || path == "/metrics" {
			log.Debug("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}
