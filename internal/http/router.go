package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas de evaluacion.
// gatherer es el registry de metricas que expone /metrics.
func NewRouter(logger *zap.Logger, assessH *AssessmentHandler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	a := r.Group("/assessment")
	a.POST("/session", assessH.StartSession)
	a.GET("/session/:id", assessH.GetSession)
	a.DELETE("/session/:id", assessH.DeleteSession)
	a.POST("/session/:id/answer", assessH.Answer)
	a.POST("/session/:id/report/email", assessH.EmailReport)
	a.GET("/session/:id/similar", assessH.Similar)

	a.POST("/orchestrate", assessH.Orchestrate)
	a.POST("/evaluate/:domain", assessH.EvaluateFit)
	a.POST("/rank", assessH.Rank)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json salvo en /metrics,
// que responde en formato de exposicion de Prometheus.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path != "/metrics" {
			c.Writer.Header().Set("Content-Type", "application/json")
		}
		c.Next()
	}
}
