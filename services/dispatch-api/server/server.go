package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abnp-academy/campaign-dispatch/docs"
	"github.com/abnp-academy/campaign-dispatch/pkg/metrics"
)

func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), Observability(), CORS())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	fn := r.Group("/functions/v1")
	fn.POST("/send-campaign", h.SendCampaign)
	fn.OPTIONS("/send-campaign", preflight)
	fn.POST("/send-welcome-email", h.SendWelcomeEmail)
	fn.OPTIONS("/send-welcome-email", preflight)

	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", docs.SwaggerHTML)
	})
	r.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", docs.OpenAPI)
	})

	return r
}

// preflight exists so OPTIONS routes register; CORS() already wrote the
// response by the time it runs.
func preflight(c *gin.Context) {}

func NewHTTPServer(addr string, h *Handlers) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: NewRouter(h),
	}
}
