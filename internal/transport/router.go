package transport

import (
	"kantinku-be/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires middleware and routes. The gatherer serves /metrics; pass
// nil to skip it (tests).
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging())
	r.Use(middleware.RateLimit())

	api := r.Group("/api")
	{
		api.POST("/login", h.Login)

		authed := api.Group("")
		authed.Use(middleware.RequireAuth())
		{
			authed.POST("/orders", h.PlaceOrder)
			authed.GET("/orders/:id", h.GetDetail)
			authed.POST("/orders/:id/transition", h.Transition)
			authed.GET("/cafeterias/:id/orders", h.ListByStatus)
			authed.GET("/cafeterias/:id/counts", h.GetCounts)
			authed.POST("/cache/refresh", h.RefreshCache)
			authed.GET("/cafeterias/:id/events", h.Events)
		}
	}

	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return r
}
