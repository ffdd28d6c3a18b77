package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"phrasehub/internal/history"
	"phrasehub/internal/live"
	"phrasehub/internal/search"
)

// Router serves the HTTP API: health probes, searches, stored history and
// the live websocket feed.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), a.requestLogger())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/ws", live.WSHandler(a.Hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": a.DBPath, "backends": a.Registry.Names()})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := a.Hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := a.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	search.NewHandler(a.Search).RegisterRoutes(router.Group(""))
	history.NewHandler(a.History).RegisterRoutes(router.Group("/searches"))
	return router
}

func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.Logger.Info("http request", "component", "http",
			"method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}
