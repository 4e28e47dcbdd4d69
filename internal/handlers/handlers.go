package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/meehighlov/reventor/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the ops status router. It is a read-only surface for
// health checks and dashboards; the bot itself has no HTTP ingress.
func NewRouter(st *store.Store, startedAt time.Time) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())
	router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/", HomeHandler)
	router.GET("/health", HealthHandler)
	router.GET("/stats", StatsHandler(st, startedAt))

	return router
}

// HomeHandler handles requests to the root path "/"
func HomeHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to Reventor!")
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// StatsHandler reports event counts and process uptime
func StatsHandler(st *store.Store, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, delivered, err := st.CountByStatus()
		if err != nil {
			log.Printf("Error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read event counts"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"pending_events":   pending,
			"delivered_events": delivered,
			"uptime":           time.Since(startedAt).Round(time.Second).String(),
		})
	}
}
