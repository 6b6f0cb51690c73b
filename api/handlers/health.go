package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/services/pool"
)

// HealthCheck is the liveness probe.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports whether the pool can serve a send right now.
func Status(poolService *pool.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		wait, err := poolService.GetWaitTime(c.Request.Context())
		if errors.Is(err, pool.ErrPoolExhausted) {
			c.JSON(http.StatusOK, gin.H{"status": "exhausted"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		status := "ready"
		if wait > 0 {
			status = "waiting"
		}
		c.JSON(http.StatusOK, gin.H{"status": status, "waitSeconds": int(wait.Seconds())})
	}
}
