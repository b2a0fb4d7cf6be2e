package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// ServiceInfo identifies the running service.
type ServiceInfo struct {
	Name        string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	// TokenStore names the token backend: memory, sql or redis.
	TokenStore string `json:"token_store,omitempty"`
}

// Info reports service identity, uptime and the Go runtime version.
func Info(info ServiceInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     info.Name,
			"version":     info.Version,
			"environment": info.Environment,
			"token_store": info.TokenStore,
			"go_version":  runtime.Version(),
			"uptime":      time.Since(startTime).Round(time.Second).String(),
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
