// Package endpoint provides the operational HTTP endpoints: health, info,
// and runtime metrics.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Component statuses reported by the health endpoint.
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// ComponentHealth is the reported status of one dependency, typically a
// transcription or diarization sidecar.
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// HealthChecker returns health status for service dependencies.
type HealthChecker func(ctx context.Context) []ComponentHealth

// Health returns a handler reporting overall service health. The service is
// degraded when any dependency is down; it still reports 200 because the
// API itself is serving and callers may use a healthy subset of providers.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		var components []ComponentHealth

		if checker != nil {
			components = checker(c.Request.Context())
			for _, ch := range components {
				if ch.Status == StatusDown {
					status = "degraded"
					break
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
