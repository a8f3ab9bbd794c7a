package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	"github.com/noah-isme/event-idea-marketplace/internal/service"
)

const (
	unmatchedRoute = "unmatched"
	anonymousRole  = "anonymous"
)

// Metrics records every request against its route template and the caller's
// role. Requests that match no route share one label so ids in unknown paths
// cannot grow the series count.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(service.RequestObservation{
			Method:   c.Request.Method,
			Route:    route,
			Status:   c.Writer.Status(),
			Role:     callerRole(c),
			Duration: time.Since(start),
		})
	}
}

// callerRole reads the role JWT or OptionalJWT stored further down the chain.
func callerRole(c *gin.Context) string {
	if claims, ok := c.Value(ContextUserKey).(*models.JWTClaims); ok && claims != nil && claims.Role != "" {
		return string(claims.Role)
	}
	return anonymousRole
}
