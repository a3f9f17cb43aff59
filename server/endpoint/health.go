package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/discoveryping/component"
)

// HealthChecker reports the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

type healthResponse struct {
	Status     component.HealthStatus `json:"status"`
	Service    string                 `json:"service"`
	CheckedAt  time.Time              `json:"checked_at"`
	Components []component.Health     `json:"components"`
}

// Health aggregates component health. Degraded still answers 200 so
// orchestrators keep routing; unhealthy answers 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := healthResponse{
			Service:    serviceName,
			CheckedAt:  time.Now().UTC(),
			Components: []component.Health{},
		}
		if checker != nil {
			if got := checker(c.Request.Context()); got != nil {
				resp.Components = got
			}
		}
		resp.Status = component.Overall(resp.Components)

		code := http.StatusOK
		if resp.Status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}
