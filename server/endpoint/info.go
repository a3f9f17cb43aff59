package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/discoveryping/version"
)

type infoResponse struct {
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
	version.Info
}

// Info serves build metadata. Uptime counts from since.
func Info(serviceName string, since time.Time) gin.HandlerFunc {
	build := *version.GetVersionInfo()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, infoResponse{
			Service: serviceName,
			Uptime:  time.Since(since).Truncate(time.Second).String(),
			Info:    build,
		})
	}
}
