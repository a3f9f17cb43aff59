package pingproxy

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/discoveryping/server"
)

// RegisterRoutes mounts the handler's routes on r.
func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.Any("/discoveryClient", h.proxy)
	r.Any("/ping", h.ping)
	r.GET("/app-health-check", h.healthCheck)
}

func (h *Handler) proxy(c *gin.Context) {
	body, contentType, err := h.HandlePingProxy(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondBytes(c, contentType, body)
}

func (h *Handler) ping(c *gin.Context) {
	server.RespondText(c, http.StatusOK, h.HandlePing())
}

func (h *Handler) healthCheck(c *gin.Context) {
	server.RespondText(c, http.StatusOK, h.HandleHealthCheck())
}
