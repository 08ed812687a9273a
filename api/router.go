package api

import (
	"github.com/gin-gonic/gin"

	"kioskagent/hub"
	"kioskagent/orchestrator"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(o *orchestrator.Orchestrator, h *hub.Hub) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterControlRoutes(r, o)
	RegisterChannelRoutes(r, h)
	return r
}
