package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"kioskagent/orchestrator"
	"kioskagent/types"
)

// RegisterControlRoutes registers status/manifest/event routes.
func RegisterControlRoutes(r *gin.Engine, o *orchestrator.Orchestrator) {
	r.GET("/status", func(c *gin.Context) { handleGetStatus(c, o) })
	r.GET("/manifest", func(c *gin.Context) { handleGetManifest(c, o) })
	r.POST("/event", func(c *gin.Context) { handlePostEvent(c, o) })
	r.POST("/rescan", func(c *gin.Context) { handlePostRescan(c, o) })
}

// handleGetStatus returns the current status snapshot.
func handleGetStatus(c *gin.Context, o *orchestrator.Orchestrator) {
	c.JSON(http.StatusOK, o.Status())
}

// handleGetManifest returns the full clip catalog.
func handleGetManifest(c *gin.Context, o *orchestrator.Orchestrator) {
	c.JSON(http.StatusOK, o.Catalog())
}

// handlePostEvent accepts one control event. A payload without a type tag
// is rejected; everything else is handled (possibly as a silent no-op).
func handlePostEvent(c *gin.Context, o *orchestrator.Orchestrator) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if types.PeekType(body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "event missing type field"})
		return
	}

	o.HandleRaw(body)
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": o.Status()})
}

// handlePostRescan rebuilds the clip catalog from disk.
func handlePostRescan(c *gin.Context, o *orchestrator.Orchestrator) {
	cat := o.Rescan()
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"idle_loops": len(cat.IdleLoops),
		"bridges":    len(cat.Bridges),
		"interrupts": len(cat.Interrupts),
		"utility":    len(cat.Utility),
		"actions":    len(cat.Actions),
	})
}
