package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/infrastructure/storage/postgres"
)

// ActivityHandler serves the activity log.
type ActivityHandler struct {
	*BaseHandler

	log *postgres.ActivityLog
}

// NewActivityHandler creates an activity handler.
func NewActivityHandler(base *BaseHandler, log *postgres.ActivityLog) *ActivityHandler {
	return &ActivityHandler{BaseHandler: base, log: log}
}

// EntityHistory handles GET /activity/:entityType/:id.
func (h *ActivityHandler) EntityHistory(c *gin.Context) {
	entityID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	entries, err := h.log.EntityHistory(c.Request.Context(),
		c.Param("entityType"), entityID, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}
