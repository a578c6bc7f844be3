package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/core/id"
	"partsledger/internal/domain/documents/returns"
	"partsledger/internal/infrastructure/http/v1/dto"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/pkg/logger"
)

// ReturnHandler serves the return authorization lifecycle.
type ReturnHandler struct {
	*BaseHandler

	service  *returns.Service
	activity *postgres.ActivityLog
}

// NewReturnHandler creates a returns handler.
func NewReturnHandler(base *BaseHandler, service *returns.Service, activity *postgres.ActivityLog) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, service: service, activity: activity}
}

func (h *ReturnHandler) record(c *gin.Context, action postgres.Action, returnID id.ID, payload map[string]any) {
	ctx := c.Request.Context()
	if err := h.activity.Record(ctx, action, "return", returnID, payload); err != nil {
		logger.Warn(ctx, "activity record failed", "error", err, "return_id", returnID)
	}
}

// Create handles POST /returns. Header and items commit as one unit; the
// warehouse stock leaves immediately.
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	returnID, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.record(c, postgres.ActionCreate, returnID, map[string]any{"items": len(input.Items)})
	h.Created(c, returnID)
}

// Get handles GET /returns/:id.
func (h *ReturnHandler) Get(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, a)
}

// List handles GET /returns with status and supplier filters.
func (h *ReturnHandler) List(c *gin.Context) {
	filter := returns.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 0),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if s := c.Query("status"); s != "" {
		status := returns.Status(s)
		filter.Status = &status
	}
	supplierParam := c.Query("supplierId")
	supplierID, err := dto.ParseOptionalID("supplierId", &supplierParam)
	if err != nil {
		h.Error(c, err)
		return
	}
	filter.SupplierID = supplierID

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}

// ListItems handles GET /returns/:id/items.
func (h *ReturnHandler) ListItems(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"returnId": returnID, "items": items})
}

// MarkPickedUp handles POST /returns/:id/picked-up.
func (h *ReturnHandler) MarkPickedUp(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkPickedUp(c.Request.Context(), returnID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(returns.StatusPickedUp))
}

// MarkCreditReceived handles POST /returns/:id/credit.
func (h *ReturnHandler) MarkCreditReceived(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.CreditRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.MarkCreditReceived(c.Request.Context(), returnID, req.Amount); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(returns.StatusCreditReceived))
}

// Cancel handles POST /returns/:id/cancel. Status only; the stock already
// left and stays out.
func (h *ReturnHandler) Cancel(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), returnID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(returns.StatusCancelled))
}

// Delete handles DELETE /returns/:id, restoring the warehouse stock the
// return removed. Initiated returns only.
func (h *ReturnHandler) Delete(c *gin.Context) {
	returnID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), returnID); err != nil {
		h.Error(c, err)
		return
	}
	h.record(c, postgres.ActionReverse, returnID, nil)
	h.NoContent(c)
}
