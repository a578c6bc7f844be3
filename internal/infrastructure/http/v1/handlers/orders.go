package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"partsledger/internal/core/id"
	"partsledger/internal/domain/documents/order"
	"partsledger/internal/infrastructure/http/v1/dto"
	"partsledger/internal/infrastructure/storage/postgres"
	"partsledger/pkg/logger"
)

// OrderHandler serves the purchase order lifecycle.
type OrderHandler struct {
	*BaseHandler

	service  *order.Service
	activity *postgres.ActivityLog
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service, activity *postgres.ActivityLog) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service, activity: activity}
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// List handles GET /orders with status and supplier filters.
func (h *OrderHandler) List(c *gin.Context) {
	filter := order.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 0),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if s := c.Query("status"); s != "" {
		status := order.Status(s)
		filter.Status = &status
	}
	supplierParam := c.Query("supplierId")
	supplierID, err := dto.ParseOptionalID("supplierId", &supplierParam)
	if err != nil {
		h.Error(c, err)
		return
	}
	filter.SupplierID = supplierID

	orders, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": orders})
}

// Delete handles DELETE /orders/:id. Draft orders only.
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.record(c, postgres.ActionDelete, orderID, nil)
	h.NoContent(c)
}

// ListItems handles GET /orders/:id/items.
func (h *OrderHandler) ListItems(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"orderId": orderID, "items": items})
}

// AddItem handles POST /orders/:id/items.
func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.OrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := req.ToEntity(orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AddItem(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PUT /orders/:id/items/:itemId.
func (h *OrderHandler) UpdateItem(c *gin.Context) {
	itemID, ok := h.PathID(c, "itemId")
	if !ok {
		return
	}

	var req dto.OrderItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	partID, err := id.Parse(req.PartID)
	if err != nil {
		h.Error(c, err)
		return
	}
	existing.PartID = partID
	existing.QuantityOrdered = req.QuantityOrdered
	existing.UnitCost = req.UnitCost
	existing.Notes = req.Notes

	if err := h.service.UpdateItem(c.Request.Context(), existing); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, existing)
}

// RemoveItem handles DELETE /orders/:id/items/:itemId.
func (h *OrderHandler) RemoveItem(c *gin.Context) {
	itemID, ok := h.PathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.service.RemoveItem(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Submit handles POST /orders/:id/submit.
func (h *OrderHandler) Submit(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Submit(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.record(c, postgres.ActionUpdate, orderID, map[string]any{"status": string(order.StatusSubmitted)})
	h.Status(c, string(order.StatusSubmitted))
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(order.StatusCancelled))
}

// Close handles POST /orders/:id/close.
func (h *OrderHandler) Close(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Close(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(order.StatusClosed))
}

// Receive handles POST /orders/:id/receive. Each line lands stock at the
// warehouse or allocates it straight to a truck or job.
func (h *OrderHandler) Receive(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToLines()
	if err != nil {
		h.Error(c, err)
		return
	}

	status, err := h.service.ReceiveItems(c.Request.Context(), orderID, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.record(c, postgres.ActionReceive, orderID, map[string]any{
		"lines":  len(lines),
		"status": string(status),
	})
	h.Status(c, string(status))
}

// record writes an activity entry. Failures are logged, not surfaced: the
// operation itself already committed.
func (h *OrderHandler) record(c *gin.Context, action postgres.Action, orderID id.ID, payload map[string]any) {
	ctx := c.Request.Context()
	if err := h.activity.Record(ctx, action, "order", orderID, payload); err != nil {
		logger.Warn(ctx, "activity record failed", "error", err, "order_id", orderID)
	}
}
