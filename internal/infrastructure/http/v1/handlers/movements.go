package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/domain/ledger"
	"partsledger/internal/domain/movements"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// MovementHandler serves transfers, consumption, and truck returns.
type MovementHandler struct {
	*BaseHandler

	service *movements.Service
}

// NewMovementHandler creates a movements handler.
func NewMovementHandler(base *BaseHandler, service *movements.Service) *MovementHandler {
	return &MovementHandler{BaseHandler: base, service: service}
}

// CreateTransfer handles POST /transfers. The warehouse balance drops now;
// the stock rides in transit until the receive call.
func (h *MovementHandler) CreateTransfer(c *gin.Context) {
	var req dto.CreateTransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	partID, err := dto.ParseID("partId", req.PartID)
	if err != nil {
		h.Error(c, err)
		return
	}
	truckID, err := dto.ParseID("truckId", req.TruckID)
	if err != nil {
		h.Error(c, err)
		return
	}
	supplierID, err := dto.ParseOptionalID("supplierId", req.SupplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	transferID, err := h.service.CreateTransfer(c.Request.Context(), partID, truckID, req.Quantity, supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, transferID)
}

// ReceiveTransfer handles POST /transfers/:id/receive.
func (h *MovementHandler) ReceiveTransfer(c *gin.Context) {
	transferID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.ReceiveTransfer(c.Request.Context(), transferID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(ledger.TransferCompleted))
}

// CancelTransfer handles POST /transfers/:id/cancel.
func (h *MovementHandler) CancelTransfer(c *gin.Context) {
	transferID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.CancelTransfer(c.Request.Context(), transferID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(ledger.TransferCancelled))
}

// ListTransfers handles GET /transfers with truck and status filters.
func (h *MovementHandler) ListTransfers(c *gin.Context) {
	truckParam := c.Query("truckId")
	truckID, err := dto.ParseOptionalID("truckId", &truckParam)
	if err != nil {
		h.Error(c, err)
		return
	}

	var status *ledger.TransferStatus
	if s := c.Query("status"); s != "" {
		v := ledger.TransferStatus(s)
		status = &v
	}

	transfers, err := h.service.ListTransfers(c.Request.Context(), truckID, status)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": transfers})
}

// Consume handles POST /consume, using truck stock on a job.
func (h *MovementHandler) Consume(c *gin.Context) {
	var req dto.ConsumeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	truckID, err := dto.ParseID("truckId", req.TruckID)
	if err != nil {
		h.Error(c, err)
		return
	}
	jobID, err := dto.ParseID("jobId", req.JobID)
	if err != nil {
		h.Error(c, err)
		return
	}
	partID, err := dto.ParseID("partId", req.PartID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.ConsumeFromTruck(c.Request.Context(), truckID, jobID, partID, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "consumption recorded")
}

// TruckReturn handles POST /truck-returns, moving unused truck stock back to
// the warehouse.
func (h *MovementHandler) TruckReturn(c *gin.Context) {
	var req dto.TruckReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	truckID, err := dto.ParseID("truckId", req.TruckID)
	if err != nil {
		h.Error(c, err)
		return
	}
	partID, err := dto.ParseID("partId", req.PartID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.ReturnToWarehouse(c.Request.Context(), truckID, partID, req.Quantity); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "stock returned to warehouse")
}
