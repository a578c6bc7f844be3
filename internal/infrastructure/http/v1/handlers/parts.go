package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/domain/analytics"
	"partsledger/internal/domain/catalogs/part"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// PartHandler serves the parts catalog plus stock views.
type PartHandler struct {
	*CatalogHandler[*part.Part, dto.CreatePartRequest, dto.UpdatePartRequest]

	service   *part.Service
	analytics *analytics.Service
}

// NewPartHandler creates a parts handler.
func NewPartHandler(base *BaseHandler, service *part.Service, analyticsService *analytics.Service) *PartHandler {
	config := CatalogHandlerConfig[*part.Part, dto.CreatePartRequest, dto.UpdatePartRequest]{
		Service:    service.CatalogService,
		EntityName: "part",
		MapCreateDTO: func(req dto.CreatePartRequest) (*part.Part, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePartRequest, existing *part.Part) (*part.Part, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
	}
	return &PartHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
		analytics:      analyticsService,
	}
}

// LowStock handles GET /parts/low-stock.
func (h *PartHandler) LowStock(c *gin.Context) {
	rows, err := h.service.ListLowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": rows})
}

// Search handles GET /parts/search?q=.
func (h *PartHandler) Search(c *gin.Context) {
	parts, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": parts})
}

// Stock handles GET /parts/:id/stock, the per-location balances.
func (h *PartHandler) Stock(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	locations, err := h.analytics.StockByPart(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"partId": partID, "locations": locations})
}

// SupplierChain handles GET /parts/:id/supplier-chain.
func (h *PartHandler) SupplierChain(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	chain, err := h.analytics.PartSupplierChain(c.Request.Context(), partID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"partId": partID, "events": chain})
}

// SuggestedReturnSupplier handles GET /parts/:id/suggested-return-supplier.
// An optional jobId narrows the suggestion to the job's supplier binding.
func (h *PartHandler) SuggestedReturnSupplier(c *gin.Context) {
	partID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	jobParam := c.Query("jobId")
	jobID, err := dto.ParseOptionalID("jobId", &jobParam)
	if err != nil {
		h.Error(c, err)
		return
	}

	supplierID, err := h.analytics.SuggestedReturnSupplier(c.Request.Context(), partID, jobID)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := gin.H{"partId": partID}
	if supplierID != nil {
		resp["supplierId"] = supplierID
	}
	h.OK(c, resp)
}
