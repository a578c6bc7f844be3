package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/domain/catalogs/supplier"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// SupplierHandler serves the suppliers catalog.
type SupplierHandler struct {
	*CatalogHandler[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]

	service *supplier.Service
}

// NewSupplierHandler creates a suppliers handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	config := CatalogHandlerConfig[*supplier.Supplier, dto.CreateSupplierRequest, dto.UpdateSupplierRequest]{
		Service:    service.CatalogService,
		EntityName: "supplier",
		MapCreateDTO: func(req dto.CreateSupplierRequest) (*supplier.Supplier, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdateSupplierRequest, existing *supplier.Supplier) (*supplier.Supplier, error) {
			req.ApplyTo(existing)
			return existing, nil
		},
	}
	return &SupplierHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// SupplyHouses handles GET /suppliers/supply-houses.
func (h *SupplierHandler) SupplyHouses(c *gin.Context) {
	suppliers, err := h.service.ListSupplyHouses(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": suppliers})
}
