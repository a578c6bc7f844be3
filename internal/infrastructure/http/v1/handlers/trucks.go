package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/domain/analytics"
	"partsledger/internal/domain/catalogs/truck"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// TruckHandler serves the trucks catalog plus inventory views.
type TruckHandler struct {
	*CatalogHandler[*truck.Truck, dto.CreateTruckRequest, dto.UpdateTruckRequest]

	service   *truck.Service
	analytics *analytics.Service
}

// NewTruckHandler creates a trucks handler.
func NewTruckHandler(base *BaseHandler, service *truck.Service, analyticsService *analytics.Service) *TruckHandler {
	config := CatalogHandlerConfig[*truck.Truck, dto.CreateTruckRequest, dto.UpdateTruckRequest]{
		Service:    service.CatalogService,
		EntityName: "truck",
		MapCreateDTO: func(req dto.CreateTruckRequest) (*truck.Truck, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdateTruckRequest, existing *truck.Truck) (*truck.Truck, error) {
			req.ApplyTo(existing)
			return existing, nil
		},
	}
	return &TruckHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
		analytics:      analyticsService,
	}
}

// Active handles GET /trucks/active.
func (h *TruckHandler) Active(c *gin.Context) {
	trucks, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": trucks})
}

// SetActive handles POST /trucks/:id/active.
func (h *TruckHandler) SetActive(c *gin.Context) {
	truckID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetActive(c.Request.Context(), truckID, req.IsActive); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "truck updated")
}

// Inventory handles GET /trucks/:id/inventory, the truck's on-board stock.
func (h *TruckHandler) Inventory(c *gin.Context) {
	truckID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	stock, err := h.analytics.TruckInventory(c.Request.Context(), truckID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"truckId": truckID, "items": stock})
}
