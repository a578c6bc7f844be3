package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/domain/analytics"
	"partsledger/internal/domain/partslist"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// PartsListHandler serves parts lists and shortfall checks.
type PartsListHandler struct {
	*CatalogHandler[*partslist.List, dto.CreateListRequest, dto.UpdateListRequest]

	service   *partslist.Service
	analytics *analytics.Service
}

// NewPartsListHandler creates a parts list handler.
func NewPartsListHandler(base *BaseHandler, service *partslist.Service, analyticsService *analytics.Service) *PartsListHandler {
	config := CatalogHandlerConfig[*partslist.List, dto.CreateListRequest, dto.UpdateListRequest]{
		Service:    service.CatalogService,
		EntityName: "parts_list",
		MapCreateDTO: func(req dto.CreateListRequest) (*partslist.List, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateListRequest, existing *partslist.List) (*partslist.List, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
	}
	return &PartsListHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
		analytics:      analyticsService,
	}
}

// ListItems handles GET /parts-lists/:id/items.
func (h *PartsListHandler) ListItems(c *gin.Context) {
	listID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	items, err := h.service.ListItems(c.Request.Context(), listID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"listId": listID, "items": items})
}

// SetItem handles PUT /parts-lists/:id/items, inserting or replacing the
// required quantity for a part.
func (h *PartsListHandler) SetItem(c *gin.Context) {
	listID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	var req dto.SetListItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := req.ToEntity(listID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.SetItem(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// RemoveItem handles DELETE /parts-lists/:id/items/:itemId.
func (h *PartsListHandler) RemoveItem(c *gin.Context) {
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

// ByJob handles GET /parts-lists/by-job/:jobId.
func (h *PartsListHandler) ByJob(c *gin.Context) {
	jobID, ok := h.PathID(c, "jobId")
	if !ok {
		return
	}

	lists, err := h.service.ListByJob(c.Request.Context(), jobID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": lists})
}

// Shortfall handles GET /parts-lists/:id/shortfall, comparing required
// quantities against warehouse balances.
func (h *PartsListHandler) Shortfall(c *gin.Context) {
	listID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	rows, err := h.analytics.CheckShortfall(c.Request.Context(), listID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"listId": listID, "items": rows})
}
