package handlers

import (
	"github.com/gin-gonic/gin"

	"partsledger/internal/domain/catalogs/job"
	"partsledger/internal/infrastructure/http/v1/dto"
)

// JobHandler serves the jobs catalog plus usage views.
type JobHandler struct {
	*CatalogHandler[*job.Job, dto.CreateJobRequest, dto.UpdateJobRequest]

	service *job.Service
}

// NewJobHandler creates a jobs handler.
func NewJobHandler(base *BaseHandler, service *job.Service) *JobHandler {
	config := CatalogHandlerConfig[*job.Job, dto.CreateJobRequest, dto.UpdateJobRequest]{
		Service:    service.CatalogService,
		EntityName: "job",
		MapCreateDTO: func(req dto.CreateJobRequest) (*job.Job, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdateJobRequest, existing *job.Job) (*job.Job, error) {
			req.ApplyTo(existing)
			return existing, nil
		},
	}
	return &JobHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// ByStatus handles GET /jobs/by-status/:status.
func (h *JobHandler) ByStatus(c *gin.Context) {
	jobs, err := h.service.ListByStatus(c.Request.Context(), job.Status(c.Param("status")))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": jobs})
}

// Complete handles POST /jobs/:id/complete.
func (h *JobHandler) Complete(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Complete(c.Request.Context(), jobID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(job.StatusCompleted))
}

// Cancel handles POST /jobs/:id/cancel.
func (h *JobHandler) Cancel(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), jobID); err != nil {
		h.Error(c, err)
		return
	}
	h.Status(c, string(job.StatusCancelled))
}

// Parts handles GET /jobs/:id/parts, the job's accumulated part usage.
func (h *JobHandler) Parts(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	parts, err := h.service.ListParts(c.Request.Context(), jobID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"jobId": jobID, "items": parts})
}

// TotalCost handles GET /jobs/:id/total-cost.
func (h *JobHandler) TotalCost(c *gin.Context) {
	jobID, ok := h.PathID(c, "id")
	if !ok {
		return
	}

	total, err := h.service.TotalCost(c.Request.Context(), jobID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"jobId": jobID, "totalCost": total})
}
