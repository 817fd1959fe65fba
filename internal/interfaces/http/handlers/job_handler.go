package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

// JobHandler queues map requests for the worker and reports their status.
type JobHandler struct {
	svc appsimmap.Service
}

func NewJobHandler(svc appsimmap.Service) *JobHandler {
	return &JobHandler{svc: svc}
}

func (h *JobHandler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/jobs", h.Submit)
	rg.GET("/jobs/:id", h.Get)
}

// Submit handles POST /jobs and answers 202 with the job location.
func (h *JobHandler) Submit(c *gin.Context) {
	var req dto.MapRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.Nearest {
		writeError(c, errors.InvalidParam("nearest reference lookup is not supported for jobs"))
		return
	}
	job, err := h.svc.SubmitJob(c.Request.Context(), toMapRequest(&req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+job.ID.String())
	writeJSON(c, http.StatusAccepted, fromJob(job))
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.svc.GetJob(c.Request.Context(), pathID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, fromJob(job))
}

//Personal.AI order the ending
