package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

// WeightsHandler serves atomic weight computations.
type WeightsHandler struct {
	svc appsimmap.Service
}

func NewWeightsHandler(svc appsimmap.Service) *WeightsHandler {
	return &WeightsHandler{svc: svc}
}

func (h *WeightsHandler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/weights", h.Compute)
	rg.POST("/weights/model", h.ComputeModel)
	rg.POST("/weights/standardize", h.Standardize)
}

// Compute handles POST /weights.
func (h *WeightsHandler) Compute(c *gin.Context) {
	var req dto.WeightsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.ComputeWeights(c.Request.Context(), &appsimmap.WeightsInput{
		Reference: req.Reference,
		Probe:     req.Probe,
		Spec:      toSpec(req.Fingerprint),
		Metric:    req.Metric,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, fromWeights(res))
}

// ComputeModel handles POST /weights/model.
func (h *WeightsHandler) ComputeModel(c *gin.Context) {
	var req dto.ModelWeightsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.ComputeModelWeights(c.Request.Context(), &appsimmap.ModelWeightsInput{
		Probe: req.Probe,
		Spec:  toSpec(req.Fingerprint),
		Model: toModel(req.Model),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, fromWeights(res))
}

// Standardize handles POST /weights/standardize.
func (h *WeightsHandler) Standardize(c *gin.Context) {
	var req dto.StandardizeRequest
	if !bindJSON(c, &req) {
		return
	}
	writeJSON(c, http.StatusOK, fromWeights(h.svc.Standardize(req.Weights)))
}

//Personal.AI order the ending
