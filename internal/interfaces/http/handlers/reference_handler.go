package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

const maxNearestK = 100

// ReferenceHandler manages the reference library used for nearest-reference maps.
type ReferenceHandler struct {
	svc appsimmap.Service
}

func NewReferenceHandler(svc appsimmap.Service) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

func (h *ReferenceHandler) RegisterRoutes(rg gin.IRouter) {
	rg.POST("/references", h.Register)
	rg.GET("/references/nearest", h.Nearest)
}

// Register handles POST /references.
func (h *ReferenceHandler) Register(c *gin.Context) {
	var req dto.RegisterReferencesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	inputs := lo.Map(req.References, func(r dto.ReferenceInput, _ int) appsimmap.ReferenceInput {
		return appsimmap.ReferenceInput{Name: r.Name, SMILES: r.SMILES}
	})
	refs, err := h.svc.RegisterReferences(c.Request.Context(), inputs)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, dto.RegisterReferencesResponse{
		References: lo.Map(refs, func(r *domain.Reference, _ int) dto.Reference { return fromReference(r) }),
	})
}

// Nearest handles GET /references/nearest?smiles=&k=.
func (h *ReferenceHandler) Nearest(c *gin.Context) {
	smiles := c.Query("smiles")
	if smiles == "" {
		writeError(c, errors.InvalidParam("query parameter smiles is required"))
		return
	}
	k := 0
	if raw := c.Query("k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxNearestK {
			writeError(c, errors.InvalidParam("k must be between 1 and 100").WithDetail(raw))
			return
		}
		k = v
	}

	matches, err := h.svc.NearestReferences(c.Request.Context(), smiles, k)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.NearestResponse{Matches: lo.Map(matches, func(m domain.ReferenceMatch, _ int) dto.ReferenceMatch {
		return fromMatch(m)
	})})
}

//Personal.AI order the ending
