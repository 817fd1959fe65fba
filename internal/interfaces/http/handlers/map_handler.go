package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

const (
	defaultURLExpiry = 15 * time.Minute
	// presigned URLs cannot outlive a week on S3-compatible stores
	maxURLExpiry = 7 * 24 * time.Hour
)

// MapHandler serves similarity map generation and the stored map catalogue.
type MapHandler struct {
	svc appsimmap.Service
}

func NewMapHandler(svc appsimmap.Service) *MapHandler {
	return &MapHandler{svc: svc}
}

func (h *MapHandler) RegisterRoutes(rg gin.IRouter) {
	maps := rg.Group("/maps")
	maps.POST("", h.Generate)
	maps.GET("", h.List)
	maps.GET("/search", h.Search)
	maps.GET("/:id", h.Get)
	maps.DELETE("/:id", h.Delete)
	maps.GET("/:id/image", h.Image)
	maps.GET("/:id/image-url", h.ImageURL)
}

// Generate handles POST /maps. With nearest set, the reference is picked
// from the reference library.
func (h *MapHandler) Generate(c *gin.Context) {
	var req dto.MapRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	var (
		res     *appsimmap.MapResult
		nearest *domain.ReferenceMatch
		err     error
	)
	if req.Nearest {
		res, nearest, err = h.svc.GenerateMapAgainstNearest(ctx, toMapRequest(&req))
	} else {
		res, err = h.svc.GenerateMap(ctx, toMapRequest(&req))
	}
	if err != nil {
		writeError(c, err)
		return
	}

	out := fromMapResult(res)
	if nearest != nil {
		m := fromMatch(*nearest)
		out.Nearest = &m
	}
	status := http.StatusOK
	if res.Persisted {
		status = http.StatusCreated
		c.Header("Location", c.FullPath()+"/"+res.Record.ID.String())
	}
	writeJSON(c, status, out)
}

// List handles GET /maps.
func (h *MapHandler) List(c *gin.Context) {
	res, err := h.svc.ListMaps(c.Request.Context(), domain.ListQuery{
		Kind:       c.Query("kind"),
		Probe:      c.Query("probe"),
		Pagination: parsePagination(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.MapListResponse{
		Maps:       lo.Map(res.Maps, func(r *domain.MapRecord, _ int) dto.MapRecord { return fromRecord(r) }),
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

// Search handles GET /maps/search?q=.
func (h *MapHandler) Search(c *gin.Context) {
	text := c.Query("q")
	if text == "" {
		writeError(c, errors.InvalidParam("query parameter q is required"))
		return
	}
	res, err := h.svc.SearchMaps(c.Request.Context(), domain.SearchQuery{
		Text:       text,
		Kind:       c.Query("kind"),
		Pagination: parsePagination(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.SearchResponse{
		Hits:  lo.Map(res.Hits, func(hit domain.SearchHit, _ int) dto.SearchHit { return dto.SearchHit(hit) }),
		Total: res.Total,
	})
}

// Get handles GET /maps/:id.
func (h *MapHandler) Get(c *gin.Context) {
	rec, err := h.svc.GetMap(c.Request.Context(), pathID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, fromRecord(rec))
}

// Delete handles DELETE /maps/:id.
func (h *MapHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteMap(c.Request.Context(), pathID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Image handles GET /maps/:id/image. With redirect=true the client is sent
// to a presigned URL instead of receiving the bytes.
func (h *MapHandler) Image(c *gin.Context) {
	ctx := c.Request.Context()
	if redirect, _ := strconv.ParseBool(c.Query("redirect")); redirect {
		url, err := h.svc.ImageURL(ctx, pathID(c), defaultURLExpiry)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, url)
		return
	}

	data, contentType, err := h.svc.MapImage(ctx, pathID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, data)
}

// ImageURL handles GET /maps/:id/image-url?expiry=.
func (h *MapHandler) ImageURL(c *gin.Context) {
	expiry := defaultURLExpiry
	if raw := c.Query("expiry"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 || d > maxURLExpiry {
			writeError(c, errors.InvalidParam("invalid expiry").WithDetail(raw))
			return
		}
		expiry = d
	}

	url, err := h.svc.ImageURL(c.Request.Context(), pathID(c), expiry)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, dto.ImageURLResponse{URL: url, ExpiresAt: time.Now().Add(expiry).UTC()})
}

//Personal.AI order the ending
