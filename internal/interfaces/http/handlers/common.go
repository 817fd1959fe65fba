package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/interfaces/http/middleware"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// parsePagination reads page and page_size. Malformed values are left at
// zero so the service applies its defaults.
func parsePagination(c *gin.Context) common.Pagination {
	var p common.Pagination
	if v, err := strconv.Atoi(c.Query("page")); err == nil {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil {
		p.PageSize = v
	}
	return p
}

// writeJSON wraps data in the success envelope.
func writeJSON(c *gin.Context, status int, data interface{}) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = middleware.RequestIDFrom(c)
	c.JSON(status, resp)
}

// writeError maps err to its HTTP status. Server-side failures are logged and
// answered with the generic message of their code.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	message, detail := errors.DefaultMessageForCode(code), ""
	var appErr *errors.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		message, detail = appErr.Message, appErr.Detail
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("Request failed",
			logging.String("path", c.FullPath()),
			logging.String("code", code.String()),
			logging.Err(err))
	}
	middleware.AbortWithError(c, code, message, detail)
}

// bindJSON decodes the body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, errors.InvalidParam("malformed request body").WithDetail(err.Error()))
		return false
	}
	return true
}

// validatable is implemented by request bodies with client-side checks.
type validatable interface {
	Validate() error
}

func bindAndValidate(c *gin.Context, dst validatable) bool {
	if !bindJSON(c, dst) {
		return false
	}
	if err := dst.Validate(); err != nil {
		writeError(c, err)
		return false
	}
	return true
}

func pathID(c *gin.Context) common.ID {
	return common.ID(c.Param("id"))
}

//Personal.AI order the ending
