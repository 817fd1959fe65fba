package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// AbortWithError stops the chain with the JSON error envelope. The status
// is derived from the error code.
func AbortWithError(c *gin.Context, code errors.ErrorCode, message, detail string) {
	resp := common.NewErrorResponse(code.String(), message, detail)
	resp.RequestID = RequestIDFrom(c)
	c.AbortWithStatusJSON(errors.HTTPStatusForCode(code), resp)
}

//Personal.AI order the ending
