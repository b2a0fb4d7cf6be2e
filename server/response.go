package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/shoplist/errors"
	"github.com/kbukum/shoplist/server/middleware"
	"github.com/kbukum/shoplist/validation"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries list metadata.
type Meta struct {
	Total int `json:"total"`
}

// RespondWithError renders err with the status of its AppError; foreign
// errors become a 500 INTERNAL_ERROR.
func RespondWithError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// Bind decodes the body by content type (JSON or form) into dst and
// validates its `validate` tags. On failure it has already responded 400.
func Bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		RespondWithError(c, apperrors.New(apperrors.ErrCodeInvalidFormat, "Request body could not be decoded.", http.StatusBadRequest))
		return false
	}
	if err := validation.Struct(dst); err != nil {
		RespondWithError(c, err)
		return false
	}
	return true
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondOKWithMeta sends a 200 response with data and metadata.
func RespondOKWithMeta(c *gin.Context, data any, meta *Meta) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: meta})
}

// RespondCreated sends a 201 response wrapping data.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
