package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/discoveryping/errors"
)

// RespondWithError renders err as the standard error body. Errors that are
// not *apperrors.AppError are reported as INTERNAL_ERROR.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	if appErr == nil {
		appErr = apperrors.Internal(nil)
	}
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondText sends a plain text body.
func RespondText(c *gin.Context, status int, body string) {
	c.String(status, body)
}

// RespondBytes sends body with the given content type, falling back to
// application/octet-stream when it is empty.
func RespondBytes(c *gin.Context, contentType string, body []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, body)
}
