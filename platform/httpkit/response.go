// Package httpkit holds the gin plumbing shared by every module: response
// helpers, error mapping, auth and request middleware.
package httpkit

import (
	"errors"
	"net/http"

	"compliance_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx answer. Code is the apperr kind
// ("not_found", "business_rule", "conflict", ...) so clients can branch on it
// without parsing Error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload any) { c.JSON(status, payload) }

func OK(c *gin.Context, payload any) { c.JSON(http.StatusOK, payload) }

func Created(c *gin.Context, payload any) { c.JSON(http.StatusCreated, payload) }

func Accepted(c *gin.Context, payload any) { c.JSON(http.StatusAccepted, payload) }

func NoContent(c *gin.Context) { c.Status(http.StatusNoContent) }

// Error writes a request-level failure (bad id, unparsable body) that never
// reached a service.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// HandleError writes err and reports whether there was one. An *apperr.Error
// anywhere in the chain picks the status. Anything else becomes a generic 500
// and is attached to the context for RequestLogger.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{
			Error:   domainErr.Message,
			Code:    domainErr.Kind.String(),
			Details: domainErr.Details,
		})
		return true
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: apperr.KindInternal.String()})
	return true
}
