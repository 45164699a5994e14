package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markethub/backend/internal/domain/shared"
	"github.com/markethub/backend/internal/interfaces/http/dto"
)

// BaseHandler carries the response helpers shared by all HTTP handlers.
// Handlers embed it and call Success/Created/HandleDomainError instead of
// shaping dto.Response values themselves.
type BaseHandler struct{}

// requestID returns the ID assigned by the RequestID middleware, falling
// back to the inbound header when the middleware did not run.
func requestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 with pagination meta attached.
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted signals that work was queued, e.g. a manually triggered
// period-close run.
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h *BaseHandler) fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID(c)))
}

// BadRequest reports a malformed request, typically a binding failure.
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.fail(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError reports a failure the caller cannot act on.
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.fail(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleDomainError converts a domain error into an HTTP response. Codes
// with an explicit mapping use it; anything else falls back to the error
// kind, so domain-specific codes like REFUND_EXCEEDS_BALANCE surface with
// the right status without each one being registered.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		h.InternalError(c, "An unexpected error occurred")
		return
	}

	code := dto.NormalizeErrorCode(domainErr.Code)
	status, mapped := dto.LookupHTTPStatus(code)
	if !mapped {
		status = statusForKind(domainErr.Kind)
	}
	h.fail(c, status, code, domainErr.Message)
}

// statusForKind maps an error kind to an HTTP status for domain codes
// without an explicit entry in the code table.
func statusForKind(kind shared.ErrorKind) int {
	switch kind {
	case shared.ErrorKindValidation:
		return http.StatusBadRequest
	case shared.ErrorKindNotFound:
		return http.StatusNotFound
	case shared.ErrorKindConflict:
		return http.StatusConflict
	case shared.ErrorKindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
