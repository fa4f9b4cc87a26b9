package handler

import (
	"errors"

	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/service"
	"github.com/Dadario23/taller-dashboard/internal/shared/ticket"
	"github.com/Dadario23/taller-dashboard/internal/sse"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers holds every HTTP handler of the API.
type Handlers struct {
	Repair *RepairHandler
	User   *UserHandler
	Ticket *TicketHandler
	SSE    *SSEHandler
}

// NewHandlers wires the handlers to their services.
func NewHandlers(svc *service.Services, hub *sse.Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		Repair: NewRepairHandler(svc.Repair, logger),
		User:   NewUserHandler(svc.User, logger),
		Ticket: NewTicketHandler(svc.Ticket, logger),
		SSE:    NewSSEHandler(hub),
	}
}

// Response is the common response envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error response. The HTTP status is the leading three
// digits of the business code.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound writes a 404 response.
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict writes a 409 response.
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError writes a 500 response.
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps typed service errors onto HTTP responses so handlers
// do not repeat the translation. Unrecognized errors are logged server-side
// and answered with a generic message.
func ServiceError(c *gin.Context, logger *zap.Logger, err error) {
	var validationErr *service.ValidationError
	var authErr *service.AuthorizationError
	var transitionErr *service.InvalidTransitionError
	var renderErr *ticket.RenderError

	switch {
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Message)
	case errors.As(err, &transitionErr):
		BadRequest(c, transitionErr.Message)
	case errors.As(err, &authErr):
		Forbidden(c, authErr.Message)
	case errors.As(err, &renderErr):
		BadRequest(c, renderErr.Message)
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "Resource not found")
	case errors.Is(err, repository.ErrVersionConflict):
		Conflict(c, "The repair was modified concurrently, retry the operation")
	default:
		logger.Error("unhandled service error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		InternalError(c, "Internal server error")
	}
}

// GetUserID returns the authenticated user's id from the request context.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}
