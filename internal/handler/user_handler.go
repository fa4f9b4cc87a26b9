package handler

import (
	"github.com/Dadario23/taller-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler exposes the account endpoints.
type UserHandler struct {
	svc    *service.UserService
	logger *zap.Logger
}

func NewUserHandler(svc *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// List returns users, optionally filtered by role.
// GET /api/v1/users?role=technician
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": users, "total": len(users)})
}

// Get returns one user by id.
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, user)
}

// GetByEmail resolves a user by email, used by the intake form's
// customer lookup.
// GET /api/v1/users/by-email?email=xxx
func (h *UserHandler) GetByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		BadRequest(c, "email query parameter is required")
		return
	}
	user, err := h.svc.GetByEmail(c.Request.Context(), email)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, user)
}

// Create registers a new account, customers by default.
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Created(c, user)
}

// Update edits profile fields.
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, user)
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole assigns a new role to an account.
// PATCH /api/v1/users/:id/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.svc.ChangeRole(c.Request.Context(), GetUserID(c), c.Param("id"), req.Role)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, user)
}

// Repairs lists every repair belonging to the user as customer.
// GET /api/v1/users/:id/repairs
func (h *UserHandler) Repairs(c *gin.Context) {
	repairs, err := h.svc.Repairs(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": repairs, "total": len(repairs)})
}
