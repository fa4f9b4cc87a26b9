package handler

import (
	"fmt"

	"github.com/Dadario23/taller-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TicketHandler exposes the printable intake ticket.
type TicketHandler struct {
	svc    *service.TicketService
	logger *zap.Logger
}

func NewTicketHandler(svc *service.TicketService, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{svc: svc, logger: logger}
}

// Download renders the ticket PDF for a repair.
// GET /api/v1/repairs/:repairCode/ticket
func (h *TicketHandler) Download(c *gin.Context) {
	pdf, repair, err := h.svc.Render(c.Request.Context(), c.Param("repairCode"))
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, repair.RepairCode))
	c.Data(200, "application/pdf", pdf)
}

type sendTicketRequest struct {
	RepairCode string `json:"repair_code" binding:"required"`
	Email      string `json:"email"`
}

// Send emails the ticket PDF to the customer, or to an override address.
// POST /api/v1/tickets
func (h *TicketHandler) Send(c *gin.Context) {
	var req sendTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if err := h.svc.Send(c.Request.Context(), req.RepairCode, req.Email); err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"sent": true})
}
