package handler

import (
	"fmt"

	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RepairHandler exposes the repair workflow endpoints.
type RepairHandler struct {
	svc    *service.RepairService
	logger *zap.Logger
}

func NewRepairHandler(svc *service.RepairService, logger *zap.Logger) *RepairHandler {
	return &RepairHandler{svc: svc, logger: logger}
}

func filtersFromQuery(c *gin.Context) repository.RepairFilters {
	code := c.Query("repairCode")
	if code == "" {
		code = c.Query("repair_code")
	}
	return repository.RepairFilters{
		Status:       c.Query("status"),
		Priority:     c.Query("priority"),
		TechnicianID: c.Query("technician"),
		CustomerID:   c.Query("customer"),
		RepairCode:   code,
	}
}

// List returns repairs matching the query filters.
// GET /api/v1/repairs?status=&priority=&technician=&customer=&repairCode=
func (h *RepairHandler) List(c *gin.Context) {
	repairs, err := h.svc.List(c.Request.Context(), filtersFromQuery(c))
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": repairs, "total": len(repairs)})
}

// Get returns one repair with its full timeline.
// GET /api/v1/repairs/:repairCode
func (h *RepairHandler) Get(c *gin.Context) {
	repair, err := h.svc.Get(c.Request.Context(), c.Param("repairCode"))
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, repair)
}

// Create performs front-desk intake of a device.
// POST /api/v1/repairs
func (h *RepairHandler) Create(c *gin.Context) {
	var req service.CreateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	repair, err := h.svc.CreateRepair(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Created(c, repair)
}

// Transition changes a repair's status.
// PATCH /api/v1/repairs/:repairCode (PUT alias)
func (h *RepairHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if req.ChangedByID == "" {
		req.ChangedByID = GetUserID(c)
	}

	repair, err := h.svc.TransitionStatus(c.Request.Context(), c.Param("repairCode"), &req)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, repair)
}

type deleteRepairsRequest struct {
	RepairCodes []string `json:"repairCodes"`
}

// Delete removes repairs in bulk by their codes.
// DELETE /api/v1/repairs
func (h *RepairHandler) Delete(c *gin.Context) {
	var req deleteRepairsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	deleted, err := h.svc.DeleteRepairs(c.Request.Context(), req.RepairCodes)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"deleted": deleted})
}

// AddUsedPart records a replacement part used during the repair.
// POST /api/v1/repairs/:repairCode/parts
func (h *RepairHandler) AddUsedPart(c *gin.Context) {
	var req service.AddUsedPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	repair, err := h.svc.AddUsedPart(c.Request.Context(), c.Param("repairCode"), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Success(c, repair)
}

// UploadAttachment stores a photo or document against a repair.
// POST /api/v1/repairs/:repairCode/attachments
func (h *RepairHandler) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "No file in request: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "Failed to read uploaded file: "+err.Error())
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.svc.UploadAttachment(
		c.Request.Context(),
		c.Param("repairCode"),
		src,
		fileHeader.Size,
		fileHeader.Filename,
		contentType,
		c.PostForm("description"),
	)
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	Created(c, attachment)
}

// Export streams the filtered repairs as an xlsx workbook.
// GET /api/v1/repairs/export
func (h *RepairHandler) Export(c *gin.Context) {
	f, fileName, err := h.svc.ExportRepairs(c.Request.Context(), filtersFromQuery(c))
	if err != nil {
		ServiceError(c, h.logger, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("export write failed", zap.Error(err))
	}
}
