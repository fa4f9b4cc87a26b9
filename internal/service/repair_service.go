package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/shared/notify"
	"github.com/Dadario23/taller-dashboard/internal/sse"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Flaw descriptions that force customer approval before work starts,
// compared after trimming and lower-casing.
var approvalFlaws = map[string]bool{
	"diagnosticar por el tecnico": true,
	"no enciende":                 true,
}

const (
	repairCacheKeyPrefix = "repairs:detail:"
	repairCacheTTL       = 5 * time.Minute
)

// RepairService owns the repair lifecycle: intake, status transitions, the
// timeline audit trail and every field derived from it.
type RepairService struct {
	repairRepo *repository.RepairRepository
	userRepo   *repository.UserRepository
	rdb        *redis.Client
	hub        *sse.Hub
	notifier   notify.Notifier
	minio      *minio.Client
	bucket     string
	logger     *zap.Logger
}

// NewRepairService creates the repair service.
func NewRepairService(repairRepo *repository.RepairRepository, userRepo *repository.UserRepository, rdb *redis.Client, hub *sse.Hub, notifier notify.Notifier, minioClient *minio.Client, bucket string, logger *zap.Logger) *RepairService {
	return &RepairService{
		repairRepo: repairRepo,
		userRepo:   userRepo,
		rdb:        rdb,
		hub:        hub,
		notifier:   notifier,
		minio:      minioClient,
		bucket:     bucket,
		logger:     logger,
	}
}

// DeviceInput is the device snapshot taken at intake.
type DeviceInput struct {
	Type              string `json:"type" binding:"required"`
	Brand             string `json:"brand" binding:"required"`
	Model             string `json:"model"`
	SerialNumber      string `json:"serial_number"`
	PhysicalCondition string `json:"physical_condition" binding:"required"`
	Flaw              string `json:"flaw" binding:"required"`
	PasswordOrPattern string `json:"password_or_pattern"`
	Notes             string `json:"notes"`
}

// CreateRepairRequest is the intake payload.
type CreateRepairRequest struct {
	Title               string      `json:"title" binding:"required"`
	Priority            string      `json:"priority"`
	CustomerID          string      `json:"customer" binding:"required"`
	ReceivedByID        string      `json:"received_by" binding:"required"`
	TechnicianID        string      `json:"technician"`
	EstimatedCompletion *time.Time  `json:"estimated_completion"`
	Device              DeviceInput `json:"device" binding:"required"`
}

// TransitionRequest is the status-change payload.
type TransitionRequest struct {
	Status      string `json:"status"`
	Note        string `json:"note"`
	ChangedByID string `json:"changed_by"`
}

// AddUsedPartRequest appends a replacement part to a repair.
type AddUsedPartRequest struct {
	PartName     string  `json:"part_name" binding:"required"`
	PartCost     float64 `json:"part_cost" binding:"required"`
	PartSupplier string  `json:"part_supplier"`
}

// RepairSummary is a repair augmented with the front-desk waiting time:
// hours since intake while no technician is assigned, null afterwards.
type RepairSummary struct {
	entity.Repair
	WaitingTimeHours *int `json:"waiting_time_hours"`
}

// CreateRepair performs front-desk intake. Only reception, admin and
// superadmin accounts may receive devices. The repair starts its timeline
// with a single Ingresado entry attributed to the receiving user.
func (s *RepairService) CreateRepair(ctx context.Context, req *CreateRepairRequest) (*entity.Repair, error) {
	if req.Title == "" || req.CustomerID == "" || req.ReceivedByID == "" {
		return nil, &ValidationError{Message: "title, customer and received_by are required"}
	}
	if req.Device.Type == "" || req.Device.Brand == "" || req.Device.PhysicalCondition == "" || req.Device.Flaw == "" {
		return nil, &ValidationError{Message: "device type, brand, physical_condition and flaw are required"}
	}

	priority := entity.PriorityNormal
	if req.Priority != "" {
		p, ok := entity.ParsePriority(req.Priority)
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid priority %q", req.Priority)}
		}
		priority = p
	}

	receivedBy, err := s.userRepo.FindByID(ctx, req.ReceivedByID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Message: "received_by user not found"}
		}
		return nil, fmt.Errorf("find receiving user: %w", err)
	}
	if !receivedBy.Role.CanReceiveRepairs() {
		return nil, &AuthorizationError{Message: "only reception, admin or superadmin can register repairs"}
	}

	if _, err := s.userRepo.FindByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ValidationError{Message: "customer not found"}
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}

	var technicianID *string
	if req.TechnicianID != "" {
		tech, err := s.userRepo.FindByID(ctx, req.TechnicianID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &ValidationError{Message: "technician not found"}
			}
			return nil, fmt.Errorf("find technician: %w", err)
		}
		if tech.Role != entity.RoleTechnician {
			return nil, &ValidationError{Message: "assigned user is not a technician"}
		}
		technicianID = &tech.ID
	}

	code, err := s.repairRepo.NextCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate repair code: %w", err)
	}

	flaw := strings.ToLower(strings.TrimSpace(req.Device.Flaw))

	now := time.Now()
	repair := &entity.Repair{
		ID:                       uuid.New().String()[:32],
		RepairCode:               code,
		Title:                    req.Title,
		Status:                   entity.StatusReceived,
		Priority:                 priority,
		RequiresCustomerApproval: approvalFlaws[flaw],
		CustomerID:               req.CustomerID,
		TechnicianID:             technicianID,
		ReceivedByID:             receivedBy.ID,
		EstimatedCompletion:      req.EstimatedCompletion,
		Device: entity.Device{
			Type:              req.Device.Type,
			Brand:             req.Device.Brand,
			Model:             req.Device.Model,
			SerialNumber:      req.Device.SerialNumber,
			PhysicalCondition: req.Device.PhysicalCondition,
			Flaw:              req.Device.Flaw,
			PasswordOrPattern: req.Device.PasswordOrPattern,
			Notes:             req.Device.Notes,
		},
		TotalProcessingTimeHours: 1,
		Version:                  1,
		CreatedAt:                now,
		UpdatedAt:                now,
		Timeline: []entity.TimelineEntry{{
			ID:           uuid.New().String()[:32],
			Status:       entity.StatusReceived,
			Timestamp:    now,
			Note:         "Equipo ingresado",
			ChangedByID:  receivedBy.ID,
			RoleAtChange: receivedBy.Role,
			Sequence:     1,
		}},
	}

	if err := s.repairRepo.Create(ctx, repair); err != nil {
		return nil, fmt.Errorf("create repair: %w", err)
	}

	return repair, nil
}

// TransitionStatus appends one timeline entry and moves the repair to
// newStatus, recomputing warranty and processing-time fields. Customer and
// technician notifications go out asynchronously; their failure never fails
// the transition.
func (s *RepairService) TransitionStatus(ctx context.Context, repairCode string, req *TransitionRequest) (*entity.Repair, error) {
	if req.Status == "" {
		return nil, &ValidationError{Message: "Status is required"}
	}
	newStatus, ok := entity.ParseStatus(req.Status)
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid status %q", req.Status)}
	}
	if req.ChangedByID == "" {
		return nil, &ValidationError{Message: "changed_by is required"}
	}

	repair, err := s.repairRepo.FindByCode(ctx, repairCode)
	if err != nil {
		return nil, err
	}

	actor, err := s.userRepo.FindByID(ctx, req.ChangedByID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &AuthorizationError{Message: "you do not have permission to update this repair"}
		}
		return nil, fmt.Errorf("find acting user: %w", err)
	}
	if !actor.Role.CanUpdateRepairs() {
		return nil, &AuthorizationError{Message: "you do not have permission to update this repair"}
	}
	if newStatus == entity.StatusInProgress && actor.Role != entity.RoleTechnician {
		return nil, &AuthorizationError{Message: "only technicians can set the status to 'Reparación en Progreso'"}
	}

	lastStatus := repair.Status
	if ts, ok := repair.LastTimelineStatus(); ok {
		lastStatus = ts
	}
	if lastStatus == entity.StatusWaitingParts && newStatus == entity.StatusFinished {
		return nil, &InvalidTransitionError{
			Message: "a repair waiting for parts cannot be finished without passing through 'Reparación en Progreso'",
		}
	}

	now := time.Now()
	entry := &entity.TimelineEntry{
		ID:             uuid.New().String()[:32],
		RepairID:       repair.ID,
		Status:         newStatus,
		PreviousStatus: repair.Status,
		Timestamp:      now,
		Note:           req.Note,
		ChangedByID:    actor.ID,
		RoleAtChange:   actor.Role,
		Sequence:       len(repair.Timeline) + 1,
	}

	repair.Status = newStatus
	repair.Timeline = append(repair.Timeline, *entry)
	recomputeDerivedFields(repair, now, s.warrantyDays)

	if err := s.repairRepo.ApplyTransition(ctx, repair, entry); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, repair.RepairCode)
	s.hub.BroadcastJSON(sse.EventRepairStatusChanged, map[string]string{
		"repair_code":     repair.RepairCode,
		"status":          string(newStatus),
		"previous_status": string(entry.PreviousStatus),
	})

	go s.dispatchStatusNotifications(repair, newStatus)

	return repair, nil
}

// warrantyDays picks the coverage window assigned when a repair finishes.
func (s *RepairService) warrantyDays() int {
	if rand.Intn(2) == 0 {
		return 30
	}
	return 60
}

// recomputeDerivedFields recomputes every field derived from the timeline.
// It is invoked on every write path and touches nothing else:
//   - totalProcessingTimeHours is the rounded hour gap between the first and
//     last timeline entries, never below 1;
//   - reaching Reparación Finalizada activates the warranty, assigning a
//     period first if none was set. Leaving the finished state afterwards
//     clears only the warranty flag, keeping period and expiry as a record.
func recomputeDerivedFields(r *entity.Repair, now time.Time, warrantyDays func() int) {
	if len(r.Timeline) > 1 {
		first := r.Timeline[0].Timestamp
		last := r.Timeline[len(r.Timeline)-1].Timestamp
		hours := int(math.Round(last.Sub(first).Hours()))
		if hours < 1 {
			hours = 1
		}
		r.TotalProcessingTimeHours = hours
	}

	if r.Status == entity.StatusFinished {
		if r.WarrantyPeriod == 0 {
			r.WarrantyPeriod = warrantyDays()
		}
		expires := now.AddDate(0, 0, r.WarrantyPeriod)
		r.WarrantyExpiresAt = &expires
		r.Warranty = true
	} else {
		r.Warranty = false
	}
}

// dispatchStatusNotifications sends best-effort status emails to the customer
// and, when assigned, the technician. Runs detached from the request.
func (s *RepairService) dispatchStatusNotifications(repair *entity.Repair, status entity.Status) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	message := fmt.Sprintf("El estado de tu reparación (%s) ha cambiado a %q.", repair.RepairCode, status)

	s.notifyUser(ctx, repair.CustomerID, repair, message, true)
	if repair.TechnicianID != nil {
		s.notifyUser(ctx, *repair.TechnicianID, repair,
			fmt.Sprintf("El estado de la reparación (%s) ha cambiado a %q.", repair.RepairCode, status), false)
	}
}

func (s *RepairService) notifyUser(ctx context.Context, userID string, repair *entity.Repair, message string, recordForCustomer bool) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user.Email == "" {
		s.logger.Warn("notification skipped, recipient unavailable",
			zap.String("repair_code", repair.RepairCode),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return
	}

	err = s.notifier.Send(ctx, notify.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Actualización de reparación %s", repair.RepairCode),
		Body:    message,
	})
	if err != nil {
		s.logger.Warn("notification send failed",
			zap.String("repair_code", repair.RepairCode),
			zap.String("to", user.Email),
			zap.Error(err),
		)
		return
	}

	if recordForCustomer {
		record := &entity.CustomerNotification{
			ID:       uuid.New().String()[:32],
			RepairID: repair.ID,
			Message:  message,
			SentAt:   time.Now(),
			Method:   entity.NotificationMethodEmail,
		}
		if err := s.repairRepo.AddNotification(ctx, record); err != nil {
			s.logger.Warn("notification record failed",
				zap.String("repair_code", repair.RepairCode),
				zap.Error(err),
			)
		}
	}
}

// List returns repair summaries matching all set filters.
func (s *RepairService) List(ctx context.Context, filters repository.RepairFilters) ([]RepairSummary, error) {
	if filters.Status != "" {
		if _, ok := entity.ParseStatus(filters.Status); !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid status %q", filters.Status)}
		}
	}
	if filters.Priority != "" {
		if _, ok := entity.ParsePriority(filters.Priority); !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid priority %q", filters.Priority)}
		}
	}

	repairs, err := s.repairRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list repairs: %w", err)
	}

	now := time.Now()
	summaries := make([]RepairSummary, 0, len(repairs))
	for _, repair := range repairs {
		summary := RepairSummary{Repair: repair}
		if repair.TechnicianID == nil {
			waiting := int(now.Sub(repair.CreatedAt).Hours())
			summary.WaitingTimeHours = &waiting
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ListByCustomer returns all repairs owned by a customer.
func (s *RepairService) ListByCustomer(ctx context.Context, customerID string) ([]entity.Repair, error) {
	return s.repairRepo.ListByCustomer(ctx, customerID)
}

// Get fetches one repair by code, read-through cached in redis.
func (s *RepairService) Get(ctx context.Context, repairCode string) (*entity.Repair, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, repairCacheKeyPrefix+repairCode).Result(); err == nil {
			var repair entity.Repair
			if err := json.Unmarshal([]byte(cached), &repair); err == nil {
				return &repair, nil
			}
		}
	}

	repair, err := s.repairRepo.FindByCode(ctx, repairCode)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if data, err := json.Marshal(repair); err == nil {
			s.rdb.Set(ctx, repairCacheKeyPrefix+repairCode, data, repairCacheTTL)
		}
	}
	return repair, nil
}

// DeleteRepairs hard-deletes the given repair codes, returning how many were
// removed. Zero matches is signaled with repository.ErrNotFound.
func (s *RepairService) DeleteRepairs(ctx context.Context, repairCodes []string) (int64, error) {
	if len(repairCodes) == 0 {
		return 0, &ValidationError{Message: "repairCodes must be a non-empty list"}
	}

	deleted, err := s.repairRepo.DeleteByCodes(ctx, repairCodes)
	if err != nil {
		return 0, fmt.Errorf("delete repairs: %w", err)
	}
	if deleted == 0 {
		return 0, repository.ErrNotFound
	}

	for _, code := range repairCodes {
		s.invalidateCache(ctx, code)
	}
	return deleted, nil
}

// AddUsedPart appends a replacement part to a repair and adds its cost to the
// total. Restricted to the roles that may work on repairs.
func (s *RepairService) AddUsedPart(ctx context.Context, repairCode string, actingUserID string, req *AddUsedPartRequest) (*entity.Repair, error) {
	if req.PartName == "" || req.PartCost <= 0 {
		return nil, &ValidationError{Message: "part_name and a positive part_cost are required"}
	}

	actor, err := s.userRepo.FindByID(ctx, actingUserID)
	if err != nil || !actor.Role.CanUpdateRepairs() {
		return nil, &AuthorizationError{Message: "you do not have permission to update this repair"}
	}

	repair, err := s.repairRepo.FindByCode(ctx, repairCode)
	if err != nil {
		return nil, err
	}

	part := &entity.UsedPart{
		ID:           uuid.New().String()[:32],
		RepairID:     repair.ID,
		PartName:     req.PartName,
		PartCost:     req.PartCost,
		PartSupplier: req.PartSupplier,
	}
	if err := s.repairRepo.AddUsedPart(ctx, part); err != nil {
		return nil, fmt.Errorf("add used part: %w", err)
	}

	s.invalidateCache(ctx, repairCode)
	return s.repairRepo.FindByCode(ctx, repairCode)
}

// UploadAttachment stores a file in the object store and records it on the
// repair.
func (s *RepairService) UploadAttachment(ctx context.Context, repairCode string, reader io.Reader, size int64, fileName, contentType, description string) (*entity.Attachment, error) {
	if s.minio == nil {
		return nil, fmt.Errorf("attachment storage is not configured")
	}

	repair, err := s.repairRepo.FindByCode(ctx, repairCode)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("repairs/%s/%s%s", repair.RepairCode, uuid.New().String()[:8], filepath.Ext(fileName))
	if _, err := s.minio.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	attachment := &entity.Attachment{
		ID:          uuid.New().String()[:32],
		RepairID:    repair.ID,
		URL:         fmt.Sprintf("%s/%s", s.bucket, objectName),
		Description: description,
		UploadedAt:  time.Now(),
	}
	if err := s.repairRepo.AddAttachment(ctx, attachment); err != nil {
		return nil, fmt.Errorf("record attachment: %w", err)
	}

	s.invalidateCache(ctx, repairCode)
	return attachment, nil
}

var exportHeaders = []string{
	"Código", "Título", "Estado", "Prioridad", "Cliente", "Técnico",
	"Dispositivo", "Marca", "Modelo", "Garantía", "Horas de proceso", "Creado",
}

// ExportRepairs builds an xlsx workbook of the repairs matching the filters.
func (s *RepairService) ExportRepairs(ctx context.Context, filters repository.RepairFilters) (*excelize.File, string, error) {
	summaries, err := s.List(ctx, filters)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Reparaciones"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, summary := range summaries {
		customer := ""
		if summary.Customer != nil {
			customer = summary.Customer.Fullname
		}
		technician := ""
		if summary.Technician != nil {
			technician = summary.Technician.Fullname
		}
		warranty := "No"
		if summary.Warranty {
			warranty = fmt.Sprintf("Sí (%d días)", summary.WarrantyPeriod)
		}
		values := []interface{}{
			summary.RepairCode, summary.Title, string(summary.Status), string(summary.Priority),
			customer, technician,
			summary.Device.Type, summary.Device.Brand, summary.Device.Model,
			warranty, summary.TotalProcessingTimeHours,
			summary.CreatedAt.Format("02/01/2006 15:04"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	fileName := fmt.Sprintf("reparaciones-%s.xlsx", time.Now().Format("20060102-150405"))
	return f, fileName, nil
}

func (s *RepairService) invalidateCache(ctx context.Context, repairCode string) {
	if s.rdb != nil {
		s.rdb.Del(ctx, repairCacheKeyPrefix+repairCode)
	}
}
