package entity

import (
	"time"
)

// Status is the closed set of repair workflow states. The Spanish long-form
// strings are canonical: they are what the shop persists and what customers
// see on their tickets. Label returns the English display form.
type Status string

const (
	StatusReceived         Status = "Ingresado"
	StatusUnderReview      Status = "En Revisión"
	StatusDiagnosed        Status = "Equipo Diagnosticado"
	StatusWaitingApproval  Status = "Esperando Aprobación del Cliente"
	StatusWaitingParts     Status = "Esperando Repuesto"
	StatusInProgress       Status = "Reparación en Progreso"
	StatusFinished         Status = "Reparación Finalizada"
	StatusReadyForPickup   Status = "Equipo Listo para Retiro"
	StatusPickedUp         Status = "Equipo Retirado"
	StatusCancelled        Status = "Reparación Cancelada por el Cliente"
	StatusNotRepairable    Status = "Reparación Imposible de Realizar"
	StatusPartsUnavailable Status = "No Existen Repuestos Disponibles"
)

// AllStatuses lists every valid status in workflow order.
var AllStatuses = []Status{
	StatusReceived,
	StatusUnderReview,
	StatusDiagnosed,
	StatusWaitingApproval,
	StatusWaitingParts,
	StatusInProgress,
	StatusFinished,
	StatusReadyForPickup,
	StatusPickedUp,
	StatusCancelled,
	StatusNotRepairable,
	StatusPartsUnavailable,
}

var statusLabels = map[Status]string{
	StatusReceived:         "Received",
	StatusUnderReview:      "Under Review",
	StatusDiagnosed:        "Diagnosed",
	StatusWaitingApproval:  "Waiting for Customer Approval",
	StatusWaitingParts:     "Waiting for Parts",
	StatusInProgress:       "In Progress",
	StatusFinished:         "Finished",
	StatusReadyForPickup:   "Ready for Pickup",
	StatusPickedUp:         "Picked Up",
	StatusCancelled:        "Cancelled by Customer",
	StatusNotRepairable:    "Not Repairable",
	StatusPartsUnavailable: "No Parts Available",
}

// ParseStatus validates a raw status string against the canonical set.
func ParseStatus(s string) (Status, bool) {
	if _, ok := statusLabels[Status(s)]; ok {
		return Status(s), true
	}
	return "", false
}

// Label returns the English display name for the status.
func (s Status) Label() string {
	return statusLabels[s]
}

// Terminal reports whether no further transitions are expected from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusPickedUp, StatusCancelled, StatusNotRepairable, StatusPartsUnavailable:
		return true
	}
	return false
}

// Priority is the closed set of repair priorities.
type Priority string

const (
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "Alta"
	PriorityUrgent Priority = "Urgente"
)

// ParsePriority validates a raw priority string.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(s), true
	}
	return "", false
}

// Device is the snapshot of the device taken at intake.
type Device struct {
	Type              string `json:"type" gorm:"column:device_type;size:32;not null"`
	Brand             string `json:"brand" gorm:"column:device_brand;size:64;not null"`
	Model             string `json:"model" gorm:"column:device_model;size:64"`
	SerialNumber      string `json:"serial_number,omitempty" gorm:"column:device_serial_number;size:64"`
	PhysicalCondition string `json:"physical_condition" gorm:"column:device_physical_condition;size:256;not null"`
	Flaw              string `json:"flaw" gorm:"column:device_flaw;type:text;not null"`
	PasswordOrPattern string `json:"password_or_pattern,omitempty" gorm:"column:device_password_or_pattern;size:64"`
	Notes             string `json:"notes,omitempty" gorm:"column:device_notes;type:text"`
}

// Repair is the central entity: one device intake case tracked by a unique
// TASK-XXXX code. Status always mirrors the last timeline entry; derived
// fields (warranty, processing time) are recomputed by the service on every
// write, never set directly.
type Repair struct {
	ID                       string     `json:"id" gorm:"primaryKey;size:32"`
	RepairCode               string     `json:"repair_code" gorm:"size:16;not null;uniqueIndex"`
	Title                    string     `json:"title" gorm:"size:128;not null"`
	Status                   Status     `json:"status" gorm:"size:64;not null;default:Ingresado"`
	Priority                 Priority   `json:"priority" gorm:"size:16;not null;default:Normal"`
	RequiresCustomerApproval bool       `json:"requires_customer_approval" gorm:"not null;default:false"`
	CustomerID               string     `json:"customer_id" gorm:"size:32;not null;index"`
	TechnicianID             *string    `json:"technician_id" gorm:"size:32;index"`
	ReceivedByID             string     `json:"received_by_id" gorm:"size:32;not null"`
	RepairVerifiedByID       *string    `json:"repair_verified_by_id" gorm:"size:32"`
	EstimatedCompletion      *time.Time `json:"estimated_completion,omitempty"`
	Device                   Device     `json:"device" gorm:"embedded"`
	Warranty                 bool       `json:"warranty" gorm:"not null;default:false"`
	WarrantyPeriod           int        `json:"warranty_period,omitempty"`
	WarrantyExpiresAt        *time.Time `json:"warranty_expires_at,omitempty"`
	TotalCost                float64    `json:"total_cost" gorm:"type:decimal(10,2);default:0"`
	TechnicianNotes          string     `json:"technician_notes,omitempty" gorm:"type:text"`
	InternalNotes            string     `json:"internal_notes,omitempty" gorm:"type:text"`
	TotalProcessingTimeHours int        `json:"total_processing_time_hours" gorm:"not null;default:1"`
	Version                  int        `json:"version" gorm:"not null;default:1"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`

	Customer         *User                  `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Technician       *User                  `json:"technician,omitempty" gorm:"foreignKey:TechnicianID"`
	ReceivedBy       *User                  `json:"received_by,omitempty" gorm:"foreignKey:ReceivedByID"`
	RepairVerifiedBy *User                  `json:"repair_verified_by,omitempty" gorm:"foreignKey:RepairVerifiedByID"`
	Timeline         []TimelineEntry        `json:"timeline,omitempty" gorm:"foreignKey:RepairID"`
	Attachments      []Attachment           `json:"attachments,omitempty" gorm:"foreignKey:RepairID"`
	Notifications    []CustomerNotification `json:"customer_notifications,omitempty" gorm:"foreignKey:RepairID"`
	UsedParts        []UsedPart             `json:"used_parts,omitempty" gorm:"foreignKey:RepairID"`
}

func (Repair) TableName() string {
	return "repairs"
}

// LastTimelineStatus returns the status of the most recent timeline entry.
// Timeline is loaded in chronological order, so the last element is current.
func (r *Repair) LastTimelineStatus() (Status, bool) {
	if len(r.Timeline) == 0 {
		return "", false
	}
	return r.Timeline[len(r.Timeline)-1].Status, true
}

// TimelineEntry is one immutable audit record of a status change. Entries are
// append-only; Sequence preserves chronological order even when two entries
// share a timestamp.
type TimelineEntry struct {
	ID             string    `json:"id" gorm:"primaryKey;size:32"`
	RepairID       string    `json:"repair_id" gorm:"size:32;not null;index"`
	Status         Status    `json:"status" gorm:"size:64;not null"`
	PreviousStatus Status    `json:"previous_status,omitempty" gorm:"size:64"`
	Timestamp      time.Time `json:"timestamp" gorm:"not null"`
	Note           string    `json:"note,omitempty" gorm:"type:text"`
	ChangedByID    string    `json:"changed_by_id" gorm:"size:32;not null"`
	RoleAtChange   Role      `json:"role_at_change" gorm:"size:16;not null"`
	Sequence       int       `json:"sequence" gorm:"not null"`

	ChangedBy *User `json:"changed_by,omitempty" gorm:"foreignKey:ChangedByID"`
}

func (TimelineEntry) TableName() string {
	return "repair_timeline_entries"
}

// Attachment is a stored file linked to a repair.
type Attachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	RepairID    string    `json:"repair_id" gorm:"size:32;not null;index"`
	URL         string    `json:"url" gorm:"size:512;not null"`
	Description string    `json:"description,omitempty" gorm:"size:256"`
	UploadedAt  time.Time `json:"uploaded_at" gorm:"not null"`
}

func (Attachment) TableName() string {
	return "repair_attachments"
}

// Notification delivery methods.
const (
	NotificationMethodEmail    = "email"
	NotificationMethodSMS      = "sms"
	NotificationMethodWhatsapp = "whatsapp"
)

// CustomerNotification records one message sent to the customer about this
// repair. Best-effort: rows exist only for sends that succeeded.
type CustomerNotification struct {
	ID       string    `json:"id" gorm:"primaryKey;size:32"`
	RepairID string    `json:"repair_id" gorm:"size:32;not null;index"`
	Message  string    `json:"message" gorm:"type:text;not null"`
	SentAt   time.Time `json:"sent_at" gorm:"not null"`
	Method   string    `json:"method" gorm:"size:16;not null"`
}

func (CustomerNotification) TableName() string {
	return "repair_customer_notifications"
}

// UsedPart is a replacement part consumed by a repair.
type UsedPart struct {
	ID           string  `json:"id" gorm:"primaryKey;size:32"`
	RepairID     string  `json:"repair_id" gorm:"size:32;not null;index"`
	PartName     string  `json:"part_name" gorm:"size:128;not null"`
	PartCost     float64 `json:"part_cost" gorm:"type:decimal(10,2);not null"`
	PartSupplier string  `json:"part_supplier" gorm:"size:128"`
}

func (UsedPart) TableName() string {
	return "repair_used_parts"
}
