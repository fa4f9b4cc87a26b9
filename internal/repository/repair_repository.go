package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"gorm.io/gorm"
)

// RepairRepository persists repairs and their append-only sub-collections.
type RepairRepository struct {
	db *gorm.DB
}

// NewRepairRepository creates a repair repository.
func NewRepairRepository(db *gorm.DB) *RepairRepository {
	return &RepairRepository{db: db}
}

// RepairFilters are the optional list filters. Empty fields are
// unconstrained; set fields combine with AND semantics.
type RepairFilters struct {
	Status       string
	Priority     string
	TechnicianID string
	CustomerID   string
	RepairCode   string
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("Technician").
		Preload("ReceivedBy").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Timeline.ChangedBy").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("uploaded_at ASC")
		}).
		Preload("Notifications", func(db *gorm.DB) *gorm.DB {
			return db.Order("sent_at ASC")
		}).
		Preload("UsedParts")
}

// FindByCode looks a repair up by its TASK code with all associations loaded.
func (r *RepairRepository) FindByCode(ctx context.Context, repairCode string) (*entity.Repair, error) {
	var repair entity.Repair
	err := withAssociations(r.db.WithContext(ctx)).
		Where("repair_code = ?", repairCode).
		First(&repair).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &repair, nil
}

// List returns repairs matching all set filters, newest first.
func (r *RepairRepository) List(ctx context.Context, filters RepairFilters) ([]entity.Repair, error) {
	var repairs []entity.Repair

	query := r.db.WithContext(ctx).Model(&entity.Repair{})
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		query = query.Where("priority = ?", filters.Priority)
	}
	if filters.TechnicianID != "" {
		query = query.Where("technician_id = ?", filters.TechnicianID)
	}
	if filters.CustomerID != "" {
		query = query.Where("customer_id = ?", filters.CustomerID)
	}
	if filters.RepairCode != "" {
		query = query.Where("repair_code = ?", filters.RepairCode)
	}

	err := withAssociations(query).
		Order("created_at DESC").
		Find(&repairs).Error
	return repairs, err
}

// ListByCustomer returns every repair owned by the given customer.
func (r *RepairRepository) ListByCustomer(ctx context.Context, customerID string) ([]entity.Repair, error) {
	return r.List(ctx, RepairFilters{CustomerID: customerID})
}

// Count returns the total number of repairs, deleted ones excluded by virtue
// of hard deletion.
func (r *RepairRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Repair{}).Count(&count).Error
	return count, err
}

// NextCode allocates the next repair code. Codes are assigned from the count
// of existing repairs starting at TASK-1001 and are never reused: deletion
// lowers the count but uniqueness is enforced by the index, so intake after a
// bulk delete retries until a free code is found.
func (r *RepairRepository) NextCode(ctx context.Context) (string, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return "", err
	}
	for offset := int64(0); ; offset++ {
		code := fmt.Sprintf("TASK-%d", 1000+count+1+offset)
		var n int64
		if err := r.db.WithContext(ctx).
			Model(&entity.Repair{}).
			Where("repair_code = ?", code).
			Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
}

// Create inserts a repair together with its seed timeline entry.
func (r *RepairRepository) Create(ctx context.Context, repair *entity.Repair) error {
	return r.db.WithContext(ctx).Create(repair).Error
}

// ApplyTransition appends one timeline entry and updates the repair row in a
// single transaction, guarded by the optimistic version token. Returns
// ErrVersionConflict when a concurrent transition won the race.
func (r *RepairRepository) ApplyTransition(ctx context.Context, repair *entity.Repair, entry *entity.TimelineEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Repair{}).
			Where("id = ? AND version = ?", repair.ID, repair.Version).
			Updates(map[string]interface{}{
				"status":                      repair.Status,
				"warranty":                    repair.Warranty,
				"warranty_period":             repair.WarrantyPeriod,
				"warranty_expires_at":         repair.WarrantyExpiresAt,
				"total_processing_time_hours": repair.TotalProcessingTimeHours,
				"repair_verified_by_id":       repair.RepairVerifiedByID,
				"technician_id":               repair.TechnicianID,
				"version":                     repair.Version + 1,
				"updated_at":                  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		repair.Version++
		return nil
	})
}

// DeleteByCodes hard-deletes the repairs with the given codes and all their
// dependent rows, returning how many repairs matched.
func (r *RepairRepository) DeleteByCodes(ctx context.Context, repairCodes []string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&entity.Repair{}).
			Where("repair_code IN ?", repairCodes).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		for _, model := range []interface{}{
			&entity.TimelineEntry{},
			&entity.Attachment{},
			&entity.CustomerNotification{},
			&entity.UsedPart{},
		} {
			if err := tx.Where("repair_id IN ?", ids).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id IN ?", ids).Delete(&entity.Repair{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// AddAttachment appends an attachment row.
func (r *RepairRepository) AddAttachment(ctx context.Context, attachment *entity.Attachment) error {
	return r.db.WithContext(ctx).Create(attachment).Error
}

// AddNotification records a delivered customer notification.
func (r *RepairRepository) AddNotification(ctx context.Context, notification *entity.CustomerNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// AddUsedPart appends a used part and bumps the repair's total cost.
func (r *RepairRepository) AddUsedPart(ctx context.Context, part *entity.UsedPart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(part).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Repair{}).
			Where("id = ?", part.RepairID).
			Updates(map[string]interface{}{
				"total_cost": gorm.Expr("total_cost + ?", part.PartCost),
				"updated_at": time.Now(),
			}).Error
	})
}
