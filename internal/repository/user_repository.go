package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"gorm.io/gorm"
)

// UserRepository persists accounts. The password column is omitted from every
// read; callers that need it must select it explicitly.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID looks a user up by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Omit("password").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail looks a user up by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Omit("password").
		Where("email = ? AND deleted_at IS NULL", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns users matching the optional role filter, newest first.
func (r *UserRepository) List(ctx context.Context, role entity.Role) ([]entity.User, error) {
	var users []entity.User
	query := r.db.WithContext(ctx).
		Omit("password").
		Where("deleted_at IS NULL")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Order("created_at DESC").Find(&users).Error
	return users, err
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update saves a user.
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Omit("password").Save(user).Error
}

// Delete soft-deletes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}
