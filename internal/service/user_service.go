package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/google/uuid"
)

// UserService manages accounts and role assignment. Credential and OAuth
// sign-in live outside this service; it only administers the records.
type UserService struct {
	userRepo   *repository.UserRepository
	repairRepo *repository.RepairRepository
}

// NewUserService creates the user service.
func NewUserService(userRepo *repository.UserRepository, repairRepo *repository.RepairRepository) *UserService {
	return &UserService{userRepo: userRepo, repairRepo: repairRepo}
}

// CreateUserRequest registers an account. Role defaults to "user".
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Fullname string `json:"fullname" binding:"required"`
	Role     string `json:"role"`
	Whatsapp string `json:"whatsapp"`
	Country  string `json:"country"`
	State    string `json:"state"`
	Locality string `json:"locality"`
	Address  string `json:"address"`
}

// UpdateUserRequest updates profile fields. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Fullname   string `json:"fullname"`
	Country    string `json:"country"`
	State      string `json:"state"`
	Locality   string `json:"locality"`
	Address    string `json:"address"`
	Whatsapp   string `json:"whatsapp"`
	Postalcode string `json:"postalcode"`
}

// List returns users, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role string) ([]entity.User, error) {
	var parsed entity.Role
	if role != "" {
		p, ok := entity.ParseRole(role)
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid role %q", role)}
		}
		parsed = p
	}
	return s.userRepo.List(ctx, parsed)
}

// Get looks a user up by ID.
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// GetByEmail looks a user up by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if email == "" {
		return nil, &ValidationError{Message: "email is required"}
	}
	return s.userRepo.FindByEmail(ctx, email)
}

// Create registers a new account.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	if req.Email == "" || req.Fullname == "" {
		return nil, &ValidationError{Message: "email and fullname are required"}
	}
	if len(req.Fullname) < 3 || len(req.Fullname) > 50 {
		return nil, &ValidationError{Message: "fullname must be between 3 and 50 characters"}
	}

	role := entity.RoleUser
	if req.Role != "" {
		p, ok := entity.ParseRole(req.Role)
		if !ok {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid role %q", req.Role)}
		}
		role = p
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, &ValidationError{Message: "a user with this email already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:        uuid.New().String()[:32],
		Email:     req.Email,
		Fullname:  req.Fullname,
		Provider:  "credentials",
		Role:      role,
		Country:   req.Country,
		State:     req.State,
		Locality:  req.Locality,
		Address:   req.Address,
		Whatsapp:  req.Whatsapp,
		Status:    entity.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Update changes profile fields.
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Fullname != "" {
		user.Fullname = req.Fullname
	}
	if req.Country != "" {
		user.Country = req.Country
	}
	if req.State != "" {
		user.State = req.State
	}
	if req.Locality != "" {
		user.Locality = req.Locality
	}
	if req.Address != "" {
		user.Address = req.Address
	}
	if req.Whatsapp != "" {
		user.Whatsapp = req.Whatsapp
	}
	if req.Postalcode != "" {
		user.Postalcode = req.Postalcode
	}
	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangeRole reassigns a user's role. Only admin and superadmin may do this;
// only a superadmin may grant the superadmin role.
func (s *UserService) ChangeRole(ctx context.Context, actingUserID, targetUserID, newRole string) (*entity.User, error) {
	role, ok := entity.ParseRole(newRole)
	if !ok {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid role %q", newRole)}
	}

	actor, err := s.userRepo.FindByID(ctx, actingUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &AuthorizationError{Message: "you do not have permission to change roles"}
		}
		return nil, fmt.Errorf("find acting user: %w", err)
	}
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleSuperadmin {
		return nil, &AuthorizationError{Message: "you do not have permission to change roles"}
	}
	if role == entity.RoleSuperadmin && actor.Role != entity.RoleSuperadmin {
		return nil, &AuthorizationError{Message: "only a superadmin can grant the superadmin role"}
	}

	user, err := s.userRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user role: %w", err)
	}
	return user, nil
}

// Repairs returns the repairs owned by the given user.
func (s *UserService) Repairs(ctx context.Context, userID string) ([]entity.Repair, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repairRepo.ListByCustomer(ctx, userID)
}
