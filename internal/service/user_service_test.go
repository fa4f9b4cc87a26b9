package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/testutil"
	"gorm.io/gorm"
)

func newTestUserService(t *testing.T) (*gorm.DB, *UserService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return db, NewUserService(repos.User, repos.Repair)
}

func TestUserCreateDefaultsAndValidation(t *testing.T) {
	_, svc := newTestUserService(t)

	user, err := svc.Create(context.Background(), &CreateUserRequest{
		Email:    "maria@gmail.com",
		Fullname: "María López",
		Whatsapp: "+54 9 11 5555-1234",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.Role != entity.RoleUser {
		t.Errorf("Expected default role user, got %s", user.Role)
	}
	if user.Status != entity.UserStatusActive {
		t.Errorf("Expected status activo, got %s", user.Status)
	}
	if user.Provider != "credentials" {
		t.Errorf("Expected provider credentials, got %s", user.Provider)
	}

	var validationErr *ValidationError
	if _, err := svc.Create(context.Background(), &CreateUserRequest{Email: "x@y.com", Fullname: "Al"}); !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for short fullname, got %v", err)
	}
	if _, err := svc.Create(context.Background(), &CreateUserRequest{Email: "maria@gmail.com", Fullname: "Otra María"}); !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for duplicate email, got %v", err)
	}
	if _, err := svc.Create(context.Background(), &CreateUserRequest{Email: "z@y.com", Fullname: "Zoe Pérez", Role: "manager"}); !errors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError for unknown role, got %v", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db, svc := newTestUserService(t)
	seeded := testutil.SeedUser(t, db, "Juan Pérez", "juan@gmail.com", entity.RoleUser)

	user, err := svc.GetByEmail(context.Background(), "juan@gmail.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("Expected user %s, got %s", seeded.ID, user.ID)
	}

	if _, err := svc.GetByEmail(context.Background(), "nadie@gmail.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserListFilterByRole(t *testing.T) {
	db, svc := newTestUserService(t)
	testutil.SeedUser(t, db, "Pedro Técnico", "pedro@taller.com", entity.RoleTechnician)
	testutil.SeedUser(t, db, "Lucía Técnica", "lucia@taller.com", entity.RoleTechnician)
	testutil.SeedUser(t, db, "Juan Pérez", "juan@gmail.com", entity.RoleUser)

	technicians, err := svc.List(context.Background(), "technician")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(technicians) != 2 {
		t.Errorf("Expected 2 technicians, got %d", len(technicians))
	}

	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 users, got %d", len(all))
	}

	if _, err := svc.List(context.Background(), "gerente"); err == nil {
		t.Error("Expected validation error for unknown role filter")
	}
}

func TestChangeRolePermissions(t *testing.T) {
	db, svc := newTestUserService(t)
	admin := testutil.SeedUser(t, db, "Admin", "admin@taller.com", entity.RoleAdmin)
	superadmin := testutil.SeedUser(t, db, "Dueño", "dueno@taller.com", entity.RoleSuperadmin)
	tech := testutil.SeedUser(t, db, "Pedro Técnico", "pedro@taller.com", entity.RoleTechnician)
	customer := testutil.SeedUser(t, db, "Juan Pérez", "juan@gmail.com", entity.RoleUser)

	updated, err := svc.ChangeRole(context.Background(), admin.ID, customer.ID, "reception")
	if err != nil {
		t.Fatalf("ChangeRole failed: %v", err)
	}
	if updated.Role != entity.RoleReception {
		t.Errorf("Expected reception role, got %s", updated.Role)
	}

	var authErr *AuthorizationError
	if _, err := svc.ChangeRole(context.Background(), tech.ID, customer.ID, "admin"); !errors.As(err, &authErr) {
		t.Errorf("Expected AuthorizationError for technician actor, got %v", err)
	}
	if _, err := svc.ChangeRole(context.Background(), admin.ID, customer.ID, "superadmin"); !errors.As(err, &authErr) {
		t.Errorf("Expected AuthorizationError granting superadmin as admin, got %v", err)
	}

	promoted, err := svc.ChangeRole(context.Background(), superadmin.ID, customer.ID, "superadmin")
	if err != nil {
		t.Fatalf("Superadmin grant failed: %v", err)
	}
	if promoted.Role != entity.RoleSuperadmin {
		t.Errorf("Expected superadmin role, got %s", promoted.Role)
	}
}

func TestUserRepairsUnknownUser(t *testing.T) {
	_, svc := newTestUserService(t)
	if _, err := svc.Repairs(context.Background(), "no-such-user"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
