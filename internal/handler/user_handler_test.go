package handler

import (
	"net/http"
	"testing"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"github.com/Dadario23/taller-dashboard/internal/middleware"
	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/service"
	"github.com/Dadario23/taller-dashboard/internal/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	h := NewUserHandler(service.NewUserService(repos.User, repos.Repair), zap.NewNop())

	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/users", h.List)
	api.GET("/users/by-email", h.GetByEmail)
	api.POST("/users", h.Create)
	api.GET("/users/:id", h.Get)
	api.PUT("/users/:id", h.Update)
	api.PATCH("/users/:id/role", middleware.RequireRole(entity.RoleAdmin), h.ChangeRole)
	api.GET("/users/:id/repairs", h.Repairs)

	return db, router
}

func TestUserCreateAndLookup(t *testing.T) {
	db, router := setupUserTest(t)
	admin := testutil.SeedUser(t, db, "Admin", "admin@taller.com", entity.RoleAdmin)
	token := testutil.GenerateTestToken(admin.ID, admin.Fullname, admin.Email, string(admin.Role))

	w := testutil.DoRequest(router, "POST", "/api/v1/users", map[string]interface{}{
		"email":    "maria@gmail.com",
		"fullname": "María López",
		"whatsapp": "+54 9 11 5555-1234",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["role"] != "user" {
		t.Errorf("Expected default role user, got %v", data["role"])
	}
	if _, hasPassword := data["password"]; hasPassword {
		t.Error("Password must never be serialized")
	}

	w2 := testutil.DoRequest(router, "GET", "/api/v1/users/by-email?email=maria@gmail.com", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	w3 := testutil.DoRequest(router, "GET", "/api/v1/users/by-email", nil, token)
	if w3.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without email param, got %d", w3.Code)
	}
}

func TestUserChangeRoleEndpoint(t *testing.T) {
	db, router := setupUserTest(t)
	admin := testutil.SeedUser(t, db, "Admin", "admin@taller.com", entity.RoleAdmin)
	customer := testutil.SeedUser(t, db, "Juan Pérez", "juan@gmail.com", entity.RoleUser)
	adminToken := testutil.GenerateTestToken(admin.ID, admin.Fullname, admin.Email, string(admin.Role))
	customerToken := testutil.GenerateTestToken(customer.ID, customer.Fullname, customer.Email, string(customer.Role))

	w := testutil.DoRequest(router, "PATCH", "/api/v1/users/"+customer.ID+"/role",
		map[string]interface{}{"role": "technician"}, customerToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-admin actor, got %d", w.Code)
	}

	w2 := testutil.DoRequest(router, "PATCH", "/api/v1/users/"+customer.ID+"/role",
		map[string]interface{}{"role": "technician"}, adminToken)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["role"] != "technician" {
		t.Errorf("Expected technician role, got %v", data["role"])
	}

	// superadmin grant stays superadmin-only even for admins
	w3 := testutil.DoRequest(router, "PATCH", "/api/v1/users/"+customer.ID+"/role",
		map[string]interface{}{"role": "superadmin"}, adminToken)
	if w3.Code != http.StatusForbidden {
		t.Errorf("Expected 403 granting superadmin as admin, got %d", w3.Code)
	}
}

func TestUserRepairsEndpoint(t *testing.T) {
	db, router := setupUserTest(t)
	admin := testutil.SeedUser(t, db, "Admin", "admin@taller.com", entity.RoleAdmin)
	token := testutil.GenerateTestToken(admin.ID, admin.Fullname, admin.Email, string(admin.Role))

	w := testutil.DoRequest(router, "GET", "/api/v1/users/no-such-user/repairs", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown user, got %d", w.Code)
	}
}
