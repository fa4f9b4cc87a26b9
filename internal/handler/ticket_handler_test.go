package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/service"
	"github.com/Dadario23/taller-dashboard/internal/shared/notify"
	"github.com/Dadario23/taller-dashboard/internal/sse"
	"github.com/Dadario23/taller-dashboard/internal/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ticketTestEnv struct {
	DB        *gorm.DB
	Router    *gin.Engine
	RepairSvc *service.RepairService
}

func setupTicketTest(t *testing.T) *ticketTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	hub := sse.NewHub(logger)
	repairSvc := service.NewRepairService(repos.Repair, repos.User, nil, hub, notify.NewRecorder(), nil, "", logger)
	ticketSvc := service.NewTicketService(repos.Repair, notify.NewRecorder(), logger)
	h := NewTicketHandler(ticketSvc, logger)

	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/repairs/:repairCode/ticket", h.Download)
	api.POST("/tickets", h.Send)

	return &ticketTestEnv{DB: db, Router: router, RepairSvc: repairSvc}
}

func ticketIntake(t *testing.T, env *ticketTestEnv, customerID, receivedByID string) *entity.Repair {
	t.Helper()
	repair, err := env.RepairSvc.CreateRepair(context.Background(), &service.CreateRepairRequest{
		Title:        "Pantalla rota",
		CustomerID:   customerID,
		ReceivedByID: receivedByID,
		Device: service.DeviceInput{
			Type:              "Celular",
			Brand:             "Samsung",
			Model:             "A52",
			PhysicalCondition: "Rayado en la tapa trasera",
			Flaw:              "Pantalla rota",
		},
	})
	if err != nil {
		t.Fatalf("CreateRepair failed: %v", err)
	}
	return repair
}

func TestTicketDownload(t *testing.T) {
	env := setupTicketTest(t)
	reception := testutil.SeedUser(t, env.DB, "Mesa de Entrada", "recepcion@taller.com", entity.RoleReception)
	customer := testutil.SeedUser(t, env.DB, "Juan Pérez", "juan@gmail.com", entity.RoleUser)
	repair := ticketIntake(t, env, customer.ID, reception.ID)
	token := testutil.GenerateTestToken(reception.ID, reception.Fullname, reception.Email, string(reception.Role))

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/repairs/"+repair.RepairCode+"/ticket", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("Response body is not a PDF document")
	}
}

func TestTicketDownloadIncompleteCustomer(t *testing.T) {
	env := setupTicketTest(t)
	reception := testutil.SeedUser(t, env.DB, "Mesa de Entrada", "recepcion@taller.com", entity.RoleReception)
	customer := testutil.SeedUser(t, env.DB, "Juan Pérez", "juan@gmail.com", entity.RoleUser)
	repair := ticketIntake(t, env, customer.ID, reception.ID)
	token := testutil.GenerateTestToken(reception.ID, reception.Fullname, reception.Email, string(reception.Role))

	// The customer row loses its email out-of-band. Rendering must answer
	// with a client error, not a 500.
	if err := env.DB.Model(&entity.User{}).Where("id = ?", customer.ID).Update("email", "").Error; err != nil {
		t.Fatalf("Failed to blank customer email: %v", err)
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/repairs/"+repair.RepairCode+"/ticket", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for incomplete customer snapshot, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if msg, _ := resp["message"].(string); msg == "" || msg == "Internal server error" {
		t.Errorf("Expected the render failure message, got %q", msg)
	}
}

func TestTicketSendUnknownRepair(t *testing.T) {
	env := setupTicketTest(t)
	reception := testutil.SeedUser(t, env.DB, "Mesa de Entrada", "recepcion@taller.com", entity.RoleReception)
	token := testutil.GenerateTestToken(reception.ID, reception.Fullname, reception.Email, string(reception.Role))

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/tickets",
		map[string]interface{}{"repair_code": "TASK-9999"}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown repair, got %d: %s", w.Code, w.Body.String())
	}
}
