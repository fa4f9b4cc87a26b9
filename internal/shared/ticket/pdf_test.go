package ticket

import (
	"bytes"
	"testing"
	"time"

	"github.com/Dadario23/taller-dashboard/internal/entity"
)

func sampleRepair() *entity.Repair {
	return &entity.Repair{
		ID:         "rep-001",
		RepairCode: "TASK-1001",
		Title:      "Pantalla rota",
		Status:     entity.StatusReceived,
		Priority:   entity.PriorityNormal,
		Device: entity.Device{
			Type:              "Celular",
			Brand:             "Samsung",
			Model:             "A52",
			PhysicalCondition: "Rayado en la tapa trasera",
			Flaw:              "Pantalla rota",
		},
		Customer: &entity.User{
			Fullname: "Juan Pérez",
			Email:    "juan@gmail.com",
		},
		CreatedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestRenderProducesPDF(t *testing.T) {
	pdf, err := Render(sampleRepair())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("Expected output to start with the PDF magic bytes")
	}
	if len(pdf) < 500 {
		t.Errorf("Suspiciously small PDF: %d bytes", len(pdf))
	}
}

func TestRenderRequiresCustomer(t *testing.T) {
	repair := sampleRepair()
	repair.Customer = nil
	if _, err := Render(repair); err == nil {
		t.Error("Expected error without customer data")
	}

	repair = sampleRepair()
	repair.Customer.Email = ""
	if _, err := Render(repair); err == nil {
		t.Error("Expected error without customer email")
	}
}
