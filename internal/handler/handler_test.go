package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dadario23/taller-dashboard/internal/shared/ticket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func respondServiceError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/repairs", nil)
	ServiceError(c, zap.NewNop(), err)
	return w
}

func TestServiceErrorHidesInternalDetail(t *testing.T) {
	w := respondServiceError(errors.New("pq: connection refused at db:5432"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "db:5432") || strings.Contains(body, "pq:") {
		t.Errorf("Internal error detail leaked to the client: %s", body)
	}
	if !strings.Contains(body, "Internal server error") {
		t.Errorf("Expected the generic message, got %s", body)
	}
}

func TestServiceErrorRenderError(t *testing.T) {
	w := respondServiceError(&ticket.RenderError{Message: "customer name and email are required to render a ticket"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a render failure, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "customer name and email") {
		t.Errorf("Expected the render message, got %s", w.Body.String())
	}
}
