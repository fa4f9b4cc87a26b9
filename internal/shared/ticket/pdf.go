package ticket

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

// RenderError marks a repair snapshot that cannot be rendered because
// required fields are missing. Handlers map it to 400.
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string {
	return e.Message
}

const (
	pageWidth  = 600
	pageHeight = 800
	marginX    = 50
	lineHeight = 15
)

// Render builds the printable intake ticket for a repair. It is a pure
// function of the snapshot: any repair in any state renders, as long as the
// customer name and email are populated.
func Render(repair *entity.Repair) ([]byte, error) {
	if repair.Customer == nil || repair.Customer.Fullname == "" || repair.Customer.Email == "" {
		return nil, &RenderError{Message: "customer name and email are required to render a ticket"}
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	y := float64(50)
	line := func(text string) {
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(marginX, y, tr(text))
		y += lineHeight
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(marginX, y, tr("Ticket de reparación"))
	y += 2 * lineHeight

	line(fmt.Sprintf("Código de reparación: %s", repair.RepairCode))
	line(fmt.Sprintf("Título: %s", repair.Title))
	line(fmt.Sprintf("Estado: %s", repair.Status))
	line(fmt.Sprintf("Prioridad: %s", repair.Priority))
	line(fmt.Sprintf("Dispositivo: %s", repair.Device.Type))
	line(fmt.Sprintf("Marca: %s", repair.Device.Brand))
	line(fmt.Sprintf("Modelo: %s", repair.Device.Model))
	line(fmt.Sprintf("Desperfecto: %s", repair.Device.Flaw))
	line(fmt.Sprintf("Condición física: %s", repair.Device.PhysicalCondition))
	line(fmt.Sprintf("Observaciones: %s", orNA(repair.Device.Notes)))
	line(fmt.Sprintf("Cliente: %s", repair.Customer.Fullname))
	line(fmt.Sprintf("Correo: %s", repair.Customer.Email))
	line(fmt.Sprintf("Fecha de creación: %s", repair.CreatedAt.Format("02/01/2006")))

	pdf.SetFont("Helvetica", "I", 10)
	pdf.Text(marginX, pageHeight-40, tr(fmt.Sprintf("Generado el %s. Conserve este ticket para retirar su equipo.",
		time.Now().Format("02/01/2006 15:04"))))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
