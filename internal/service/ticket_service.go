package service

import (
	"context"
	"fmt"

	"github.com/Dadario23/taller-dashboard/internal/entity"
	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/shared/notify"
	"github.com/Dadario23/taller-dashboard/internal/shared/ticket"
	"go.uber.org/zap"
)

// TicketService renders and delivers printable repair tickets. Rendering is a
// pure function of the repair snapshot; this service only feeds it and mails
// the result.
type TicketService struct {
	repairRepo *repository.RepairRepository
	notifier   notify.Notifier
	logger     *zap.Logger
}

// NewTicketService creates the ticket service.
func NewTicketService(repairRepo *repository.RepairRepository, notifier notify.Notifier, logger *zap.Logger) *TicketService {
	return &TicketService{repairRepo: repairRepo, notifier: notifier, logger: logger}
}

// Render builds the ticket PDF for a repair.
func (s *TicketService) Render(ctx context.Context, repairCode string) ([]byte, *entity.Repair, error) {
	repair, err := s.repairRepo.FindByCode(ctx, repairCode)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := ticket.Render(repair)
	if err != nil {
		return nil, nil, err
	}
	return pdf, repair, nil
}

// Send renders the ticket and emails it. When email is empty the customer's
// own address is used.
func (s *TicketService) Send(ctx context.Context, repairCode, email string) error {
	pdf, repair, err := s.Render(ctx, repairCode)
	if err != nil {
		return err
	}

	to := email
	if to == "" {
		to = repair.Customer.Email
	}

	err = s.notifier.Send(ctx, notify.Message{
		To:             to,
		Subject:        fmt.Sprintf("Ticket de reparación - %s", repair.RepairCode),
		Body:           fmt.Sprintf("Hola %s, adjuntamos tu ticket de reparación.", repair.Customer.Fullname),
		Attachment:     pdf,
		AttachmentName: fmt.Sprintf("ticket-%s.pdf", repair.RepairCode),
	})
	if err != nil {
		return fmt.Errorf("send ticket email: %w", err)
	}

	s.logger.Info("ticket sent",
		zap.String("repair_code", repair.RepairCode),
		zap.String("to", to),
	)
	return nil
}
