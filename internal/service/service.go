package service

import (
	"github.com/Dadario23/taller-dashboard/internal/config"
	"github.com/Dadario23/taller-dashboard/internal/repository"
	"github.com/Dadario23/taller-dashboard/internal/shared/notify"
	"github.com/Dadario23/taller-dashboard/internal/sse"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services bundles all application services.
type Services struct {
	Repair *RepairService
	User   *UserService
	Ticket *TicketService
}

// NewServices wires all services. The MinIO client is optional: when the
// endpoint is unset attachments are rejected but everything else works.
func NewServices(repos *repository.Repositories, rdb *redis.Client, hub *sse.Hub, notifier notify.Notifier, cfg *config.Config, logger *zap.Logger) *Services {
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio unavailable, attachments disabled", zap.Error(err))
			minioClient = nil
		}
	}

	repairSvc := NewRepairService(repos.Repair, repos.User, rdb, hub, notifier, minioClient, cfg.MinIO.Bucket, logger)

	return &Services{
		Repair: repairSvc,
		User:   NewUserService(repos.User, repos.Repair),
		Ticket: NewTicketService(repos.Repair, notifier, logger),
	}
}
