package syncapi

import (
	"datasync/core/runlog"
	"datasync/core/storage"
	"datasync/core/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the sync API feature.
func NewFeature(session *sync.Session, client storage.Client, bucket string, logCfg runlog.Config, logger *zap.Logger) *Feature {
	svc := NewService(session, client, bucket, logCfg, logger)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "sync"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
