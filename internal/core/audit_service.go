package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/models"
)

// auditService implements the AuditService interface.
type auditService struct {
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuditService creates a new AuditService that hands events to publisher.
func NewAuditService(publisher EventPublisher, logger *zap.Logger) AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditService{publisher: publisher, logger: logger, now: time.Now}
}

// RecordProductEvent stamps the event with the mutation time and enqueues it.
// The result is informational only; callers never fail on it.
func (s *auditService) RecordProductEvent(action models.ProductAction, product *models.Product, actor *models.Actor) bool {
	if product == nil || s.publisher == nil {
		return false
	}

	event := models.ProductEvent{
		Action:      action,
		ProductID:   product.ID,
		ProductName: product.Name,
		Timestamp:   models.FormatEventTime(s.now()),
	}
	if actor != nil {
		event.UserID = actor.ID
		event.UserEmail = actor.Email
	}

	ok := s.publisher.Publish(event)
	if !ok {
		s.logger.Warn("Product event not queued",
			zap.String("action", string(action)),
			zap.Int64("product_id", product.ID),
		)
	}
	return ok
}
