package service

import (
	"context"
	"fmt"
	"time"

	"roombook/internal/audit/repository"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/kafka"
	"roombook/pkg/model"
)

type AuditService interface {
	// Record stores the booking event carried by msg. It is the handler of
	// the booking events consumer.
	Record(ctx context.Context, msg kafka.Message) error
	List(ctx context.Context, bookingID string, limit int, offset int64) ([]*model.BookingEvent, int64, error)
}

type auditService struct {
	repo repository.EventRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewAuditService(repo repository.EventRepository, cfg *config.Config) AuditService {
	return &auditService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func knownEventType(eventType string) bool {
	switch eventType {
	case model.EventBookingCreated, model.EventBookingUpdated, model.EventBookingDeleted:
		return true
	}
	return false
}

func (s *auditService) Record(ctx context.Context, msg kafka.Message) error {
	var event model.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("undecodable booking event", err)
	}

	if event.EventID == "" {
		event.EventID = msg.GetEventID()
	}
	if event.EventID == "" {
		return kafka.NewPermanentError("booking event has no id", kafka.ErrInvalidMessage)
	}
	if !knownEventType(event.Type) {
		return kafka.NewPermanentError(fmt.Sprintf("unknown booking event type %q", event.Type), kafka.ErrInvalidMessage)
	}

	event.ReceivedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.Save(ctx, &event); err != nil {
		s.cfg.Log.Error("Failed to store booking event",
			"event_id", event.EventID,
			"booking_id", event.BookingID,
			"error", err,
		)
		return kafka.NewTransientError("failed to store booking event", err)
	}

	s.cfg.Log.Debug("Booking event stored",
		"event_id", event.EventID,
		"type", event.Type,
		"booking_id", event.BookingID,
		"correlation_id", msg.GetCorrelationID(),
	)
	return nil
}

func (s *auditService) List(ctx context.Context, bookingID string, limit int, offset int64) ([]*model.BookingEvent, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	events, err := s.repo.Find(ctx, bookingID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list booking events", "booking_id", bookingID, "error", err)
		return nil, 0, apperrors.Internal("Failed to list booking events", err)
	}
	total, err := s.repo.Count(ctx, bookingID)
	if err != nil {
		s.cfg.Log.Error("Failed to count booking events", "booking_id", bookingID, "error", err)
		return nil, 0, apperrors.Internal("Failed to count booking events", err)
	}
	return events, total, nil
}
