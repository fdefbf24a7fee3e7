package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"roombook/internal/bookings/calendar"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/export"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"

	"github.com/google/uuid"
)

const maxExportRange = 366 * 24 * time.Hour

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	// Replace overwrites every editable field of the booking. CreatedAt is
	// kept, and an unset status keeps the stored one.
	Replace(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, id string) error

	CheckAvailability(ctx context.Context, query *model.Availability) (*model.Availability, error)
	Calendar(ctx context.Context, date time.Time, roomID string) ([]model.CalendarEvent, error)
	Stats(ctx context.Context) (*model.DashboardStats, error)
	Export(ctx context.Context, from, to time.Time) ([]byte, error)
}

// RoomReader is the part of the room store bookings depend on.
type RoomReader interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Room, error)
	Count(ctx context.Context) (int64, error)
}

// AvailabilityChecker answers availability queries against the live store.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	lockRepo     repository.BookingLockRepository
	rooms        RoomReader
	availability AvailabilityChecker
	validator    *validator.BookingValidator
	publisher    events.Publisher
	cfg          *config.Config
	now          func() time.Time
}

// NewBookingService wires the booking use cases. lockRepo may be nil when the
// store enforces non-overlap itself.
func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	rooms RoomReader,
	availability AvailabilityChecker,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &bookingService{
		repo:         repo,
		lockRepo:     lockRepo,
		rooms:        rooms,
		availability: availability,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	booking.ID = ""
	s.sanitize(booking)
	if err := s.ensureRoomExists(ctx, booking.RoomID); err != nil {
		return err
	}

	err := s.save(ctx, booking, "", func(txCtx context.Context) error {
		booking.Status = model.StatusPending
		booking.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
		return s.repo.Create(txCtx, booking)
	})
	if err != nil {
		return s.mapWriteError(err, "", booking.RoomID, "Failed to create booking")
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"start_time", booking.StartTime,
		"end_time", booking.EndTime,
	)
	s.publish(ctx, model.EventBookingCreated, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(id, err, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) Replace(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if booking.ID != "" && booking.ID != id {
		return nil, apperrors.NotFoundWithID("Booking", id)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(id, err, "Failed to check booking existence")
	}

	booking.ID = id
	booking.CreatedAt = existing.CreatedAt
	if booking.Status == 0 {
		booking.Status = existing.Status
	}
	return s.edit(ctx, id, booking)
}

func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if updates.IsEmpty() {
		return nil, apperrors.InvalidInput("Update must change at least one field")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(id, err, "Failed to check booking existence")
	}

	merged := updates.Merge(existing)
	merged.ID = id
	merged.CreatedAt = existing.CreatedAt
	return s.edit(ctx, id, merged)
}

func (s *bookingService) edit(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error) {
	s.sanitize(booking)
	if err := s.ensureRoomExists(ctx, booking.RoomID); err != nil {
		return nil, err
	}

	err := s.save(ctx, booking, id, func(txCtx context.Context) error {
		return s.repo.Replace(txCtx, id, booking)
	})
	if err != nil {
		return nil, s.mapWriteError(err, id, booking.RoomID, "Failed to update booking")
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", id,
		"room_id", booking.RoomID,
		"status", booking.Status,
	)
	s.publish(ctx, model.EventBookingUpdated, booking)
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var deleted *model.Booking
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		deleted = booking
		return nil
	})
	if err != nil {
		return s.mapLookupError(id, err, "Failed to delete booking")
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id, "room_id", deleted.RoomID)
	s.publish(ctx, model.EventBookingDeleted, deleted)
	return nil
}

func (s *bookingService) CheckAvailability(ctx context.Context, query *model.Availability) (*model.Availability, error) {
	if query.RoomID == "" {
		return nil, apperrors.InvalidInput("room_id is required")
	}
	if query.StartTime.IsZero() || query.EndTime.IsZero() {
		return nil, apperrors.InvalidInput("start_time and end_time are required")
	}

	result := *query
	result.StartTime = sanitizer.NormalizeMinute(query.StartTime)
	result.EndTime = sanitizer.NormalizeMinute(query.EndTime)

	available, err := s.availability.IsAvailable(ctx, result.RoomID, result.StartTime, result.EndTime, result.ExcludeID)
	if err != nil {
		s.cfg.Log.Error("Failed to check availability",
			"room_id", result.RoomID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to check availability", err)
	}
	result.Available = available
	return &result, nil
}

func (s *bookingService) Calendar(ctx context.Context, date time.Time, roomID string) ([]model.CalendarEvent, error) {
	from, to := calendar.Day(date, s.cfg.Location)

	bookings, err := s.repo.FindStartingBetween(ctx, from, to, roomID)
	if err != nil {
		s.cfg.Log.Error("Failed to load calendar bookings",
			"from", from,
			"room_id", roomID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load calendar", err)
	}

	rooms, err := s.roomsByID(ctx, calendar.RoomIDs(bookings))
	if err != nil {
		return nil, err
	}
	return calendar.Events(bookings, rooms, s.cfg.Location), nil
}

func (s *bookingService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	from, to := calendar.Day(s.now(), s.cfg.Location)
	now := s.now().UTC()

	var stats model.DashboardStats
	counters := []struct {
		name  string
		dst   *int64
		count func() (int64, error)
	}{
		{"rooms", &stats.TotalRooms, func() (int64, error) { return s.rooms.Count(ctx) }},
		{"bookings", &stats.TotalBookings, func() (int64, error) { return s.repo.Count(ctx) }},
		{"today", &stats.TodayBookings, func() (int64, error) { return s.repo.CountStartingBetween(ctx, from, to) }},
		{"upcoming", &stats.UpcomingBookings, func() (int64, error) { return s.repo.CountStartingAfter(ctx, now) }},
	}

	errs := make([]error, len(counters))
	var wg sync.WaitGroup
	for i, c := range counters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.count()
			if err != nil {
				s.cfg.Log.Error("Failed to compute dashboard statistic", "statistic", c.name, "error", err)
				errs[i] = err
				return
			}
			*c.dst = n
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, apperrors.Internal("Failed to compute statistics", err)
	}
	return &stats, nil
}

func (s *bookingService) Export(ctx context.Context, from, to time.Time) ([]byte, error) {
	if !to.After(from) {
		return nil, apperrors.InvalidInput("to must be after from")
	}
	if to.Sub(from) > maxExportRange {
		return nil, apperrors.InvalidInput("Export range cannot exceed 366 days")
	}

	bookings, err := s.repo.FindStartingBetween(ctx, from.UTC(), to.UTC(), "")
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for export", "from", from, "to", to, "error", err)
		return nil, apperrors.Internal("Failed to export bookings", err)
	}

	rooms, err := s.roomsByID(ctx, calendar.RoomIDs(bookings))
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rooms))
	for id, room := range rooms {
		names[id] = room.Name
	}

	data, err := export.XLSX(bookings, names, s.cfg.Location)
	if err != nil {
		s.cfg.Log.Error("Failed to render export", "error", err)
		return nil, apperrors.Internal("Failed to export bookings", err)
	}

	s.cfg.Log.Info("Bookings exported", "from", from, "to", to, "count", len(bookings))
	return data, nil
}

// --- Helpers ---

// save validates booking and runs write inside one store transaction. On
// stores without an exclusion constraint the room is locked for the duration,
// and the transaction must finish before the lock expires.
func (s *bookingService) save(ctx context.Context, booking *model.Booking, excludeID string, write func(ctx context.Context) error) error {
	lockCtx := ctx
	if booking.RoomID != "" && s.lockRepo != nil {
		release, err := s.lockRoom(ctx, booking.RoomID)
		if err != nil {
			return err
		}
		defer release()

		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.cfg.SlotLockTTL)
		defer cancel()
	}

	err := s.repo.ExecuteTransaction(lockCtx, func(txCtx context.Context) error {
		if err := s.validator.Validate(txCtx, booking, excludeID); err != nil {
			return err
		}
		return write(txCtx)
	})
	if err != nil && lockCtx.Err() != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: %v", bookingserrors.ErrLockExpired, err)
	}
	return err
}

func (s *bookingService) lockRoom(ctx context.Context, roomID string) (func(), error) {
	now := s.now().UTC()
	lock := &model.BookingLock{
		ID:        model.RoomLockID(roomID),
		RoomID:    roomID,
		Owner:     uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SlotLockTTL),
	}
	if err := s.lockRepo.Create(ctx, lock); err != nil {
		return nil, err
	}

	return func() {
		if err := s.lockRepo.Delete(ctx, lock.ID, lock.Owner); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lock.ID, "error", err)
		}
	}, nil
}

func (s *bookingService) ensureRoomExists(ctx context.Context, roomID string) error {
	if roomID == "" {
		return nil
	}
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Room", roomID)
		}
		s.cfg.Log.Error("Failed to look up room", "room_id", roomID, "error", err)
		return apperrors.Internal("Failed to look up room", err)
	}
	return nil
}

func (s *bookingService) roomsByID(ctx context.Context, ids []string) (map[string]*model.Room, error) {
	rooms := make(map[string]*model.Room, len(ids))
	if len(ids) == 0 {
		return rooms, nil
	}

	found, err := s.rooms.FindByIDs(ctx, ids)
	if err != nil {
		s.cfg.Log.Error("Failed to load rooms", "count", len(ids), "error", err)
		return nil, apperrors.Internal("Failed to load rooms", err)
	}
	for _, room := range found {
		rooms[room.ID] = room
	}
	return rooms, nil
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	event := model.NewBookingEvent(eventType, booking, s.now().UTC())
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.RoomID = sanitizer.TrimAndNormalize(b.RoomID)
	b.BookedBy = sanitizer.TrimAndNormalize(b.BookedBy)
	b.Email = sanitizer.NormalizeEmail(b.Email)
	b.ContactNumber = sanitizer.NormalizePhone(b.ContactNumber, "")
	b.Title = sanitizer.TrimAndNormalize(b.Title)
	b.Description = sanitizer.TrimMultiline(b.Description)
	b.StartTime = sanitizer.NormalizeMinute(b.StartTime)
	b.EndTime = sanitizer.NormalizeMinute(b.EndTime)
}

func (s *bookingService) mapLookupError(id string, err error, message string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func (s *bookingService) mapWriteError(err error, id, roomID, message string) error {
	var verrs validator.ValidationErrors
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &verrs):
		s.cfg.Log.Warn("Booking validation failed",
			"id", id,
			"room_id", roomID,
			"error", err,
		)
		return validationError(verrs)
	case errors.Is(err, bookingserrors.ErrTimeConflict):
		s.cfg.Log.Warn("Booking rejected by store overlap constraint", "id", id, "room_id", roomID)
		return validationError(validator.RoomUnavailable())
	case errors.Is(err, bookingserrors.ErrLockHeld):
		return apperrors.Conflict("The room is currently being booked by another request. Please try again.")
	case errors.Is(err, bookingserrors.ErrLockExpired):
		s.cfg.Log.Warn("Booking write outlived its room lock", "id", id, "room_id", roomID, "error", err)
		return apperrors.Unavailable("Room booking")
	case errors.Is(err, roomserrors.ErrNotFound), errors.Is(err, roomserrors.ErrInvalidID):
		return apperrors.NotFoundWithID("Room", roomID)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.As(err, &appErr):
		return appErr
	}
	s.cfg.Log.Error(message, "id", id, "room_id", roomID, "error", err)
	return apperrors.Internal(message, err)
}

func validationError(verrs validator.ValidationErrors) error {
	return apperrors.Validation("Booking validation failed", map[string]any{
		"errors": verrs,
	})
}
