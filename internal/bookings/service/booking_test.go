package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"roombook/internal/bookings/availability"
	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/validator"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	"roombook/pkg/db"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// In-memory collaborators
// ────────────────────────────────────────────────

type memoryBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int
	writeErr error
	// stall makes writes wait for their context to end.
	stall bool
}

func newMemoryBookingRepo() *memoryBookingRepository {
	return &memoryBookingRepository{bookings: map[string]*model.Booking{}}
}

func (m *memoryBookingRepository) insert(b *model.Booking) *model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = fmt.Sprintf("booking-%d", m.nextID)
	stored := *b
	m.bookings[b.ID] = &stored
	return b
}

func (m *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	m.insert(booking)
	return nil
}

func (m *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *memoryBookingRepository) all() []*model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		copied := *b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (m *memoryBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	all := m.all()
	if int(offset) >= len(all) {
		return []*model.Booking{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryBookingRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(m.all())), nil
}

func (m *memoryBookingRepository) Replace(ctx context.Context, id string, booking *model.Booking) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	stored := *booking
	stored.ID = id
	m.bookings[id] = &stored
	return nil
}

func (m *memoryBookingRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}

func (m *memoryBookingRepository) FindActiveByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.all() {
		if b.RoomID == roomID && b.Status.IsActive() && !b.StartTime.After(to) && !b.EndTime.Before(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryBookingRepository) FindStartingBetween(ctx context.Context, from, to time.Time, roomID string) ([]*model.Booking, error) {
	out := []*model.Booking{}
	for _, b := range m.all() {
		if (roomID == "" || b.RoomID == roomID) && !b.StartTime.Before(from) && b.StartTime.Before(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryBookingRepository) CountStartingBetween(ctx context.Context, from, to time.Time) (int64, error) {
	bookings, _ := m.FindStartingBetween(ctx, from, to, "")
	return int64(len(bookings)), nil
}

func (m *memoryBookingRepository) CountStartingAfter(ctx context.Context, after time.Time) (int64, error) {
	var n int64
	for _, b := range m.all() {
		if b.StartTime.After(after) {
			n++
		}
	}
	return n, nil
}

func (m *memoryBookingRepository) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return db.Passthrough().ExecuteTransaction(ctx, fn)
}

type memoryRooms struct {
	rooms map[string]*model.Room
}

func (m *memoryRooms) FindByID(ctx context.Context, id string) (*model.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	return room, nil
}

func (m *memoryRooms) FindByIDs(ctx context.Context, ids []string) ([]*model.Room, error) {
	var out []*model.Room
	for _, id := range ids {
		if room, ok := m.rooms[id]; ok {
			out = append(out, room)
		}
	}
	return out, nil
}

func (m *memoryRooms) Count(ctx context.Context) (int64, error) {
	return int64(len(m.rooms)), nil
}

type memoryLocks struct {
	mu       sync.Mutex
	held     map[string]string
	acquired int
}

func (m *memoryLocks) Create(ctx context.Context, lock *model.BookingLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[lock.ID]; ok {
		return bookingserrors.ErrLockHeld
	}
	m.held[lock.ID] = lock.Owner
	m.acquired++
	return nil
}

func (m *memoryLocks) Delete(ctx context.Context, lockID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[lockID] == owner {
		delete(m.held, lockID)
	}
	return nil
}

type recordingPublisher struct {
	events []*model.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *model.BookingEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

var fixedNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

type fixture struct {
	service   *bookingService
	repo      *memoryBookingRepository
	locks     *memoryLocks
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemoryBookingRepo()
	rooms := &memoryRooms{rooms: map[string]*model.Room{
		"room-1": {ID: "room-1", Name: "Meeting Room B", Capacity: 10},
		"room-2": {ID: "room-2", Name: "Small Meeting Room", Capacity: 6},
	}}
	locks := &memoryLocks{held: map[string]string{}}
	publisher := &recordingPublisher{}
	cfg := &config.Config{
		Log:         logger.Discard(),
		Location:    time.UTC,
		SlotLockTTL: 10 * time.Second,
	}

	checker := availability.NewChecker(repo)
	v := validator.NewBookingValidator(cfg.Log, checker, rooms)
	svc := NewBookingService(repo, locks, rooms, checker, v, publisher, cfg).(*bookingService)
	svc.now = func() time.Time { return fixedNow }

	return &fixture{service: svc, repo: repo, locks: locks, publisher: publisher}
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 11, hour, minute, 0, 0, time.UTC)
}

func request(roomID string, start, end time.Time) *model.Booking {
	return &model.Booking{
		RoomID:            roomID,
		BookedBy:          "Jane Doe",
		Email:             "jane@example.com",
		ContactNumber:     "+15550100199",
		Title:             "Design review",
		StartTime:         start,
		EndTime:           end,
		NumberOfAttendees: 4,
	}
}

func (f *fixture) seed(roomID string, start, end time.Time, status model.BookingStatus) *model.Booking {
	b := request(roomID, start, end)
	b.Status = status
	b.CreatedAt = fixedNow.Add(-24 * time.Hour)
	return f.repo.insert(b)
}

func validationErrors(t *testing.T, err error) validator.ValidationErrors {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, apperrors.CodeValidation, appErr.Code, "unexpected error: %v", err)
	verrs, ok := appErr.Details["errors"].(validator.ValidationErrors)
	require.True(t, ok)
	return verrs
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_StampsPendingAndCreatedAt(t *testing.T) {
	f := newFixture(t)
	b := request("room-1", at(10, 0).Add(25*time.Second), at(11, 0))
	b.Email = "  Jane@Example.COM "
	b.Status = model.StatusApproved
	b.CreatedAt = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.service.Create(context.Background(), b))

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.StatusPending, b.Status)
	assert.Equal(t, fixedNow, b.CreatedAt)
	assert.Equal(t, "jane@example.com", b.Email)
	assert.Equal(t, at(10, 0), b.StartTime)
	assert.Equal(t, []string{model.EventBookingCreated}, f.publisher.types())
	assert.Equal(t, 1, f.locks.acquired)
	assert.Empty(t, f.locks.held)
}

func TestCreate_CapacityExceeded(t *testing.T) {
	f := newFixture(t)
	b := request("room-2", at(10, 0), at(11, 0))
	b.NumberOfAttendees = 10

	err := f.service.Create(context.Background(), b)

	assert.Equal(t, validator.ValidationErrors{{
		Field:   "NumberOfAttendees",
		Message: "The number of attendees exceeds the room capacity (6).",
	}}, validationErrors(t, err))
	assert.Empty(t, f.repo.all())
	assert.Empty(t, f.publisher.events)
}

func TestCreate_OverlapIsRejected(t *testing.T) {
	f := newFixture(t)
	f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)

	err := f.service.Create(context.Background(), request("room-1", at(10, 30), at(11, 30)))

	assert.Equal(t, validator.RoomUnavailable(), validationErrors(t, err))
	assert.Len(t, f.repo.all(), 1)
}

func TestCreate_TouchingBoundaryIsAccepted(t *testing.T) {
	f := newFixture(t)
	f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)

	require.NoError(t, f.service.Create(context.Background(), request("room-1", at(11, 0), at(12, 0))))
	assert.Len(t, f.repo.all(), 2)
}

func TestCreate_InactiveBookingsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	f.seed("room-1", at(10, 0), at(11, 0), model.StatusCancelled)
	f.seed("room-1", at(10, 0), at(11, 0), model.StatusRejected)

	require.NoError(t, f.service.Create(context.Background(), request("room-1", at(10, 0), at(11, 0))))
}

func TestCreate_InvertedIntervalReportsEndTimeOnly(t *testing.T) {
	f := newFixture(t)

	err := f.service.Create(context.Background(), request("room-1", at(10, 0), at(9, 0)))

	assert.Equal(t, validator.EndBeforeStart(), validationErrors(t, err))
}

func TestCreate_StructuralErrorsAreAllReported(t *testing.T) {
	f := newFixture(t)
	b := request("room-1", at(10, 0), at(11, 0))
	b.BookedBy = ""
	b.Email = "not-an-email"
	b.NumberOfAttendees = 0

	verrs := validationErrors(t, f.service.Create(context.Background(), b))

	var fields []string
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"BookedBy", "Email", "NumberOfAttendees"}, fields)
}

func TestCreate_UnknownRoomIsNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.service.Create(context.Background(), request("room-404", at(10, 0), at(11, 0)))

	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Empty(t, f.locks.held)
}

func TestCreate_WriteOutlivingRoomLockIsAborted(t *testing.T) {
	f := newFixture(t)
	f.service.cfg.SlotLockTTL = 20 * time.Millisecond
	f.repo.stall = true

	err := f.service.Create(context.Background(), request("room-1", at(10, 0), at(11, 0)))

	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))
	assert.Empty(t, f.repo.all())
	assert.Empty(t, f.locks.held)
	assert.Empty(t, f.publisher.events)
}

func TestCreate_LockHeldIsConflict(t *testing.T) {
	f := newFixture(t)
	f.locks.held[model.RoomLockID("room-1")] = "someone-else"

	err := f.service.Create(context.Background(), request("room-1", at(10, 0), at(11, 0)))

	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Empty(t, f.repo.all())
}

func TestCreate_StoreOverlapConstraintIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.repo.writeErr = fmt.Errorf("%w: exclusion violation", bookingserrors.ErrTimeConflict)

	err := f.service.Create(context.Background(), request("room-1", at(10, 0), at(11, 0)))

	assert.Equal(t, validator.RoomUnavailable(), validationErrors(t, err))
}

func TestCreate_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	require.NoError(t, f.service.Create(context.Background(), request("room-1", at(10, 0), at(11, 0))))
	assert.Len(t, f.repo.all(), 1)
}

func TestCreate_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.repo.writeErr = errors.New("disk full")

	err := f.service.Create(context.Background(), request("room-1", at(10, 0), at(11, 0)))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

// ────────────────────────────────────────────────
// Edit
// ────────────────────────────────────────────────

func TestUpdate_TitleOnlyKeepsCreatedAtAndStatus(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)

	title := "Renamed review"
	updated, err := f.service.Update(context.Background(), existing.ID, &model.BookingUpdate{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "Renamed review", updated.Title)
	assert.Equal(t, existing.CreatedAt, updated.CreatedAt)
	assert.Equal(t, model.StatusApproved, updated.Status)

	stored, _ := f.repo.FindByID(context.Background(), existing.ID)
	assert.Equal(t, "Renamed review", stored.Title)
	assert.Equal(t, []string{model.EventBookingUpdated}, f.publisher.types())
}

func TestUpdate_MovingOntoAnotherBookingIsRejected(t *testing.T) {
	f := newFixture(t)
	f.seed("room-1", at(10, 0), at(11, 0), model.StatusPending)
	mine := f.seed("room-1", at(12, 0), at(13, 0), model.StatusPending)

	start, end := at(10, 30), at(11, 30)
	_, err := f.service.Update(context.Background(), mine.ID, &model.BookingUpdate{StartTime: &start, EndTime: &end})

	assert.Equal(t, validator.RoomUnavailable(), validationErrors(t, err))
}

func TestUpdate_EmptyUpdateIsInvalid(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusPending)

	_, err := f.service.Update(context.Background(), existing.ID, &model.BookingUpdate{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestUpdate_SetStatus(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusPending)

	status := model.StatusCancelled
	updated, err := f.service.Update(context.Background(), existing.ID, &model.BookingUpdate{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, updated.Status)
	require.NoError(t, f.service.Create(context.Background(), request("room-1", at(10, 0), at(11, 0))))
}

func TestUpdate_EmptyStatusKeepsStoredStatus(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)

	var onlyStatus model.BookingUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"status":""}`), &onlyStatus))
	_, err := f.service.Update(context.Background(), existing.ID, &onlyStatus)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	var withTitle model.BookingUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"status":"","title":"Renamed review"}`), &withTitle))
	updated, err := f.service.Update(context.Background(), existing.ID, &withTitle)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.Equal(t, "Renamed review", updated.Title)

	err = f.service.Create(context.Background(), request("room-1", at(10, 30), at(11, 30)))
	assert.Equal(t, validator.RoomUnavailable(), validationErrors(t, err))
}

func TestReplace(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)

	replacement := request("room-1", at(10, 0), at(11, 30))
	replacement.Title = "Longer review"
	updated, err := f.service.Replace(context.Background(), existing.ID, replacement)

	require.NoError(t, err)
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, existing.CreatedAt, updated.CreatedAt)
	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.Equal(t, at(11, 30), updated.EndTime)
}

func TestReplace_IDMismatchIsNotFound(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)

	replacement := request("room-1", at(10, 0), at(11, 0))
	replacement.ID = "booking-99"
	_, err := f.service.Replace(context.Background(), existing.ID, replacement)

	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestReplace_UnknownBooking(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Replace(context.Background(), "booking-404", request("room-1", at(10, 0), at(11, 0)))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

// ────────────────────────────────────────────────
// Delete and availability
// ────────────────────────────────────────────────

func TestDelete_FreesTheInterval(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)
	query := &model.Availability{RoomID: "room-1", StartTime: at(10, 0), EndTime: at(11, 0)}

	before, err := f.service.CheckAvailability(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, before.Available)

	require.NoError(t, f.service.Delete(context.Background(), existing.ID))

	after, err := f.service.CheckAvailability(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, after.Available)
	assert.Equal(t, []string{model.EventBookingDeleted}, f.publisher.types())
	assert.Equal(t, existing.ID, f.publisher.events[0].BookingID)
}

func TestDelete_UnknownBooking(t *testing.T) {
	f := newFixture(t)

	err := f.service.Delete(context.Background(), "booking-404")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Empty(t, f.publisher.events)
}

func TestCheckAvailability_ExcludesOwnBooking(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusPending)

	result, err := f.service.CheckAvailability(context.Background(), &model.Availability{
		RoomID: "room-1", StartTime: at(10, 0), EndTime: at(11, 0), ExcludeID: existing.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.Available)

	_, err = f.service.CheckAvailability(context.Background(), &model.Availability{RoomID: "room-1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

// ────────────────────────────────────────────────
// Listing, calendar, statistics, export
// ────────────────────────────────────────────────

func TestGetAll_NormalizesPagination(t *testing.T) {
	f := newFixture(t)
	for i := range 3 {
		f.seed("room-1", at(9+i, 0), at(9+i, 30), model.StatusPending)
	}

	bookings, total, err := f.service.GetAll(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, bookings, 3)
}

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	existing := f.seed("room-1", at(10, 0), at(11, 0), model.StatusPending)

	found, err := f.service.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.Title, found.Title)

	_, err = f.service.GetByID(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)
	f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)
	f.seed("room-2", at(14, 0), at(15, 0), model.StatusPending)
	f.seed("room-1", at(10, 0).AddDate(0, 0, 1), at(11, 0).AddDate(0, 0, 1), model.StatusPending)

	events, err := f.service.Calendar(context.Background(), at(0, 0), "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Meeting Room B", events[0].RoomName)
	assert.Equal(t, "2025-03-11T10:00:00", events[0].Start)
	assert.Equal(t, "#28a745", events[0].BackgroundColor)

	filtered, err := f.service.Calendar(context.Background(), at(0, 0), "room-2")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Small Meeting Room", filtered[0].RoomName)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	today := fixedNow.Truncate(24 * time.Hour)
	f.seed("room-1", today.Add(7*time.Hour), today.Add(8*time.Hour), model.StatusApproved)
	f.seed("room-1", today.Add(12*time.Hour), today.Add(13*time.Hour), model.StatusApproved)
	f.seed("room-2", at(10, 0), at(11, 0), model.StatusPending)

	stats, err := f.service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.DashboardStats{
		TotalRooms:       2,
		TotalBookings:    3,
		TodayBookings:    2,
		UpcomingBookings: 2,
	}, stats)
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	f.seed("room-1", at(10, 0), at(11, 0), model.StatusApproved)

	data, err := f.service.Export(context.Background(), at(0, 0), at(0, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = f.service.Export(context.Background(), at(0, 0), at(0, 0))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, err = f.service.Export(context.Background(), at(0, 0), at(0, 0).AddDate(2, 0, 0))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
