package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roombook/internal/bookings/export"
	"roombook/internal/bookings/validator"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookingService struct {
	createFunc   func(ctx context.Context, booking *model.Booking) error
	replaceFunc  func(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error)
	availability *model.Availability
	calendarDate time.Time
	calendarRoom string
	exportFrom   time.Time
	exportTo     time.Time
	bookings     map[string]*model.Booking
}

func (m *mockBookingService) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "b-1"
	booking.Status = model.StatusPending
	return nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return b, nil
	}
	return nil, apperrors.NotFoundWithID("Booking", id)
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) Replace(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error) {
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, id, booking)
	}
	booking.ID = id
	return booking, nil
}

func (m *mockBookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	existing, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return updates.Merge(existing), nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	_, err := m.GetByID(ctx, id)
	return err
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, query *model.Availability) (*model.Availability, error) {
	m.availability = query
	result := *query
	result.Available = true
	return &result, nil
}

func (m *mockBookingService) Calendar(ctx context.Context, date time.Time, roomID string) ([]model.CalendarEvent, error) {
	m.calendarDate, m.calendarRoom = date, roomID
	return []model.CalendarEvent{{ID: "b-1", BackgroundColor: "#28a745"}}, nil
}

func (m *mockBookingService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	return &model.DashboardStats{TotalRooms: 4, TotalBookings: 9}, nil
}

func (m *mockBookingService) Export(ctx context.Context, from, to time.Time) ([]byte, error) {
	m.exportFrom, m.exportTo = from, to
	return []byte("xlsx"), nil
}

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newRouter(svc *mockBookingService) *httprouter.Router {
	h := NewBookingHandler(svc, time.UTC, logger.Discard())
	h.now = func() time.Time { return testNow }
	router := httprouter.New()
	h.RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const createBody = `{
	"room_id": "room-1",
	"booked_by": "Jane Doe",
	"email": "jane@example.com",
	"contact_number": "+15550100199",
	"title": "Design review",
	"start_time": "2025-03-11T10:00:00Z",
	"end_time": "2025-03-11T11:00:00Z",
	"number_of_attendees": 4
}`

func TestCreate(t *testing.T) {
	router := newRouter(&mockBookingService{})

	rec := serve(router, http.MethodPost, "/api/v1/bookings", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data model.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "b-1", body.Data.ID)
	assert.Equal(t, model.StatusPending, body.Data.Status)
	assert.Contains(t, rec.Body.String(), `"status":"Pending"`)
}

func TestCreate_UnknownFieldIsRejected(t *testing.T) {
	router := newRouter(&mockBookingService{})

	rec := serve(router, http.MethodPost, "/api/v1/bookings", `{"room":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_ValidationErrorsAreListed(t *testing.T) {
	router := newRouter(&mockBookingService{
		createFunc: func(ctx context.Context, booking *model.Booking) error {
			return apperrors.Validation("Booking validation failed", map[string]any{
				"errors": validator.RoomUnavailable(),
			})
		},
	})

	rec := serve(router, http.MethodPost, "/api/v1/bookings", createBody)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Code    string `json:"code"`
		Details struct {
			Errors []validator.ValidationError `json:"errors"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperrors.CodeValidation, body.Code)
	assert.Equal(t, []validator.ValidationError{{Field: "", Message: validator.MsgRoomUnavailable}}, body.Details.Errors)
}

func TestReplace_PassesPathID(t *testing.T) {
	var receivedID string
	router := newRouter(&mockBookingService{
		replaceFunc: func(ctx context.Context, id string, booking *model.Booking) (*model.Booking, error) {
			receivedID = id
			booking.ID = id
			return booking, nil
		},
	})

	rec := serve(router, http.MethodPut, "/api/v1/bookings/id/b-7", createBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b-7", receivedID)
}

func TestUpdateAndDelete(t *testing.T) {
	router := newRouter(&mockBookingService{
		bookings: map[string]*model.Booking{"b-1": {ID: "b-1", Title: "Standup", Status: model.StatusPending}},
	})

	rec := serve(router, http.MethodPatch, "/api/v1/bookings/id/b-1", `{"status":"Approved"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Approved"`)

	rec = serve(router, http.MethodPatch, "/api/v1/bookings/id/b-1", `{"status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodDelete, "/api/v1/bookings/id/b-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(router, http.MethodGet, "/api/v1/bookings/id/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailability(t *testing.T) {
	svc := &mockBookingService{}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet,
		"/api/v1/bookings/availability?room_id=room-1&start_time=2025-03-11T10:00&end_time=2025-03-11T11:00:00Z&exclude_id=b-3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, svc.availability)
	assert.Equal(t, "room-1", svc.availability.RoomID)
	assert.Equal(t, "b-3", svc.availability.ExcludeID)
	assert.Equal(t, time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), svc.availability.StartTime)
	assert.Contains(t, rec.Body.String(), `"available":true`)

	rec = serve(router, http.MethodGet, "/api/v1/bookings/availability?room_id=room-1&start_time=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendar(t *testing.T) {
	svc := &mockBookingService{}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/bookings/calendar?room_id=room-2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), svc.calendarDate)
	assert.Equal(t, "room-2", svc.calendarRoom)

	rec = serve(router, http.MethodGet, "/api/v1/bookings/calendar?date=2025-04-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), svc.calendarDate)

	rec = serve(router, http.MethodGet, "/api/v1/bookings/calendar?date=01/04/2025", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	router := newRouter(&mockBookingService{})

	rec := serve(router, http.MethodGet, "/api/v1/bookings/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_rooms":4`)
}

func TestExport(t *testing.T) {
	svc := &mockBookingService{}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/api/v1/bookings/export?from=2025-03-01&to=2025-03-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="bookings_20250301_20250331.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "xlsx", rec.Body.String())
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), svc.exportFrom)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), svc.exportTo)

	rec = serve(router, http.MethodGet, "/api/v1/bookings/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), svc.exportFrom)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), svc.exportTo)
}
