package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryEventRepository struct {
	events  map[string]*model.BookingEvent
	saveErr error
	limit   int
	offset  int64
}

func newMemoryEventRepository() *memoryEventRepository {
	return &memoryEventRepository{events: map[string]*model.BookingEvent{}}
}

func (r *memoryEventRepository) Save(ctx context.Context, event *model.BookingEvent) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, exists := r.events[event.EventID]; !exists {
		r.events[event.EventID] = event
	}
	return nil
}

func (r *memoryEventRepository) Find(ctx context.Context, bookingID string, limit int, offset int64) ([]*model.BookingEvent, error) {
	r.limit, r.offset = limit, offset
	events := []*model.BookingEvent{}
	for _, e := range r.events {
		if bookingID == "" || e.BookingID == bookingID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (r *memoryEventRepository) Count(ctx context.Context, bookingID string) (int64, error) {
	events, _ := r.Find(ctx, bookingID, 0, 0)
	return int64(len(events)), nil
}

var receivedAt = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newService(repo *memoryEventRepository) *auditService {
	svc := NewAuditService(repo, &config.Config{Log: logger.Discard()}).(*auditService)
	svc.now = func() time.Time { return receivedAt }
	return svc
}

func eventMessage(t *testing.T, event *model.BookingEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{
		Key:   event.RoomID,
		Value: value,
		Headers: map[string]string{
			kafka.HeaderEventID:   "header-id",
			kafka.HeaderEventType: event.Type,
		},
	}
}

func sampleEvent() *model.BookingEvent {
	return &model.BookingEvent{
		EventID:    "evt-1",
		Type:       model.EventBookingCreated,
		BookingID:  "b-1",
		RoomID:     "room-1",
		Status:     model.StatusPending,
		StartTime:  time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC),
		OccurredAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestRecord_StoresEvent(t *testing.T) {
	repo := newMemoryEventRepository()
	svc := newService(repo)

	require.NoError(t, svc.Record(context.Background(), eventMessage(t, sampleEvent())))

	stored, ok := repo.events["evt-1"]
	require.True(t, ok)
	assert.Equal(t, "b-1", stored.BookingID)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, receivedAt, stored.ReceivedAt)
}

func TestRecord_IsIdempotent(t *testing.T) {
	repo := newMemoryEventRepository()
	svc := newService(repo)
	msg := eventMessage(t, sampleEvent())

	require.NoError(t, svc.Record(context.Background(), msg))
	require.NoError(t, svc.Record(context.Background(), msg))
	assert.Len(t, repo.events, 1)
}

func TestRecord_FallsBackToHeaderEventID(t *testing.T) {
	repo := newMemoryEventRepository()
	svc := newService(repo)
	event := sampleEvent()
	event.EventID = ""

	require.NoError(t, svc.Record(context.Background(), eventMessage(t, event)))
	assert.Contains(t, repo.events, "header-id")
}

func TestRecord_ClassifiesFailures(t *testing.T) {
	unknownType := sampleEvent()
	unknownType.Type = "booking.archived"

	tests := []struct {
		name    string
		msg     func(t *testing.T) kafka.Message
		saveErr error
		want    kafka.ErrorType
	}{
		{
			name: "undecodable payload",
			msg: func(t *testing.T) kafka.Message {
				return kafka.Message{Value: []byte("{not json")}
			},
			want: kafka.ErrorTypePermanent,
		},
		{
			name: "unknown event type",
			msg:  func(t *testing.T) kafka.Message { return eventMessage(t, unknownType) },
			want: kafka.ErrorTypePermanent,
		},
		{
			name:    "store failure",
			msg:     func(t *testing.T) kafka.Message { return eventMessage(t, sampleEvent()) },
			saveErr: errors.New("server selection error"),
			want:    kafka.ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemoryEventRepository()
			repo.saveErr = tt.saveErr
			svc := newService(repo)

			err := svc.Record(context.Background(), tt.msg(t))
			require.Error(t, err)
			assert.Equal(t, tt.want, kafka.ClassifyError(err))
			assert.Empty(t, repo.events)
		})
	}
}

func TestList_NormalizesPagination(t *testing.T) {
	repo := newMemoryEventRepository()
	svc := newService(repo)
	require.NoError(t, svc.Record(context.Background(), eventMessage(t, sampleEvent())))

	events, total, err := svc.List(context.Background(), "b-1", 0, -5)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, config.DefaultPageSize, repo.limit)
	assert.Equal(t, int64(0), repo.offset)

	events, total, err = svc.List(context.Background(), "b-2", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, total)
	assert.False(t, apperrors.IsAppError(err))
}
