package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	"roombook/pkg/db"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// In-memory repository for testing
// ────────────────────────────────────────────────

type memoryRoomRepository struct {
	rooms   map[string]*model.Room
	nextID  int
	findErr error
	counted atomic.Int32
}

func newMemoryRepo(rooms ...*model.Room) *memoryRoomRepository {
	repo := &memoryRoomRepository{rooms: map[string]*model.Room{}}
	for _, r := range rooms {
		_ = repo.Create(context.Background(), r)
	}
	return repo
}

func (m *memoryRoomRepository) Create(ctx context.Context, room *model.Room) error {
	m.nextID++
	room.ID = fmt.Sprintf("room-%d", m.nextID)
	stored := *room
	m.rooms[room.ID] = &stored
	return nil
}

func (m *memoryRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	room, ok := m.rooms[id]
	if !ok {
		return nil, roomserrors.ErrNotFound
	}
	copied := *room
	return &copied, nil
}

func (m *memoryRoomRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Room, error) {
	var rooms []*model.Room
	for _, id := range ids {
		if room, ok := m.rooms[id]; ok {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

func (m *memoryRoomRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	var rooms []*model.Room
	for i := 1; i <= m.nextID; i++ {
		if room, ok := m.rooms[fmt.Sprintf("room-%d", i)]; ok {
			rooms = append(rooms, room)
		}
	}
	if int(offset) >= len(rooms) {
		return []*model.Room{}, nil
	}
	rooms = rooms[offset:]
	if len(rooms) > limit {
		rooms = rooms[:limit]
	}
	return rooms, nil
}

func (m *memoryRoomRepository) Count(ctx context.Context) (int64, error) {
	m.counted.Add(1)
	return int64(len(m.rooms)), nil
}

func (m *memoryRoomRepository) Update(ctx context.Context, id string, room *model.Room) error {
	if _, ok := m.rooms[id]; !ok {
		return roomserrors.ErrNotFound
	}
	stored := *room
	m.rooms[id] = &stored
	return nil
}

func (m *memoryRoomRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.rooms[id]; !ok {
		return roomserrors.ErrNotFound
	}
	delete(m.rooms, id)
	return nil
}

func (m *memoryRoomRepository) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return db.Passthrough().ExecuteTransaction(ctx, fn)
}

func newTestService(repo *memoryRoomRepository) *roomService {
	cfg := &config.Config{Log: logger.Discard(), ReadTimeout: time.Second}
	svc := NewRoomService(repo, validator.NewRoomValidator(500), cfg).(*roomService)
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %v", err)
	return appErr.Code
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_SanitizesAndStamps(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	room := &model.Room{Name: "  Board   Room ", Capacity: 15}
	require.NoError(t, svc.Create(context.Background(), room))

	stored := repo.rooms[room.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "Board Room", stored.Name)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), stored.CreatedAt)
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	err := svc.Create(context.Background(), &model.Room{Name: "", Capacity: 0})
	assert.Equal(t, apperrors.CodeValidation, appErrorCode(t, err))

	details := apperrors.AsAppError(err).Details
	verrs, ok := details["errors"].(validator.ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs, 2)
}

func TestGetByID_Errors(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.GetByID(context.Background(), "")
	assert.Equal(t, apperrors.CodeInvalidInput, appErrorCode(t, err))

	_, err = svc.GetByID(context.Background(), "missing")
	assert.Equal(t, apperrors.CodeNotFound, appErrorCode(t, err))

	repo.findErr = fmt.Errorf("%w: abc", roomserrors.ErrInvalidID)
	_, err = svc.GetByID(context.Background(), "abc")
	assert.Equal(t, apperrors.CodeInvalidInput, appErrorCode(t, err))

	repo.findErr = errors.New("connection reset")
	_, err = svc.GetByID(context.Background(), "abc")
	assert.Equal(t, apperrors.CodeInternal, appErrorCode(t, err))
}

func TestGetAll_Pagination(t *testing.T) {
	repo := newMemoryRepo(model.SeedRooms()...)
	svc := newTestService(repo)

	rooms, total, err := svc.GetAll(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Meeting Room B", rooms[0].Name)
	assert.Equal(t, int32(1), repo.counted.Load())
}

func TestGetAll_LimitNormalization(t *testing.T) {
	svc := newTestService(newMemoryRepo(model.SeedRooms()...))

	rooms, _, err := svc.GetAll(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Len(t, rooms, 4)
}

func TestUpdate_MergesPartialEdit(t *testing.T) {
	repo := newMemoryRepo(model.SeedRooms()...)
	svc := newTestService(repo)
	capacity := 12

	updated, err := svc.Update(context.Background(), "room-2", &model.RoomUpdate{Capacity: &capacity})
	require.NoError(t, err)

	assert.Equal(t, 12, updated.Capacity)
	assert.Equal(t, "Meeting Room B", updated.Name)
	assert.Equal(t, 12, repo.rooms["room-2"].Capacity)
}

func TestUpdate_RejectsInvalidMerge(t *testing.T) {
	svc := newTestService(newMemoryRepo(model.SeedRooms()...))
	capacity := 0

	_, err := svc.Update(context.Background(), "room-1", &model.RoomUpdate{Capacity: &capacity})
	assert.Equal(t, apperrors.CodeValidation, appErrorCode(t, err))
}

func TestDelete(t *testing.T) {
	repo := newMemoryRepo(model.SeedRooms()...)
	svc := newTestService(repo)

	require.NoError(t, svc.Delete(context.Background(), "room-1"))
	assert.NotContains(t, repo.rooms, "room-1")

	err := svc.Delete(context.Background(), "room-1")
	assert.Equal(t, apperrors.CodeNotFound, appErrorCode(t, err))
}

func TestGetCapacity(t *testing.T) {
	svc := newTestService(newMemoryRepo(model.SeedRooms()...))

	capacity, err := svc.GetCapacity(context.Background(), "room-4")
	require.NoError(t, err)
	assert.Equal(t, &model.RoomCapacity{RoomID: "room-4", Capacity: 6}, capacity)
}
