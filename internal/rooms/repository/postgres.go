package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	"roombook/pkg/db"
	pgtx "roombook/pkg/db/postgres"
	"roombook/pkg/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const roomColumns = `id, name, description, capacity, has_projector, has_video_conference, floor_number, room_number, created_at`

type postgresRoomRepository struct {
	cfg       *config.Config
	conn      *sql.DB
	txManager db.TransactionManager
}

// NewPostgresRoomRepository stores rooms in PostgreSQL. Bookings reference
// rooms with ON DELETE CASCADE, so Delete removes them in the same statement.
func NewPostgresRoomRepository(cfg *config.Config) RoomRepository {
	return &postgresRoomRepository{
		cfg:       cfg,
		conn:      cfg.Client.Postgres,
		txManager: pgtx.NewTransactionManager(cfg.Client.Postgres),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*model.Room, error) {
	var room model.Room
	var description, roomNumber sql.NullString
	if err := row.Scan(
		&room.ID, &room.Name, &description, &room.Capacity, &room.HasProjector,
		&room.HasVideoConference, &room.FloorNumber, &roomNumber, &room.CreatedAt,
	); err != nil {
		return nil, err
	}
	room.Description = description.String
	room.RoomNumber = roomNumber.String
	room.CreatedAt = room.CreatedAt.UTC()
	return &room, nil
}

func parseRoomID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, id)
	}
	return nil
}

func (r *postgresRoomRepository) Create(ctx context.Context, room *model.Room) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id := uuid.NewString()
	_, err := pgtx.Conn(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, room.Name, room.Description, room.Capacity, room.HasProjector,
		room.HasVideoConference, room.FloorNumber, room.RoomNumber, room.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	room.ID = id
	return nil
}

func (r *postgresRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := parseRoomID(id); err != nil {
		return nil, err
	}

	room, err := scanRoom(pgtx.Conn(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return room, nil
}

func (r *postgresRoomRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Room, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if parseRoomID(id) == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*model.Room{}, nil
	}

	return r.query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ANY($1)`, pq.Array(valid))
}

func (r *postgresRoomRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	return r.query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *postgresRoomRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	if err := pgtx.Conn(ctx, r.conn).QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return count, nil
}

func (r *postgresRoomRepository) Update(ctx context.Context, id string, room *model.Room) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := parseRoomID(id); err != nil {
		return err
	}

	result, err := pgtx.Conn(ctx, r.conn).ExecContext(ctx,
		`UPDATE rooms SET name = $2, description = $3, capacity = $4, has_projector = $5,
			has_video_conference = $6, floor_number = $7, room_number = $8
		WHERE id = $1`,
		id, room.Name, room.Description, room.Capacity, room.HasProjector,
		room.HasVideoConference, room.FloorNumber, room.RoomNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
	}
	return nil
}

func (r *postgresRoomRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := parseRoomID(id); err != nil {
		return err
	}

	result, err := pgtx.Conn(ctx, r.conn).ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
	}
	return nil
}

func (r *postgresRoomRepository) query(ctx context.Context, query string, args ...any) ([]*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := pgtx.Conn(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*model.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}
