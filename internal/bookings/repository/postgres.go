package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	"roombook/pkg/db"
	pgtx "roombook/pkg/db/postgres"
	"roombook/pkg/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const bookingColumns = `id, room_id, booked_by, email, contact_number, title, description,
	start_time, end_time, number_of_attendees, status, created_at`

type postgresBookingRepository struct {
	cfg       *config.Config
	conn      *sql.DB
	txManager db.TransactionManager
}

// NewPostgresBookingRepository stores bookings in PostgreSQL. Overlapping
// active bookings are rejected by the bookings_no_overlap exclusion
// constraint and surface as ErrTimeConflict.
func NewPostgresBookingRepository(cfg *config.Config) BookingRepository {
	return &postgresBookingRepository{
		cfg:       cfg,
		conn:      cfg.Client.Postgres,
		txManager: pgtx.NewTransactionManager(cfg.Client.Postgres),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var description sql.NullString
	if err := row.Scan(
		&b.ID, &b.RoomID, &b.BookedBy, &b.Email, &b.ContactNumber, &b.Title, &description,
		&b.StartTime, &b.EndTime, &b.NumberOfAttendees, &b.Status, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.Description = description.String
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func validUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return nil
}

func (r *postgresBookingRepository) mapWriteError(op string, err error) error {
	switch {
	case pgtx.IsExclusionViolation(err):
		return fmt.Errorf("%w: %v", bookingserrors.ErrTimeConflict, err)
	case pgtx.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", roomserrors.ErrNotFound, err)
	default:
		return fmt.Errorf("failed to %s booking: %w", op, err)
	}
}

func (r *postgresBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := uuid.Parse(booking.RoomID); err != nil {
		return fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, booking.RoomID)
	}

	id := uuid.NewString()
	_, err := pgtx.Conn(ctx, r.conn).ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, booking.RoomID, booking.BookedBy, booking.Email, booking.ContactNumber, booking.Title, booking.Description,
		booking.StartTime, booking.EndTime, booking.NumberOfAttendees, booking.Status, booking.CreatedAt,
	)
	if err != nil {
		return r.mapWriteError("create", err)
	}

	booking.ID = id
	return nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := validUUID(id); err != nil {
		return nil, err
	}

	row := pgtx.Conn(ctx, r.conn).QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *postgresBookingRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings`)
}

func (r *postgresBookingRepository) Replace(ctx context.Context, id string, booking *model.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validUUID(id); err != nil {
		return err
	}
	if _, err := uuid.Parse(booking.RoomID); err != nil {
		return fmt.Errorf("%w: %s", roomserrors.ErrInvalidID, booking.RoomID)
	}

	result, err := pgtx.Conn(ctx, r.conn).ExecContext(ctx,
		`UPDATE bookings SET room_id = $2, booked_by = $3, email = $4, contact_number = $5, title = $6,
			description = $7, start_time = $8, end_time = $9, number_of_attendees = $10, status = $11, created_at = $12
		WHERE id = $1`,
		id, booking.RoomID, booking.BookedBy, booking.Email, booking.ContactNumber, booking.Title,
		booking.Description, booking.StartTime, booking.EndTime, booking.NumberOfAttendees, booking.Status, booking.CreatedAt,
	)
	if err != nil {
		return r.mapWriteError("update", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return bookingserrors.ErrNotFound
	}

	booking.ID = id
	return nil
}

func (r *postgresBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validUUID(id); err != nil {
		return err
	}

	result, err := pgtx.Conn(ctx, r.conn).ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *postgresBookingRepository) FindActiveByRoom(ctx context.Context, roomID string, from, to time.Time) ([]*model.Booking, error) {
	if _, err := uuid.Parse(roomID); err != nil {
		return []*model.Booking{}, nil
	}
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = $1 AND status = ANY($2) AND start_time <= $3 AND end_time >= $4
		ORDER BY start_time`,
		roomID, pq.Array(model.ActiveStatusNames()), to, from)
}

func (r *postgresBookingRepository) FindStartingBetween(ctx context.Context, from, to time.Time, roomID string) ([]*model.Booking, error) {
	if roomID == "" {
		return r.query(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE start_time >= $1 AND start_time < $2 ORDER BY start_time`,
			from, to)
	}
	if _, err := uuid.Parse(roomID); err != nil {
		return []*model.Booking{}, nil
	}
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE start_time >= $1 AND start_time < $2 AND room_id = $3 ORDER BY start_time`,
		from, to, roomID)
}

func (r *postgresBookingRepository) CountStartingBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings WHERE start_time >= $1 AND start_time < $2`, from, to)
}

func (r *postgresBookingRepository) CountStartingAfter(ctx context.Context, after time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM bookings WHERE start_time > $1`, after)
}

func (r *postgresBookingRepository) ExecuteTransaction(ctx context.Context, fn db.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *postgresBookingRepository) query(ctx context.Context, query string, args ...any) ([]*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := pgtx.Conn(ctx, r.conn).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (r *postgresBookingRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	if err := pgtx.Conn(ctx, r.conn).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}
