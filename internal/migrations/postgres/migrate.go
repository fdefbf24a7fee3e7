package postgres

import (
	"context"
	"database/sql"
	"fmt"

	pgtx "roombook/pkg/db/postgres"
	"roombook/pkg/logger"
)

type Statement struct {
	Name string
	SQL  string
}

// Statements are idempotent and applied in order inside one transaction.
var Statements = []Statement{
	{
		Name: "btree_gist extension",
		SQL:  `CREATE EXTENSION IF NOT EXISTS btree_gist`,
	},
	{
		Name: "rooms table",
		SQL: `CREATE TABLE IF NOT EXISTS rooms (
	id                   UUID PRIMARY KEY,
	name                 VARCHAR(100) NOT NULL,
	description          VARCHAR(500),
	capacity             INTEGER NOT NULL CHECK (capacity BETWEEN 1 AND 500),
	has_projector        BOOLEAN NOT NULL DEFAULT FALSE,
	has_video_conference BOOLEAN NOT NULL DEFAULT FALSE,
	floor_number         INTEGER NOT NULL DEFAULT 0,
	room_number          VARCHAR(20),
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	},
	{
		Name: "bookings table",
		SQL: `CREATE TABLE IF NOT EXISTS bookings (
	id                  UUID PRIMARY KEY,
	room_id             UUID NOT NULL REFERENCES rooms (id) ON DELETE CASCADE,
	booked_by           VARCHAR(100) NOT NULL,
	email               VARCHAR(100) NOT NULL,
	contact_number      VARCHAR(20) NOT NULL,
	title               VARCHAR(200) NOT NULL,
	description         VARCHAR(1000),
	start_time          TIMESTAMPTZ NOT NULL,
	end_time            TIMESTAMPTZ NOT NULL,
	number_of_attendees INTEGER NOT NULL CHECK (number_of_attendees BETWEEN 1 AND 500),
	status              VARCHAR(20) NOT NULL CHECK (status IN ('Pending', 'Approved', 'Rejected', 'Cancelled')),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (end_time > start_time)
)`,
	},
	{
		Name: "bookings overlap constraint",
		SQL: `DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
			EXCLUDE USING gist (room_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
			WHERE (status IN ('Pending', 'Approved'));
	END IF;
END
$$`,
	},
	{
		Name: "bookings room index",
		SQL:  `CREATE INDEX IF NOT EXISTS bookings_room_start_idx ON bookings (room_id, start_time)`,
	},
	{
		Name: "bookings start index",
		SQL:  `CREATE INDEX IF NOT EXISTS bookings_start_idx ON bookings (start_time)`,
	},
	{
		Name: "bookings created index",
		SQL:  `CREATE INDEX IF NOT EXISTS bookings_created_idx ON bookings (created_at DESC, id DESC)`,
	},
}

func RunMigration(ctx context.Context, conn *sql.DB, log *logger.Logger) error {
	log.Info("Running PostgreSQL migrations", "statements", len(Statements))

	err := pgtx.NewTransactionManager(conn).ExecuteTransaction(ctx, func(ctx context.Context) error {
		for _, stmt := range Statements {
			if _, err := pgtx.Conn(ctx, conn).ExecContext(ctx, stmt.SQL); err != nil {
				return fmt.Errorf("failed to apply %s: %w", stmt.Name, err)
			}
			log.Info("Applied migration", "name", stmt.Name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("All PostgreSQL migrations applied")
	return nil
}
