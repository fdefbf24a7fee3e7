package migrations

import (
	"context"
	"fmt"
	"time"

	"roombook/internal/rooms/repository"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

// SeedRooms creates the reference rooms when the store has none and returns
// how many were created.
func SeedRooms(ctx context.Context, repo repository.RoomRepository, now time.Time, log *logger.Logger) (int, error) {
	count, err := repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	if count > 0 {
		log.Info("Rooms already present, skipping seed", "count", count)
		return 0, nil
	}

	created := 0
	err = repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		for _, room := range model.SeedRooms() {
			room.CreatedAt = now.UTC().Truncate(time.Millisecond)
			if err := repo.Create(ctx, room); err != nil {
				return fmt.Errorf("failed to seed room %q: %w", room.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info("Seeded rooms", "count", created)
	return created, nil
}
