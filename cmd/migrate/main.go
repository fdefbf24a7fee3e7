package main

import (
	"context"
	"flag"
	"time"

	"roombook/internal/migrations"
	mongoMigration "roombook/internal/migrations/mongo"
	postgresMigration "roombook/internal/migrations/postgres"
	"roombook/internal/rooms/repository"
	"roombook/pkg/config"
)

const JobName = "migrate"

func main() {
	seed := flag.Bool("seed", true, "create the reference rooms when none exist")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "store", cfg.StoreDriver, "seed", *seed)

	var roomRepo repository.RoomRepository
	if cfg.UsesPostgres() {
		if err := postgresMigration.RunMigration(ctx, cfg.Client.Postgres, cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
		roomRepo = repository.NewPostgresRoomRepository(cfg)
	} else {
		db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
		if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
			cfg.Log.Fatal("Migration failed", "error", err)
		}
		roomRepo = repository.NewMongoRoomRepository(cfg)
	}

	if *seed {
		if _, err := migrations.SeedRooms(ctx, roomRepo, time.Now(), cfg.Log); err != nil {
			cfg.Log.Fatal("Seeding rooms failed", "error", err)
		}
	}

	cfg.Log.Info("Migration completed successfully")
}
