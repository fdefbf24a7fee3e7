package main

import (
	"roombook/internal/rooms/handler"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/service"
	"roombook/internal/rooms/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
)

const ServiceName = "rooms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Rooms service")
	roomService := initServices(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewRoomHandler(roomService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.RoomService {
	var roomRepo repository.RoomRepository
	if cfg.UsesPostgres() {
		roomRepo = repository.NewPostgresRoomRepository(cfg)
	} else {
		roomRepo = repository.NewMongoRoomRepository(cfg)
	}

	roomService := service.NewRoomService(
		roomRepo,
		validator.NewRoomValidator(cfg.MaxRoomCapacity),
		cfg,
	)

	cfg.Log.Info("Room service initialized", "store", cfg.StoreDriver)
	return roomService
}
