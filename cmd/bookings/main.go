package main

import (
	"roombook/internal/bookings/availability"
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/handler"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/service"
	"roombook/internal/bookings/validator"
	roomrepo "roombook/internal/rooms/repository"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")
	publisher := initPublisher(cfg)
	bookingService := initServices(cfg, publisher)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewBookingHandler(bookingService, cfg.Location, cfg.Log))
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events are not published")
		return events.NewNopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	cfg.Log.Info("Booking events publisher initialized", "topic", cfg.BookingEventsTopic)
	return events.NewKafkaPublisher(producer)
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	var (
		bookingRepo repository.BookingRepository
		lockRepo    repository.BookingLockRepository
		roomRepo    roomrepo.RoomRepository
	)
	if cfg.UsesPostgres() {
		bookingRepo = repository.NewPostgresBookingRepository(cfg)
		roomRepo = roomrepo.NewPostgresRoomRepository(cfg)
	} else {
		bookingRepo = repository.NewMongoBookingRepository(cfg)
		lockRepo = repository.NewBookingLockRepository(cfg)
		roomRepo = roomrepo.NewMongoRoomRepository(cfg)
	}

	checker := availability.NewChecker(bookingRepo)
	bookingValidator := validator.NewBookingValidator(cfg.Log, checker, roomRepo)
	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		roomRepo,
		checker,
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "store", cfg.StoreDriver)
	return bookingService
}
