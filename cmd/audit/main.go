package main

import (
	"roombook/internal/audit/handler"
	"roombook/internal/audit/repository"
	"roombook/internal/audit/service"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "audit"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Audit service")
	auditService := service.NewAuditService(repository.NewMongoEventRepository(cfg), cfg)
	metrics := kafka_middleware.NewMetrics()
	consumer := initConsumer(cfg, auditService, metrics)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewAuditHandler(auditService, metrics, cfg.Log))
	serverApp.AddWorker("booking-events-consumer", consumer.Start)
	serverApp.OnShutdown(func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	})
	serverApp.Run()
}

func initConsumer(cfg *config.Config, auditService service.AuditService, metrics *kafka_middleware.Metrics) *kafka.Consumer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.BookingEventsTopic, auditService.Record, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	cfg.Log.Info("Booking events consumer initialized",
		"topic", cfg.BookingEventsTopic,
		"group_id", kafkaCfg.ConsumerGroupID,
	)
	return consumer
}
