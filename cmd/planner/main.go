package main

import (
	"context"

	bookinghandler "asiops/internal/bookings/handler"
	bookingsrepo "asiops/internal/bookings/repository"
	bookingservice "asiops/internal/bookings/service"
	"asiops/internal/bookings/validator"
	jobsrepo "asiops/internal/jobs/repository"
	"asiops/internal/live"
	plannerhandler "asiops/internal/planner/handler"
	plannerservice "asiops/internal/planner/service"
	staffhandler "asiops/internal/staff/handler"
	staffrepo "asiops/internal/staff/repository"
	staffservice "asiops/internal/staff/service"
	"asiops/pkg/app"
	"asiops/pkg/config"
	"asiops/pkg/events"
	"asiops/pkg/kafka"
	kafkaconfig "asiops/pkg/kafka/config"
	kafkamiddleware "asiops/pkg/kafka/middleware"
)

const ServiceName = "planner"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Planner service")

	hub := live.NewHub(cfg.CORSAllowedOrigins, cfg.Log)
	publisher := initPublisher(cfg, hub)

	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	jobRepo := jobsrepo.NewMongoJobRepository(cfg)
	staffRepo := staffrepo.NewMongoStaffRepository(cfg)
	bookingValidator := validator.NewBookingValidator(cfg.Log)

	bookingService := bookingservice.NewBookingService(bookingRepo, bookingValidator, publisher, cfg)
	plannerService := plannerservice.NewPlannerService(bookingRepo, jobRepo, staffRepo, bookingValidator, publisher, cfg)
	staffService := staffservice.NewStaffService(staffRepo, cfg)
	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName, "time_zone", cfg.PlannerTimeZone)

	serverApp := app.NewApplication(cfg)
	serverApp.AddStream("/api/v1/planner/live", hub)
	serverApp.OnShutdown(func(context.Context) {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publishers", "error", err)
		}
	})
	serverApp.SetApp(
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		plannerhandler.NewPlannerHandler(plannerService, cfg.PlannerTimeZone, cfg.Log),
		staffhandler.NewStaffHandler(staffService, cfg.Log),
	)
	serverApp.Run()
}

// initPublisher always feeds the live hub, and Kafka when brokers are set.
func initPublisher(cfg *config.Config, hub *live.Hub) events.Publisher {
	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka disabled, booking events go to the live feed only")
		return events.Fanout{hub}
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	metrics := kafkamiddleware.NewMetrics()
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.ProducerMiddleware())

	kafkaPublisher := events.NewKafkaPublisher(producer, ServiceName)
	return events.Fanout{publisherWithMetrics{Publisher: kafkaPublisher, metrics: metrics, cfg: cfg}, hub}
}

// publisherWithMetrics logs the producer counters once on shutdown.
type publisherWithMetrics struct {
	events.Publisher
	metrics *kafkamiddleware.Metrics
	cfg     *config.Config
}

func (p publisherWithMetrics) Close() error {
	p.metrics.Log(p.cfg.Log)
	return p.Publisher.Close()
}
