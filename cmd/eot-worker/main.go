package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	bookingsrepo "asiops/internal/bookings/repository"
	"asiops/internal/bookings/validator"
	jobsrepo "asiops/internal/jobs/repository"
	plannerservice "asiops/internal/planner/service"
	"asiops/internal/planner/worker"
	staffrepo "asiops/internal/staff/repository"
	"asiops/pkg/config"
	"asiops/pkg/events"
	"asiops/pkg/kafka"
	kafkaconfig "asiops/pkg/kafka/config"
	kafkamiddleware "asiops/pkg/kafka/middleware"
)

const (
	ServiceName     = "eot-worker"
	metricsInterval = time.Minute
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	metrics := kafkamiddleware.NewMetrics()
	publisher := initPublisher(cfg, kafkaCfg, metrics)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	plannerService := plannerservice.NewPlannerService(
		bookingsrepo.NewMongoBookingRepository(cfg),
		jobsrepo.NewMongoJobRepository(cfg),
		staffrepo.NewMongoStaffRepository(cfg),
		validator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	sweeper := worker.NewSweeper(plannerService, cfg.EOTSweepInterval, cfg.Log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("EOT sweeper stopped", "error", err)
		}
	}()

	if kafkaCfg.Enabled() {
		consumer, err := kafka.NewConsumer(kafkaCfg, cfg.BookingEventsTopic, cfg.EOTWorkerGroupID, sweeper.HandleMessage, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
		}
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(metrics.ConsumerMiddleware())

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				cfg.Log.Error("Booking events consumer stopped", "error", err)
			}
		}()
		defer func() {
			if err := consumer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka consumer", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			logMetrics(ctx, cfg, metrics)
		}()
	}

	cfg.Log.Info("EOT worker started",
		"sweep_interval", cfg.EOTSweepInterval,
		"kafka", kafkaCfg.Enabled(),
		"topic", cfg.BookingEventsTopic,
		"group_id", cfg.EOTWorkerGroupID,
	)

	<-ctx.Done()
	cfg.Log.Info("Shutdown signal received, stopping EOT worker")
	wg.Wait()
	metrics.Log(cfg.Log)
}

func initPublisher(cfg *config.Config, kafkaCfg *kafkaconfig.Config, metrics *kafkamiddleware.Metrics) events.Publisher {
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka disabled, EOT prompts are not published")
		return events.NopPublisher{}
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.ProducerMiddleware())
	return events.NewKafkaPublisher(producer, ServiceName)
}

func logMetrics(ctx context.Context, cfg *config.Config, metrics *kafkamiddleware.Metrics) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.Log(cfg.Log)
		}
	}
}
