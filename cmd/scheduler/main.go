package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinic-scheduling/internal/adapters/database"
	"github.com/zatekoja/clinic-scheduling/internal/adapters/events"
	"github.com/zatekoja/clinic-scheduling/internal/application/services"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/notifications"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/observability"
	"github.com/zatekoja/clinic-scheduling/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Warn().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure database schema")
	}

	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		// Scheduling still works without the bus; created/cancelled emails
		// just stop flowing.
		log.Warn().Err(err).Msg("failed to initialize Redis client, event notifications disabled")
	} else {
		defer redisClient.Close()
	}

	// Adapters
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	workingHoursAdapter := database.NewWorkingHoursAdapter(pgClient)
	doctorAdapter := database.NewDoctorAdapter(pgClient)
	patientAdapter := database.NewPatientAdapter(pgClient)
	roomAdapter := database.NewRoomAdapter(pgClient)
	reminderLedger := database.NewReminderLedgerAdapter(pgClient)
	roleDirectory := database.NewRoleDirectoryAdapter(pgClient)

	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
	}

	notifier := notifications.NewEmailSender(cfg.SMTP)

	// Services
	policy := services.NewPolicy(roleDirectory, doctorAdapter, patientAdapter)

	attendanceService, err := services.NewAttendanceService(
		appointmentAdapter, policy, metrics, cfg.Scheduler.NoShowCutoff,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize attendance service")
	}

	// The engine handle is what a hosting application embeds to schedule;
	// this binary only runs the background loops below.
	engine := services.NewEngine(
		services.NewWorkingHoursService(workingHoursAdapter, policy),
		services.NewSlotService(workingHoursAdapter, appointmentAdapter),
		services.NewSchedulerService(
			appointmentAdapter,
			workingHoursAdapter,
			doctorAdapter,
			patientAdapter,
			roomAdapter,
			policy,
			eventBus,
			metrics,
			cfg.Scheduler.HorizonMonths,
		),
		attendanceService,
	)

	if eventBus != nil {
		dispatcher := services.NewNotificationDispatcher(eventBus, notifier)
		go func() {
			if err := dispatcher.Run(ctx); err != nil {
				log.Error().Err(err).Msg("notification dispatcher stopped with error")
			}
		}()
	}

	reminderWorker := services.NewReminderWorker(
		appointmentAdapter,
		reminderLedger,
		notifier,
		doctorAdapter,
		patientAdapter,
		roomAdapter,
		metrics,
		cfg.Scheduler.ReminderLead,
		cfg.Scheduler.ReminderInterval,
	)
	go reminderWorker.Run(ctx)

	// Close out past days once at startup, then hourly.
	go func() {
		sweep := func() {
			sweepCtx, sweepCancel := context.WithTimeout(ctx, time.Minute)
			defer sweepCancel()
			if _, err := engine.Attendance.CloseDay(sweepCtx, time.Now()); err != nil {
				log.Warn().Err(err).Msg("day-close sweep failed")
			}
		}
		sweep()

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()

	log.Info().Msg("scheduling engine started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("scheduling engine stopped")
}
