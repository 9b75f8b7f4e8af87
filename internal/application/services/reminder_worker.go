package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
	"github.com/zatekoja/clinic-scheduling/internal/domain/repositories"
	"github.com/zatekoja/clinic-scheduling/internal/infrastructure/observability"
)

// ReminderWorker sends ahead-of-time reminders for upcoming appointments.
// Each tick scans the window [now+lead, now+lead+interval); the receipt
// ledger deduplicates, so restarts and overlapping scans never produce a
// second reminder for the same appointment.
type ReminderWorker struct {
	appointments repositories.AppointmentRepository
	ledger       repositories.ReminderLedger
	notifier     providers.Notifier
	metrics      *observability.Metrics
	snap         snapshotBuilder

	lead     time.Duration
	interval time.Duration
	// now is swappable for tests.
	now func() time.Time
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(
	appointments repositories.AppointmentRepository,
	ledger repositories.ReminderLedger,
	notifier providers.Notifier,
	doctors repositories.DoctorRepository,
	patients repositories.PatientRepository,
	rooms repositories.RoomRepository,
	metrics *observability.Metrics,
	lead, interval time.Duration,
) *ReminderWorker {
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReminderWorker{
		appointments: appointments,
		ledger:       ledger,
		notifier:     notifier,
		metrics:      metrics,
		snap:         snapshotBuilder{doctors: doctors, patients: patients, rooms: rooms},
		lead:         lead,
		interval:     interval,
		now:          time.Now,
	}
}

// WithClock overrides the time source used for scan windows.
func (w *ReminderWorker) WithClock(now func() time.Time) *ReminderWorker {
	w.now = now
	return w
}

// Run scans periodically until ctx is cancelled.
func (w *ReminderWorker) Run(ctx context.Context) {
	log.Info().Dur("lead", w.lead).Dur("interval", w.interval).Msg("reminder worker started")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reminder worker stopping")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	if sent, err := w.Sweep(scanCtx); err != nil {
		log.Warn().Err(err).Msg("reminder sweep failed")
	} else if sent > 0 {
		log.Info().Int("sent", sent).Msg("reminders sent")
	}
}

// Sweep sends one reminder for each not-yet-reminded appointment starting
// within [now+lead, now+lead+interval) and returns how many went out.
func (w *ReminderWorker) Sweep(ctx context.Context) (int, error) {
	from := w.now().Add(w.lead)
	to := from.Add(w.interval)

	upcoming, err := w.appointments.List(ctx, repositories.AppointmentFilter{
		From:       &from,
		To:         &to,
		Attendance: entities.AttendancePending,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, appointment := range upcoming {
		delivered, err := w.remind(ctx, appointment)
		if err != nil {
			log.Warn().Err(err).Str("appointment_id", appointment.ID).Msg("failed to send reminder")
			continue
		}
		if delivered {
			sent++
		}
	}
	return sent, nil
}

func (w *ReminderWorker) remind(ctx context.Context, appointment *entities.Appointment) (bool, error) {
	alreadySent, err := w.ledger.AlreadySent(ctx, appointment.ID)
	if err != nil {
		return false, err
	}
	if alreadySent {
		return false, nil
	}

	snapshot, err := w.snap.snapshot(ctx, appointment)
	if err != nil {
		return false, err
	}
	if err := w.notifier.Send(ctx, entities.NotificationReminder, snapshot); err != nil {
		return false, err
	}

	// Mark only after a successful send; an unsent reminder stays eligible
	// for the next scan.
	if err := w.ledger.MarkSent(ctx, appointment.ID); err != nil {
		return false, err
	}
	if w.metrics != nil {
		w.metrics.RemindersSent.Add(ctx, 1)
	}
	return true, nil
}
