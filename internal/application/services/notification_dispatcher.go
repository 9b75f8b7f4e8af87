package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
)

// NotificationDispatcher turns appointment events from the bus into outbound
// messages. Delivery is best effort: a failed send is logged and dropped,
// never retried into the scheduling path.
type NotificationDispatcher struct {
	bus      providers.EventBus
	notifier providers.Notifier
}

// NewNotificationDispatcher creates a new dispatcher
func NewNotificationDispatcher(bus providers.EventBus, notifier providers.Notifier) *NotificationDispatcher {
	return &NotificationDispatcher{
		bus:      bus,
		notifier: notifier,
	}
}

// Run consumes appointment events until ctx is cancelled.
func (d *NotificationDispatcher) Run(ctx context.Context) error {
	events, err := d.bus.Subscribe(ctx, providers.EventChannelAppointments)
	if err != nil {
		return err
	}

	log.Info().Str("channel", providers.EventChannelAppointments).Msg("notification dispatcher started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification dispatcher stopping")
			return nil
		case event, ok := <-events:
			if !ok {
				log.Info().Msg("event channel closed, notification dispatcher stopping")
				return nil
			}
			d.handle(ctx, event)
		}
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, event *entities.AppointmentEvent) {
	switch event.Kind {
	case entities.NotificationCreated, entities.NotificationCancelled:
	default:
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := d.notifier.Send(sendCtx, event.Kind, &event.Snapshot); err != nil {
		log.Warn().Err(err).
			Str("kind", string(event.Kind)).
			Str("appointment_id", event.Snapshot.Appointment.ID).
			Msg("failed to send appointment notification")
	}
}
