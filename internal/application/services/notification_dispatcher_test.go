package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/clinic-scheduling/internal/application/services"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
)

func dispatcherEvent(kind entities.NotificationKind) *entities.AppointmentEvent {
	return &entities.AppointmentEvent{
		ID:   "evt-1",
		Kind: kind,
		Snapshot: entities.AppointmentSnapshot{
			Appointment: entities.Appointment{
				ID:      "apt-1",
				StartAt: time.Date(2026, 9, 8, 10, 0, 0, 0, time.UTC),
			},
			PatientName:  "Ana Lopez",
			PatientEmail: "ana@example.com",
		},
		OccurredAt: time.Now(),
	}
}

func runDispatcher(t *testing.T, bus *MockEventBus, notifier *MockNotifier, events chan *entities.AppointmentEvent) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	bus.On("Subscribe", mock.Anything, providers.EventChannelAppointments).Return(events, nil)

	dispatcher := services.NewNotificationDispatcher(bus, notifier)
	done := make(chan struct{})
	go func() {
		_ = dispatcher.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("dispatcher did not stop")
		}
	})
	return cancel
}

func TestNotificationDispatcher(t *testing.T) {
	t.Run("sends created and cancelled events", func(t *testing.T) {
		bus := new(MockEventBus)
		notifier := new(MockNotifier)
		events := make(chan *entities.AppointmentEvent, 2)

		sent := make(chan entities.NotificationKind, 2)
		notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				sent <- args.Get(1).(entities.NotificationKind)
			}).Return(nil)

		runDispatcher(t, bus, notifier, events)
		events <- dispatcherEvent(entities.NotificationCreated)
		events <- dispatcherEvent(entities.NotificationCancelled)

		for _, want := range []entities.NotificationKind{entities.NotificationCreated, entities.NotificationCancelled} {
			select {
			case kind := <-sent:
				require.Equal(t, want, kind)
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for %s notification", want)
			}
		}
	})

	t.Run("a send failure does not stop the dispatcher", func(t *testing.T) {
		bus := new(MockEventBus)
		notifier := new(MockNotifier)
		events := make(chan *entities.AppointmentEvent, 2)

		sent := make(chan struct{}, 2)
		notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { sent <- struct{}{} }).
			Return(errors.New("smtp down")).Once()
		notifier.On("Send", mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { sent <- struct{}{} }).
			Return(nil).Once()

		runDispatcher(t, bus, notifier, events)
		events <- dispatcherEvent(entities.NotificationCreated)
		events <- dispatcherEvent(entities.NotificationCreated)

		for i := 0; i < 2; i++ {
			select {
			case <-sent:
			case <-time.After(2 * time.Second):
				t.Fatal("timed out waiting for dispatcher to process events")
			}
		}
	})

	t.Run("ignores reminder events on the bus", func(t *testing.T) {
		bus := new(MockEventBus)
		notifier := new(MockNotifier)
		events := make(chan *entities.AppointmentEvent, 1)

		runDispatcher(t, bus, notifier, events)
		events <- dispatcherEvent(entities.NotificationReminder)

		time.Sleep(50 * time.Millisecond)
		notifier.AssertNotCalled(t, "Send")
	})
}
