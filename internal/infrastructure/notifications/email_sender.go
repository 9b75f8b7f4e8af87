package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/clinic-scheduling/internal/domain/entities"
	"github.com/zatekoja/clinic-scheduling/internal/domain/providers"
	"github.com/zatekoja/clinic-scheduling/pkg/config"
)

// EmailSender delivers appointment notifications over SMTP. With no SMTP
// host configured it runs in log-only mode and reports every message as
// delivered, which keeps development environments working without a mail
// relay.
type EmailSender struct {
	cfg config.SMTPConfig
	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender creates a new SMTP-backed notifier
func NewEmailSender(cfg config.SMTPConfig) providers.Notifier {
	return &EmailSender{
		cfg:  cfg,
		send: smtp.SendMail,
	}
}

// Send delivers one notification about the appointment in the snapshot.
func (e *EmailSender) Send(ctx context.Context, kind entities.NotificationKind, snapshot *entities.AppointmentSnapshot) error {
	if snapshot.PatientEmail == "" {
		return fmt.Errorf("appointment %s: patient has no email address", snapshot.Appointment.ID)
	}

	subject, body := composeMessage(kind, snapshot)

	if e.cfg.Host == "" {
		log.Info().
			Str("kind", string(kind)).
			Str("to", snapshot.PatientEmail).
			Str("subject", subject).
			Msg("SMTP not configured, logging notification instead of sending")
		return nil
	}

	msg := buildMIME(e.cfg.From, snapshot.PatientEmail, subject, body)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- e.send(e.cfg.SMTPAddr(), auth, e.cfg.From, []string{snapshot.PatientEmail}, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send %s email to %s: %w", kind, snapshot.PatientEmail, err)
		}
	}

	log.Info().Str("kind", string(kind)).Str("to", snapshot.PatientEmail).Msg("notification email sent")
	return nil
}

func composeMessage(kind entities.NotificationKind, s *entities.AppointmentSnapshot) (subject, body string) {
	when := s.Appointment.StartAt.Format("2006-01-02 15:04")
	doctor := s.DoctorName
	if doctor == "" {
		doctor = "your doctor"
	}

	switch kind {
	case entities.NotificationCreated:
		subject = "Appointment confirmed"
		body = fmt.Sprintf(
			"Hello %s,\n\nYour appointment has been booked.\n\nDate and time: %s\nDoctor: %s\n\n"+
				"If you need to cancel, you can do so through the clinic.\n\nRegards,\nThe clinic team",
			s.PatientName, when, doctor,
		)
	case entities.NotificationCancelled:
		subject = "Appointment cancelled"
		body = fmt.Sprintf(
			"Hello %s,\n\nYour appointment scheduled for %s with %s has been CANCELLED.\n\nReason: %s\n\n"+
				"You can request a new appointment at any time.\n\nRegards,\nThe clinic team",
			s.PatientName, when, doctor, orUnspecified(s.Appointment.Reason),
		)
	case entities.NotificationReminder:
		subject = "Appointment reminder"
		hour := s.Appointment.StartAt.Format("15:04")
		if s.RoomDescription != "" {
			body = fmt.Sprintf("Reminder: tomorrow at %s in %s you have your appointment with %s.", hour, s.RoomDescription, doctor)
		} else {
			body = fmt.Sprintf("Reminder: tomorrow at %s you have your appointment with %s.", hour, doctor)
		}
	default:
		subject = "Appointment notification"
		body = fmt.Sprintf("Hello %s,\n\nThere is an update to your appointment on %s.", s.PatientName, when)
	}
	return subject, body
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}

func buildMIME(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
