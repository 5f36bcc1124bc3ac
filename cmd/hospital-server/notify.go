package main

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospital/hospital-api/internal/domain/appointment"
	"github.com/hospital/hospital-api/internal/domain/doctor"
	"github.com/hospital/hospital-api/internal/domain/identity"
	"github.com/hospital/hospital-api/internal/domain/schedule"
	"github.com/hospital/hospital-api/internal/platform/notification"
)

// userLookup is the slice of the identity service the notifiers need.
type userLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// doctorLookup resolves an appointment's doctor to their profile.
type doctorLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

// bookingNotifier implements appointment.Notifier on top of the template
// engine. Lookups can fail after the booking is already committed, so every
// failure is logged and swallowed.
type bookingNotifier struct {
	notify  *notification.Service
	users   userLookup
	doctors doctorLookup
	baseURL string
	log     zerolog.Logger
}

func (n *bookingNotifier) BookingConfirmed(ctx context.Context, a *appointment.Appointment) {
	patient, doctorName, ok := n.resolve(ctx, a)
	if !ok {
		return
	}
	n.notify.Notify(ctx, notification.TemplateAppointmentConfirmation, patient.Email, map[string]string{
		"patient_name": patient.FirstName + " " + patient.LastName,
		"doctor_name":  doctorName,
		"date":         a.Date.Format(schedule.DateLayout),
		"time":         a.TimeOfDay,
		"fee":          a.Fee.StringFixed(2),
		"cancel_link":  cancelLink(n.baseURL, a.ID, a.CancelToken),
	})
}

func (n *bookingNotifier) BookingCancelled(ctx context.Context, a *appointment.Appointment) {
	patient, doctorName, ok := n.resolve(ctx, a)
	if !ok {
		return
	}
	n.notify.Notify(ctx, notification.TemplateAppointmentCancelled, patient.Email, map[string]string{
		"patient_name": patient.FirstName + " " + patient.LastName,
		"doctor_name":  doctorName,
		"date":         a.Date.Format(schedule.DateLayout),
		"time":         a.TimeOfDay,
	})
}

func (n *bookingNotifier) PatientSMS(ctx context.Context, m *appointment.SMSMessage) {
	patient, err := n.users.Get(ctx, m.PatientID)
	if err != nil {
		n.log.Error().Err(err).Stringer("patient_id", m.PatientID).Msg("sms notification: patient lookup failed")
		return
	}
	phone := ""
	if patient.Phone != nil {
		phone = *patient.Phone
	}
	n.notify.Notify(ctx, notification.TemplateDoctorSMS, phone, map[string]string{
		"message": m.Message,
	})
}

func (n *bookingNotifier) resolve(ctx context.Context, a *appointment.Appointment) (*identity.User, string, bool) {
	patient, err := n.users.Get(ctx, a.PatientID)
	if err != nil {
		n.log.Error().Err(err).Stringer("patient_id", a.PatientID).Msg("booking notification: patient lookup failed")
		return nil, "", false
	}
	doc, err := n.doctors.Get(ctx, a.DoctorID)
	if err != nil {
		n.log.Error().Err(err).Stringer("doctor_id", a.DoctorID).Msg("booking notification: doctor lookup failed")
		return nil, "", false
	}
	docUser, err := n.users.Get(ctx, doc.UserID)
	if err != nil {
		n.log.Error().Err(err).Stringer("user_id", doc.UserID).Msg("booking notification: doctor account lookup failed")
		return nil, "", false
	}
	return patient, doctorDisplayName(doc, docUser), true
}

func doctorDisplayName(d *doctor.Doctor, u *identity.User) string {
	title := "Dr."
	if d.Title != nil && *d.Title != "" {
		title = *d.Title
	}
	return title + " " + u.FirstName + " " + u.LastName
}

func cancelLink(baseURL string, appointmentID uuid.UUID, token string) string {
	return fmt.Sprintf("%s/api/v1/appointments/%s/cancel?token=%s",
		strings.TrimRight(baseURL, "/"), appointmentID, token)
}

func resetLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password?token=" + token
}

// resetNotifier implements identity.Notifier.
type resetNotifier struct {
	notify  *notification.Service
	baseURL string
}

func (n *resetNotifier) PasswordReset(ctx context.Context, u *identity.User, token string) {
	n.notify.Notify(ctx, notification.TemplatePasswordReset, u.Email, map[string]string{
		"reset_link": resetLink(n.baseURL, token),
	})
}

// smtpSender delivers mail through a plain SMTP relay. host carries the
// host:port of the relay; unauthenticated submission is assumed, which is
// how the hospital's internal relay works.
type smtpSender struct {
	host string
	from string
}

func (s *smtpSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(s.host, nil, s.from, []string{to}, []byte(msg))
}
