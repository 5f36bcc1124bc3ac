// Package notification renders and delivers the hospital's outbound
// Email/SMS messages. Delivery is fire-and-forget: a failed send is
// logged and never propagated into the request that triggered it.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Channel is how a message is delivered.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Template IDs known to the engine.
const (
	TemplateAppointmentConfirmation = "appointment-confirmation"
	TemplateAppointmentReminder     = "appointment-reminder"
	TemplateAppointmentCancelled    = "appointment-cancelled"
	TemplatePasswordReset           = "password-reset"
	TemplateDoctorSMS               = "doctor-sms"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender is the interface for sending SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateAppointmentConfirmation,
			Name:    "Appointment Confirmation",
			Subject: "Your appointment on {{date}} is confirmed",
			Body: "Dear {{patient_name}}, your appointment with {{doctor_name}} on {{date}} at {{time}} is confirmed. " +
				"The examination fee is {{fee}}. " +
				"If you need to cancel, use this link at least 6 hours in advance: {{cancel_link}}",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateAppointmentReminder,
			Name:    "Appointment Reminder",
			Subject: "Reminder: appointment tomorrow at {{time}}",
			Body:    "Dear {{patient_name}}, this is a reminder of your appointment with {{doctor_name}} on {{date}} at {{time}}.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateAppointmentCancelled,
			Name:    "Appointment Cancelled",
			Subject: "Your appointment on {{date}} was cancelled",
			Body:    "Dear {{patient_name}}, your appointment with {{doctor_name}} on {{date}} at {{time}} has been cancelled.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplatePasswordReset,
			Name:    "Password Reset",
			Subject: "Password reset request",
			Body:    "You requested a password reset. Use the following link within 24 hours: {{reset_link}}",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateDoctorSMS,
			Name:    "Message From Your Doctor",
			Body:    "{{message}}",
			Channel: ChannelSMS,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from
// data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (*Template, string, string, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return nil, "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject := t.Subject
	body := t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return t, subject, body, nil
}

// Service dispatches rendered templates through the configured senders.
type Service struct {
	email     EmailSender
	sms       SMSSender
	templates *TemplateEngine
	log       zerolog.Logger
}

func NewService(email EmailSender, sms SMSSender, templates *TemplateEngine, log zerolog.Logger) *Service {
	if templates == nil {
		templates = NewTemplateEngine()
	}
	return &Service{email: email, sms: sms, templates: templates, log: log}
}

// Notify renders and delivers a template. Failures are logged with the
// template and recipient, never returned: notification problems must not
// fail bookings.
func (s *Service) Notify(ctx context.Context, templateID, recipient string, data map[string]string) {
	if recipient == "" {
		s.log.Warn().Str("template", templateID).Msg("notification skipped: empty recipient")
		return
	}
	t, subject, body, err := s.templates.Render(templateID, data)
	if err != nil {
		s.log.Error().Err(err).Str("template", templateID).Msg("notification render failed")
		return
	}

	switch t.Channel {
	case ChannelEmail:
		err = s.email.SendEmail(ctx, recipient, subject, body)
	case ChannelSMS:
		err = s.sms.SendSMS(ctx, recipient, body)
	default:
		err = fmt.Errorf("unsupported channel %q", t.Channel)
	}
	if err != nil {
		s.log.Error().Err(err).
			Str("template", templateID).
			Str("recipient", recipient).
			Msg("notification delivery failed")
		return
	}
	s.log.Debug().Str("template", templateID).Str("recipient", recipient).Msg("notification sent")
}

// LogEmailSender is the default sender: it writes the message to the log
// instead of a real SMTP gateway.
type LogEmailSender struct {
	Log zerolog.Logger
}

func (s LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email (log only)")
	return nil
}

// LogSMSSender is the default SMS sender, log-only like LogEmailSender.
type LogSMSSender struct {
	Log zerolog.Logger
}

func (s LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.Log.Info().Str("to", to).Str("body", body).Msg("sms (log only)")
	return nil
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SMSCall records a single call to SendSMS.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender is a test double for SMSSender.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
	FailError  string
}

// SendSMS records the call and optionally returns an error.
func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded SMS calls.
func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}
