package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRender(t *testing.T) {
	e := NewTemplateEngine()

	tpl, subject, body, err := e.Render(TemplateAppointmentConfirmation, map[string]string{
		"patient_name": "Fatma Demir",
		"doctor_name":  "Dr. Yilmaz",
		"date":         "2025-06-11",
		"time":         "10:00",
		"fee":          "750.00",
		"cancel_link":  "https://hospital.example.com/cancel?token=abc",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if tpl.Channel != ChannelEmail {
		t.Errorf("channel = %q, want email", tpl.Channel)
	}
	if !strings.Contains(subject, "2025-06-11") {
		t.Errorf("subject missing date: %q", subject)
	}
	for _, want := range []string{"Fatma Demir", "Dr. Yilmaz", "10:00", "750.00", "token=abc"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRender_MissingKeysLeftAsIs(t *testing.T) {
	e := NewTemplateEngine()
	_, _, body, err := e.Render(TemplatePasswordReset, map[string]string{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "{{reset_link}}") {
		t.Error("absent key should be left as-is")
	}
}

func TestRegisterTemplate_Replaces(t *testing.T) {
	e := NewTemplateEngine()
	e.RegisterTemplate(Template{
		ID:      TemplateAppointmentReminder,
		Subject: "custom",
		Body:    "custom body",
		Channel: ChannelEmail,
	})
	_, subject, _, err := e.Render(TemplateAppointmentReminder, nil)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "custom" {
		t.Errorf("subject = %q, want custom", subject)
	}
}

func TestNotify_RoutesByChannel(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	svc := NewService(email, sms, NewTemplateEngine(), zerolog.Nop())
	ctx := context.Background()

	svc.Notify(ctx, TemplateAppointmentReminder, "patient@example.com", map[string]string{
		"patient_name": "Ali",
	})
	svc.Notify(ctx, TemplateDoctorSMS, "+90 555 000 0000", map[string]string{
		"message": "please arrive early",
	})

	if len(email.Calls()) != 1 {
		t.Errorf("email calls = %d, want 1", len(email.Calls()))
	}
	if calls := sms.Calls(); len(calls) != 1 || calls[0].Body != "please arrive early" {
		t.Errorf("sms calls = %v, want the doctor message", calls)
	}
}

func TestNotify_FailureIsSwallowed(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp unreachable"}
	svc := NewService(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())

	// Must not panic or propagate; the booking flow depends on that.
	svc.Notify(context.Background(), TemplateAppointmentConfirmation, "patient@example.com", nil)

	if len(email.Calls()) != 1 {
		t.Error("send was not attempted")
	}
}

func TestNotify_EmptyRecipientSkipped(t *testing.T) {
	email := &MockEmailSender{}
	svc := NewService(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())

	svc.Notify(context.Background(), TemplateAppointmentConfirmation, "", nil)
	if len(email.Calls()) != 0 {
		t.Error("send attempted with empty recipient")
	}
}
