// Package notify dispatches templated notification emails. Rendering is a
// plain text template; delivery is SMTP. There is no delivery guarantee
// beyond the SMTP handshake succeeding.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"text/template"
	"time"

	"cfroster/internal/roster/model"
)

// Mailer sends a rendered notification for one student.
type Mailer interface {
	SendInactivityReminder(ctx context.Context, s *model.Student) error
}

const inactivityReminderSubject = "We miss you on Codeforces"

var inactivityReminderTmpl = template.Must(template.New("inactivity").Parse(
	`Hi {{.Name}},

It has been a while since your last Codeforces submission{{if .LastSubmission}} (last seen {{.LastSubmission}}){{end}}.
Keeping a steady practice rhythm is the fastest way to grow - pick a problem and get back in!

Current rating: {{.Rating}} ({{.Rank}})

This is reminder #{{.ReminderNumber}}. You can opt out of these emails at any time.
`))

type reminderData struct {
	Name           string
	LastSubmission string
	Rating         int
	Rank           string
	ReminderNumber int
}

// SMTPMailer delivers over a single SMTP endpoint.
type SMTPMailer struct {
	addr   string
	host   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

func NewSMTPMailer(host, port, username, password, from string, logger *slog.Logger) *SMTPMailer {
	m := &SMTPMailer{
		addr:   host + ":" + port,
		host:   host,
		from:   from,
		logger: logger,
	}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) SendInactivityReminder(ctx context.Context, s *model.Student) error {
	body, err := renderReminder(s)
	if err != nil {
		return err
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", s.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", inactivityReminderSubject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.Write(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{s.Email}, msg.Bytes()); err != nil {
		m.logger.Error("reminder email failed", "handle", s.Handle, "error", err)
		return err
	}

	m.logger.Info("reminder email sent", "handle", s.Handle, "to", s.Email)
	return nil
}

func renderReminder(s *model.Student) ([]byte, error) {
	name := s.Name
	if name == "" {
		name = s.Handle
	}
	data := reminderData{
		Name:           name,
		Rating:         s.Rating,
		Rank:           s.Rank,
		ReminderNumber: s.Inactivity.ReminderCount + 1,
	}
	if s.Inactivity.LastSubmissionAt != nil {
		data.LastSubmission = s.Inactivity.LastSubmissionAt.Format(time.DateOnly)
	}
	if data.Rank == "" {
		data.Rank = "unrated"
	}

	var buf bytes.Buffer
	if err := inactivityReminderTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LogMailer is used when SMTP is not configured: it logs what would have
// been sent and reports success.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) SendInactivityReminder(ctx context.Context, s *model.Student) error {
	m.Logger.Info("smtp not configured, skipping reminder email", "handle", s.Handle, "to", s.Email)
	return nil
}
