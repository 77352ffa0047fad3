package service

import (
	"context"
	"log/slog"
	"time"

	"cfroster/internal/roster/metrics"
	"cfroster/internal/roster/notify"
	"cfroster/internal/roster/repository"
)

const (
	inactivityThreshold = 7 * 24 * time.Hour
	reminderCooldown    = 24 * time.Hour
)

// InactivityService sends reminder emails to students who have gone quiet:
// opted in, email on file, and no submission for a week (or none known).
// A 24h cooldown keeps consecutive passes from double-mailing; the counter
// and timestamp move only on a confirmed dispatch.
type InactivityService struct {
	Repo    repository.StudentRepository
	Source  ProfileSource
	Mailer  notify.Mailer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func NewInactivityService(repo repository.StudentRepository, source ProfileSource, mailer notify.Mailer, m *metrics.Metrics, logger *slog.Logger) *InactivityService {
	return &InactivityService{
		Repo:    repo,
		Source:  source,
		Mailer:  mailer,
		Metrics: m,
		Logger:  logger,
	}
}

// Run executes one pass and returns the number of reminders dispatched.
func (s *InactivityService) Run(ctx context.Context) (int, error) {
	students, err := s.Repo.FindReminderCandidates(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	sent := 0
	for _, st := range students {
		lastSubmission := st.Inactivity.LastSubmissionAt

		// Refresh from the source so a student who resumed practicing since
		// the last sync is not mailed by mistake. On failure the stored value
		// stands.
		if t, err := s.Source.LastSubmissionTime(ctx, st.Handle); err != nil {
			s.Logger.Warn("could not refresh last submission", "handle", st.Handle, "error", err)
		} else {
			lastSubmission = t
			st.Inactivity.LastSubmissionAt = t
			if uerr := s.Repo.UpdateLastSubmission(ctx, st.ID, t); uerr != nil {
				s.Logger.Warn("could not store last submission", "handle", st.Handle, "error", uerr)
			}
		}

		// Unknown submission history counts as inactive.
		if lastSubmission != nil && now.Sub(*lastSubmission) < inactivityThreshold {
			continue
		}
		if st.Inactivity.LastReminderAt != nil && now.Sub(*st.Inactivity.LastReminderAt) < reminderCooldown {
			continue
		}

		if err := s.Mailer.SendInactivityReminder(ctx, st); err != nil {
			s.Logger.Error("reminder dispatch failed", "handle", st.Handle, "error", err)
			continue
		}
		if err := s.Repo.MarkReminderSent(ctx, st.ID, now); err != nil {
			s.Logger.Warn("could not record reminder", "handle", st.Handle, "error", err)
		}
		sent++
		if s.Metrics != nil {
			s.Metrics.RemindersSent.Inc()
		}
	}

	s.Logger.Info("inactivity pass finished", "candidates", len(students), "sent", sent)
	return sent, nil
}
