package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"cfroster/internal/roster/model"
	"cfroster/internal/roster/repository"
)

const inactivityInterval = 24 * time.Hour

// Scheduler owns the recurring timers: one for the sync pass, one for the
// daily inactivity pass. Constructed once at startup and passed explicitly to
// whatever needs it. It holds at most one active sync timer; reconfiguration
// fully stops the old timer before arming the new one.
type Scheduler struct {
	Sync       *SyncService
	Inactivity *InactivityService
	Config     repository.SyncConfigRepository
	Logger     *slog.Logger

	mu          sync.Mutex
	syncTimer   *time.Timer
	inactTicker *time.Ticker
	inactDone   chan struct{}
	stopped     bool
}

func NewScheduler(sync *SyncService, inactivity *InactivityService, cfgRepo repository.SyncConfigRepository, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		Sync:       sync,
		Inactivity: inactivity,
		Config:     cfgRepo,
		Logger:     logger,
	}
}

// Start loads the configuration (creating defaults on first access) and arms
// the timers.
func (s *Scheduler) Start(ctx context.Context) error {
	cfg, err := s.Config.GetOrCreate(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.New("scheduler already stopped")
	}
	if cfg.Enabled {
		s.armLocked(cfg)
	}
	s.startInactivityLoopLocked()
	return nil
}

// Reconfigure tears down any active timer before arming a new one, so two
// timers are never live at once. A disabled config leaves no timer.
func (s *Scheduler) Reconfigure(cfg *model.SyncConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	if s.stopped || !cfg.Enabled {
		return
	}
	s.armLocked(cfg)
}

// TriggerManual starts a run independent of the timer; the run-lock inside
// the synchronizer arbitrates against a scheduled fire.
func (s *Scheduler) TriggerManual() (string, error) {
	return s.Sync.StartAsync(model.TriggerManual)
}

// UpdateSettings applies a partial settings change, persists it, and rearms
// the timer from the new values.
func (s *Scheduler) UpdateSettings(ctx context.Context, req *model.UpdateSyncSettingsReq) (*model.SyncConfig, error) {
	cfg, err := s.Config.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	req.Apply(cfg)
	if err := s.Config.Save(ctx, cfg); err != nil {
		return nil, err
	}

	s.Reconfigure(cfg)
	s.Logger.Info("sync settings updated",
		"enabled", cfg.Enabled,
		"cron_time", cfg.CronTime,
		"timezone", cfg.Timezone,
		"batch_size", cfg.BatchSize,
	)
	return cfg, nil
}

// Stop tears everything down. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	if s.inactTicker != nil {
		s.inactTicker.Stop()
		s.inactTicker = nil
	}
	if !s.stopped {
		s.stopped = true
		if s.inactDone != nil {
			close(s.inactDone)
		}
	}
}

func (s *Scheduler) armLocked(cfg *model.SyncConfig) {
	d := nextRunIn(cfg, time.Now())
	s.Logger.Info("sync scheduled", "next_run_in", d.String(), "cron_time", cfg.CronTime, "timezone", cfg.Timezone)
	s.syncTimer = time.AfterFunc(d, s.fire)
}

func (s *Scheduler) disarmLocked() {
	if s.syncTimer != nil {
		s.syncTimer.Stop()
		s.syncTimer = nil
	}
}

// fire runs one scheduled pass, then rearms from the latest persisted
// settings. Errors are contained here; a rejected overlap is just logged.
func (s *Scheduler) fire() {
	ctx := context.Background()

	if _, err := s.Sync.RunSync(ctx, model.TriggerScheduled); err != nil {
		if errors.Is(err, ErrSyncAlreadyRunning) {
			s.Logger.Warn("scheduled sync skipped, a run is already in flight")
		} else {
			s.Logger.Error("scheduled sync failed to start", "error", err)
		}
	}

	cfg, err := s.Config.GetOrCreate(ctx)
	if err != nil {
		s.Logger.Error("could not reload sync settings, rearming with previous cadence", "error", err)
		cfg = model.DefaultSyncConfig()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	if !s.stopped && cfg.Enabled {
		s.armLocked(cfg)
	}
}

func (s *Scheduler) startInactivityLoopLocked() {
	if s.Inactivity == nil || s.inactTicker != nil {
		return
	}
	s.inactTicker = time.NewTicker(inactivityInterval)
	s.inactDone = make(chan struct{})

	go func(tick *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-tick.C:
				if _, err := s.Inactivity.Run(context.Background()); err != nil {
					s.Logger.Error("inactivity pass failed", "error", err)
				}
			case <-done:
				return
			}
		}
	}(s.inactTicker, s.inactDone)
}

// nextRunIn derives the wait until the next fire from the cron expression's
// minute and hour fields, evaluated in the configured timezone. Anything the
// shape check let through that is not plain numeric falls back to a 24h
// interval.
func nextRunIn(cfg *model.SyncConfig, now time.Time) time.Duration {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}

	fields := strings.Fields(cfg.CronTime)
	if len(fields) == 5 {
		minute, errM := strconv.Atoi(fields[0])
		hour, errH := strconv.Atoi(fields[1])
		if errM == nil && errH == nil && minute >= 0 && minute < 60 && hour >= 0 && hour < 24 {
			local := now.In(loc)
			next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
			if !next.After(local) {
				next = next.AddDate(0, 0, 1)
			}
			return next.Sub(local)
		}
	}
	return 24 * time.Hour
}
