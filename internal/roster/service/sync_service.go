package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cfroster/internal/roster/codeforces"
	"cfroster/internal/roster/metrics"
	"cfroster/internal/roster/model"
	"cfroster/internal/roster/repository"
)

const maxRunHistory = 20

// SyncService is the batch synchronizer: it mirrors profiles for the whole
// roster in bounded batches, guarded by a single run-lock. A scheduled fire
// and a manual trigger share the same lock, so the second caller is rejected
// immediately rather than queued.
type SyncService struct {
	Repo    repository.StudentRepository
	Config  repository.SyncConfigRepository
	Source  ProfileSource
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	mu           sync.Mutex
	running      bool
	currentRunID string
	history      []*model.SyncOutcome
}

func NewSyncService(repo repository.StudentRepository, cfgRepo repository.SyncConfigRepository, source ProfileSource, m *metrics.Metrics, logger *slog.Logger) *SyncService {
	return &SyncService{
		Repo:    repo,
		Config:  cfgRepo,
		Source:  source,
		Metrics: m,
		Logger:  logger,
	}
}

// RunSync executes one full pass and blocks until it finishes.
// ErrSyncAlreadyRunning when a run is already in flight.
func (s *SyncService) RunSync(ctx context.Context, trigger string) (*model.SyncOutcome, error) {
	runID, err := s.acquire()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, runID, trigger), nil
}

// StartAsync accepts the run and returns its id immediately; the pass
// continues in the background and its outcome is pollable via Status and
// History.
func (s *SyncService) StartAsync(trigger string) (string, error) {
	runID, err := s.acquire()
	if err != nil {
		return "", err
	}
	go s.run(context.Background(), runID, trigger)
	return runID, nil
}

// Status reports the persisted configuration summary plus in-flight state.
func (s *SyncService) Status(ctx context.Context) (*model.SyncStatus, error) {
	cfg, err := s.Config.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.SyncStatus{
		Running:      s.running,
		CurrentRunID: s.currentRunID,
		Config:       cfg,
	}, nil
}

// History returns recent run outcomes, newest first.
func (s *SyncService) History() []*model.SyncOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.SyncOutcome, len(s.history))
	copy(out, s.history)
	return out
}

func (s *SyncService) acquire() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return "", ErrSyncAlreadyRunning
	}
	s.running = true
	s.currentRunID = uuid.NewString()
	return s.currentRunID, nil
}

func (s *SyncService) release(outcome *model.SyncOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.currentRunID = ""
	s.history = append([]*model.SyncOutcome{outcome}, s.history...)
	if len(s.history) > maxRunHistory {
		s.history = s.history[:maxRunHistory]
	}
}

func (s *SyncService) run(ctx context.Context, runID, trigger string) *model.SyncOutcome {
	start := time.Now()
	outcome := &model.SyncOutcome{
		RunID:     runID,
		Trigger:   trigger,
		Status:    model.SyncStatusRunning,
		StartedAt: start,
	}
	// The run-lock must come off on every path, including a panicking pass.
	defer s.release(outcome)

	cfg, err := s.Config.GetOrCreate(ctx)
	if err != nil {
		outcome.Status = model.SyncStatusFailed
		outcome.FinishedAt = time.Now()
		outcome.RecordError("", "loading sync configuration: "+err.Error())
		s.Logger.Error("sync run aborted", "run_id", runID, "error", err)
		return outcome
	}

	// Persist running state first so concurrent status reads see it.
	cfg.RecordRunStart(start)
	if err := s.Config.Save(ctx, cfg); err != nil {
		s.Logger.Warn("could not persist running state", "run_id", runID, "error", err)
	}

	fatal := s.pass(ctx, cfg, outcome)

	outcome.FinishedAt = time.Now()
	switch {
	case fatal != nil:
		outcome.Status = model.SyncStatusFailed
		outcome.RecordError("", fatal.Error())
	case outcome.Failed > 0:
		outcome.Status = model.SyncStatusPartial
	default:
		outcome.Status = model.SyncStatusSuccess
	}

	cfg.RecordRunEnd(outcome)
	if err := s.Config.Save(ctx, cfg); err != nil {
		s.Logger.Error("could not persist run summary", "run_id", runID, "error", err)
	}

	duration := outcome.FinishedAt.Sub(outcome.StartedAt)
	s.Metrics.Observe(outcome.Status, outcome.Synced, outcome.Skipped, outcome.Failed, duration.Seconds())

	s.Logger.Info("sync run finished",
		"run_id", runID,
		"trigger", trigger,
		"status", outcome.Status,
		"synced", outcome.Synced,
		"skipped", outcome.Skipped,
		"failed", outcome.Failed,
		"duration_ms", duration.Milliseconds(),
	)
	return outcome
}

// pass walks the roster in batches. Only errors that escape the per-batch and
// per-student guards are returned; they mark the whole run failed.
func (s *SyncService) pass(ctx context.Context, cfg *model.SyncConfig, outcome *model.SyncOutcome) (fatal error) {
	defer func() {
		if r := recover(); r != nil {
			fatal = fmt.Errorf("sync pass panicked: %v", r)
		}
	}()

	ids, err := s.Repo.ListStudentIdentities(ctx)
	if err != nil {
		return fmt.Errorf("loading roster: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	batchSize := cfg.BatchSize
	if batchSize < model.MinBatchSize || batchSize > model.MaxBatchSize {
		batchSize = model.DefaultBatchSize
	}

	for begin := 0; begin < len(ids); begin += batchSize {
		end := begin + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		s.processBatch(ctx, cfg, ids[begin:end], outcome)

		// Sequential batches with a fixed pause respect the source's rate
		// limits; no sleep after the last batch.
		if end < len(ids) {
			time.Sleep(cfg.Delay())
		}
	}
	return nil
}

func (s *SyncService) processBatch(ctx context.Context, cfg *model.SyncConfig, batch []*model.StudentIdentity, outcome *model.SyncOutcome) {
	now := time.Now()

	// Pre-validate every handle: one malformed handle fails the whole batched
	// query upstream. Invalid handles are excluded and counted failed, but
	// still stamped so they are not re-selected forever.
	valid := make([]*model.StudentIdentity, 0, len(batch))
	handles := make([]string, 0, len(batch))
	for _, id := range batch {
		h, err := model.ValidateHandle(id.Handle, model.HandleModeSync)
		if err != nil {
			outcome.Failed++
			outcome.RecordError(id.Handle, rejectionReason(err))
			s.touch(ctx, id, now)
			continue
		}
		valid = append(valid, id)
		handles = append(handles, h)
	}
	if len(valid) == 0 {
		return
	}

	users, err := s.fetchBatch(ctx, cfg, handles)
	if err != nil {
		// The whole batch degrades: every student is stamped so unreachable
		// handles do not starve future passes, but no profile field changes.
		s.Logger.Warn("batch fetch failed", "handles", len(handles), "error", err)
		for _, id := range valid {
			outcome.Failed++
			outcome.RecordError(id.Handle, err.Error())
			s.touch(ctx, id, now)
		}
		return
	}

	exact := make(map[string]*codeforces.User, len(users))
	folded := make(map[string]*codeforces.User, len(users))
	for i := range users {
		u := &users[i]
		exact[u.Handle] = u
		folded[strings.ToLower(u.Handle)] = u
	}

	for i, id := range valid {
		u, ok := exact[handles[i]]
		if !ok {
			u, ok = folded[strings.ToLower(handles[i])]
		}
		if !ok {
			// Present in the roster, absent from the response: skipped, not
			// an error. Stamped so the next pass does not re-select it first.
			outcome.Skipped++
			s.touch(ctx, id, now)
			continue
		}

		if err := s.Repo.ApplyProfile(ctx, id.ID, profileFromUser(u), now); err != nil {
			outcome.Failed++
			outcome.RecordError(id.Handle, err.Error())
			s.Logger.Warn("student update failed", "handle", id.Handle, "error", err)
			continue
		}
		outcome.Synced++
	}
}

// fetchBatch retries transient transport failures up to the configured retry
// budget before giving up on the batch.
func (s *SyncService) fetchBatch(ctx context.Context, cfg *model.SyncConfig, handles []string) ([]codeforces.User, error) {
	var lastErr error
	attempts := cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(500 * time.Millisecond)
		}
		users, err := s.Source.GetUsers(ctx, handles)
		if err == nil {
			return users, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *SyncService) touch(ctx context.Context, id *model.StudentIdentity, at time.Time) {
	if err := s.Repo.TouchLastSynced(ctx, id.ID, at); err != nil {
		s.Logger.Warn("could not stamp last_synced_at", "handle", id.Handle, "error", err)
	}
}

func rejectionReason(err error) string {
	var hErr *model.HandleError
	if errors.As(err, &hErr) {
		return hErr.Reason
	}
	return err.Error()
}

func profileFromUser(u *codeforces.User) *model.ProfileFields {
	p := &model.ProfileFields{
		Handle:        u.Handle,
		Rank:          u.Rank,
		MaxRank:       u.MaxRank,
		Rating:        u.Rating,
		MaxRating:     u.MaxRating,
		Country:       u.Country,
		City:          u.City,
		Organization:  u.Organization,
		Avatar:        u.Avatar,
		TitlePhoto:    u.TitlePhoto,
		Contribution:  u.Contribution,
		FriendOfCount: u.FriendOfCount,
	}
	if u.LastOnline > 0 {
		t := time.Unix(u.LastOnline, 0).UTC()
		p.LastOnlineAt = &t
	}
	if u.Registration > 0 {
		t := time.Unix(u.Registration, 0).UTC()
		p.RegisteredAt = &t
	}
	p.Clamp()
	return p
}
