package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cfroster/internal/roster/codeforces"
	"cfroster/internal/roster/model"
)

func newTestSyncService(repo *fakeStudentRepo, cfgRepo *fakeConfigRepo, source *fakeSource) *SyncService {
	return NewSyncService(repo, cfgRepo, source, nil, testLogger())
}

func TestRunSyncEmptyRoster(t *testing.T) {
	repo := newFakeStudentRepo()
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	svc := newTestSyncService(repo, cfgRepo, &fakeSource{})

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, model.SyncStatusSuccess, outcome.Status)
	assert.True(t, outcome.Success())
	assert.Zero(t, outcome.Synced)
	assert.Zero(t, outcome.Skipped)
	assert.Zero(t, outcome.Failed)

	cfg, _ := cfgRepo.GetOrCreate(context.Background())
	assert.Equal(t, model.SyncStatusSuccess, cfg.LastSyncStatus)
	assert.Equal(t, 1, cfg.TotalSyncRuns)
	assert.NotNil(t, cfg.LastSyncStartedAt)
	assert.NotNil(t, cfg.LastSyncFinishedAt)
}

func TestRunSyncUpsertsProfiles(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf", "bob_cf")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	source := &fakeSource{}
	svc := newTestSyncService(repo, cfgRepo, source)

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, model.SyncStatusSuccess, outcome.Status)
	assert.Equal(t, 2, outcome.Synced)
	assert.Equal(t, 1, source.callCount())

	alice := repo.byHandle("alice_cf")
	require.NotNil(t, alice)
	assert.Equal(t, 1500, alice.Rating)
	assert.Equal(t, 1700, alice.MaxRating)
	assert.Equal(t, "specialist", alice.Rank)
	assert.NotNil(t, alice.LastSyncedAt)
}

func TestRunSyncMissingHandleCountsSkipped(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf", "bob_cf", "gone_cf")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	source := &fakeSource{
		respond: func(call int, handles []string) ([]codeforces.User, error) {
			// The source omits gone_cf from its response.
			return usersFor("alice_cf", "bob_cf"), nil
		},
	}
	svc := newTestSyncService(repo, cfgRepo, source)

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Synced)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Equal(t, 0, outcome.Failed)
	// Skipped is not an error, so the run still counts as a clean success.
	assert.Equal(t, model.SyncStatusSuccess, outcome.Status)

	// The skipped student is still stamped so it is not re-selected first
	// on the next pass.
	gone := repo.byHandle("gone_cf")
	require.NotNil(t, gone)
	assert.NotNil(t, gone.LastSyncedAt)
	assert.Zero(t, gone.Rating)
}

func TestRunSyncBatchFailureIsolation(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf", "bob_cf")
	cfg := testSyncConfig()
	cfg.BatchSize = 1
	cfgRepo := newFakeConfigRepo(cfg)
	source := &fakeSource{
		respond: func(call int, handles []string) ([]codeforces.User, error) {
			if call == 0 {
				return nil, errors.New("connection refused")
			}
			return usersFor(handles...), nil
		},
	}
	svc := newTestSyncService(repo, cfgRepo, source)

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	// First batch degraded, second still ran.
	assert.Equal(t, 2, source.callCount())
	assert.Equal(t, 1, outcome.Synced)
	assert.Equal(t, 1, outcome.Failed)
	assert.Equal(t, model.SyncStatusPartial, outcome.Status)
	assert.True(t, outcome.Success())

	// The failed student keeps its profile but gets a fresh stamp.
	alice := repo.byHandle("alice_cf")
	require.NotNil(t, alice)
	assert.Zero(t, alice.Rating)
	assert.NotNil(t, alice.LastSyncedAt)

	cfgAfter, _ := cfgRepo.GetOrCreate(context.Background())
	assert.Equal(t, model.SyncStatusPartial, cfgAfter.LastSyncStatus)
	assert.Contains(t, cfgAfter.LastSyncError, "connection refused")
}

func TestRunSyncIdempotent(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	svc := newTestSyncService(repo, cfgRepo, &fakeSource{})

	_, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)
	first := *repo.byHandle("alice_cf")
	require.NotNil(t, first.LastSyncedAt)

	time.Sleep(5 * time.Millisecond)

	_, err = svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)
	second := *repo.byHandle("alice_cf")

	// Same field values the second time, only the stamp advances.
	assert.Equal(t, first.Rating, second.Rating)
	assert.Equal(t, first.MaxRating, second.MaxRating)
	assert.Equal(t, first.Rank, second.Rank)
	assert.Equal(t, first.Handle, second.Handle)
	assert.True(t, second.LastSyncedAt.After(*first.LastSyncedAt))
}

func TestRunSyncRejectsConcurrentRun(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	source := &fakeSource{gate: make(chan struct{})}
	svc := newTestSyncService(repo, cfgRepo, source)

	runID, err := svc.StartAsync(model.TriggerManual)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	// Wait for the background run to take the lock and block in the source.
	require.Eventually(t, func() bool {
		status, err := svc.Status(context.Background())
		return err == nil && status.Running
	}, time.Second, 5*time.Millisecond)

	_, err = svc.RunSync(context.Background(), model.TriggerManual)
	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)

	_, err = svc.StartAsync(model.TriggerScheduled)
	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)

	close(source.gate)

	require.Eventually(t, func() bool {
		status, err := svc.Status(context.Background())
		return err == nil && !status.Running
	}, time.Second, 5*time.Millisecond)

	history := svc.History()
	require.Len(t, history, 1)
	assert.Equal(t, runID, history[0].RunID)
}

func TestRunSyncClampsMaxRating(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	source := &fakeSource{
		respond: func(call int, handles []string) ([]codeforces.User, error) {
			return []codeforces.User{{Handle: "alice_cf", Rating: 1600, MaxRating: 1500}}, nil
		},
	}
	svc := newTestSyncService(repo, cfgRepo, source)

	_, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	alice := repo.byHandle("alice_cf")
	require.NotNil(t, alice)
	assert.Equal(t, 1600, alice.Rating)
	assert.GreaterOrEqual(t, alice.MaxRating, alice.Rating)
}

func TestRunSyncPreValidatesHandles(t *testing.T) {
	repo := newFakeStudentRepo("good_handle", "bad*handle")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	source := &fakeSource{}
	svc := newTestSyncService(repo, cfgRepo, source)

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	// The malformed handle never reaches the source.
	require.Equal(t, 1, source.callCount())
	assert.Equal(t, []string{"good_handle"}, source.calls[0])

	assert.Equal(t, 1, outcome.Synced)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, model.HandleRejectDisallowedSymbol, outcome.Errors[0].Reason)

	bad := repo.byHandle("bad*handle")
	require.NotNil(t, bad)
	assert.NotNil(t, bad.LastSyncedAt)
}

func TestRunSyncCanonicalCasing(t *testing.T) {
	repo := newFakeStudentRepo("tourist")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	source := &fakeSource{
		respond: func(call int, handles []string) ([]codeforces.User, error) {
			return []codeforces.User{{Handle: "Tourist", Rating: 3800, MaxRating: 3979}}, nil
		},
	}
	svc := newTestSyncService(repo, cfgRepo, source)

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Synced)

	// The stored handle takes the source's canonical casing.
	st := repo.byHandle("Tourist")
	require.NotNil(t, st)
	assert.Equal(t, "Tourist", st.Handle)
}

func TestRunSyncPerStudentWriteFailureIsolated(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf", "bob_cf")
	repo.applyErr["alice_cf"] = errors.New("write conflict")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	svc := newTestSyncService(repo, cfgRepo, &fakeSource{})

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Synced)
	assert.Equal(t, 1, outcome.Failed)
	assert.Equal(t, model.SyncStatusPartial, outcome.Status)

	bob := repo.byHandle("bob_cf")
	require.NotNil(t, bob)
	assert.Equal(t, 1500, bob.Rating)
}

func TestRunSyncErrorSummaryBounded(t *testing.T) {
	handles := make([]string, 12)
	for i := range handles {
		handles[i] = fmt.Sprintf("bad handle %02d", i)
	}
	repo := newFakeStudentRepo(handles...)
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	svc := newTestSyncService(repo, cfgRepo, &fakeSource{})

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 12, outcome.Failed)
	assert.Len(t, outcome.Errors, model.MaxRecordedErrors)

	cfg, _ := cfgRepo.GetOrCreate(context.Background())
	parts := strings.Split(cfg.LastSyncError, "; ")
	assert.Len(t, parts, model.MaxJoinedErrors+1)
	assert.Equal(t, "...", parts[len(parts)-1])
}

func TestRunSyncRepositoryFailureMarksRunFailed(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	source := &fakeSource{
		respond: func(call int, handles []string) ([]codeforces.User, error) {
			panic("unexpected source state")
		},
	}
	svc := newTestSyncService(repo, cfgRepo, source)

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	// A panic inside the pass is contained: the run ends failed and the
	// lock comes back off.
	assert.Equal(t, model.SyncStatusFailed, outcome.Status)
	assert.False(t, outcome.Success())

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)

	// The lock is free again for the next run.
	source.respond = nil
	_, err = svc.RunSync(context.Background(), model.TriggerManual)
	assert.NoError(t, err)
}

func TestRunSyncRetriesTransportErrors(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf")
	cfg := testSyncConfig()
	cfg.MaxRetries = 2
	cfgRepo := newFakeConfigRepo(cfg)
	source := &fakeSource{
		respond: func(call int, handles []string) ([]codeforces.User, error) {
			if call < 2 {
				return nil, errors.New("timeout")
			}
			return usersFor(handles...), nil
		},
	}
	svc := newTestSyncService(repo, cfgRepo, source)

	outcome, err := svc.RunSync(context.Background(), model.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, 3, source.callCount())
	assert.Equal(t, 1, outcome.Synced)
	assert.Equal(t, model.SyncStatusSuccess, outcome.Status)
}

func TestRunSyncCumulativeTotals(t *testing.T) {
	repo := newFakeStudentRepo("alice_cf")
	cfgRepo := newFakeConfigRepo(testSyncConfig())
	svc := newTestSyncService(repo, cfgRepo, &fakeSource{})

	for i := 0; i < 3; i++ {
		_, err := svc.RunSync(context.Background(), model.TriggerScheduled)
		require.NoError(t, err)
	}

	cfg, _ := cfgRepo.GetOrCreate(context.Background())
	assert.Equal(t, 3, cfg.TotalSyncRuns)
	assert.GreaterOrEqual(t, cfg.AvgSyncDurationMS, 0.0)
	assert.Equal(t, 1, cfg.LastSyncedCount)
}
