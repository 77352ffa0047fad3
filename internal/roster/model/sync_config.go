package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncConfig is the singleton schedule document: tunables plus the summary of
// the most recent run. Lazily created with defaults on first access.
type SyncConfig struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"-"`

	CronTime  string `bson:"cron_time" json:"cron_time"`
	Frequency string `bson:"frequency" json:"frequency"`
	Timezone  string `bson:"timezone" json:"timezone"`
	Enabled   bool   `bson:"enabled" json:"enabled"`

	BatchSize             int `bson:"batch_size" json:"batch_size"`
	DelayBetweenBatchesMS int `bson:"delay_between_batches_ms" json:"delay_between_batches_ms"`
	MaxRetries            int `bson:"max_retries" json:"max_retries"`

	// Last-run summary, written only at run boundaries.
	LastSyncStartedAt  *time.Time `bson:"last_sync_started_at,omitempty" json:"last_sync_started_at,omitempty"`
	LastSyncFinishedAt *time.Time `bson:"last_sync_finished_at,omitempty" json:"last_sync_finished_at,omitempty"`
	LastSyncStatus     string     `bson:"last_sync_status" json:"last_sync_status"`
	LastSyncError      string     `bson:"last_sync_error,omitempty" json:"last_sync_error,omitempty"`
	LastSyncedCount    int        `bson:"last_synced_count" json:"last_synced_count"`
	LastSkippedCount   int        `bson:"last_skipped_count" json:"last_skipped_count"`
	LastFailedCount    int        `bson:"last_failed_count" json:"last_failed_count"`

	// Cumulative totals across all runs.
	TotalSyncRuns     int     `bson:"total_sync_runs" json:"total_sync_runs"`
	AvgSyncDurationMS float64 `bson:"avg_sync_duration_ms" json:"avg_sync_duration_ms"`

	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}

func DefaultSyncConfig() *SyncConfig {
	now := time.Now()
	return &SyncConfig{
		CronTime:              DefaultCronTime,
		Frequency:             FrequencyDaily,
		Timezone:              DefaultTimezone,
		Enabled:               true,
		BatchSize:             DefaultBatchSize,
		DelayBetweenBatchesMS: DefaultDelayMS,
		MaxRetries:            DefaultRetries,
		LastSyncStatus:        SyncStatusIdle,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// Delay returns the inter-batch sleep.
func (c *SyncConfig) Delay() time.Duration {
	return time.Duration(c.DelayBetweenBatchesMS) * time.Millisecond
}

// RecordRunStart stamps the running state before the first batch goes out.
func (c *SyncConfig) RecordRunStart(start time.Time) {
	c.LastSyncStatus = SyncStatusRunning
	c.LastSyncStartedAt = &start
	c.LastSyncFinishedAt = nil
	c.LastSyncError = ""
	c.UpdatedAt = start
}

// RecordRunEnd folds one finished run into the summary. The average is the
// incremental running mean: (old*count + d) / (count+1).
func (c *SyncConfig) RecordRunEnd(outcome *SyncOutcome) {
	c.LastSyncStatus = outcome.Status
	c.LastSyncFinishedAt = &outcome.FinishedAt
	c.LastSyncError = outcome.JoinedErrors()
	c.LastSyncedCount = outcome.Synced
	c.LastSkippedCount = outcome.Skipped
	c.LastFailedCount = outcome.Failed

	durMS := float64(outcome.FinishedAt.Sub(outcome.StartedAt).Milliseconds())
	old := float64(c.TotalSyncRuns)
	c.AvgSyncDurationMS = (c.AvgSyncDurationMS*old + durMS) / (old + 1)
	c.TotalSyncRuns++
	c.UpdatedAt = outcome.FinishedAt
}
