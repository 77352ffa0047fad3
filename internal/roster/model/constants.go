package model

// Sync run statuses persisted on the sync configuration.
const (
	SyncStatusIdle    = "idle"
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusFailed  = "failed"
)

// Sync trigger sources.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

const (
	FrequencyDaily = "daily"

	DefaultCronTime  = "0 2 * * *"
	DefaultTimezone  = "UTC"
	DefaultBatchSize = 50
	DefaultDelayMS   = 2000
	DefaultRetries   = 3

	MinBatchSize = 1
	MaxBatchSize = 100
	MinDelayMS   = 100
	MaxDelayMS   = 30000
	MinRetries   = 0
	MaxRetries   = 10
)
