package model

import (
	"strings"
	"time"
)

// UpdateSyncSettingsReq is a partial update of the sync configuration:
// each field is independently overridable, nil fields are left unchanged.
type UpdateSyncSettingsReq struct {
	CronTime            *string `json:"cron_time,omitempty"`
	Timezone            *string `json:"timezone,omitempty"`
	Enabled             *bool   `json:"enabled,omitempty"`
	BatchSize           *int    `json:"batch_size,omitempty"`
	DelayBetweenBatches *int    `json:"delay_between_batches_ms,omitempty"`
	MaxRetries          *int    `json:"max_retries,omitempty"`
}

func (r *UpdateSyncSettingsReq) Validate() error {
	if r.CronTime != nil {
		*r.CronTime = strings.TrimSpace(*r.CronTime)
		// Shape check only: five whitespace-separated fields.
		if len(strings.Fields(*r.CronTime)) != 5 {
			return &ErrorDetail{Code: "bad_request", Message: "cron_time must have 5 fields"}
		}
	}
	if r.Timezone != nil {
		*r.Timezone = strings.TrimSpace(*r.Timezone)
		if _, err := time.LoadLocation(*r.Timezone); err != nil {
			return &ErrorDetail{Code: "bad_request", Message: "unknown timezone: " + *r.Timezone}
		}
	}
	if r.BatchSize != nil && (*r.BatchSize < MinBatchSize || *r.BatchSize > MaxBatchSize) {
		return &ErrorDetail{Code: "bad_request", Message: "batch_size must be between 1 and 100"}
	}
	if r.DelayBetweenBatches != nil && (*r.DelayBetweenBatches < MinDelayMS || *r.DelayBetweenBatches > MaxDelayMS) {
		return &ErrorDetail{Code: "bad_request", Message: "delay_between_batches_ms must be between 100 and 30000"}
	}
	if r.MaxRetries != nil && (*r.MaxRetries < MinRetries || *r.MaxRetries > MaxRetries) {
		return &ErrorDetail{Code: "bad_request", Message: "max_retries must be between 0 and 10"}
	}
	return nil
}

// Apply copies the set fields onto cfg.
func (r *UpdateSyncSettingsReq) Apply(cfg *SyncConfig) {
	if r.CronTime != nil {
		cfg.CronTime = *r.CronTime
	}
	if r.Timezone != nil {
		cfg.Timezone = *r.Timezone
	}
	if r.Enabled != nil {
		cfg.Enabled = *r.Enabled
	}
	if r.BatchSize != nil {
		cfg.BatchSize = *r.BatchSize
	}
	if r.DelayBetweenBatches != nil {
		cfg.DelayBetweenBatchesMS = *r.DelayBetweenBatches
	}
	if r.MaxRetries != nil {
		cfg.MaxRetries = *r.MaxRetries
	}
}
