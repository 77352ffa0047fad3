package model

import (
	"strings"
	"time"
)

// Caps keeping diagnostics bounded: an outcome records at most
// MaxRecordedErrors (handle, reason) pairs, and the persisted
// last_sync_error joins at most MaxJoinedErrors of them.
const (
	MaxRecordedErrors = 10
	MaxJoinedErrors   = 5
)

// SyncOutcome summarizes one run. Transient: it is folded into the
// SyncConfig summary and kept in a bounded in-memory history, never
// persisted as its own document.
type SyncOutcome struct {
	RunID      string    `json:"run_id"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`

	Errors []SyncError `json:"errors,omitempty"`
}

type SyncError struct {
	Handle string `json:"handle"`
	Reason string `json:"reason"`
}

// Success is false only for a run that ended in SyncStatusFailed.
func (o *SyncOutcome) Success() bool {
	return o.Status != SyncStatusFailed
}

// RecordError appends one diagnostic pair, dropping extras past the cap.
// The failed counter is maintained separately by the caller.
func (o *SyncOutcome) RecordError(handle, reason string) {
	if len(o.Errors) >= MaxRecordedErrors {
		return
	}
	o.Errors = append(o.Errors, SyncError{Handle: handle, Reason: reason})
}

// JoinedErrors renders a bounded error summary for the persisted
// last_sync_error field.
func (o *SyncOutcome) JoinedErrors() string {
	if len(o.Errors) == 0 {
		return ""
	}
	n := len(o.Errors)
	if n > MaxJoinedErrors {
		n = MaxJoinedErrors
	}
	parts := make([]string, 0, n+1)
	for _, e := range o.Errors[:n] {
		parts = append(parts, e.Handle+": "+e.Reason)
	}
	if len(o.Errors) > n {
		parts = append(parts, "...")
	}
	return strings.Join(parts, "; ")
}

// SyncStatus is the admin-surface view of the scheduler state.
type SyncStatus struct {
	Running      bool        `json:"running"`
	CurrentRunID string      `json:"current_run_id,omitempty"`
	Config       *SyncConfig `json:"config"`
}
