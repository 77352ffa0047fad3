package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cfroster/internal/roster/model"
)

var (
	ErrDuplicate = errors.New("duplicate record")
	ErrNotFound  = errors.New("record not found")
)

type StudentRepository interface {
	// Create a student; ErrDuplicate on a handle collision (case-insensitive)
	CreateStudent(ctx context.Context, s *model.Student) error
	// Case-insensitive lookup; (nil, nil) when absent
	GetStudentByHandle(ctx context.Context, handle string) (*model.Student, error)
	// Full roster, ordered by handle
	ListStudents(ctx context.Context) ([]*model.Student, error)
	// Projection of (_id, handle) for a sync pass; unbounded read
	ListStudentIdentities(ctx context.Context) ([]*model.StudentIdentity, error)
	// Replace one student document
	UpdateStudent(ctx context.Context, s *model.Student) error
	// Delete by handle; ErrNotFound when absent
	DeleteStudent(ctx context.Context, handle string) error
	// Sync upsert of mirrored profile fields plus last_synced_at; overwrites
	// the stored handle with the source's canonical casing
	ApplyProfile(ctx context.Context, id primitive.ObjectID, p *model.ProfileFields, syncedAt time.Time) error
	// Stamp last_synced_at without touching profile fields
	TouchLastSynced(ctx context.Context, id primitive.ObjectID, syncedAt time.Time) error
	// Students eligible for inactivity reminders: email present, opted in
	FindReminderCandidates(ctx context.Context) ([]*model.Student, error)
	// Record a refreshed last submission time
	UpdateLastSubmission(ctx context.Context, id primitive.ObjectID, at *time.Time) error
	// Bump reminder counter and timestamp after a confirmed dispatch
	MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) error
	// Initialize indexes
	EnsureIndexes(ctx context.Context) error
}

type SyncConfigRepository interface {
	// Load the singleton, creating defaults on first access. When duplicates
	// exist the latest-created document wins.
	GetOrCreate(ctx context.Context) (*model.SyncConfig, error)
	// Persist the singleton by id
	Save(ctx context.Context, cfg *model.SyncConfig) error
}
