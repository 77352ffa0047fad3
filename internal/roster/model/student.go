package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student mirrors one Codeforces profile plus local administrative fields.
type Student struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Handle      string             `bson:"handle" json:"handle"`
	HandleLower string             `bson:"handle_lower" json:"-"`
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`

	// Fields mirrored from the profile source.
	Rank          string     `bson:"rank,omitempty" json:"rank,omitempty"`
	MaxRank       string     `bson:"max_rank,omitempty" json:"max_rank,omitempty"`
	Rating        int        `bson:"rating" json:"rating"`
	MaxRating     int        `bson:"max_rating" json:"max_rating"`
	Country       string     `bson:"country,omitempty" json:"country,omitempty"`
	City          string     `bson:"city,omitempty" json:"city,omitempty"`
	Organization  string     `bson:"organization,omitempty" json:"organization,omitempty"`
	Avatar        string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	TitlePhoto    string     `bson:"title_photo,omitempty" json:"title_photo,omitempty"`
	Contribution  int        `bson:"contribution" json:"contribution"`
	FriendOfCount int        `bson:"friend_of_count" json:"friend_of_count"`
	LastOnlineAt  *time.Time `bson:"last_online_at,omitempty" json:"last_online_at,omitempty"`
	RegisteredAt  *time.Time `bson:"registered_at,omitempty" json:"registered_at,omitempty"`

	LastSyncedAt *time.Time `bson:"last_synced_at,omitempty" json:"last_synced_at,omitempty"`

	Inactivity         InactivityTracking `bson:"inactivity" json:"inactivity"`
	EmailNotifications EmailNotifications `bson:"email_notifications" json:"email_notifications"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type InactivityTracking struct {
	LastSubmissionAt *time.Time `bson:"last_submission_at,omitempty" json:"last_submission_at,omitempty"`
	ReminderCount    int        `bson:"reminder_count" json:"reminder_count"`
	LastReminderAt   *time.Time `bson:"last_reminder_at,omitempty" json:"last_reminder_at,omitempty"`
}

type EmailNotifications struct {
	InactivityReminders bool `bson:"inactivity_reminders" json:"inactivity_reminders"`
}

// StudentIdentity is the projection loaded for a sync pass.
type StudentIdentity struct {
	ID     primitive.ObjectID `bson:"_id"`
	Handle string             `bson:"handle"`
}

// StudentStaleness reports how recently one student was synchronized.
type StudentStaleness struct {
	Handle       string     `json:"handle"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Stale        bool       `json:"stale"`
}

// ProfileFields is the mirrored slice of a student written by a sync upsert.
type ProfileFields struct {
	Handle        string
	Rank          string
	MaxRank       string
	Rating        int
	MaxRating     int
	Country       string
	City          string
	Organization  string
	Avatar        string
	TitlePhoto    string
	Contribution  int
	FriendOfCount int
	LastOnlineAt  *time.Time
	RegisteredAt  *time.Time
}

// Clamp enforces maxRating >= rating. Applied on every write path.
func (p *ProfileFields) Clamp() {
	if p.MaxRating < p.Rating {
		p.MaxRating = p.Rating
	}
}

// Clamp enforces maxRating >= rating. Applied on every write path.
func (s *Student) Clamp() {
	if s.MaxRating < s.Rating {
		s.MaxRating = s.Rating
	}
}

// Touch refreshes HandleLower and UpdatedAt before a write.
func (s *Student) Touch(now time.Time) {
	s.HandleLower = strings.ToLower(s.Handle)
	s.UpdatedAt = now
}
