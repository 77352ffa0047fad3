package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cfroster/internal/roster/codeforces"
	"cfroster/internal/roster/model"
	"cfroster/internal/roster/repository"
)

var (
	ErrNotFound           = errors.New("student not found")
	ErrConflict           = errors.New("handle already registered")
	ErrBadRequest         = errors.New("bad request")
	ErrSyncAlreadyRunning = errors.New("sync already running")
)

// ProfileSource is the external profile API as the services consume it.
// *codeforces.Client is the production implementation.
type ProfileSource interface {
	GetUsers(ctx context.Context, handles []string) ([]codeforces.User, error)
	LastSubmissionTime(ctx context.Context, handle string) (*time.Time, error)
}

// RosterService is the student CRUD surface used by the handlers.
type RosterService interface {
	CreateStudent(ctx context.Context, req *model.CreateStudentReq) (*model.Student, error)
	GetStudent(ctx context.Context, handle string) (*model.Student, error)
	ListStudents(ctx context.Context) ([]*model.Student, error)
	UpdateStudent(ctx context.Context, handle string, req *model.UpdateStudentReq) (*model.Student, error)
	DeleteStudent(ctx context.Context, handle string) error
	BulkImport(ctx context.Context, req *model.BulkImportReq) (*model.BulkImportResult, error)
	Staleness(ctx context.Context) ([]*model.StudentStaleness, error)
}

// SyncRunner is the sync surface used by the handlers.
type SyncRunner interface {
	StartAsync(trigger string) (string, error)
	Status(ctx context.Context) (*model.SyncStatus, error)
	History() []*model.SyncOutcome
}

// SettingsUpdater reconfigures the schedule from the admin surface.
type SettingsUpdater interface {
	UpdateSettings(ctx context.Context, req *model.UpdateSyncSettingsReq) (*model.SyncConfig, error)
}

// A student is considered stale when it has not been synced for a day.
const staleAfter = 24 * time.Hour

type StudentService struct {
	Repo   repository.StudentRepository
	Source ProfileSource
	Logger *slog.Logger
}

func NewStudentService(repo repository.StudentRepository, source ProfileSource, logger *slog.Logger) *StudentService {
	return &StudentService{Repo: repo, Source: source, Logger: logger}
}

func (s *StudentService) CreateStudent(ctx context.Context, req *model.CreateStudentReq) (*model.Student, error) {
	student := &model.Student{
		Handle: req.Handle,
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		EmailNotifications: model.EmailNotifications{
			InactivityReminders: req.RemindersEnabled(),
		},
	}
	student.Clamp()

	// Best-effort initial fetch so a freshly created record carries profile
	// data without waiting for the next scheduled run.
	if _, err := model.ValidateHandle(req.Handle, model.HandleModeSync); err == nil {
		s.enrichFromSource(ctx, student)
	}

	if err := s.Repo.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.Logger.Info("student created", "handle", student.Handle)
	return student, nil
}

func (s *StudentService) enrichFromSource(ctx context.Context, student *model.Student) {
	users, err := s.Source.GetUsers(ctx, []string{student.Handle})
	if err != nil || len(users) == 0 {
		if err != nil {
			s.Logger.Warn("initial profile fetch failed", "handle", student.Handle, "error", err)
		}
		return
	}

	u := users[0]
	p := profileFromUser(&u)
	student.Handle = p.Handle // canonical casing from the source
	student.Rank = p.Rank
	student.MaxRank = p.MaxRank
	student.Rating = p.Rating
	student.MaxRating = p.MaxRating
	student.Country = p.Country
	student.City = p.City
	student.Organization = p.Organization
	student.Avatar = p.Avatar
	student.TitlePhoto = p.TitlePhoto
	student.Contribution = p.Contribution
	student.FriendOfCount = p.FriendOfCount
	student.LastOnlineAt = p.LastOnlineAt
	student.RegisteredAt = p.RegisteredAt
	now := time.Now()
	student.LastSyncedAt = &now
	student.Clamp()
}

func (s *StudentService) GetStudent(ctx context.Context, handle string) (*model.Student, error) {
	student, err := s.Repo.GetStudentByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, ErrNotFound
	}
	return student, nil
}

func (s *StudentService) ListStudents(ctx context.Context) ([]*model.Student, error) {
	return s.Repo.ListStudents(ctx)
}

func (s *StudentService) UpdateStudent(ctx context.Context, handle string, req *model.UpdateStudentReq) (*model.Student, error) {
	student, err := s.GetStudent(ctx, handle)
	if err != nil {
		return nil, err
	}

	req.Apply(student)

	if err := s.Repo.UpdateStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *StudentService) DeleteStudent(ctx context.Context, handle string) error {
	if err := s.Repo.DeleteStudent(ctx, handle); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.Logger.Info("student deleted", "handle", handle)
	return nil
}

// BulkImport creates many students in one call. Partial success is allowed;
// profile data is filled in by the next sync pass rather than fetched here.
func (s *StudentService) BulkImport(ctx context.Context, req *model.BulkImportReq) (*model.BulkImportResult, error) {
	result := &model.BulkImportResult{}

	for i := range req.Students {
		entry := &req.Students[i]
		if err := entry.Validate(); err != nil {
			result.FailedCount++
			result.FailedHandles = append(result.FailedHandles, model.FailedHandleInfo{
				Handle: entry.Handle,
				Reason: err.Error(),
			})
			continue
		}

		student := &model.Student{
			Handle: entry.Handle,
			Name:   entry.Name,
			Email:  entry.Email,
			Phone:  entry.Phone,
			EmailNotifications: model.EmailNotifications{
				InactivityReminders: entry.RemindersEnabled(),
			},
		}

		if err := s.Repo.CreateStudent(ctx, student); err != nil {
			reason := err.Error()
			if errors.Is(err, repository.ErrDuplicate) {
				reason = "handle already registered"
			}
			result.FailedCount++
			result.FailedHandles = append(result.FailedHandles, model.FailedHandleInfo{
				Handle: entry.Handle,
				Reason: reason,
			})
			continue
		}
		result.CreatedCount++
	}

	s.Logger.Info("bulk import finished", "created", result.CreatedCount, "failed", result.FailedCount)
	return result, nil
}

func (s *StudentService) Staleness(ctx context.Context) ([]*model.StudentStaleness, error) {
	students, err := s.Repo.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]*model.StudentStaleness, 0, len(students))
	for _, st := range students {
		stale := st.LastSyncedAt == nil || now.Sub(*st.LastSyncedAt) > staleAfter
		out = append(out, &model.StudentStaleness{
			Handle:       st.Handle,
			LastSyncedAt: st.LastSyncedAt,
			Stale:        stale,
		})
	}
	return out, nil
}
