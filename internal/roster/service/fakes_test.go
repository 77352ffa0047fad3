package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cfroster/internal/roster/codeforces"
	"cfroster/internal/roster/model"
	"cfroster/internal/roster/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeStudentRepo is an in-memory StudentRepository so sync tests can assert
// on stored state directly.
type fakeStudentRepo struct {
	mu       sync.Mutex
	order    []primitive.ObjectID
	students map[primitive.ObjectID]*model.Student
	// per-handle error injected into ApplyProfile
	applyErr map[string]error
}

func newFakeStudentRepo(handles ...string) *fakeStudentRepo {
	r := &fakeStudentRepo{
		students: make(map[primitive.ObjectID]*model.Student),
		applyErr: make(map[string]error),
	}
	for _, h := range handles {
		r.add(&model.Student{Handle: h})
	}
	return r
}

func (r *fakeStudentRepo) add(s *model.Student) *model.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = primitive.NewObjectID()
	s.Touch(time.Now())
	r.order = append(r.order, s.ID)
	r.students[s.ID] = s
	return s
}

func (r *fakeStudentRepo) byHandle(handle string) *model.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if r.students[id].Handle == handle || r.students[id].HandleLower == handle {
			return r.students[id]
		}
	}
	return nil
}

func (r *fakeStudentRepo) CreateStudent(ctx context.Context, s *model.Student) error {
	if r.byHandle(s.Handle) != nil {
		return repository.ErrDuplicate
	}
	r.add(s)
	return nil
}

func (r *fakeStudentRepo) GetStudentByHandle(ctx context.Context, handle string) (*model.Student, error) {
	return r.byHandle(handle), nil
}

func (r *fakeStudentRepo) ListStudents(ctx context.Context) ([]*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Student, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.students[id])
	}
	return out, nil
}

func (r *fakeStudentRepo) ListStudentIdentities(ctx context.Context) ([]*model.StudentIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.StudentIdentity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, &model.StudentIdentity{ID: id, Handle: r.students[id].Handle})
	}
	return out, nil
}

func (r *fakeStudentRepo) UpdateStudent(ctx context.Context, s *model.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[s.ID]; !ok {
		return repository.ErrNotFound
	}
	s.Clamp()
	r.students[s.ID] = s
	return nil
}

func (r *fakeStudentRepo) DeleteStudent(ctx context.Context, handle string) error {
	s := r.byHandle(handle)
	if s == nil {
		return repository.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.students, s.ID)
	for i, id := range r.order {
		if id == s.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeStudentRepo) ApplyProfile(ctx context.Context, id primitive.ObjectID, p *model.ProfileFields, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err, ok := r.applyErr[s.HandleLower]; ok && err != nil {
		return err
	}
	p.Clamp()
	s.Handle = p.Handle
	s.Rank = p.Rank
	s.MaxRank = p.MaxRank
	s.Rating = p.Rating
	s.MaxRating = p.MaxRating
	s.Country = p.Country
	s.City = p.City
	s.Organization = p.Organization
	s.Avatar = p.Avatar
	s.TitlePhoto = p.TitlePhoto
	s.Contribution = p.Contribution
	s.FriendOfCount = p.FriendOfCount
	s.LastOnlineAt = p.LastOnlineAt
	s.RegisteredAt = p.RegisteredAt
	t := syncedAt
	s.LastSyncedAt = &t
	s.Touch(syncedAt)
	return nil
}

func (r *fakeStudentRepo) TouchLastSynced(ctx context.Context, id primitive.ObjectID, syncedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.students[id]; ok {
		t := syncedAt
		s.LastSyncedAt = &t
	}
	return nil
}

func (r *fakeStudentRepo) FindReminderCandidates(ctx context.Context) ([]*model.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Student
	for _, id := range r.order {
		s := r.students[id]
		if s.Email != "" && s.EmailNotifications.InactivityReminders {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeStudentRepo) UpdateLastSubmission(ctx context.Context, id primitive.ObjectID, at *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.students[id]; ok {
		s.Inactivity.LastSubmissionAt = at
	}
	return nil
}

func (r *fakeStudentRepo) MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return repository.ErrNotFound
	}
	t := at
	s.Inactivity.LastReminderAt = &t
	s.Inactivity.ReminderCount++
	return nil
}

func (r *fakeStudentRepo) EnsureIndexes(ctx context.Context) error { return nil }

// fakeConfigRepo holds the singleton in memory.
type fakeConfigRepo struct {
	mu    sync.Mutex
	cfg   *model.SyncConfig
	saves int
}

func newFakeConfigRepo(cfg *model.SyncConfig) *fakeConfigRepo {
	return &fakeConfigRepo{cfg: cfg}
}

// testSyncConfig returns defaults tuned for fast tests: no retry backoff and
// the minimum inter-batch delay.
func testSyncConfig() *model.SyncConfig {
	cfg := model.DefaultSyncConfig()
	cfg.ID = primitive.NewObjectID()
	cfg.MaxRetries = 0
	cfg.DelayBetweenBatchesMS = model.MinDelayMS
	return cfg
}

func (r *fakeConfigRepo) GetOrCreate(ctx context.Context) (*model.SyncConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		r.cfg = testSyncConfig()
	}
	return r.cfg, nil
}

func (r *fakeConfigRepo) Save(ctx context.Context, cfg *model.SyncConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	r.saves++
	return nil
}

// fakeSource scripts the external profile API.
type fakeSource struct {
	mu    sync.Mutex
	calls [][]string

	// respond is invoked per GetUsers call with the call index (from 0)
	respond func(call int, handles []string) ([]codeforces.User, error)
	// lastSubmission backs LastSubmissionTime
	lastSubmission func(handle string) (*time.Time, error)
	// when set, GetUsers blocks until the channel is closed
	gate chan struct{}
}

func (f *fakeSource) GetUsers(ctx context.Context, handles []string) ([]codeforces.User, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, append([]string(nil), handles...))
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return usersFor(handles...), nil
	}
	return respond(call, handles)
}

func (f *fakeSource) LastSubmissionTime(ctx context.Context, handle string) (*time.Time, error) {
	if f.lastSubmission == nil {
		return nil, nil
	}
	return f.lastSubmission(handle)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// usersFor builds plain rated profiles for the given handles.
func usersFor(handles ...string) []codeforces.User {
	users := make([]codeforces.User, 0, len(handles))
	for _, h := range handles {
		users = append(users, codeforces.User{
			Handle:    h,
			Rating:    1500,
			MaxRating: 1700,
			Rank:      "specialist",
			MaxRank:   "expert",
			Country:   "Estonia",
		})
	}
	return users
}

// fakeMailer records dispatches and can be told to fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *fakeMailer) SendInactivityReminder(ctx context.Context, s *model.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, s.Handle)
	return nil
}

func (m *fakeMailer) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
