package handler_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"cfroster/internal/roster/model"
)

// MockRosterService is a testify mock of service.RosterService.
type MockRosterService struct {
	mock.Mock
}

func (m *MockRosterService) CreateStudent(ctx context.Context, req *model.CreateStudentReq) (*model.Student, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockRosterService) GetStudent(ctx context.Context, handle string) (*model.Student, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockRosterService) ListStudents(ctx context.Context) ([]*model.Student, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Student), args.Error(1)
}

func (m *MockRosterService) UpdateStudent(ctx context.Context, handle string, req *model.UpdateStudentReq) (*model.Student, error) {
	args := m.Called(ctx, handle, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Student), args.Error(1)
}

func (m *MockRosterService) DeleteStudent(ctx context.Context, handle string) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

func (m *MockRosterService) BulkImport(ctx context.Context, req *model.BulkImportReq) (*model.BulkImportResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BulkImportResult), args.Error(1)
}

func (m *MockRosterService) Staleness(ctx context.Context) ([]*model.StudentStaleness, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.StudentStaleness), args.Error(1)
}

// MockSyncRunner is a testify mock of service.SyncRunner.
type MockSyncRunner struct {
	mock.Mock
}

func (m *MockSyncRunner) StartAsync(trigger string) (string, error) {
	args := m.Called(trigger)
	return args.String(0), args.Error(1)
}

func (m *MockSyncRunner) Status(ctx context.Context) (*model.SyncStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncStatus), args.Error(1)
}

func (m *MockSyncRunner) History() []*model.SyncOutcome {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*model.SyncOutcome)
}

// MockSettingsUpdater is a testify mock of service.SettingsUpdater.
type MockSettingsUpdater struct {
	mock.Mock
}

func (m *MockSettingsUpdater) UpdateSettings(ctx context.Context, req *model.UpdateSyncSettingsReq) (*model.SyncConfig, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncConfig), args.Error(1)
}
