package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/crosslist/backend/internal/entity"
	"github.com/crosslist/backend/internal/infra/queue"
	"github.com/crosslist/backend/internal/platform"
)

type MockListingRepo struct{ mock.Mock }

func (m *MockListingRepo) FindByID(ctx context.Context, id string) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Listing), args.Error(1)
}

func (m *MockListingRepo) UpdatePlatformState(ctx context.Context, listingID, platformName string, state entity.PlatformState) error {
	args := m.Called(ctx, listingID, platformName, state)
	return args.Error(0)
}

type MockCredentialStore struct{ mock.Mock }

func (m *MockCredentialStore) Get(ctx context.Context, ownerID, platformName string) (*entity.Credential, error) {
	args := m.Called(ctx, ownerID, platformName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Credential), args.Error(1)
}

func (m *MockCredentialStore) Refresh(ctx context.Context, cred *entity.Credential) (*entity.Credential, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Credential), args.Error(1)
}

func (m *MockCredentialStore) MarkInvalid(ctx context.Context, ownerID, platformName string) error {
	args := m.Called(ctx, ownerID, platformName)
	return args.Error(0)
}

type MockRetryScheduler struct{ mock.Mock }

func (m *MockRetryScheduler) ScheduleRetry(ctx context.Context, job queue.DistributionJob, delay time.Duration) error {
	args := m.Called(ctx, job, delay)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyReconnect(ctx context.Context, ownerID, platformName, listingID string) {
	m.Called(ctx, ownerID, platformName, listingID)
}

type MockAdapter struct {
	mock.Mock
	name string
}

func (m *MockAdapter) Platform() string { return m.name }

func (m *MockAdapter) Publish(ctx context.Context, cred *entity.Credential, listing *entity.Listing) (platform.PublishResult, error) {
	args := m.Called(ctx, cred, listing)
	return args.Get(0).(platform.PublishResult), args.Error(1)
}

func (m *MockAdapter) Update(ctx context.Context, cred *entity.Credential, remoteID string, listing *entity.Listing) error {
	args := m.Called(ctx, cred, remoteID, listing)
	return args.Error(0)
}

func (m *MockAdapter) Remove(ctx context.Context, cred *entity.Credential, remoteID string) error {
	args := m.Called(ctx, cred, remoteID)
	return args.Error(0)
}

func (m *MockAdapter) FetchMessagesSince(ctx context.Context, cred *entity.Credential, cursor string) ([]platform.Notification, string, error) {
	args := m.Called(ctx, cred, cursor)
	var notifications []platform.Notification
	if args.Get(0) != nil {
		notifications = args.Get(0).([]platform.Notification)
	}
	return notifications, args.String(1), args.Error(2)
}

type MockMessageRepo struct{ mock.Mock }

func (m *MockMessageRepo) Insert(ctx context.Context, msg *entity.InboundMessage) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

type MockLeadTx struct{ mock.Mock }

func (m *MockLeadTx) FindByEmail(ctx context.Context, ownerID, platformName string, listingID *string, email string) (*entity.Lead, error) {
	args := m.Called(ctx, ownerID, platformName, listingID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadTx) FindByPhone(ctx context.Context, ownerID, platformName string, listingID *string, phone string) (*entity.Lead, error) {
	args := m.Called(ctx, ownerID, platformName, listingID, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadTx) Candidates(ctx context.Context, ownerID, platformName string, listingID *string, limit int) ([]*entity.Lead, error) {
	args := m.Called(ctx, ownerID, platformName, listingID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadTx) Create(ctx context.Context, l *entity.Lead) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockLeadTx) MergeContact(ctx context.Context, leadID string, msg *entity.InboundMessage) (*entity.Lead, error) {
	args := m.Called(ctx, leadID, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

// FakeLeadRepo hands the matcher a mock transaction without a database.
type FakeLeadRepo struct {
	Tx      *MockLeadTx
	Lead    *entity.Lead
	ListErr error
}

func (f *FakeLeadRepo) Serialized(ctx context.Context, ownerID string, fn func(entity.LeadMatchTx) error) error {
	return fn(f.Tx)
}

func (f *FakeLeadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if f.Lead == nil {
		return nil, entity.ErrNotFound
	}
	return f.Lead, nil
}

func (f *FakeLeadRepo) List(ctx context.Context, ownerID string, filters entity.LeadFilters) ([]*entity.Lead, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if f.Lead == nil {
		return nil, nil
	}
	return []*entity.Lead{f.Lead}, nil
}

func (f *FakeLeadRepo) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	if f.Lead == nil || f.Lead.ID != id {
		return entity.ErrNotFound
	}
	f.Lead.Status = status
	return nil
}
