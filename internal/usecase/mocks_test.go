package usecase_test

import (
	"context"

	"pr-grading-service/internal/domain"

	"github.com/stretchr/testify/mock"
)

type MockPRRepository struct {
	mock.Mock
}

func (m *MockPRRepository) ListByCourse(ctx context.Context, courseID int) ([]*domain.PullRequest, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PullRequest), args.Error(1)
}

func (m *MockPRRepository) GetByID(ctx context.Context, prID int) (*domain.PullRequest, error) {
	args := m.Called(ctx, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

func (m *MockPRRepository) UpsertForCourse(ctx context.Context, courseID int, prs []*domain.PullRequest) ([]*domain.PullRequest, error) {
	args := m.Called(ctx, courseID, prs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PullRequest), args.Error(1)
}

func (m *MockPRRepository) Update(ctx context.Context, patch domain.PullRequestPatch) (*domain.PullRequest, error) {
	args := m.Called(ctx, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id int) (*domain.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

func (m *MockCourseRepository) MarkSynced(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReviewerRepository struct {
	mock.Mock
}

func (m *MockReviewerRepository) ListActive(ctx context.Context) ([]*domain.Reviewer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reviewer), args.Error(1)
}

func (m *MockReviewerRepository) GetByID(ctx context.Context, id int) (*domain.Reviewer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reviewer), args.Error(1)
}

type MockGitHubGateway struct {
	mock.Mock
}

func (m *MockGitHubGateway) FetchPullRequests(ctx context.Context, githubURL string) ([]*domain.PullRequest, error) {
	args := m.Called(ctx, githubURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PullRequest), args.Error(1)
}

func (m *MockGitHubGateway) PostReview(ctx context.Context, githubURL string, prNumber int, review domain.ReviewSubmission) (string, error) {
	args := m.Called(ctx, githubURL, prNumber, review)
	return args.String(0), args.Error(1)
}

type MockReviewerGateway struct {
	mock.Mock
}

func (m *MockReviewerGateway) Review(ctx context.Context, req domain.ReviewerRequest) ([]domain.ReviewerOutcome, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewerOutcome), args.Error(1)
}

func (m *MockReviewerGateway) AutoReview(ctx context.Context, req domain.ReviewerRequest) ([]domain.ReviewerOutcome, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewerOutcome), args.Error(1)
}
