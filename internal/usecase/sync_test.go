package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"pr-grading-service/internal/domain"
	"pr-grading-service/internal/store"
	"pr-grading-service/internal/usecase"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testCourse(id int) *domain.Course {
	synced := time.Now().Add(-time.Hour)
	return &domain.Course{
		ID:        id,
		Name:      "Go backend course",
		GithubURL: "https://github.com/org/course-repo",
		SyncedAt:  &synced,
	}
}

func TestSyncController_Sync(t *testing.T) {
	courseRepo := new(MockCourseRepository)
	prRepo := new(MockPRRepository)
	github := new(MockGitHubGateway)
	st := store.New()

	fetched := []*domain.PullRequest{
		{Number: 5, Title: "feat: add handler", Status: "open"},
		{Number: 7, Title: "fix: nil deref", Status: "merged"},
	}
	merged := []*domain.PullRequest{
		{ID: 1, CourseID: 1, Number: 5, Title: "feat: add handler", Status: "open", GradeStatus: domain.GradeStatusNotGraded},
		{ID: 2, CourseID: 1, Number: 7, Title: "fix: nil deref", Status: "merged", GradeStatus: domain.GradeStatusNotGraded},
	}

	courseRepo.On("GetByID", mock.Anything, 1).Return(testCourse(1), nil)
	github.On("FetchPullRequests", mock.Anything, "https://github.com/org/course-repo").Return(fetched, nil)
	prRepo.On("UpsertForCourse", mock.Anything, 1, fetched).Return(merged, nil)
	courseRepo.On("MarkSynced", mock.Anything, 1).Return(nil)

	ctrl := usecase.NewSyncController(st, prRepo, courseRepo, github, testLogger())

	prs, err := ctrl.Sync(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, prs, 2)

	// набор курса заменён содержимым системной записи
	cached := st.List(1)
	require.Len(t, cached, 2)
	assert.Equal(t, 5, cached[0].Number)
	assert.Equal(t, 7, cached[1].Number)

	courseRepo.AssertExpectations(t)
	prRepo.AssertExpectations(t)
	github.AssertExpectations(t)
}

func TestSyncController_Sync_EmptyFetchKeepsExisting(t *testing.T) {
	// Посев пустым ответом GitHub при уже синхронизированном курсе не должен
	// трогать существующие записи и не должен запускать авто-оценивание.
	courseRepo := new(MockCourseRepository)
	prRepo := new(MockPRRepository)
	github := new(MockGitHubGateway)
	st := store.New()

	existing := []*domain.PullRequest{
		{ID: 1, CourseID: 1, Number: 5, GradeStatus: domain.GradeStatusGraded, Result: &domain.ReviewResult{Summary: "ok"}},
	}

	courseRepo.On("GetByID", mock.Anything, 1).Return(testCourse(1), nil)
	github.On("FetchPullRequests", mock.Anything, mock.Anything).Return([]*domain.PullRequest{}, nil)
	prRepo.On("ListByCourse", mock.Anything, 1).Return(existing, nil)
	courseRepo.On("MarkSynced", mock.Anything, 1).Return(nil)

	ctrl := usecase.NewSyncController(st, prRepo, courseRepo, github, testLogger())
	autoReview := &autoReviewSpy{}
	ctrl.SetReviewUseCase(autoReview)

	prs, err := ctrl.Sync(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, domain.GradeStatusGraded, prs[0].GradeStatus)
	assert.Zero(t, autoReview.calls.Load())

	github.AssertNumberOfCalls(t, "FetchPullRequests", 1)
}

func TestSyncController_Sync_RetriesEmptyFirstFetch(t *testing.T) {
	courseRepo := new(MockCourseRepository)
	prRepo := new(MockPRRepository)
	github := new(MockGitHubGateway)
	st := store.New()

	course := testCourse(1)
	course.SyncedAt = nil // курс ещё ни разу не синхронизировался

	fetched := []*domain.PullRequest{{Number: 3, Title: "hw1", Status: "open"}}
	merged := []*domain.PullRequest{{ID: 9, CourseID: 1, Number: 3, Title: "hw1", Status: "open"}}

	courseRepo.On("GetByID", mock.Anything, 1).Return(course, nil)
	github.On("FetchPullRequests", mock.Anything, mock.Anything).Return([]*domain.PullRequest{}, nil).Once()
	github.On("FetchPullRequests", mock.Anything, mock.Anything).Return(fetched, nil).Once()
	prRepo.On("UpsertForCourse", mock.Anything, 1, fetched).Return(merged, nil)
	courseRepo.On("MarkSynced", mock.Anything, 1).Return(nil)

	ctrl := usecase.NewSyncController(st, prRepo, courseRepo, github, testLogger())
	ctrl.RetryDelay = time.Millisecond

	prs, err := ctrl.Sync(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	github.AssertNumberOfCalls(t, "FetchPullRequests", 2)
}

func TestSyncController_Sync_FirstSyncEndsEmpty(t *testing.T) {
	// Первая синхронизация курса без единого PR: повторная выборка тоже
	// пуста, курс помечается синхронизированным, кэш остаётся пустым и
	// авто-оценивание не запускается.
	courseRepo := new(MockCourseRepository)
	prRepo := new(MockPRRepository)
	github := new(MockGitHubGateway)
	st := store.New()

	course := testCourse(1)
	course.SyncedAt = nil

	courseRepo.On("GetByID", mock.Anything, 1).Return(course, nil)
	github.On("FetchPullRequests", mock.Anything, mock.Anything).Return([]*domain.PullRequest{}, nil)
	prRepo.On("ListByCourse", mock.Anything, 1).Return([]*domain.PullRequest{}, nil)
	courseRepo.On("MarkSynced", mock.Anything, 1).Return(nil)

	ctrl := usecase.NewSyncController(st, prRepo, courseRepo, github, testLogger())
	ctrl.RetryDelay = time.Millisecond
	autoReview := &autoReviewSpy{}
	ctrl.SetReviewUseCase(autoReview)

	prs, err := ctrl.Sync(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, prs)
	assert.Empty(t, st.List(1))
	assert.Zero(t, autoReview.calls.Load())

	github.AssertNumberOfCalls(t, "FetchPullRequests", 2)
	courseRepo.AssertCalled(t, "MarkSynced", mock.Anything, 1)
}

func TestSyncController_Sync_TransportErrorLeavesStore(t *testing.T) {
	courseRepo := new(MockCourseRepository)
	prRepo := new(MockPRRepository)
	github := new(MockGitHubGateway)
	st := store.New()
	st.Replace(1, []*domain.PullRequest{{ID: 1, CourseID: 1, Number: 5, Title: "before"}})

	courseRepo.On("GetByID", mock.Anything, 1).Return(testCourse(1), nil)
	github.On("FetchPullRequests", mock.Anything, mock.Anything).
		Return(nil, domain.ErrRemoteUnavailable)

	ctrl := usecase.NewSyncController(st, prRepo, courseRepo, github, testLogger())

	_, err := ctrl.Sync(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrRemoteUnavailable)

	cached := st.List(1)
	require.Len(t, cached, 1)
	assert.Equal(t, "before", cached[0].Title)
	prRepo.AssertNotCalled(t, "UpsertForCourse", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncController_Sync_MissingRepoURL(t *testing.T) {
	courseRepo := new(MockCourseRepository)
	courseRepo.On("GetByID", mock.Anything, 1).Return(&domain.Course{ID: 1, Name: "unbound"}, nil)

	ctrl := usecase.NewSyncController(store.New(), new(MockPRRepository), courseRepo, new(MockGitHubGateway), testLogger())

	_, err := ctrl.Sync(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrMissingRepoURL)
}

func TestSyncController_Sync_BusyReturnsCachedSet(t *testing.T) {
	courseRepo := new(MockCourseRepository)
	prRepo := new(MockPRRepository)
	github := new(MockGitHubGateway)
	st := store.New()
	st.Replace(1, []*domain.PullRequest{{ID: 1, CourseID: 1, Number: 5}})

	entered := make(chan struct{})
	proceed := make(chan struct{})

	courseRepo.On("GetByID", mock.Anything, 1).Return(testCourse(1), nil)
	github.On("FetchPullRequests", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-proceed
		}).
		Return([]*domain.PullRequest{}, nil)
	prRepo.On("ListByCourse", mock.Anything, 1).Return([]*domain.PullRequest{}, nil)
	courseRepo.On("MarkSynced", mock.Anything, 1).Return(nil)

	ctrl := usecase.NewSyncController(st, prRepo, courseRepo, github, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ctrl.Sync(context.Background(), 1)
	}()

	<-entered
	assert.True(t, ctrl.Syncing(1))

	// второй вызов возвращает кэш, не дожидаясь первого и без второго fetch
	prs, err := ctrl.Sync(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, prs, 1)

	close(proceed)
	<-done
	assert.False(t, ctrl.Syncing(1))
	github.AssertNumberOfCalls(t, "FetchPullRequests", 1)
}

func TestSyncController_Sync_AutoGradeTriggered(t *testing.T) {
	courseRepo := new(MockCourseRepository)
	prRepo := new(MockPRRepository)
	github := new(MockGitHubGateway)
	st := store.New()

	course := testCourse(1)
	course.AutoGrade = true

	fetched := []*domain.PullRequest{{Number: 5, Status: "open"}}
	merged := []*domain.PullRequest{{ID: 1, CourseID: 1, Number: 5, Status: "open"}}

	courseRepo.On("GetByID", mock.Anything, 1).Return(course, nil)
	github.On("FetchPullRequests", mock.Anything, mock.Anything).Return(fetched, nil)
	prRepo.On("UpsertForCourse", mock.Anything, 1, fetched).Return(merged, nil)
	courseRepo.On("MarkSynced", mock.Anything, 1).Return(nil)

	ctrl := usecase.NewSyncController(st, prRepo, courseRepo, github, testLogger())
	autoReview := &autoReviewSpy{notified: make(chan struct{}, 1)}
	ctrl.SetReviewUseCase(autoReview)

	_, err := ctrl.Sync(context.Background(), 1)
	require.NoError(t, err)

	select {
	case <-autoReview.notified:
	case <-time.After(time.Second):
		t.Fatal("auto-grade was not triggered after sync")
	}
}

func TestSyncController_ListPullRequests_LoadsColdCache(t *testing.T) {
	prRepo := new(MockPRRepository)
	st := store.New()

	stored := []*domain.PullRequest{{ID: 1, CourseID: 1, Number: 5, Title: "hw1"}}
	prRepo.On("ListByCourse", mock.Anything, 1).Return(stored, nil).Once()

	ctrl := usecase.NewSyncController(st, prRepo, new(MockCourseRepository), new(MockGitHubGateway), testLogger())

	prs, err := ctrl.ListPullRequests(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, prs, 1)

	// повторный вызов идёт из кэша
	prs, err = ctrl.ListPullRequests(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	prRepo.AssertNumberOfCalls(t, "ListByCourse", 1)
}

func TestSyncController_GetPullRequest_WrongCourse(t *testing.T) {
	prRepo := new(MockPRRepository)
	prRepo.On("GetByID", mock.Anything, 7).Return(&domain.PullRequest{ID: 7, CourseID: 2}, nil)

	ctrl := usecase.NewSyncController(store.New(), prRepo, new(MockCourseRepository), new(MockGitHubGateway), testLogger())

	_, err := ctrl.GetPullRequest(context.Background(), 1, 7)
	assert.ErrorIs(t, err, domain.ErrPullRequestNotFound)
}

// autoReviewSpy фиксирует вызовы AutoReview без запуска настоящего диспетчера.
type autoReviewSpy struct {
	calls    atomic.Int64
	notified chan struct{}
}

func (s *autoReviewSpy) Review(context.Context, int, int, int, []int) ([]domain.ReviewerOutcome, error) {
	return nil, errors.New("not expected")
}

func (s *autoReviewSpy) AutoReview(context.Context, int) ([]domain.ReviewerOutcome, error) {
	s.calls.Add(1)
	if s.notified != nil {
		s.notified <- struct{}{}
	}
	return nil, nil
}

func (s *autoReviewSpy) InFlight(int) bool { return false }
