package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pr-grading-service/internal/domain"
	"pr-grading-service/internal/store"

	"github.com/sirupsen/logrus"
)

// SyncController загружает пул-реквесты курса с GitHub и согласует их с
// хранилищем. Ошибки транспорта оставляют хранилище нетронутым.
type SyncController struct {
	store      *store.Store
	prRepo     domain.PRRepository
	courseRepo domain.CourseRepository
	github     domain.GitHubGateway
	review     domain.ReviewUseCase
	logger     *logrus.Logger

	// RetryDelay задает паузу перед единственным повтором пустой первой
	// синхронизации; в тестах уменьшается.
	RetryDelay time.Duration

	mu        sync.Mutex
	inFlight  map[int]bool
	attempted map[int]bool // курсы, по которым в этой сессии уже был sync
}

// NewSyncController создает новый экземпляр SyncController.
func NewSyncController(
	st *store.Store,
	prRepo domain.PRRepository,
	courseRepo domain.CourseRepository,
	github domain.GitHubGateway,
	logger *logrus.Logger,
) *SyncController {
	return &SyncController{
		store:      st,
		prRepo:     prRepo,
		courseRepo: courseRepo,
		github:     github,
		logger:     logger,
		RetryDelay: 2 * time.Second,
		inFlight:   make(map[int]bool),
		attempted:  make(map[int]bool),
	}
}

// SetReviewUseCase подключает диспетчер ревью для авто-оценивания.
// Отдельный сеттер разрывает цикл зависимостей sync → review → store.
func (c *SyncController) SetReviewUseCase(review domain.ReviewUseCase) {
	c.review = review
}

// Syncing сообщает, идёт ли сейчас синхронизация курса.
func (c *SyncController) Syncing(courseID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[courseID]
}

// Sync запрашивает актуальные PR с GitHub и заменяет ими набор курса.
// Повторный вызов при уже идущей синхронизации ничего не делает: возвращается
// текущее содержимое хранилища без второго сетевого вызова.
func (c *SyncController) Sync(ctx context.Context, courseID int) ([]*domain.PullRequest, error) {
	c.mu.Lock()
	if c.inFlight[courseID] {
		c.mu.Unlock()
		c.logger.WithField("course_id", courseID).Info("Sync already in flight, returning cached set")
		return c.store.List(courseID), nil
	}
	c.inFlight[courseID] = true
	firstAttempt := !c.attempted[courseID]
	c.attempted[courseID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, courseID)
		c.mu.Unlock()
	}()

	return c.doSync(ctx, courseID, firstAttempt)
}

func (c *SyncController) doSync(ctx context.Context, courseID int, firstAttempt bool) ([]*domain.PullRequest, error) {
	course, err := c.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.GithubURL == "" {
		return nil, domain.ErrMissingRepoURL
	}

	fetched, err := c.github.FetchPullRequests(ctx, course.GithubURL)
	if err != nil {
		c.logger.WithError(err).WithField("course_id", courseID).Error("Failed to fetch pull requests")
		return nil, fmt.Errorf("sync course %d: %w", courseID, err)
	}

	// Свежепривязанный репозиторий может отдать пустой список из-за лага
	// GitHub: один повтор после паузы, без рекурсии.
	if len(fetched) == 0 && firstAttempt && course.SyncedAt == nil {
		c.logger.WithField("course_id", courseID).Info("First sync returned no pull requests, retrying once")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.RetryDelay):
		}
		fetched, err = c.github.FetchPullRequests(ctx, course.GithubURL)
		if err != nil {
			return nil, fmt.Errorf("sync course %d: %w", courseID, err)
		}
	}

	merged, err := c.reconcile(ctx, courseID, fetched)
	if err != nil {
		return nil, err
	}
	c.store.Replace(courseID, merged)

	if err := c.courseRepo.MarkSynced(ctx, courseID); err != nil {
		c.logger.WithError(err).WithField("course_id", courseID).Warn("Failed to mark course as synced")
	}

	if course.AutoGrade && c.review != nil {
		// авто-оценивание не задерживает ответ синхронизации
		go func() {
			if _, err := c.review.AutoReview(context.Background(), courseID); err != nil {
				c.logger.WithError(err).WithField("course_id", courseID).Warn("Auto-grade after sync failed")
			}
		}()
	}

	c.logger.WithFields(logrus.Fields{"course_id": courseID, "count": len(merged)}).
		Info("Pull requests synchronized")
	return merged, nil
}

// reconcile сливает свежие данные в системную запись. Существующие PR
// сохраняют id, result и grade_status; эта подсистема ничего не удаляет.
func (c *SyncController) reconcile(ctx context.Context, courseID int, fetched []*domain.PullRequest) ([]*domain.PullRequest, error) {
	if len(fetched) == 0 {
		return c.prRepo.ListByCourse(ctx, courseID)
	}
	return c.prRepo.UpsertForCourse(ctx, courseID, fetched)
}

// ListPullRequests возвращает PR курса, при холодном кэше загружая их из
// системной записи.
func (c *SyncController) ListPullRequests(ctx context.Context, courseID int) ([]*domain.PullRequest, error) {
	if c.store.Loaded(courseID) {
		return c.store.List(courseID), nil
	}

	prs, err := c.prRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	c.store.Replace(courseID, prs)
	return c.store.List(courseID), nil
}

// GetPullRequest возвращает один PR курса.
func (c *SyncController) GetPullRequest(ctx context.Context, courseID, prID int) (*domain.PullRequest, error) {
	if pr, ok := c.store.Get(courseID, prID); ok {
		return pr, nil
	}

	pr, err := c.prRepo.GetByID(ctx, prID)
	if err != nil {
		return nil, err
	}
	if pr.CourseID != courseID {
		return nil, domain.ErrPullRequestNotFound
	}
	return pr, nil
}
