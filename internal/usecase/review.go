package usecase

import (
	"context"
	"fmt"
	"sync"

	"pr-grading-service/internal/domain"
	"pr-grading-service/internal/gateway"
	"pr-grading-service/internal/result"
	"pr-grading-service/internal/store"

	"github.com/sirupsen/logrus"
)

// ReviewController отправляет выбранные PR внешнему ревьюверу и раскладывает
// нормализованные результаты по хранилищу.
type ReviewController struct {
	store        *store.Store
	prRepo       domain.PRRepository
	courseRepo   domain.CourseRepository
	reviewerRepo domain.ReviewerRepository
	agent        domain.ReviewerGateway
	logger       *logrus.Logger

	mu       sync.Mutex
	inFlight map[int]bool // PR id → ревью в процессе
}

// NewReviewController создает новый экземпляр ReviewController.
func NewReviewController(
	st *store.Store,
	prRepo domain.PRRepository,
	courseRepo domain.CourseRepository,
	reviewerRepo domain.ReviewerRepository,
	agent domain.ReviewerGateway,
	logger *logrus.Logger,
) *ReviewController {
	return &ReviewController{
		store:        st,
		prRepo:       prRepo,
		courseRepo:   courseRepo,
		reviewerRepo: reviewerRepo,
		agent:        agent,
		logger:       logger,
		inFlight:     make(map[int]bool),
	}
}

// InFlight сообщает, идёт ли сейчас ревью данного PR.
func (c *ReviewController) InFlight(prID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[prID]
}

// Review отправляет выбранные PR на ревью.
func (c *ReviewController) Review(ctx context.Context, courseID, assignmentID, reviewerID int, prIDs []int) ([]domain.ReviewerOutcome, error) {
	// Валидация выбора: каждая ошибка показывается пользователю отдельно,
	// до какого-либо сетевого вызова.
	if assignmentID == 0 {
		return nil, domain.ErrAssignmentNotSelected
	}
	if len(prIDs) == 0 {
		return nil, domain.ErrNoPullRequestsSelected
	}
	reviewers, err := c.reviewerRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(reviewers) > 0 && reviewerID == 0 {
		return nil, domain.ErrReviewerNotSelected
	}

	return c.dispatch(ctx, courseID, assignmentID, reviewerID, prIDs, false)
}

// AutoReview отправляет на ревью все PR курса без результата. Пользовательских
// ошибок не возвращает: без однозначного ревьювера просто молча пропускается.
func (c *ReviewController) AutoReview(ctx context.Context, courseID int) ([]domain.ReviewerOutcome, error) {
	course, err := c.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	prs, err := c.coursePRs(ctx, courseID)
	if err != nil {
		return nil, err
	}

	pending := make([]int, 0, len(prs))
	for _, pr := range prs {
		if pr.Result == nil {
			pending = append(pending, pr.ID)
		}
	}
	if len(pending) == 0 {
		c.logger.WithField("course_id", courseID).Info("Auto-grade: nothing to review")
		return nil, nil
	}

	reviewerID, ok := c.pickReviewer(ctx, course)
	if !ok {
		c.logger.WithField("course_id", courseID).Info("Auto-grade skipped: no unambiguous reviewer")
		return nil, nil
	}

	return c.dispatch(ctx, courseID, 0, reviewerID, pending, true)
}

// pickReviewer выбирает ревьювера для авто-оценивания: настроенный в курсе
// по умолчанию, иначе единственный активный. При нуле или нескольких без
// настройки не выбираем.
func (c *ReviewController) pickReviewer(ctx context.Context, course *domain.Course) (int, bool) {
	if course.DefaultReviewerID != nil {
		if _, err := c.reviewerRepo.GetByID(ctx, *course.DefaultReviewerID); err == nil {
			return *course.DefaultReviewerID, true
		}
		c.logger.WithField("reviewer_id", *course.DefaultReviewerID).Warn("Default reviewer is not available")
	}

	reviewers, err := c.reviewerRepo.ListActive(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to list reviewers for auto-grade")
		return 0, false
	}
	if len(reviewers) == 1 {
		return reviewers[0].ID, true
	}
	return 0, false
}

func (c *ReviewController) dispatch(ctx context.Context, courseID, assignmentID, reviewerID int, prIDs []int, auto bool) ([]domain.ReviewerOutcome, error) {
	// Кэш курса должен быть прогрет до раскладки результатов.
	prs, err := c.coursePRs(ctx, courseID)
	if err != nil {
		return nil, err
	}

	// Запрошенные id обязаны принадлежать курсу: Update в базе ищет запись
	// только по id, и чужой PR иначе получил бы результат этого курса.
	known := make(map[int]bool, len(prs))
	for _, pr := range prs {
		known[pr.ID] = true
	}
	for _, id := range prIDs {
		if !known[id] {
			return nil, fmt.Errorf("%w: pr %d", domain.ErrPullRequestNotFound, id)
		}
	}

	if err := c.acquire(prIDs); err != nil {
		return nil, err
	}
	defer c.release(prIDs)

	ctx, cancel := context.WithTimeout(ctx, gateway.ReviewTimeout)
	defer cancel()

	req := domain.ReviewerRequest{
		CourseID:     courseID,
		AssignmentID: assignmentID,
		ReviewerID:   reviewerID,
		PrIDs:        prIDs,
	}

	var outcomes []domain.ReviewerOutcome
	if auto {
		outcomes, err = c.agent.AutoReview(ctx, req)
	} else {
		outcomes, err = c.agent.Review(ctx, req)
	}
	if err != nil {
		// по таймауту или ошибке транспорта хранилище остаётся как до вызова
		c.logger.WithError(err).WithField("course_id", courseID).Error("Reviewer dispatch failed")
		return nil, fmt.Errorf("review dispatch: %w", err)
	}

	requested := make(map[int]bool, len(prIDs))
	for _, id := range prIDs {
		requested[id] = true
	}

	covered := make(map[int]bool, len(outcomes))
	for _, out := range outcomes {
		entry := c.logger.WithFields(logrus.Fields{"course_id": courseID, "pr_id": out.PrID})

		if out.Error != "" {
			entry.WithField("agent_error", out.Error).Warn("Reviewer failed on pull request")
			continue
		}
		if !requested[out.PrID] {
			entry.Warn("Reviewer responded for a pull request that was not requested")
			continue
		}
		covered[out.PrID] = true

		res := result.Normalize(out.Response)
		if res == nil {
			entry.Warn("Reviewer returned an empty result")
			continue
		}
		if res.Status == "" {
			res.Status = out.Status
		}
		if res.ReviewURL == "" {
			res.ReviewURL = out.ReviewURL
		}

		graded := domain.GradeStatusGraded
		patch := domain.PullRequestPatch{ID: out.PrID, GradeStatus: &graded, Result: res}
		if assignmentID != 0 {
			aid := assignmentID
			patch.AssignmentID = &aid
		}

		if _, err := c.prRepo.Update(ctx, patch); err != nil {
			entry.WithError(err).Error("Failed to persist review result")
			continue
		}
		if !c.store.Upsert(courseID, patch) {
			entry.Warn("Reviewed pull request is not in the course cache")
		}
	}

	// Запрошенные, но не покрытые ответом PR остаются как были.
	for _, id := range prIDs {
		if !covered[id] {
			c.logger.WithFields(logrus.Fields{"course_id": courseID, "pr_id": id}).
				Warn("Reviewer response did not cover requested pull request")
		}
	}

	return outcomes, nil
}

// acquire помечает PR как находящиеся в ревью. Пересечение с уже идущим
// ревью отклоняется целиком, чтобы два диспатча не гонялись за одной записью.
func (c *ReviewController) acquire(prIDs []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range prIDs {
		if c.inFlight[id] {
			return fmt.Errorf("%w: pr %d", domain.ErrReviewInFlight, id)
		}
	}
	for _, id := range prIDs {
		c.inFlight[id] = true
	}
	return nil
}

func (c *ReviewController) release(prIDs []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range prIDs {
		delete(c.inFlight, id)
	}
}

func (c *ReviewController) coursePRs(ctx context.Context, courseID int) ([]*domain.PullRequest, error) {
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
