package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pr-grading-service/internal/domain"
	"pr-grading-service/internal/store"

	"github.com/sirupsen/logrus"
)

// PublishController публикует готовый результат на GitHub как ревью и
// закрывает жизненный цикл оценивания.
type PublishController struct {
	store      *store.Store
	prRepo     domain.PRRepository
	courseRepo domain.CourseRepository
	github     domain.GitHubGateway
	logger     *logrus.Logger

	mu      sync.Mutex
	posting map[int]bool
}

// NewPublishController создает новый экземпляр PublishController.
func NewPublishController(
	st *store.Store,
	prRepo domain.PRRepository,
	courseRepo domain.CourseRepository,
	github domain.GitHubGateway,
	logger *logrus.Logger,
) *PublishController {
	return &PublishController{
		store:      st,
		prRepo:     prRepo,
		courseRepo: courseRepo,
		github:     github,
		logger:     logger,
		posting:    make(map[int]bool),
	}
}

// Publish отправляет результат PR на GitHub и переводит оценивание в Done.
// Публикация на стороне GitHub не идемпотентна, поэтому при ошибке транспорта
// ничего не меняется и автоматических повторов нет, повтор только ручной.
func (c *PublishController) Publish(ctx context.Context, courseID, prID int) (string, error) {
	pr, err := c.getPR(ctx, courseID, prID)
	if err != nil {
		return "", err
	}
	if !pr.Result.HasContent() {
		return "", domain.ErrNoResult
	}

	course, err := c.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	if course.GithubURL == "" {
		return "", domain.ErrMissingRepoURL
	}
	if pr.Number == 0 {
		return "", domain.ErrMissingPRNumber
	}

	c.mu.Lock()
	if c.posting[prID] {
		c.mu.Unlock()
		return "", domain.ErrPublishInFlight
	}
	c.posting[prID] = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.posting, prID)
		c.mu.Unlock()
	}()

	submission := domain.ReviewSubmission{
		Body:     pr.Result.Summary,
		Event:    "COMMENT",
		Comments: pr.Result.Comments,
	}
	if submission.Body == "" {
		submission.Body = "Code review feedback"
	}

	reviewURL, err := c.github.PostReview(ctx, course.GithubURL, pr.Number, submission)
	if err != nil {
		if errors.Is(err, domain.ErrPublishRejected) {
			c.logger.WithFields(logrus.Fields{"course_id": courseID, "pr_id": prID}).
				Warn("GitHub rejected the review")
			return "", err
		}
		c.logger.WithError(err).WithFields(logrus.Fields{"course_id": courseID, "pr_id": prID}).
			Error("Failed to post review")
		return "", fmt.Errorf("publish pr %d: %w", prID, err)
	}

	now := time.Now().UTC()
	res := pr.Result.Clone()
	res.PostedAt = &now
	if reviewURL != "" {
		res.ReviewURL = reviewURL
	}

	done := domain.GradeStatusDone
	patch := domain.PullRequestPatch{ID: prID, GradeStatus: &done, Result: res}
	if _, err := c.prRepo.Update(ctx, patch); err != nil {
		// GitHub ревью уже принял; потерю записи статуса не превращаем в отказ
		c.logger.WithError(err).WithField("pr_id", prID).Error("Failed to persist published result")
	}
	c.store.Upsert(courseID, patch)

	c.logger.WithFields(logrus.Fields{"course_id": courseID, "pr_id": prID, "review_url": res.ReviewURL}).
		Info("Review published")
	return res.ReviewURL, nil
}

func (c *PublishController) getPR(ctx context.Context, courseID, prID int) (*domain.PullRequest, error) {
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
