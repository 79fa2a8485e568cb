package usecase

import (
	"context"

	"pr-grading-service/internal/domain"
	"pr-grading-service/internal/store"

	"github.com/sirupsen/logrus"
)

// ResultController применяет ручные правки результата без повторного ревью.
type ResultController struct {
	store  *store.Store
	prRepo domain.PRRepository
	logger *logrus.Logger
}

// NewResultController создает новый экземпляр ResultController.
func NewResultController(st *store.Store, prRepo domain.PRRepository, logger *logrus.Logger) *ResultController {
	return &ResultController{
		store:  st,
		prRepo: prRepo,
		logger: logger,
	}
}

// UpdateResult применяет правку к существующему результату.
// Позиции комментариев неизменяемы: они берутся из сохранённого результата
// по индексу, правке поддаются только path и body. Добавить комментарий
// нельзя, поскольку для новой строки диффа позиция известна только ревьюверу.
// Правка после публикации возвращает статус в Graded: чтобы снова стать
// Done, результат нужно опубликовать ещё раз.
func (c *ResultController) UpdateResult(ctx context.Context, courseID, prID int, edit domain.ResultEdit) (*domain.PullRequest, error) {
	pr, err := c.getPR(ctx, courseID, prID)
	if err != nil {
		return nil, err
	}
	if pr.Result == nil {
		return nil, domain.ErrNoResult
	}

	res := pr.Result.Clone()
	res.Summary = edit.Summary

	comments := make([]domain.ReviewComment, 0, len(edit.Comments))
	for i, ec := range edit.Comments {
		if i >= len(res.Comments) {
			c.logger.WithFields(logrus.Fields{"pr_id": prID, "index": i}).
				Warn("Dropping edited comment without a stored position")
			break
		}
		comments = append(comments, domain.ReviewComment{
			Path:     ec.Path,
			Position: res.Comments[i].Position,
			Body:     ec.Body,
		})
	}
	res.Comments = comments

	// Правка не может опустошить результат: запись со статусом Graded
	// обязана иметь результат, а пустой результат при чтении из базы
	// нормализуется в nil.
	if !res.HasContent() {
		return nil, domain.ErrEmptyResultEdit
	}

	graded := domain.GradeStatusGraded
	patch := domain.PullRequestPatch{ID: prID, GradeStatus: &graded, Result: res}

	updated, err := c.prRepo.Update(ctx, patch)
	if err != nil {
		return nil, err
	}
	c.store.Upsert(courseID, patch)

	c.logger.WithFields(logrus.Fields{"course_id": courseID, "pr_id": prID}).
		Info("Review result updated manually")
	return updated, nil
}

func (c *ResultController) getPR(ctx context.Context, courseID, prID int) (*domain.PullRequest, error) {
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
