package usecase

import (
	"context"

	"pr-grading-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// CourseController отдает карточку курса вместе с каталогом ревьюверов.
type CourseController struct {
	courseRepo   domain.CourseRepository
	reviewerRepo domain.ReviewerRepository
	logger       *logrus.Logger
}

// NewCourseController создает новый экземпляр CourseController.
func NewCourseController(courseRepo domain.CourseRepository, reviewerRepo domain.ReviewerRepository, logger *logrus.Logger) *CourseController {
	return &CourseController{
		courseRepo:   courseRepo,
		reviewerRepo: reviewerRepo,
		logger:       logger,
	}
}

// GetCourse возвращает курс и список активных ревьюверов для него.
func (c *CourseController) GetCourse(ctx context.Context, courseID int) (*domain.Course, []*domain.Reviewer, error) {
	course, err := c.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	reviewers, err := c.reviewerRepo.ListActive(ctx)
	if err != nil {
		// Курс полезен и без каталога ревьюверов, выбор модели просто
		// будет недоступен до восстановления базы.
		c.logger.WithError(err).Warn("Failed to list active reviewers")
		reviewers = nil
	}
	return course, reviewers, nil
}
