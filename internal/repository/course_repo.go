package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pr-grading-service/internal/domain"
)

// CourseRepository реализует чтение данных курса из PostgreSQL.
type CourseRepository struct {
	db *sql.DB
}

// NewCourseRepository создает новый экземпляр CourseRepository.
func NewCourseRepository(db *sql.DB) domain.CourseRepository {
	return &CourseRepository{db: db}
}

// GetByID возвращает курс по ID.
func (r *CourseRepository) GetByID(ctx context.Context, id int) (*domain.Course, error) {
	var course domain.Course
	var defaultReviewerID sql.NullInt64
	var syncedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT id, course_name, github_url, auto_grade, default_reviewer_id, synced_at, created_at, updated_at
		FROM courses WHERE id = $1`,
		id,
	).Scan(
		&course.ID, &course.Name, &course.GithubURL, &course.AutoGrade,
		&defaultReviewerID, &syncedAt, &course.CreatedAt, &course.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if defaultReviewerID.Valid {
		v := int(defaultReviewerID.Int64)
		course.DefaultReviewerID = &v
	}
	if syncedAt.Valid {
		t := syncedAt.Time
		course.SyncedAt = &t
	}
	return &course, nil
}

// MarkSynced отмечает, что курс хотя бы раз успешно синхронизировался.
func (r *CourseRepository) MarkSynced(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE courses SET synced_at = now(), updated_at = now() WHERE id = $1",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark course synced: %w", err)
	}
	return nil
}
