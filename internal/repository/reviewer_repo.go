package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pr-grading-service/internal/domain"
)

// ReviewerRepository реализует чтение каталога LLM-ревьюверов из PostgreSQL.
type ReviewerRepository struct {
	db *sql.DB
}

// NewReviewerRepository создает новый экземпляр ReviewerRepository.
func NewReviewerRepository(db *sql.DB) domain.ReviewerRepository {
	return &ReviewerRepository{db: db}
}

// ListActive возвращает всех активных ревьюверов.
func (r *ReviewerRepository) ListActive(ctx context.Context) ([]*domain.Reviewer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reviewer_name, model_name, status, created_at
		FROM reviewers WHERE status = 'active' ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewers: %w", err)
	}
	defer rows.Close()

	reviewers := make([]*domain.Reviewer, 0)
	for rows.Next() {
		var rv domain.Reviewer
		if err := rows.Scan(&rv.ID, &rv.Name, &rv.Model, &rv.Status, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reviewer: %w", err)
		}
		reviewers = append(reviewers, &rv)
	}
	return reviewers, rows.Err()
}

// GetByID возвращает ревьювера по ID.
func (r *ReviewerRepository) GetByID(ctx context.Context, id int) (*domain.Reviewer, error) {
	var rv domain.Reviewer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, reviewer_name, model_name, status, created_at
		FROM reviewers WHERE id = $1`,
		id,
	).Scan(&rv.ID, &rv.Name, &rv.Model, &rv.Status, &rv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReviewerNotFound
		}
		return nil, fmt.Errorf("failed to get reviewer: %w", err)
	}
	return &rv, nil
}
