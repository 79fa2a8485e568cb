package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pr-grading-service/internal/domain"
	"pr-grading-service/internal/result"
)

// PRRepository реализует хранение пул-реквестов в PostgreSQL.
// Колонка result хранит канонический JSON; при чтении текст прогоняется
// через нормализатор, единственную границу, где форма выравнивается.
type PRRepository struct {
	db *sql.DB
}

// NewPRRepository создает новый экземпляр PRRepository.
func NewPRRepository(db *sql.DB) domain.PRRepository {
	return &PRRepository{db: db}
}

const prColumns = "id, course_id, assignment_id, pr_number, title, description, status, grade_status, result, created_at, updated_at"

func scanPR(row interface{ Scan(...any) error }) (*domain.PullRequest, error) {
	var pr domain.PullRequest
	var gradeStatus, rawResult string
	err := row.Scan(
		&pr.ID, &pr.CourseID, &pr.AssignmentID, &pr.Number,
		&pr.Title, &pr.Description, &pr.Status,
		&gradeStatus, &rawResult,
		&pr.CreatedAt, &pr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pr.GradeStatus = domain.GradeStatus(gradeStatus)
	pr.Result = result.Normalize(rawResult)
	return &pr, nil
}

func marshalResult(res *domain.ReviewResult) (string, error) {
	if res == nil {
		return "", nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("failed to marshal review result: %w", err)
	}
	return string(b), nil
}

// ListByCourse возвращает все PR курса, упорядоченные по номеру.
func (r *PRRepository) ListByCourse(ctx context.Context, courseID int) ([]*domain.PullRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+prColumns+" FROM pull_requests WHERE course_id = $1 ORDER BY pr_number",
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}
	defer rows.Close()

	prs := make([]*domain.PullRequest, 0)
	for rows.Next() {
		pr, err := scanPR(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pull request: %w", err)
		}
		prs = append(prs, pr)
	}
	return prs, rows.Err()
}

// GetByID возвращает PR по ID.
func (r *PRRepository) GetByID(ctx context.Context, prID int) (*domain.PullRequest, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+prColumns+" FROM pull_requests WHERE id = $1",
		prID,
	)
	pr, err := scanPR(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPullRequestNotFound
		}
		return nil, fmt.Errorf("failed to get pull request: %w", err)
	}
	return pr, nil
}

// UpsertForCourse сливает свежие данные с GitHub по (course_id, pr_number).
// У существующих записей обновляются только поля жизненного цикла:
// result и grade_status конфликтный UPDATE не трогает.
func (r *PRRepository) UpsertForCourse(ctx context.Context, courseID int, prs []*domain.PullRequest) ([]*domain.PullRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, pr := range prs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pull_requests (course_id, pr_number, title, description, status, grade_status, result)
			VALUES ($1, $2, $3, $4, $5, $6, '')
			ON CONFLICT (course_id, pr_number) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				status = EXCLUDED.status,
				updated_at = now()`,
			courseID, pr.Number, pr.Title, pr.Description, pr.Status, string(domain.GradeStatusNotGraded),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert pull request #%d: %w", pr.Number, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.ListByCourse(ctx, courseID)
}

// Update применяет частичное обновление: в SET попадают только ненулевые
// поля патча, поэтому патч по grade_status не может затереть result.
func (r *PRRepository) Update(ctx context.Context, patch domain.PullRequestPatch) (*domain.PullRequest, error) {
	set := []string{"updated_at = now()"}
	args := []any{}
	idx := 1

	add := func(col string, val any) {
		set = append(set, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if patch.AssignmentID != nil {
		add("assignment_id", *patch.AssignmentID)
	}
	if patch.Number != nil {
		add("pr_number", *patch.Number)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.GradeStatus != nil {
		add("grade_status", string(*patch.GradeStatus))
	}
	if patch.Result != nil {
		raw, err := marshalResult(patch.Result)
		if err != nil {
			return nil, err
		}
		add("result", raw)
	}

	query := fmt.Sprintf(
		"UPDATE pull_requests SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), idx, prColumns,
	)
	args = append(args, patch.ID)

	pr, err := scanPR(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPullRequestNotFound
		}
		return nil, fmt.Errorf("failed to update pull request: %w", err)
	}
	return pr, nil
}
