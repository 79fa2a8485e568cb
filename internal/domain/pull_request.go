package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// GradeStatus задает собственный статус оценивания PR. Не зависит от статуса
// самого пул-реквеста на GitHub (open/merged/closed/draft).
type GradeStatus string

const (
	GradeStatusNotGraded GradeStatus = "Not Graded"
	GradeStatusGraded    GradeStatus = "Graded"
	GradeStatusDone      GradeStatus = "Done"
)

// CanTransition проверяет допустимость перехода статуса оценивания.
// Graded достижим из любого статуса (повторное ревью перезаписывает результат),
// Done достижим только после Graded либо при повторной публикации.
// Обратный переход в Not Graded запрещён.
func (s GradeStatus) CanTransition(to GradeStatus) bool {
	switch to {
	case GradeStatusGraded:
		return true
	case GradeStatusDone:
		return s == GradeStatusGraded || s == GradeStatusDone
	case GradeStatusNotGraded:
		return s == GradeStatusNotGraded
	}
	return false
}

// PullRequest представляет пул-реквест студента в рамках курса.
type PullRequest struct {
	ID           int
	CourseID     int
	AssignmentID int
	Number       int
	Title        string
	Description  string
	Status       string // open | merged | closed | draft, зеркало состояния на GitHub
	GradeStatus  GradeStatus
	Result       *ReviewResult
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DetailURL строит ссылку на страницу PR в репозитории курса.
// Без URL репозитория или номера PR ссылку построить нельзя, это ошибка
// для пользователя, а не повод падать.
func (pr *PullRequest) DetailURL(githubURL string) (string, error) {
	if githubURL == "" {
		return "", ErrMissingRepoURL
	}
	if pr.Number == 0 {
		return "", ErrMissingPRNumber
	}
	return fmt.Sprintf("%s/pull/%d", strings.TrimSuffix(githubURL, "/"), pr.Number), nil
}

// Clone возвращает независимую копию записи.
func (pr *PullRequest) Clone() *PullRequest {
	if pr == nil {
		return nil
	}
	cp := *pr
	cp.Result = pr.Result.Clone()
	return &cp
}

// PullRequestPatch описывает частичное обновление записи PR.
// nil-поля не затрагиваются: патч, меняющий только grade_status, не должен
// стереть result, и наоборот.
type PullRequestPatch struct {
	ID           int
	AssignmentID *int
	Number       *int
	Title        *string
	Description  *string
	Status       *string
	GradeStatus  *GradeStatus
	Result       *ReviewResult
}

// PRRepository определяет контракт для работы с хранилищем пул-реквестов.
type PRRepository interface {
	ListByCourse(ctx context.Context, courseID int) ([]*PullRequest, error)
	GetByID(ctx context.Context, prID int) (*PullRequest, error)
	// UpsertForCourse вносит свежие данные с GitHub, сопоставляя записи по
	// номеру PR, и возвращает полный набор PR курса после согласования.
	// result и grade_status существующих записей не трогает.
	UpsertForCourse(ctx context.Context, courseID int, prs []*PullRequest) ([]*PullRequest, error)
	Update(ctx context.Context, patch PullRequestPatch) (*PullRequest, error)
}
