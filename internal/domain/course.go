package domain

import (
	"context"
	"time"
)

// Course содержит данные курса, которые видит оркестрация ревью.
// Управление курсами само по себе лежит вне этой подсистемы.
type Course struct {
	ID                int
	Name              string
	GithubURL         string
	AutoGrade         bool
	DefaultReviewerID *int
	SyncedAt          *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CourseRepository определяет контракт для чтения данных курса.
type CourseRepository interface {
	GetByID(ctx context.Context, id int) (*Course, error)
	MarkSynced(ctx context.Context, id int) error
}

// Reviewer описывает сконфигурированную LLM-модель, выполняющую ревью.
type Reviewer struct {
	ID        int
	Name      string
	Model     string
	Status    string
	CreatedAt time.Time
}

// ReviewerRepository определяет контракт для работы с каталогом ревьюверов.
type ReviewerRepository interface {
	ListActive(ctx context.Context) ([]*Reviewer, error)
	GetByID(ctx context.Context, id int) (*Reviewer, error)
}
