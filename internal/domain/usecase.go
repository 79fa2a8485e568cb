package domain

import "context"

// SyncUseCase определяет бизнес-логику синхронизации PR курса с GitHub.
type SyncUseCase interface {
	// Sync запрашивает актуальные PR с GitHub и заменяет ими набор курса.
	// Повторный вызов при уже идущей синхронизации ничего не делает и
	// возвращает текущее содержимое хранилища без второго сетевого вызова.
	Sync(ctx context.Context, courseID int) ([]*PullRequest, error)
	ListPullRequests(ctx context.Context, courseID int) ([]*PullRequest, error)
	GetPullRequest(ctx context.Context, courseID, prID int) (*PullRequest, error)
	Syncing(courseID int) bool
}

// ReviewUseCase определяет бизнес-логику отправки PR на ревью.
type ReviewUseCase interface {
	Review(ctx context.Context, courseID, assignmentID, reviewerID int, prIDs []int) ([]ReviewerOutcome, error)
	// AutoReview отправляет на ревью все PR курса без результата.
	// Не возвращает пользовательских ошибок: без однозначного ревьювера
	// просто молча пропускается.
	AutoReview(ctx context.Context, courseID int) ([]ReviewerOutcome, error)
	InFlight(prID int) bool
}

// PublishUseCase определяет бизнес-логику публикации результата на GitHub.
type PublishUseCase interface {
	Publish(ctx context.Context, courseID, prID int) (string, error)
}

// ResultUseCase определяет бизнес-логику ручной правки результата.
type ResultUseCase interface {
	UpdateResult(ctx context.Context, courseID, prID int, edit ResultEdit) (*PullRequest, error)
}

// CourseUseCase отдаёт данные курса, видимые оркестрации.
type CourseUseCase interface {
	// GetCourse возвращает курс вместе с каталогом активных ревьюверов.
	GetCourse(ctx context.Context, id int) (*Course, []*Reviewer, error)
}
