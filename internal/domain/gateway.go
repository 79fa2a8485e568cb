package domain

import (
	"context"
	"encoding/json"
)

// GitHubGateway определяет доступ к GitHub REST API от имени курса.
type GitHubGateway interface {
	FetchPullRequests(ctx context.Context, githubURL string) ([]*PullRequest, error)
	// PostReview публикует ревью и возвращает ссылку на него (может быть пустой,
	// если GitHub её не вернул). Повторная публикация того же ревью на стороне
	// GitHub не идемпотентна.
	PostReview(ctx context.Context, githubURL string, prNumber int, review ReviewSubmission) (string, error)
}

// ReviewSubmission описывает тело ревью, отправляемое на GitHub.
type ReviewSubmission struct {
	Body     string          `json:"body"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments"`
}

// ReviewerRequest описывает батч-запрос к внешнему сервису ревью.
type ReviewerRequest struct {
	CourseID     int
	AssignmentID int
	ReviewerID   int
	PrIDs        []int
}

// ReviewerOutcome содержит результат ревью одного PR в том виде, в каком его вернул
// сервис ревьювера. Response хранится сырым: форму выравнивает нормализатор.
type ReviewerOutcome struct {
	PrID      int             `json:"pr_id"`
	Response  json.RawMessage `json:"response,omitempty"`
	Status    string          `json:"status,omitempty"`
	ReviewURL string          `json:"review_url,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ReviewerGateway определяет клиента внешнего сервиса ревью (LLM-агента).
// Ответ не обязан покрывать все запрошенные PR.
type ReviewerGateway interface {
	Review(ctx context.Context, req ReviewerRequest) ([]ReviewerOutcome, error)
	AutoReview(ctx context.Context, req ReviewerRequest) ([]ReviewerOutcome, error)
}
