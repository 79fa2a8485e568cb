package handler

import (
	"errors"
	"net/http"
	"time"

	"pr-grading-service/internal/domain"
)

// Вспомогательные функции преобразования доменных моделей в API модели

type pullRequestResponse struct {
	ID           int                  `json:"id"`
	CourseID     int                  `json:"course_id"`
	AssignmentID int                  `json:"assignment_id,omitempty"`
	Number       int                  `json:"pr_number"`
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	Status       string               `json:"status"`
	GradeStatus  domain.GradeStatus   `json:"grade_status"`
	HTMLURL      string               `json:"html_url,omitempty"`
	Result       *domain.ReviewResult `json:"result,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type courseResponse struct {
	ID                int                `json:"id"`
	Name              string             `json:"name"`
	GithubURL         string             `json:"github_url"`
	AutoGrade         bool               `json:"auto_grade"`
	DefaultReviewerID *int               `json:"default_reviewer_id,omitempty"`
	SyncedAt          *time.Time         `json:"synced_at,omitempty"`
	Reviewers         []reviewerResponse `json:"reviewers"`
	Syncing           bool               `json:"syncing"`
}

type reviewerResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// toPullRequestResponse строит ответ по PR. Ссылка на страницу PR выводится
// из URL репозитория курса; без него поле просто опускается.
func toPullRequestResponse(pr *domain.PullRequest, githubURL string) pullRequestResponse {
	resp := pullRequestResponse{
		ID:           pr.ID,
		CourseID:     pr.CourseID,
		AssignmentID: pr.AssignmentID,
		Number:       pr.Number,
		Title:        pr.Title,
		Description:  pr.Description,
		Status:       pr.Status,
		GradeStatus:  pr.GradeStatus,
		Result:       pr.Result,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
	}
	if url, err := pr.DetailURL(githubURL); err == nil {
		resp.HTMLURL = url
	}
	return resp
}

func toPullRequestResponses(prs []*domain.PullRequest, githubURL string) []pullRequestResponse {
	result := make([]pullRequestResponse, len(prs))
	for i, pr := range prs {
		result[i] = toPullRequestResponse(pr, githubURL)
	}
	return result
}

func toCourseResponse(course *domain.Course, reviewers []*domain.Reviewer, syncing bool) courseResponse {
	rs := make([]reviewerResponse, len(reviewers))
	for i, r := range reviewers {
		rs[i] = reviewerResponse{ID: r.ID, Name: r.Name, Model: r.Model}
	}
	return courseResponse{
		ID:                course.ID,
		Name:              course.Name,
		GithubURL:         course.GithubURL,
		AutoGrade:         course.AutoGrade,
		DefaultReviewerID: course.DefaultReviewerID,
		SyncedAt:          course.SyncedAt,
		Reviewers:         rs,
		Syncing:           syncing,
	}
}

func toErrorResponse(code, message string) domain.ErrorResponse {
	return domain.ErrorResponse{
		Error: domain.HTTPError{
			Code:    code,
			Message: message,
		},
	}
}

func getHTTPStatusCode(err error) int {
	switch {
	// Bad Request (400) - валидация выбора
	case errors.Is(err, domain.ErrAssignmentNotSelected),
		errors.Is(err, domain.ErrNoPullRequestsSelected),
		errors.Is(err, domain.ErrReviewerNotSelected),
		errors.Is(err, domain.ErrEmptyResultEdit):
		return http.StatusBadRequest

	// Not Found (404)
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrPullRequestNotFound),
		errors.Is(err, domain.ErrReviewerNotFound):
		return http.StatusNotFound

	// Conflict (409) - состояние записи не допускает операцию
	case errors.Is(err, domain.ErrNoResult),
		errors.Is(err, domain.ErrPublishRejected),
		errors.Is(err, domain.ErrPublishInFlight),
		errors.Is(err, domain.ErrReviewInFlight),
		errors.Is(err, domain.ErrMissingRepoURL),
		errors.Is(err, domain.ErrMissingPRNumber):
		return http.StatusConflict

	// Bad Gateway (502) - внешний сервис недоступен, повтор безопасен
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// errorBody переводит доменную ошибку в статус и тело HTTP-ответа.
func errorBody(err error) (int, domain.ErrorResponse) {
	if httpErr, ok := domain.ToHTTPError(err); ok {
		return getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr}
	}
	return http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error())
}
