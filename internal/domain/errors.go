package domain

import "errors"

// Domain errors (для бизнес-логики)
var (
	// Validation errors: операция не отправляется вовсе
	ErrAssignmentNotSelected  = errors.New("assignment is not selected")
	ErrNoPullRequestsSelected = errors.New("no pull requests selected")
	ErrReviewerNotSelected    = errors.New("reviewer is not selected")
	ErrEmptyResultEdit        = errors.New("result edit has no content")

	// Not found errors
	ErrCourseNotFound      = errors.New("course not found")
	ErrPullRequestNotFound = errors.New("pull request not found")
	ErrReviewerNotFound    = errors.New("reviewer not found")

	// Publish errors
	ErrNoResult         = errors.New("pull request has no review result")
	ErrPublishRejected  = errors.New("review rejected by github")
	ErrPublishInFlight  = errors.New("review is already being posted")
	ErrMissingRepoURL   = errors.New("course has no github repository url")
	ErrMissingPRNumber  = errors.New("pull request has no remote number")

	// Dispatch errors
	ErrReviewInFlight = errors.New("review already in flight for pull request")

	// Transport errors: хранилище не тронуто, повтор безопасен
	ErrRemoteUnavailable = errors.New("remote call failed")
)

// HTTPError представляет ошибку в HTTP-ответе.
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error HTTPError `json:"error"`
}

// Маппинг domain ошибок в HTTP ошибки
var ErrorMapping = map[error]HTTPError{
	ErrAssignmentNotSelected:  {Code: "VALIDATION", Message: "select an assignment before requesting a review"},
	ErrNoPullRequestsSelected: {Code: "VALIDATION", Message: "select at least one pull request"},
	ErrReviewerNotSelected:    {Code: "VALIDATION", Message: "select a reviewer for the code review"},
	ErrEmptyResultEdit:        {Code: "VALIDATION", Message: "an edited result must keep a summary or at least one comment"},
	ErrCourseNotFound:         {Code: "NOT_FOUND", Message: "course not found"},
	ErrPullRequestNotFound:    {Code: "NOT_FOUND", Message: "pull request not found"},
	ErrReviewerNotFound:       {Code: "NOT_FOUND", Message: "reviewer not found"},
	ErrNoResult:               {Code: "NO_RESULT", Message: "pull request has no review result yet"},
	ErrPublishRejected:        {Code: "PUBLISH_REJECTED", Message: "the review has already been posted or the comment positions do not match the diff"},
	ErrPublishInFlight:        {Code: "PUBLISH_IN_FLIGHT", Message: "a review for this pull request is already being posted"},
	ErrReviewInFlight:         {Code: "REVIEW_IN_FLIGHT", Message: "a review is already in flight for one of the selected pull requests"},
	ErrMissingRepoURL:         {Code: "NO_REPO_URL", Message: "course has no GitHub repository URL"},
	ErrMissingPRNumber:        {Code: "NO_PR_NUMBER", Message: "pull request has no GitHub number"},
	ErrRemoteUnavailable:      {Code: "REMOTE_UNAVAILABLE", Message: "remote service is unavailable, try again"},
}

// ToHTTPError преобразует domain ошибку в HTTP ошибку.
// Ошибки сравниваются через errors.Is, чтобы обёртки не терялись.
func ToHTTPError(err error) (HTTPError, bool) {
	for target, httpErr := range ErrorMapping {
		if errors.Is(err, target) {
			return httpErr, true
		}
	}
	return HTTPError{}, false
}
