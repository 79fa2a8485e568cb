package handler

import (
	"net/http"
	"strconv"

	"pr-grading-service/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PRHandler обрабатывает HTTP-запросы, связанные с пул-реквестами
type PRHandler struct {
	*BaseHandler
	syncUseCase   domain.SyncUseCase
	courseUseCase domain.CourseUseCase
}

// NewPRHandler создает новый экземпляр PRHandler
func NewPRHandler(syncUseCase domain.SyncUseCase, courseUseCase domain.CourseUseCase, logger *logrus.Logger) *PRHandler {
	return &PRHandler{
		BaseHandler:   NewBaseHandler(logger),
		syncUseCase:   syncUseCase,
		courseUseCase: courseUseCase,
	}
}

// PostSync запускает синхронизацию PR курса с GitHub
func (h *PRHandler) PostSync(c echo.Context) error {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "course_id must be an integer"))
	}

	logEntry := h.logRequest(c, "sync_course").WithField("course_id", courseID)
	logEntry.Info("Synchronizing pull requests")

	prs, err := h.syncUseCase.Sync(c.Request().Context(), courseID)
	if err != nil {
		logEntry.WithError(err).Error("Failed to sync pull requests")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	logEntry.WithField("count", len(prs)).Info("Pull requests synchronized")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"pull_requests": toPullRequestResponses(prs, h.courseGithubURL(c, courseID)),
	})
}

// GetPullRequests отдает все PR курса
func (h *PRHandler) GetPullRequests(c echo.Context) error {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "course_id must be an integer"))
	}

	logEntry := h.logRequest(c, "list_pull_requests").WithField("course_id", courseID)

	prs, err := h.syncUseCase.ListPullRequests(c.Request().Context(), courseID)
	if err != nil {
		logEntry.WithError(err).Error("Failed to list pull requests")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, toPullRequestResponses(prs, h.courseGithubURL(c, courseID)))
}

// GetPullRequest отдает один PR курса; course_id передается query-параметром
func (h *PRHandler) GetPullRequest(c echo.Context) error {
	prID, err := strconv.Atoi(c.Param("pr_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "pr_id must be an integer"))
	}
	courseID, err := strconv.Atoi(c.QueryParam("course_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "course_id must be an integer"))
	}

	logEntry := h.logRequest(c, "get_pull_request").WithFields(logrus.Fields{
		"course_id": courseID,
		"pr_id":     prID,
	})

	pr, err := h.syncUseCase.GetPullRequest(c.Request().Context(), courseID, prID)
	if err != nil {
		logEntry.WithError(err).Warn("Failed to get pull request")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, toPullRequestResponse(pr, h.courseGithubURL(c, courseID)))
}

// courseGithubURL достает URL репозитория курса для построения ссылок на PR.
// Ошибка не фатальна: ответ просто уйдет без html_url.
func (h *PRHandler) courseGithubURL(c echo.Context, courseID int) string {
	course, _, err := h.courseUseCase.GetCourse(c.Request().Context(), courseID)
	if err != nil {
		return ""
	}
	return course.GithubURL
}
