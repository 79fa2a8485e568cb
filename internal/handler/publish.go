package handler

import (
	"net/http"
	"strconv"

	"pr-grading-service/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PublishHandler обрабатывает публикацию результата и ручные правки
type PublishHandler struct {
	*BaseHandler
	publishUseCase domain.PublishUseCase
	resultUseCase  domain.ResultUseCase
	courseUseCase  domain.CourseUseCase
}

// NewPublishHandler создает новый экземпляр PublishHandler
func NewPublishHandler(
	publishUseCase domain.PublishUseCase,
	resultUseCase domain.ResultUseCase,
	courseUseCase domain.CourseUseCase,
	logger *logrus.Logger,
) *PublishHandler {
	return &PublishHandler{
		BaseHandler:    NewBaseHandler(logger),
		publishUseCase: publishUseCase,
		resultUseCase:  resultUseCase,
		courseUseCase:  courseUseCase,
	}
}

type publishRequest struct {
	CourseID int `json:"course_id"`
}

type resultEditRequest struct {
	CourseID int `json:"course_id"`
	Result   struct {
		Summary  string `json:"summary"`
		Comments []struct {
			Path string `json:"path"`
			Body string `json:"body"`
		} `json:"comments"`
	} `json:"result"`
}

// PutReview публикует результат PR на GitHub как ревью
func (h *PublishHandler) PutReview(c echo.Context) error {
	prID, err := strconv.Atoi(c.Param("pr_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "pr_id must be an integer"))
	}

	var req publishRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind publish request")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	logEntry := h.logRequest(c, "publish_review").WithFields(logrus.Fields{
		"course_id": req.CourseID,
		"pr_id":     prID,
	})
	logEntry.Info("Publishing review to GitHub")

	reviewURL, err := h.publishUseCase.Publish(c.Request().Context(), req.CourseID, prID)
	if err != nil {
		logEntry.WithError(err).Error("Failed to publish review")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	logEntry.WithField("review_url", reviewURL).Info("Review published")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"review_url": reviewURL,
	})
}

// PutResult применяет ручную правку результата ревью
func (h *PublishHandler) PutResult(c echo.Context) error {
	prID, err := strconv.Atoi(c.Param("pr_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "pr_id must be an integer"))
	}

	var req resultEditRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind result edit request")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	edit := domain.ResultEdit{Summary: req.Result.Summary}
	for _, comment := range req.Result.Comments {
		edit.Comments = append(edit.Comments, domain.ResultCommentEdit{
			Path: comment.Path,
			Body: comment.Body,
		})
	}

	logEntry := h.logRequest(c, "update_result").WithFields(logrus.Fields{
		"course_id": req.CourseID,
		"pr_id":     prID,
	})
	logEntry.Info("Updating review result")

	pr, err := h.resultUseCase.UpdateResult(c.Request().Context(), req.CourseID, prID, edit)
	if err != nil {
		logEntry.WithError(err).Error("Failed to update review result")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, toPullRequestResponse(pr, h.courseGithubURL(c, req.CourseID)))
}

func (h *PublishHandler) courseGithubURL(c echo.Context, courseID int) string {
	course, _, err := h.courseUseCase.GetCourse(c.Request().Context(), courseID)
	if err != nil {
		return ""
	}
	return course.GithubURL
}
