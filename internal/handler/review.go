package handler

import (
	"net/http"
	"strconv"
	"strings"

	"pr-grading-service/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ReviewHandler обрабатывает HTTP-запросы отправки PR на ревью
type ReviewHandler struct {
	*BaseHandler
	reviewUseCase domain.ReviewUseCase
}

// NewReviewHandler создает новый экземпляр ReviewHandler
func NewReviewHandler(reviewUseCase domain.ReviewUseCase, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   NewBaseHandler(logger),
		reviewUseCase: reviewUseCase,
	}
}

type reviewRequest struct {
	AssignmentID int    `json:"assignment_id"`
	ReviewerID   int    `json:"reviewer_id"`
	// PrIDs приходит строкой вида "1,2,3"
	PrIDs string `json:"pr_ids"`
}

type reviewResponse struct {
	Results []domain.ReviewerOutcome `json:"results"`
}

// PostReview отправляет выбранные PR курса на ревью
func (h *ReviewHandler) PostReview(c echo.Context) error {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "course_id must be an integer"))
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind review request")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	prIDs, err := parseIDs(req.PrIDs)
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "pr_ids must be a comma-separated list of integers"))
	}

	logEntry := h.logRequest(c, "review").WithFields(logrus.Fields{
		"course_id":     courseID,
		"assignment_id": req.AssignmentID,
		"reviewer_id":   req.ReviewerID,
		"pr_ids":        req.PrIDs,
	})
	logEntry.Info("Dispatching pull requests for review")

	outcomes, err := h.reviewUseCase.Review(c.Request().Context(), courseID, req.AssignmentID, req.ReviewerID, prIDs)
	if err != nil {
		logEntry.WithError(err).Error("Review dispatch failed")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	logEntry.WithField("results", len(outcomes)).Info("Review dispatch completed")
	return c.JSON(http.StatusOK, reviewResponse{Results: outcomes})
}

// PostReviewAuto отправляет на ревью все PR курса без результата
func (h *ReviewHandler) PostReviewAuto(c echo.Context) error {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "course_id must be an integer"))
	}

	logEntry := h.logRequest(c, "review_auto").WithField("course_id", courseID)
	logEntry.Info("Dispatching auto review")

	outcomes, err := h.reviewUseCase.AutoReview(c.Request().Context(), courseID)
	if err != nil {
		logEntry.WithError(err).Error("Auto review dispatch failed")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, reviewResponse{Results: outcomes})
}

// parseIDs разбирает строку "1,2,3" в список идентификаторов.
func parseIDs(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
