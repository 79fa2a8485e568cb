package handler

import (
	"net/http"
	"strconv"

	"pr-grading-service/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CourseHandler обрабатывает HTTP-запросы, связанные с курсами
type CourseHandler struct {
	*BaseHandler
	courseUseCase domain.CourseUseCase
	syncUseCase   domain.SyncUseCase
}

// NewCourseHandler создает новый экземпляр CourseHandler
func NewCourseHandler(courseUseCase domain.CourseUseCase, syncUseCase domain.SyncUseCase, logger *logrus.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseUseCase: courseUseCase,
		syncUseCase:   syncUseCase,
	}
}

// GetCourse отдает карточку курса с каталогом ревьюверов и флагом
// идущей синхронизации
func (h *CourseHandler) GetCourse(c echo.Context) error {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", "course_id must be an integer"))
	}

	logEntry := h.logRequest(c, "get_course").WithField("course_id", courseID)

	course, reviewers, err := h.courseUseCase.GetCourse(c.Request().Context(), courseID)
	if err != nil {
		logEntry.WithError(err).Error("Failed to get course")
		status, body := errorBody(err)
		return c.JSON(status, body)
	}

	return c.JSON(http.StatusOK, toCourseResponse(course, reviewers, h.syncUseCase.Syncing(courseID)))
}
