package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIHandler объединяет обработчики подсистемы оценивания.
type APIHandler struct {
	*CourseHandler
	*PRHandler
	*ReviewHandler
	*PublishHandler
}

// RegisterRoutes привязывает маршруты API к echo.
func RegisterRoutes(e *echo.Echo, h *APIHandler) {
	e.GET("/courses/:course_id", h.GetCourse)
	e.GET("/courses/:course_id/pull-requests", h.GetPullRequests)
	e.POST("/courses/:course_id/sync", h.PostSync)
	e.POST("/courses/:course_id/review", h.PostReview)
	e.POST("/courses/:course_id/review-auto", h.PostReviewAuto)

	e.GET("/pull-requests/:pr_id", h.GetPullRequest)
	e.PUT("/pull-requests/:pr_id/result", h.PutResult)
	e.PUT("/pull-requests/:pr_id/review", h.PutReview)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
