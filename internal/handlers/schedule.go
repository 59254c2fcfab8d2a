package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kairoshq/kairos/internal/scheduling"
)

// ScheduleHandler serves the calendar actions: finding common free time,
// viewing an employee's day, and composing daily briefings.
type ScheduleHandler struct {
	findTime *scheduling.FindTime
	view     *scheduling.ViewSchedule
	briefing *scheduling.DailyBriefing
	logger   *slog.Logger
}

func NewScheduleHandler(findTime *scheduling.FindTime, view *scheduling.ViewSchedule, briefing *scheduling.DailyBriefing, log *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		findTime: findTime,
		view:     view,
		briefing: briefing,
		logger:   log,
	}
}

func (h *ScheduleHandler) Register(e *echo.Echo) {
	group := e.Group("/api/schedule")
	group.POST("/find-time", h.FindTime)
	group.POST("/view", h.View)
	group.POST("/briefing", h.Briefing)
}

// FindTime godoc
// @Summary Find common free time
// @Description Resolve participant names and suggest meeting slots that work for everyone
// @Tags schedule
// @Param payload body scheduling.FindTimeRequest true "Search parameters"
// @Success 200 {object} scheduling.Result[scheduling.FindTimeResponse]
// @Failure 400 {object} ErrorResponse
// @Router /api/schedule/find-time [post]
func (h *ScheduleHandler) FindTime(c echo.Context) error {
	var req scheduling.FindTimeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.RequesterID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "requester_id is required")
	}
	if len(req.ParticipantNames) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "participant_names are required")
	}
	return c.JSON(http.StatusOK, h.findTime.Execute(c.Request().Context(), req))
}

// View godoc
// @Summary View an employee's schedule
// @Description Show one day of an employee's calendar, optionally as a slot timeline
// @Tags schedule
// @Param payload body scheduling.ViewScheduleRequest true "View parameters"
// @Success 200 {object} scheduling.Result[scheduling.ViewScheduleResponse]
// @Failure 400 {object} ErrorResponse
// @Router /api/schedule/view [post]
func (h *ScheduleHandler) View(c echo.Context) error {
	var req scheduling.ViewScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.RequesterID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "requester_id is required")
	}
	return c.JSON(http.StatusOK, h.view.Execute(c.Request().Context(), req))
}

// Briefing godoc
// @Summary Compose a daily briefing
// @Description Summarize the requester's meetings for one day
// @Tags schedule
// @Param payload body scheduling.BriefingRequest true "Briefing parameters"
// @Success 200 {object} scheduling.Result[scheduling.BriefingResponse]
// @Failure 400 {object} ErrorResponse
// @Router /api/schedule/briefing [post]
func (h *ScheduleHandler) Briefing(c echo.Context) error {
	var req scheduling.BriefingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.RequesterID) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "requester_id is required")
	}
	return c.JSON(http.StatusOK, h.briefing.Execute(c.Request().Context(), req))
}
