package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kairoshq/kairos/internal/directory"
	"github.com/kairoshq/kairos/internal/people"
)

// PeopleDirectory is the administration surface of the local directory store.
type PeopleDirectory interface {
	List(ctx context.Context) ([]directory.Person, error)
	Upsert(ctx context.Context, req directory.UpsertRequest) (directory.Person, error)
	Delete(ctx context.Context, id string) error
}

// PeopleHandler administers the local people directory. It is only mounted
// when the application runs against the local store instead of a graph tenant.
type PeopleHandler struct {
	directory PeopleDirectory
	logger    *slog.Logger
}

// PeopleListResponse wraps the full person list.
type PeopleListResponse struct {
	Items []directory.Person `json:"items"`
}

func NewPeopleHandler(directory PeopleDirectory, log *slog.Logger) *PeopleHandler {
	return &PeopleHandler{
		directory: directory,
		logger:    log,
	}
}

func (h *PeopleHandler) Register(e *echo.Echo) {
	group := e.Group("/api/people")
	group.GET("", h.List)
	group.POST("", h.Upsert)
	group.DELETE("/:id", h.Delete)
}

// List godoc
// @Summary List people
// @Description List every person in the local directory
// @Tags people
// @Success 200 {object} PeopleListResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/people [get]
func (h *PeopleHandler) List(c echo.Context) error {
	items, err := h.directory.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, PeopleListResponse{Items: items})
}

// Upsert godoc
// @Summary Create or update a person
// @Description Create a person, or update one when an id is given
// @Tags people
// @Param payload body directory.UpsertRequest true "Person payload"
// @Success 200 {object} directory.Person
// @Success 201 {object} directory.Person
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/people [post]
func (h *PeopleHandler) Upsert(c echo.Context) error {
	var req directory.UpsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "display_name is required")
	}
	person, err := h.directory.Upsert(c.Request().Context(), req)
	if errors.Is(err, people.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "person not found")
	}
	if errors.Is(err, directory.ErrDuplicateEmail) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if strings.TrimSpace(req.ID) == "" {
		return c.JSON(http.StatusCreated, person)
	}
	return c.JSON(http.StatusOK, person)
}

// Delete godoc
// @Summary Delete a person
// @Description Remove a person from the local directory
// @Tags people
// @Param id path string true "Person ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/people/{id} [delete]
func (h *PeopleHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id is required")
	}
	if err := h.directory.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, people.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "person not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
