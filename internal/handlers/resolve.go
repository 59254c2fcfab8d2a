package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kairoshq/kairos/internal/people"
	"github.com/kairoshq/kairos/internal/scheduling"
)

// ResolveHandler serves batch participant name resolution.
type ResolveHandler struct {
	resolver scheduling.ParticipantResolver
	logger   *slog.Logger
}

// ResolveRequest asks for a batch of free-text names to be resolved against
// the directory. Self-references ("me", "я") resolve to the requester.
type ResolveRequest struct {
	Names       []string `json:"names"`
	RequesterID string   `json:"requester_id,omitempty"`
}

func NewResolveHandler(resolver scheduling.ParticipantResolver, log *slog.Logger) *ResolveHandler {
	return &ResolveHandler{
		resolver: resolver,
		logger:   log,
	}
}

func (h *ResolveHandler) Register(e *echo.Echo) {
	e.POST("/api/participants/resolve", h.Resolve)
}

// Resolve godoc
// @Summary Resolve participant names
// @Description Resolve free-text names to directory identities, keeping per-name outcomes
// @Tags participants
// @Param payload body ResolveRequest true "Names to resolve"
// @Success 200 {object} people.BatchResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/participants/resolve [post]
func (h *ResolveHandler) Resolve(c echo.Context) error {
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Names) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "names are required")
	}
	batch, err := h.resolver.ResolveMany(c.Request().Context(), people.Refs(req.Names...), req.RequesterID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, batch)
}
