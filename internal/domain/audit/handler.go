package audit

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vettrack/vettrack/internal/platform/auth"
	"github.com/vettrack/vettrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/audit-logs", h.ListForEntity)
	api.GET("/audit-logs/actor/:userId", h.ListForActor)
}

// ActorFromRequest builds the audit actor for a request from the resolved
// identity and the client address.
func ActorFromRequest(c echo.Context) Actor {
	ident := auth.FromContext(c.Request().Context())
	actor := Actor{UserID: ident.UserID, Display: ident.Display}
	if ip := c.RealIP(); ip != "" {
		actor.IP = &ip
	}
	return actor
}

func (h *Handler) ListForEntity(c echo.Context) error {
	entityType := c.QueryParam("entity_type")
	if entityType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entity_type is required")
	}
	entityID, err := uuid.Parse(c.QueryParam("entity_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entity_id")
	}

	pg := pagination.FromContext(c)
	logs, total, err := h.svc.ListForEntity(c.Request().Context(), entityType, entityID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(logs, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListForActor(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	pg := pagination.FromContext(c)
	logs, total, err := h.svc.ListForActor(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(logs, total, pg.Limit, pg.Offset))
}
