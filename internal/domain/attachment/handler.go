package attachment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vettrack/vettrack/internal/domain/audit"
	"github.com/vettrack/vettrack/pkg/fault"
	"github.com/vettrack/vettrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:patientId/attachments", h.Upload)
	api.GET("/patients/:patientId/attachments", h.ListByPatient)
	api.GET("/attachments/:id", h.GetAttachment)
	api.GET("/attachments/:id/content", h.Download)
	api.DELETE("/attachments/:id", h.DeleteAttachment)
	api.GET("/visits/:visitId/attachments", h.ListByVisit)
	api.GET("/exams/:examId/attachments", h.ListByExam)
}

func (h *Handler) Upload(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	a := Attachment{
		PatientID: patientID,
		Type:      c.FormValue("type"),
	}
	var visitID, examID *uuid.UUID
	if v := c.FormValue("visit_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
		}
		visitID = &id
	}
	if v := c.FormValue("exam_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid exam id")
		}
		examID = &id
	}
	link, err := LinkFrom(visitID, examID)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	a.Link = link

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	a.Filename = fh.Filename
	a.ContentType = fh.Header.Get(echo.HeaderContentType)

	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()

	if err := h.svc.Upload(c.Request().Context(), audit.ActorFromRequest(c), &a, f); err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, &a)
}

func (h *Handler) GetAttachment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAttachment(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Download(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, rc, err := h.svc.Open(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+a.Filename+`"`)
	return c.Stream(http.StatusOK, a.ContentType, rc)
}

func (h *Handler) DeleteAttachment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAttachment(c.Request().Context(), audit.ActorFromRequest(c), id); err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	atts, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(atts, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByVisit(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("visitId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	atts, err := h.svc.ListByVisit(c.Request().Context(), visitID)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, atts)
}

func (h *Handler) ListByExam(c echo.Context) error {
	examID, err := uuid.Parse(c.Param("examId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid exam id")
	}
	atts, err := h.svc.ListByExam(c.Request().Context(), examID)
	if err != nil {
		return echo.NewHTTPError(fault.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, atts)
}
