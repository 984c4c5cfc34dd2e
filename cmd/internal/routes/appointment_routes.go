package routes

import (
	"context"
	"net/http"
	"strconv"

	"telefonia/cmd/internal/middleware"
	"telefonia/cmd/internal/service"
	"telefonia/cmd/internal/token"
	"telefonia/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, req *service.AppointmentRequest, claims *token.Claims) (*service.AppointmentResponse, apierror.ErrorResponse)
	GetAppointments(ctx context.Context, claims *token.Claims, skip, limit int) (*service.AppointmentListResponse, apierror.ErrorResponse)
	GetAppointment(ctx context.Context, id string) (*service.EnrichedAppointment, apierror.ErrorResponse)
	UpdateAppointment(ctx context.Context, id string, req *service.AppointmentRequest, claims *token.Claims) (*service.AppointmentResponse, apierror.ErrorResponse)
	DisableAppointment(ctx context.Context, id string, claims *token.Claims) apierror.ErrorResponse
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

func (a *DefaultAppointmentRoute) CreateAppointment(c echo.Context) error {
	var req service.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	claims := middleware.ClaimsFrom(c)
	appt, apierr := a.AppointmentService.CreateAppointment(c.Request().Context(), &req, claims)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, appt)
}

func (a *DefaultAppointmentRoute) GetAppointments(c echo.Context) error {
	skip := queryInt(c, "skip", 0)
	limit := queryInt(c, "limit", 10)

	claims := middleware.ClaimsFrom(c)
	resp, apierr := a.AppointmentService.GetAppointments(c.Request().Context(), claims, skip, limit)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, resp)
}

func (a *DefaultAppointmentRoute) GetAppointment(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	appt, apierr := a.AppointmentService.GetAppointment(c.Request().Context(), id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) UpdateAppointment(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	var req service.AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	claims := middleware.ClaimsFrom(c)
	appt, apierr := a.AppointmentService.UpdateAppointment(c.Request().Context(), id, &req, claims)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) DisableAppointment(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("id"))
	}

	claims := middleware.ClaimsFrom(c)
	apierr := a.AppointmentService.DisableAppointment(c.Request().Context(), id, claims)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"message": "Appointment successfully disabled"}
	return c.JSON(http.StatusOK, &resp)
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
