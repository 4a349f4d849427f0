package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

func (h *Handler) ListUsers(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	page, err := queryPage(c)
	if err != nil {
		return err
	}
	users, err := h.accountSvc.ListUsers(c.Request().Context(), cl, model.MemberFilter{
		Query: c.QueryParam("q"),
		Role:  c.QueryParam("role"),
		Page:  page,
	})
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.accountSvc.CreateUser(c.Request().Context(), cl, req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	var upd model.MemberUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.accountSvc.UpdateUser(c.Request().Context(), cl, c.Param("id"), upd)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.accountSvc.DeleteUser(c.Request().Context(), cl, c.Param("id")); err != nil {
		return h.fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
