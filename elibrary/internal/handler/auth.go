package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

// Register godoc
// @Summary  register a member
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    input body model.RegisterRequest true "member"
// @Success  201 {object} model.Member
// @Failure  400,409 {object} echo.HTTPError
// @Router   /api/v1/auth/register [post]
func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.accountSvc.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Login godoc
// @Summary  issue an access token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    input body model.LoginRequest true "credentials"
// @Success  200 {object} model.Token
// @Failure  400,401 {object} echo.HTTPError
// @Router   /api/v1/auth/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, err := h.accountSvc.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, token)
}

func (h *Handler) Me(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	m, err := h.accountSvc.Me(c.Request().Context(), cl)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, m)
}
