package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

const memberKey = "member"

// fail maps a service error onto its HTTP status.
func (h *Handler) fail(err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	h.log.Error("internal", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func caller(c echo.Context) (auth.Caller, error) {
	cl, err := auth.GetCaller(c.Request().Context())
	if err != nil {
		return auth.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return cl, nil
}

// ActiveMember admits only callers with an active subscription and keeps
// the resolved member on the echo context.
func (h *Handler) ActiveMember(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cl, err := caller(c)
		if err != nil {
			return err
		}
		m, err := h.accountSvc.ActiveMember(c.Request().Context(), cl)
		if err != nil {
			return h.fail(err)
		}
		c.Set(memberKey, m)
		return next(c)
	}
}

func queryInt(c echo.Context, name string) (int, error) {
	param := c.QueryParam(name)
	if param == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(param)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return v, nil
}

func queryPage(c echo.Context) (model.Page, error) {
	skip, err := queryInt(c, "skip")
	if err != nil {
		return model.Page{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return model.Page{}, err
	}
	if skip < 0 {
		return model.Page{}, echo.NewHTTPError(http.StatusBadRequest, "skip is invalid")
	}
	if limit < 0 || limit > model.MaxLimit {
		return model.Page{}, echo.NewHTTPError(http.StatusBadRequest, "limit is invalid")
	}
	return model.Page{Skip: skip, Limit: limit}, nil
}

func queryStatus(c echo.Context) (model.LoanStatus, error) {
	status := model.LoanStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return "", echo.NewHTTPError(http.StatusBadRequest, "status is invalid")
	}
	return status, nil
}
