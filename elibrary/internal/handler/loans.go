package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

// Borrow godoc
// @Summary   borrow a physical copy
// @Tags      loans
// @Security  Bearer
// @Accept    json
// @Produce   json
// @Param     input body model.BorrowRequest true "copy to borrow"
// @Success   201 {object} model.Loan
// @Failure   400,403,404,409 {object} echo.HTTPError
// @Router    /api/v1/loans/borrow [post]
func (h *Handler) Borrow(c echo.Context) error {
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	m, _ := c.Get(memberKey).(model.Member)
	if req.MemberID != "" && req.MemberID != m.ID {
		cl, err := caller(c)
		if err != nil {
			return err
		}
		if m, err = h.accountSvc.BorrowerFor(ctx, cl, req.MemberID); err != nil {
			return h.fail(err)
		}
	}
	loan, err := h.circulationSvc.Borrow(ctx, req.CopyID, m)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, loan)
}

// Return godoc
// @Summary   return a borrowed copy, charging overdue fines
// @Tags      loans
// @Security  Bearer
// @Produce   json
// @Param     id path string true "loan id"
// @Success   200 {object} model.Loan
// @Failure   403,404,409 {object} echo.HTTPError
// @Router    /api/v1/loans/return/{id} [post]
func (h *Handler) Return(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	loan, err := h.circulationSvc.Return(c.Request().Context(), c.Param("id"), cl)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, loan)
}

// Renew godoc
// @Summary   extend the due date of a loan
// @Tags      loans
// @Security  Bearer
// @Produce   json
// @Param     id path string true "loan id"
// @Success   200 {object} model.Loan
// @Failure   403,404,409 {object} echo.HTTPError
// @Router    /api/v1/loans/renew/{id} [post]
func (h *Handler) Renew(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	loan, err := h.circulationSvc.Renew(c.Request().Context(), c.Param("id"), cl)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) MyLoans(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	status, err := queryStatus(c)
	if err != nil {
		return err
	}
	loans, err := h.circulationSvc.MyLoans(c.Request().Context(), cl, status)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) ListLoans(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	page, err := queryPage(c)
	if err != nil {
		return err
	}
	status, err := queryStatus(c)
	if err != nil {
		return err
	}
	loans, err := h.circulationSvc.ListLoans(c.Request().Context(), cl, model.LoanFilter{
		BranchID: c.QueryParam("branchId"),
		Status:   status,
		Page:     page,
	})
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) GetLoan(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	loan, err := h.circulationSvc.GetLoan(c.Request().Context(), c.Param("id"), cl)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, loan)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	page, err := queryPage(c)
	if err != nil {
		return err
	}
	txType := model.TransactionType(c.QueryParam("type"))
	switch txType {
	case "", model.TxBorrow, model.TxReturn, model.TxRenew, model.TxFine:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "type is invalid")
	}
	txs, err := h.circulationSvc.ListTransactions(c.Request().Context(), cl, model.TransactionFilter{
		BranchID: c.QueryParam("branchId"),
		Type:     txType,
		Page:     page,
	})
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, txs)
}
