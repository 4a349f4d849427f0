package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

func (h *Handler) SearchBooks(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	books, err := h.catalogSvc.Search(c.Request().Context(), q, limit)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) ListBooks(c echo.Context) error {
	page, err := queryPage(c)
	if err != nil {
		return err
	}
	books, err := h.catalogSvc.ListBooks(c.Request().Context(), model.BookFilter{
		LccCode:  c.QueryParam("lccCode"),
		Language: c.QueryParam("language"),
		Page:     page,
	})
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.catalogSvc.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) ListCopies(c echo.Context) error {
	status := c.QueryParam("status")
	switch model.CopyStatus(status) {
	case "", model.CopyAvailable, model.CopyBorrowed:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "status is invalid")
	}
	copies, err := h.catalogSvc.ListCopies(c.Request().Context(), c.Param("id"), model.CopyFilter{
		BranchID: c.QueryParam("branchId"),
		Status:   status,
	})
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, copies)
}

func (h *Handler) GetDigitalLicense(c echo.Context) error {
	lic, err := h.catalogSvc.DigitalLicense(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(err)
	}
	if lic == nil {
		return echo.NewHTTPError(http.StatusNotFound, "digital version not available")
	}
	return c.JSON(http.StatusOK, lic)
}

func (h *Handler) ListCategories(c echo.Context) error {
	categories, err := h.catalogSvc.Categories(c.Request().Context())
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *Handler) CreateBook(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	var book model.Book
	if err := c.Bind(&book); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&book); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err = h.catalogSvc.CreateBook(c.Request().Context(), cl, book)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	var upd model.BookUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.catalogSvc.UpdateBook(c.Request().Context(), cl, c.Param("id"), upd)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.catalogSvc.DeleteBook(c.Request().Context(), cl, c.Param("id")); err != nil {
		return h.fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
