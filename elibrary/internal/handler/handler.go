package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/Astemirdum/elibrary-service/elibrary/swagger"
	md "github.com/Astemirdum/elibrary-service/pkg/middleware"
	"github.com/Astemirdum/elibrary-service/pkg/validate"
)

type Handler struct {
	circulationSvc CirculationService
	accountSvc     AccountService
	catalogSvc     CatalogService
	tokens         md.TokenParser
	log            *zap.Logger
}

func New(circulation CirculationService, accounts AccountService, catalog CatalogService, tokens md.TokenParser, log *zap.Logger) *Handler {
	return &Handler{
		circulationSvc: circulation,
		accountSvc:     accounts,
		catalogSvc:     catalog,
		tokens:         tokens,
		log:            log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api = api.Group("", md.JwtAuthentication(h.tokens))
	api.GET("/auth/me", h.Me)

	books := api.Group("/books")
	books.GET("/search", h.SearchBooks)
	books.GET("/categories/list", h.ListCategories)
	books.GET("", h.ListBooks)
	books.GET("/:id", h.GetBook)
	books.GET("/:id/copies", h.ListCopies)
	books.GET("/:id/digital", h.GetDigitalLicense)
	books.POST("", h.CreateBook)
	books.PUT("/:id", h.UpdateBook)
	books.DELETE("/:id", h.DeleteBook)

	loans := api.Group("/loans", h.ActiveMember)
	loans.POST("/borrow", h.Borrow)
	loans.POST("/return/:id", h.Return)
	loans.POST("/renew/:id", h.Renew)
	loans.GET("/my-loans", h.MyLoans)
	loans.GET("", h.ListLoans)
	loans.GET("/:id", h.GetLoan)

	api.GET("/transactions", h.ListTransactions, h.ActiveMember)

	users := api.Group("/users")
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.PUT("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
