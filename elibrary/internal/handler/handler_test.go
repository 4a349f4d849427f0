package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/handler"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
	"github.com/Astemirdum/elibrary-service/pkg/validate"

	service_mocks "github.com/Astemirdum/elibrary-service/elibrary/internal/handler/mocks"
)

var (
	borrowedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	member     = model.Member{
		ID:       "MEM000001",
		Email:    "reader@lib.test",
		BranchID: "HN",
		Role:     auth.RoleMember,
		Subscription: model.Subscription{
			Tier:         model.TierBasic,
			Active:       true,
			MaxLoans:     5,
			LoanDuration: 14,
		},
	}
	memberCaller = member.Caller()
	staffCaller  = auth.Caller{MemberID: "MEM000100", Role: auth.RoleStaff}
	loan         = model.Loan{
		ID:         "LN000001",
		BranchID:   "HN",
		MemberID:   "MEM000001",
		CopyID:     "CP000001",
		BookID:     "BK000001",
		BorrowedAt: borrowedAt,
		DueAt:      borrowedAt.Add(14 * 24 * time.Hour),
		Status:     model.LoanActive,
	}
	loanJSON = `{"id":"LN000001","branchId":"HN","memberId":"MEM000001","copyId":"CP000001","bookId":"BK000001","borrowedAt":"2024-03-01T10:00:00Z","dueAt":"2024-03-15T10:00:00Z","returnedAt":null,"status":"active","renewCount":0,"overdueDays":0,"fineAmount":0}`
)

type mocks struct {
	circulation *service_mocks.MockCirculationService
	accounts    *service_mocks.MockAccountService
	catalog     *service_mocks.MockCatalogService
}

func newMocks(t *testing.T) (mocks, *handler.Handler) {
	t.Helper()
	c := gomock.NewController(t)
	m := mocks{
		circulation: service_mocks.NewMockCirculationService(c),
		accounts:    service_mocks.NewMockAccountService(c),
		catalog:     service_mocks.NewMockCatalogService(c),
	}
	log := zap.NewExample().Named("test")
	return m, handler.New(m.circulation, m.accounts, m.catalog, nil, log)
}

func withCaller(cl auth.Caller) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(auth.SetCaller(req.Context(), cl)))
			return next(c)
		}
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func TestHandler_Borrow(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(m mocks)

	var tests = []struct {
		name         string
		caller       auth.Caller
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok",
			caller: memberCaller,
			body:   `{"copyId":"CP000001"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(member, nil)
				m.circulation.EXPECT().Borrow(gomock.Any(), "CP000001", member).Return(loan, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: loanJSON,
			},
		},
		{
			name:         "err. copyId required",
			caller:       memberCaller,
			body:         `{}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(member, nil)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"Key: 'BorrowRequest.CopyID' Error:Field validation for 'CopyID' failed on the 'required' tag"}`,
			},
		},
		{
			name:   "err. inactive subscription",
			caller: memberCaller,
			body:   `{"copyId":"CP000001"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(model.Member{}, errs.ErrSubscriptionInactive)
			},
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"message":"subscription is not active"}`,
			},
		},
		{
			name:   "err. copy not available",
			caller: memberCaller,
			body:   `{"copyId":"CP000001"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(member, nil)
				m.circulation.EXPECT().Borrow(gomock.Any(), "CP000001", member).Return(model.Loan{}, errs.ErrCopyNotAvailable)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"copy not available"}`,
			},
		},
		{
			name:   "err. subscription expired",
			caller: memberCaller,
			body:   `{"copyId":"CP000001"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(member, nil)
				m.circulation.EXPECT().Borrow(gomock.Any(), "CP000001", member).Return(model.Loan{}, errs.ErrSubscriptionExpired)
			},
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"message":"subscription expired"}`,
			},
		},
		{
			name:   "err. copy not found",
			caller: memberCaller,
			body:   `{"copyId":"CP404"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(member, nil)
				m.circulation.EXPECT().Borrow(gomock.Any(), "CP404", member).Return(model.Loan{}, errs.ErrCopyNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"copy not found"}`,
			},
		},
		{
			name:   "staff borrows for member",
			caller: staffCaller,
			body:   `{"copyId":"CP000001","memberId":"MEM000001"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), staffCaller).Return(model.Member{ID: staffCaller.MemberID}, nil)
				m.accounts.EXPECT().BorrowerFor(gomock.Any(), staffCaller, "MEM000001").Return(member, nil)
				m.circulation.EXPECT().Borrow(gomock.Any(), "CP000001", member).Return(loan, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: loanJSON,
			},
		},
		{
			name:   "err. internal",
			caller: memberCaller,
			body:   `{"copyId":"CP000001"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(member, nil)
				m.circulation.EXPECT().Borrow(gomock.Any(), "CP000001", member).Return(model.Loan{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"db internal"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, h := newMocks(t)
			tt.mockBehavior(m)

			e := newEcho()
			e.POST("/loans/borrow", h.Borrow, withCaller(tt.caller), h.ActiveMember)

			w := serve(e, http.MethodPost, "/loans/borrow", tt.body)
			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ReturnRenew(t *testing.T) {
	t.Parallel()
	returned := loan
	at := borrowedAt.Add(24 * 24 * time.Hour)
	returned.ReturnedAt = &at
	returned.Status = model.LoanReturned
	returned.OverdueDays = 10
	returned.FineAmount = 50000

	type mockBehavior func(m mocks)
	var tests = []struct {
		name         string
		target       string
		mockBehavior mockBehavior
		expectedCode int
		expectedBody string
	}{
		{
			name:   "return with fine",
			target: "/loans/return/LN000001",
			mockBehavior: func(m mocks) {
				m.circulation.EXPECT().Return(gomock.Any(), "LN000001", memberCaller).Return(returned, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"id":"LN000001","branchId":"HN","memberId":"MEM000001","copyId":"CP000001","bookId":"BK000001","borrowedAt":"2024-03-01T10:00:00Z","dueAt":"2024-03-15T10:00:00Z","returnedAt":"2024-03-25T10:00:00Z","status":"returned","renewCount":0,"overdueDays":10,"fineAmount":50000}`,
		},
		{
			name:   "return twice",
			target: "/loans/return/LN000001",
			mockBehavior: func(m mocks) {
				m.circulation.EXPECT().Return(gomock.Any(), "LN000001", memberCaller).Return(model.Loan{}, errs.ErrAlreadyReturned)
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"already returned"}`,
		},
		{
			name:   "return not owner",
			target: "/loans/return/LN000002",
			mockBehavior: func(m mocks) {
				m.circulation.EXPECT().Return(gomock.Any(), "LN000002", memberCaller).Return(model.Loan{}, errs.ErrNotAuthorized)
			},
			expectedCode: http.StatusForbidden,
			expectedBody: `{"message":"not authorized"}`,
		},
		{
			name:   "return missing loan",
			target: "/loans/return/LN404",
			mockBehavior: func(m mocks) {
				m.circulation.EXPECT().Return(gomock.Any(), "LN404", memberCaller).Return(model.Loan{}, errs.ErrLoanNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: `{"message":"loan not found"}`,
		},
		{
			name:   "renew limit",
			target: "/loans/renew/LN000001",
			mockBehavior: func(m mocks) {
				m.circulation.EXPECT().Renew(gomock.Any(), "LN000001", memberCaller).Return(model.Loan{}, errs.ErrRenewLimit)
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"renewal limit reached"}`,
		},
		{
			name:   "renew too overdue",
			target: "/loans/renew/LN000001",
			mockBehavior: func(m mocks) {
				m.circulation.EXPECT().Renew(gomock.Any(), "LN000001", memberCaller).Return(model.Loan{}, errs.ErrTooOverdue)
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"cannot renew, too overdue"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, h := newMocks(t)
			tt.mockBehavior(m)

			e := newEcho()
			e.POST("/loans/return/:id", h.Return, withCaller(memberCaller))
			e.POST("/loans/renew/:id", h.Renew, withCaller(memberCaller))

			w := serve(e, http.MethodPost, tt.target, "")
			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_ListLoans(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		name         string
		target       string
		mockBehavior func(m mocks)
		expectedCode int
		expectedBody string
	}{
		{
			name:   "ok",
			target: "/loans?skip=10&limit=5&status=overdue&branchId=HN",
			mockBehavior: func(m mocks) {
				m.circulation.EXPECT().ListLoans(gomock.Any(), staffCaller, model.LoanFilter{
					BranchID: "HN",
					Status:   model.LoanOverdue,
					Page:     model.Page{Skip: 10, Limit: 5},
				}).Return([]model.Loan{loan}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: "[" + loanJSON + "]",
		},
		{
			name:         "err. limit too large",
			target:       "/loans?limit=500",
			mockBehavior: func(m mocks) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"limit is invalid"}`,
		},
		{
			name:         "err. negative skip",
			target:       "/loans?skip=-1",
			mockBehavior: func(m mocks) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"skip is invalid"}`,
		},
		{
			name:         "err. status",
			target:       "/loans?status=lost",
			mockBehavior: func(m mocks) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"status is invalid"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, h := newMocks(t)
			tt.mockBehavior(m)

			e := newEcho()
			e.GET("/loans", h.ListLoans, withCaller(staffCaller))

			w := serve(e, http.MethodGet, tt.target, "")
			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		name         string
		body         string
		mockBehavior func(m mocks)
		expectedCode int
		expectedBody string
	}{
		{
			name: "ok",
			body: `{"email":"reader@lib.test","password":"secret1"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().
					Login(gomock.Any(), model.LoginRequest{Email: "reader@lib.test", Password: "secret1"}).
					Return(model.Token{AccessToken: "jwt", TokenType: "bearer", ExpiresIn: 86400}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"access_token":"jwt","token_type":"bearer","expires_in":86400}`,
		},
		{
			name: "err. bad credentials",
			body: `{"email":"reader@lib.test","password":"nope"}`,
			mockBehavior: func(m mocks) {
				m.accounts.EXPECT().
					Login(gomock.Any(), model.LoginRequest{Email: "reader@lib.test", Password: "nope"}).
					Return(model.Token{}, errs.ErrInvalidCredentials)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"message":"incorrect email or password"}`,
		},
		{
			name:         "err. bad email",
			body:         `{"email":"reader","password":"nope"}`,
			mockBehavior: func(m mocks) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"message":"Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'email' tag"}`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, h := newMocks(t)
			tt.mockBehavior(m)

			e := newEcho()
			e.POST("/auth/login", h.Login)

			w := serve(e, http.MethodPost, "/auth/login", tt.body)
			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, strings.Trim(w.Body.String(), "\n"))
		})
	}
}

func TestHandler_CreateBook(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		name         string
		caller       auth.Caller
		body         string
		mockBehavior func(m mocks)
		expectedCode int
	}{
		{
			name:   "ok",
			caller: staffCaller,
			body:   `{"isbn":"978-0441172719","title":"Dune"}`,
			mockBehavior: func(m mocks) {
				m.catalog.EXPECT().
					CreateBook(gomock.Any(), staffCaller, model.Book{ISBN: "978-0441172719", Title: "Dune"}).
					Return(model.Book{ID: "BK000001", ISBN: "978-0441172719", Title: "Dune"}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:   "err. duplicate isbn",
			caller: staffCaller,
			body:   `{"isbn":"978-0441172719","title":"Dune"}`,
			mockBehavior: func(m mocks) {
				m.catalog.EXPECT().
					CreateBook(gomock.Any(), staffCaller, gomock.Any()).
					Return(model.Book{}, errs.ErrISBNTaken)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name:   "err. member",
			caller: memberCaller,
			body:   `{"isbn":"978-0441172719","title":"Dune"}`,
			mockBehavior: func(m mocks) {
				m.catalog.EXPECT().
					CreateBook(gomock.Any(), memberCaller, gomock.Any()).
					Return(model.Book{}, errs.ErrNotAuthorized)
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "err. title required",
			caller:       staffCaller,
			body:         `{"isbn":"978-0441172719"}`,
			mockBehavior: func(m mocks) {},
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, h := newMocks(t)
			tt.mockBehavior(m)

			e := newEcho()
			e.POST("/books", h.CreateBook, withCaller(tt.caller))

			w := serve(e, http.MethodPost, "/books", tt.body)
			require.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestHandler_DigitalLicense(t *testing.T) {
	t.Parallel()
	m, h := newMocks(t)
	m.catalog.EXPECT().DigitalLicense(gomock.Any(), "BK000001").Return(nil, nil)

	e := newEcho()
	e.GET("/books/:id/digital", h.GetDigitalLicense)

	w := serve(e, http.MethodGet, "/books/BK000001/digital", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, `{"message":"digital version not available"}`, strings.Trim(w.Body.String(), "\n"))
}

type stubParser struct{}

func (stubParser) Parse(token string) (auth.Caller, error) {
	if token != "good" {
		return auth.Caller{}, auth.ErrInvalidToken
	}
	return memberCaller, nil
}

func TestHandler_Router(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	circulation := service_mocks.NewMockCirculationService(c)
	accounts := service_mocks.NewMockAccountService(c)
	catalog := service_mocks.NewMockCatalogService(c)
	e := handler.New(circulation, accounts, catalog, stubParser{}, zap.NewNop()).NewRouter()

	w := serve(e, http.MethodGet, "/manage/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(e, http.MethodGet, "/api/v1/loans/my-loans", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	accounts.EXPECT().ActiveMember(gomock.Any(), memberCaller).Return(member, nil)
	circulation.EXPECT().MyLoans(gomock.Any(), memberCaller, model.LoanActive).Return([]model.Loan{loan}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/loans/my-loans?status=active", http.NoBody)
	r.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "["+loanJSON+"]", strings.Trim(rec.Body.String(), "\n"))
}
