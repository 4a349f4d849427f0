package handler

import (
	"context"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/service"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var (
	_ CirculationService = (*service.Circulation)(nil)
	_ AccountService     = (*service.Accounts)(nil)
	_ CatalogService     = (*service.Catalog)(nil)
)

type CirculationService interface {
	Borrow(ctx context.Context, copyID string, member model.Member) (model.Loan, error)
	Return(ctx context.Context, loanID string, caller auth.Caller) (model.Loan, error)
	Renew(ctx context.Context, loanID string, caller auth.Caller) (model.Loan, error)
	GetLoan(ctx context.Context, loanID string, caller auth.Caller) (model.Loan, error)
	MyLoans(ctx context.Context, caller auth.Caller, status model.LoanStatus) ([]model.Loan, error)
	ListLoans(ctx context.Context, caller auth.Caller, filter model.LoanFilter) ([]model.Loan, error)
	ListTransactions(ctx context.Context, caller auth.Caller, filter model.TransactionFilter) ([]model.Transaction, error)
}

type AccountService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.Member, error)
	Login(ctx context.Context, req model.LoginRequest) (model.Token, error)
	Me(ctx context.Context, caller auth.Caller) (model.Member, error)
	ActiveMember(ctx context.Context, caller auth.Caller) (model.Member, error)
	BorrowerFor(ctx context.Context, caller auth.Caller, memberID string) (model.Member, error)
	ListUsers(ctx context.Context, caller auth.Caller, filter model.MemberFilter) ([]model.Member, error)
	CreateUser(ctx context.Context, caller auth.Caller, req model.RegisterRequest) (model.Member, error)
	UpdateUser(ctx context.Context, caller auth.Caller, id string, upd model.MemberUpdate) (model.Member, error)
	DeleteUser(ctx context.Context, caller auth.Caller, id string) error
}

type CatalogService interface {
	Search(ctx context.Context, q string, limit int) ([]model.BookSearchResult, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error)
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListCopies(ctx context.Context, bookID string, filter model.CopyFilter) ([]model.Copy, error)
	DigitalLicense(ctx context.Context, bookID string) (*model.DigitalLicense, error)
	Categories(ctx context.Context) ([]model.Category, error)
	CreateBook(ctx context.Context, caller auth.Caller, b model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, caller auth.Caller, id string, upd model.BookUpdate) (model.Book, error)
	DeleteBook(ctx context.Context, caller auth.Caller, id string) error
}
