package service

import (
	"context"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/repository"
)

type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Sequencer interface {
	NextID(ctx context.Context, kind model.IDKind) (string, error)
}

type MemberStore interface {
	FindMemberByID(ctx context.Context, id string) (model.Member, error)
	LockMember(ctx context.Context, id string) (model.Member, error)
	CountActiveLoans(ctx context.Context, memberID string) (int, error)
}

type CopyStore interface {
	FindCopyByID(ctx context.Context, id string) (model.Copy, error)
	SetCopyStatus(ctx context.Context, id string, status model.CopyStatus) error
	SwapCopyStatus(ctx context.Context, id string, from, to model.CopyStatus) (bool, error)
}

type LoanStore interface {
	InsertLoan(ctx context.Context, loan model.Loan) error
	FindLoanByID(ctx context.Context, id string) (model.Loan, error)
	UpdateLoan(ctx context.Context, prev, next model.Loan) error
	ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)
}

type TransactionLog interface {
	AppendTransaction(ctx context.Context, tx model.Transaction) error
	ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error)
}

// CirculationStore is everything the circulation engine reads and writes.
type CirculationStore interface {
	Transactor
	Sequencer
	MemberStore
	CopyStore
	LoanStore
	TransactionLog
}

type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type AccountStore interface {
	Sequencer
	FindMemberByID(ctx context.Context, id string) (model.Member, error)
	FindMemberByEmail(ctx context.Context, email string) (model.Member, error)
	CreateMember(ctx context.Context, m model.Member) error
	UpdateMember(ctx context.Context, id string, upd model.MemberUpdate) (model.Member, error)
	DeleteMember(ctx context.Context, id string) error
	ListMembers(ctx context.Context, filter model.MemberFilter) ([]model.Member, error)
}

type CatalogStore interface {
	Sequencer
	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error)
	SearchBooks(ctx context.Context, q string, limit int) ([]model.BookSearchResult, error)
	CreateBook(ctx context.Context, b model.Book) error
	UpdateBook(ctx context.Context, id string, upd model.BookUpdate) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetDigitalLicense(ctx context.Context, bookID string) (*model.DigitalLicense, error)
	ListCopies(ctx context.Context, bookID string, filter model.CopyFilter) ([]model.Copy, error)
}

var (
	_ CirculationStore = (repository.Repository)(nil)
	_ OverdueMarker    = (repository.Repository)(nil)
	_ AccountStore     = (repository.Repository)(nil)
	_ CatalogStore     = (repository.Repository)(nil)
)
