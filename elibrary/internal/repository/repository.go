package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	NextID(ctx context.Context, kind model.IDKind) (string, error)

	FindMemberByID(ctx context.Context, id string) (model.Member, error)
	FindMemberByEmail(ctx context.Context, email string) (model.Member, error)
	LockMember(ctx context.Context, id string) (model.Member, error)
	CountActiveLoans(ctx context.Context, memberID string) (int, error)
	CreateMember(ctx context.Context, m model.Member) error
	UpdateMember(ctx context.Context, id string, upd model.MemberUpdate) (model.Member, error)
	DeleteMember(ctx context.Context, id string) error
	ListMembers(ctx context.Context, filter model.MemberFilter) ([]model.Member, error)

	GetBook(ctx context.Context, id string) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error)
	SearchBooks(ctx context.Context, q string, limit int) ([]model.BookSearchResult, error)
	CreateBook(ctx context.Context, b model.Book) error
	UpdateBook(ctx context.Context, id string, upd model.BookUpdate) (model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetDigitalLicense(ctx context.Context, bookID string) (*model.DigitalLicense, error)

	FindCopyByID(ctx context.Context, id string) (model.Copy, error)
	ListCopies(ctx context.Context, bookID string, filter model.CopyFilter) ([]model.Copy, error)
	SetCopyStatus(ctx context.Context, id string, status model.CopyStatus) error
	SwapCopyStatus(ctx context.Context, id string, from, to model.CopyStatus) (bool, error)

	InsertLoan(ctx context.Context, loan model.Loan) error
	FindLoanByID(ctx context.Context, id string) (model.Loan, error)
	UpdateLoan(ctx context.Context, prev, next model.Loan) error
	ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)
	MarkOverdue(ctx context.Context) (int64, error)

	AppendTransaction(ctx context.Context, tx model.Transaction) error
	ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error)
}

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	membersTableName      = `members`
	booksTableName        = `books`
	copiesTableName       = `copies`
	licensesTableName     = `digital_licenses`
	loansTableName        = `loans`
	transactionsTableName = `transactions`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type txKey struct{}

// InTx runs fn inside one database transaction. Nested calls join the outer one.
func (r *repository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (r *repository) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return r.db
}

var sequences = map[model.IDKind]string{
	model.IDMember:      "member_seq",
	model.IDBook:        "book_seq",
	model.IDCopy:        "copy_seq",
	model.IDLoan:        "loan_seq",
	model.IDTransaction: "tx_seq",
}

// NextID draws from a postgres sequence, so concurrent creates never collide.
func (r *repository) NextID(ctx context.Context, kind model.IDKind) (string, error) {
	seq, ok := sequences[kind]
	if !ok {
		return "", fmt.Errorf("unknown id kind %q", kind)
	}
	var n int64
	if err := r.conn(ctx).QueryRow(ctx, `select nextval($1::regclass)`, seq).Scan(&n); err != nil {
		return "", errors.Wrapf(err, "nextval %s", seq)
	}
	return model.FormatID(kind, n), nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func offset(p model.Page) (limit, skip uint64) {
	return uint64(p.Limit), uint64(p.Skip)
}
