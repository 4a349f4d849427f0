package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

var loanColumns = []string{
	"id", "branch_id", "member_id", "copy_id", "book_id", "borrowed_at", "due_at",
	"returned_at", "status", "renew_count", "overdue_days", "fine_amount",
}

func (r *repository) InsertLoan(ctx context.Context, l model.Loan) error {
	query, args, err := qb.Insert(loansTableName).
		Columns(loanColumns...).
		Values(l.ID, l.BranchID, l.MemberID, l.CopyID, l.BookID, l.BorrowedAt, l.DueAt,
			l.ReturnedAt, string(l.Status), l.RenewCount, l.OverdueDays, l.FineAmount).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.conn(ctx).Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "loans_open_copy_uidx") {
			return errs.ErrCopyNotAvailable
		}
		return errors.Wrap(err, "insert loan")
	}
	return nil
}

func (r *repository) FindLoanByID(ctx context.Context, id string) (model.Loan, error) {
	query, args, err := qb.Select(loanColumns...).
		From(loansTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Loan{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Loan{}, errors.Wrap(err, "find loan")
	}
	loan, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Loan])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Loan{}, errs.ErrLoanNotFound
		}
		return model.Loan{}, errors.Wrap(err, "scan loan")
	}
	return loan, nil
}

// UpdateLoan writes next only if the stored loan still matches prev.
// A concurrent return or renew makes it fail with ErrStaleLoan.
func (r *repository) UpdateLoan(ctx context.Context, prev, next model.Loan) error {
	query, args, err := updateLoanQuery(prev, next).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "update loan")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrStaleLoan
	}
	return nil
}

func updateLoanQuery(prev, next model.Loan) sq.UpdateBuilder {
	return qb.Update(loansTableName).
		SetMap(map[string]any{
			"due_at":       next.DueAt,
			"returned_at":  next.ReturnedAt,
			"status":       string(next.Status),
			"renew_count":  next.RenewCount,
			"overdue_days": next.OverdueDays,
			"fine_amount":  next.FineAmount,
		}).
		Where(sq.Eq{"id": prev.ID, "renew_count": prev.RenewCount}).
		Where(sq.NotEq{"status": string(model.LoanReturned)})
}

func (r *repository) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	q := listLoansQuery(filter)
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListLoans", zap.String("query", query), zap.Any("args", args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list loans")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Loan])
	if err != nil {
		return nil, errors.Wrap(err, "scan loans")
	}
	return items, nil
}

func listLoansQuery(filter model.LoanFilter) sq.SelectBuilder {
	q := qb.Select(loanColumns...).
		From(loansTableName).
		OrderBy("borrowed_at desc", "id")
	if filter.MemberID != "" {
		q = q.Where(sq.Eq{"member_id": filter.MemberID})
	}
	if filter.BranchID != "" {
		q = q.Where(sq.Eq{"branch_id": filter.BranchID})
	}
	switch filter.Status {
	case "":
	case model.LoanOverdue:
		// stored overdue or active and already past due
		q = q.Where(sq.Or{
			sq.Eq{"status": string(model.LoanOverdue)},
			sq.And{sq.Eq{"status": string(model.LoanActive)}, sq.Expr("due_at < now()")},
		})
	case model.LoanActive:
		q = q.Where(sq.Eq{"status": string(model.LoanActive)}).Where(sq.Expr("due_at >= now()"))
	default:
		q = q.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Page.Limit > 0 {
		limit, skip := offset(filter.Page)
		q = q.Limit(limit).Offset(skip)
	}
	return q
}

// MarkOverdue persists the overdue status of active loans past their due date.
func (r *repository) MarkOverdue(ctx context.Context) (int64, error) {
	query, args, err := markOverdueQuery().ToSql()
	if err != nil {
		return 0, err
	}
	tag, err := r.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "mark overdue")
	}
	return tag.RowsAffected(), nil
}

func markOverdueQuery() sq.UpdateBuilder {
	return qb.Update(loansTableName).
		Set("status", string(model.LoanOverdue)).
		Where(sq.Eq{"status": string(model.LoanActive)}).
		Where(sq.Expr("due_at < now()"))
}
