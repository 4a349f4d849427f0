package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *repository) AppendTransaction(ctx context.Context, t model.Transaction) error {
	query, args, err := qb.Insert(transactionsTableName).
		Columns("id", "branch_id", "type", "member_id", "copy_id", "loan_id", "amount", "description", "status", "created_at").
		Values(t.ID, t.BranchID, string(t.Type), t.MemberID, nullable(t.CopyID), t.LoanID,
			t.Amount, nullable(t.Description), nullable(t.Status), t.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.conn(ctx).Exec(ctx, query, args...); err != nil {
		return errors.Wrap(err, "append transaction")
	}
	return nil
}

func (r *repository) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	q := qb.Select(
		"id", "branch_id", "type", "member_id",
		"coalesce(copy_id, '') as copy_id",
		"loan_id", "amount",
		"coalesce(description, '') as description",
		"coalesce(status, '') as status",
		"created_at",
	).
		From(transactionsTableName).
		OrderBy("created_at desc", "id desc")
	if filter.MemberID != "" {
		q = q.Where(sq.Eq{"member_id": filter.MemberID})
	}
	if filter.BranchID != "" {
		q = q.Where(sq.Eq{"branch_id": filter.BranchID})
	}
	if filter.Type != "" {
		q = q.Where(sq.Eq{"type": string(filter.Type)})
	}
	limit, skip := offset(filter.Page)
	query, args, err := q.Limit(limit).Offset(skip).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list transactions")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Transaction])
	if err != nil {
		return nil, errors.Wrap(err, "scan transactions")
	}
	return items, nil
}
