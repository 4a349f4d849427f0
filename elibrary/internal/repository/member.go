package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

var memberColumns = []string{
	"id", "email", "password_hash", "full_name", "phone", "branch_id", "role",
	"sub_tier", "sub_active", "sub_start_date", "sub_end_date", "sub_max_loans", "sub_loan_duration",
	"joined_at",
}

func scanMember(row pgx.Row) (model.Member, error) {
	var (
		m    model.Member
		role string
	)
	err := row.Scan(
		&m.ID, &m.Email, &m.PasswordHash, &m.FullName, &m.Phone, &m.BranchID, &role,
		&m.Subscription.Tier, &m.Subscription.Active, &m.Subscription.StartDate, &m.Subscription.EndDate,
		&m.Subscription.MaxLoans, &m.Subscription.LoanDuration,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Member{}, errs.ErrMemberNotFound
		}
		return model.Member{}, err
	}
	m.Role = auth.ParseRole(role)
	return m, nil
}

func (r *repository) findMember(ctx context.Context, where sq.Sqlizer, forUpdate bool) (model.Member, error) {
	q := qb.Select(memberColumns...).
		From(membersTableName).
		Where(where).
		Limit(1)
	if forUpdate {
		q = q.Suffix("for update")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.Member{}, err
	}
	m, err := scanMember(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, errs.ErrMemberNotFound) {
		r.log.Error("findMember", zap.String("q", query), zap.Any("args", args), zap.Error(err))
		return model.Member{}, errors.Wrap(err, "find member")
	}
	return m, err
}

func (r *repository) FindMemberByID(ctx context.Context, id string) (model.Member, error) {
	return r.findMember(ctx, sq.Eq{"id": id}, false)
}

func (r *repository) FindMemberByEmail(ctx context.Context, email string) (model.Member, error) {
	return r.findMember(ctx, sq.Eq{"lower(email)": strings.ToLower(email)}, false)
}

// LockMember reads the member with a row lock held until the enclosing transaction ends.
// Concurrent borrows by one member serialize here.
func (r *repository) LockMember(ctx context.Context, id string) (model.Member, error) {
	return r.findMember(ctx, sq.Eq{"id": id}, true)
}

func (r *repository) CountActiveLoans(ctx context.Context, memberID string) (int, error) {
	query, args, err := qb.Select("count(*)").
		From(loansTableName).
		Where(sq.Eq{"member_id": memberID}).
		Where(sq.Eq{"status": []string{string(model.LoanActive), string(model.LoanOverdue)}}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.conn(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count active loans")
	}
	return count, nil
}

func (r *repository) CreateMember(ctx context.Context, m model.Member) error {
	query, args, err := qb.Insert(membersTableName).
		Columns(memberColumns...).
		Values(
			m.ID, m.Email, m.PasswordHash, m.FullName, m.Phone, m.BranchID, string(m.Role),
			m.Subscription.Tier, m.Subscription.Active, m.Subscription.StartDate, m.Subscription.EndDate,
			m.Subscription.MaxLoans, m.Subscription.LoanDuration,
			m.JoinedAt,
		).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.conn(ctx).Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "members_email_key") {
			return errs.ErrEmailTaken
		}
		return errors.Wrap(err, "insert member")
	}
	return nil
}

func (r *repository) UpdateMember(ctx context.Context, id string, upd model.MemberUpdate) (model.Member, error) {
	set := make(map[string]any)
	if upd.FullName != nil {
		set["full_name"] = *upd.FullName
	}
	if upd.Phone != nil {
		set["phone"] = *upd.Phone
	}
	if upd.BranchID != nil {
		set["branch_id"] = *upd.BranchID
	}
	if upd.Role != nil {
		set["role"] = string(auth.ParseRole(*upd.Role))
	}
	if s := upd.Subscription; s != nil {
		set["sub_tier"] = s.Tier
		set["sub_active"] = s.Active
		set["sub_start_date"] = s.StartDate
		set["sub_end_date"] = s.EndDate
		set["sub_max_loans"] = s.MaxLoans
		set["sub_loan_duration"] = s.LoanDuration
	}
	if len(set) == 0 {
		return r.FindMemberByID(ctx, id)
	}

	query, args, err := qb.Update(membersTableName).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(memberColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	m, err := scanMember(r.conn(ctx).QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, errs.ErrMemberNotFound) {
		return model.Member{}, errors.Wrap(err, "update member")
	}
	return m, err
}

func (r *repository) DeleteMember(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `delete from members where id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete member")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrMemberNotFound
	}
	return nil
}

func (r *repository) ListMembers(ctx context.Context, filter model.MemberFilter) ([]model.Member, error) {
	q := qb.Select(memberColumns...).
		From(membersTableName).
		OrderBy("id")
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where(sq.Or{sq.ILike{"email": pattern}, sq.ILike{"full_name": pattern}})
	}
	if filter.Role != "" {
		q = q.Where(sq.Eq{"role": string(auth.ParseRole(filter.Role))})
	}
	limit, skip := offset(filter.Page)
	query, args, err := q.Limit(limit).Offset(skip).ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListMembers", zap.String("query", query), zap.Any("args", args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list members")
	}
	defer rows.Close()

	items := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
