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
)

var (
	bookColumns = []string{
		"id", "isbn", "title", "authors", "lcc_code", "lcc_name", "subjects",
		"description", "publisher", "published_year", "pages", "language",
	}
	copyColumns    = []string{"id", "book_id", "branch_id", "barcode", "status", "condition"}
	licenseColumns = []string{"id", "book_id", "vendor", "license_type", "max_concurrent_users", "url"}
)

const searchDocument = `to_tsvector('simple', title || ' ' || lcc_name || ' ' || description)`

func (r *repository) GetBook(ctx context.Context, id string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, errors.Wrap(err, "get book")
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, errors.Wrap(err, "scan book")
	}
	return book, nil
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	q := qb.Select(bookColumns...).
		From(booksTableName).
		OrderBy("id")
	if filter.LccCode != "" {
		q = q.Where(sq.Eq{"lcc_code": filter.LccCode})
	}
	if filter.Language != "" {
		q = q.Where(sq.Eq{"language": filter.Language})
	}
	limit, skip := offset(filter.Page)
	query, args, err := q.Limit(limit).Offset(skip).ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list books")
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, errors.Wrap(err, "scan books")
	}
	return books, nil
}

// SearchBooks ranks books by full text match over title, category and description.
func (r *repository) SearchBooks(ctx context.Context, text string, limit int) ([]model.BookSearchResult, error) {
	query, args, err := qb.Select(bookColumns...).
		Column(sq.Expr("ts_rank("+searchDocument+", plainto_tsquery('simple', ?)) as score", text)).
		From(booksTableName).
		Where(sq.Expr(searchDocument+" @@ plainto_tsquery('simple', ?)", text)).
		OrderBy("score desc", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "search books")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.BookSearchResult])
	if err != nil {
		return nil, errors.Wrap(err, "scan search results")
	}
	return items, nil
}

func (r *repository) CreateBook(ctx context.Context, b model.Book) error {
	if b.Authors == nil {
		b.Authors = []string{}
	}
	if b.Subjects == nil {
		b.Subjects = []string{}
	}
	query, args, err := qb.Insert(booksTableName).
		Columns(bookColumns...).
		Values(b.ID, b.ISBN, b.Title, b.Authors, b.LccCode, b.LccName, b.Subjects,
			b.Description, b.Publisher, b.PublishedYear, b.Pages, b.Language).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.conn(ctx).Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err, "books_isbn_key") {
			return errs.ErrISBNTaken
		}
		return errors.Wrap(err, "insert book")
	}
	return nil
}

func (r *repository) UpdateBook(ctx context.Context, id string, upd model.BookUpdate) (model.Book, error) {
	fields := upd.Fields()
	if len(fields) == 0 {
		return r.GetBook(ctx, id)
	}
	query, args, err := qb.Update(booksTableName).
		SetMap(fields).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "books_isbn_key") {
			return model.Book{}, errs.ErrISBNTaken
		}
		return model.Book{}, errors.Wrap(err, "update book")
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return model.Book{}, errs.ErrBookNotFound
	case isUniqueViolation(err, "books_isbn_key"):
		return model.Book{}, errs.ErrISBNTaken
	case err != nil:
		return model.Book{}, errors.Wrap(err, "update book")
	}
	return book, nil
}

func (r *repository) DeleteBook(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `delete from books where id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (r *repository) ListCategories(ctx context.Context) ([]model.Category, error) {
	query, args, err := qb.Select("lcc_code as code", "max(lcc_name) as name", "count(*) as count").
		From(booksTableName).
		Where(sq.NotEq{"lcc_code": ""}).
		GroupBy("lcc_code").
		OrderBy("lcc_code").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Category])
	if err != nil {
		return nil, errors.Wrap(err, "scan categories")
	}
	return items, nil
}

// GetDigitalLicense returns nil when the book has no digital edition.
func (r *repository) GetDigitalLicense(ctx context.Context, bookID string) (*model.DigitalLicense, error) {
	query, args, err := qb.Select(licenseColumns...).
		From(licensesTableName).
		Where(sq.Eq{"book_id": bookID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "get digital license")
	}
	lic, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.DigitalLicense])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "scan digital license")
	}
	return lic, nil
}

func (r *repository) FindCopyByID(ctx context.Context, id string) (model.Copy, error) {
	query, args, err := qb.Select(copyColumns...).
		From(copiesTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Copy{}, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return model.Copy{}, errors.Wrap(err, "find copy")
	}
	cp, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Copy])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Copy{}, errs.ErrCopyNotFound
		}
		return model.Copy{}, errors.Wrap(err, "scan copy")
	}
	return cp, nil
}

func (r *repository) ListCopies(ctx context.Context, bookID string, filter model.CopyFilter) ([]model.Copy, error) {
	q := qb.Select(copyColumns...).
		From(copiesTableName).
		Where(sq.Eq{"book_id": bookID}).
		OrderBy("id")
	if filter.BranchID != "" {
		q = q.Where(sq.Eq{"branch_id": filter.BranchID})
	}
	if filter.Status != "" {
		q = q.Where(sq.Eq{"status": filter.Status})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list copies")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Copy])
	if err != nil {
		return nil, errors.Wrap(err, "scan copies")
	}
	return items, nil
}

func (r *repository) SetCopyStatus(ctx context.Context, id string, status model.CopyStatus) error {
	tag, err := r.conn(ctx).Exec(ctx, `update copies set status = $1 where id = $2`, string(status), id)
	if err != nil {
		return errors.Wrap(err, "set copy status")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrCopyNotFound
	}
	return nil
}

// SwapCopyStatus moves the copy from one status to another only if it is still in from.
// It reports false when another request got there first.
func (r *repository) SwapCopyStatus(ctx context.Context, id string, from, to model.CopyStatus) (bool, error) {
	query, args, err := swapCopyStatusQuery(id, from, to).ToSql()
	if err != nil {
		return false, err
	}
	tag, err := r.conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "swap copy status")
	}
	return tag.RowsAffected() == 1, nil
}

func swapCopyStatusQuery(id string, from, to model.CopyStatus) sq.UpdateBuilder {
	return qb.Update(copiesTableName).
		Set("status", string(to)).
		Where(sq.Eq{"id": id, "status": string(from)})
}
