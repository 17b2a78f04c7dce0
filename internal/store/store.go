package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DevHabit/internal/sorting"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrUnknownTag = errors.New("unknown tag")
)

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const schema = "dev_habit"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Store struct {
	db    DB
	sorts *sorting.Registry
}

func New(db DB, sorts *sorting.Registry) *Store {
	return &Store{db: db, sorts: sorts}
}

func table(name string) string {
	return schema + "." + name
}

// Page is limit/offset plus the requested sort expression.
type Page struct {
	Sort     string
	Page     int
	PageSize int
}

func (p Page) limit() uint64 {
	if p.PageSize < 1 {
		return 1
	}
	return uint64(p.PageSize)
}

func (p Page) offset() uint64 {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	return uint64(p.Page-1) * uint64(p.PageSize)
}

// searchPattern builds an ILIKE pattern with LIKE metacharacters escaped.
func searchPattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func notFoundIfNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func exec(ctx context.Context, db DB, b squirrel.Sqlizer, what string) (pgconn.CommandTag, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build %s: %w", what, err)
	}
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return tag, fmt.Errorf("%s: %w", what, ErrDuplicate)
		}
		return tag, fmt.Errorf("%s: %w", what, err)
	}
	return tag, nil
}

func count(ctx context.Context, db DB, b squirrel.SelectBuilder, what string) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", what, err)
	}
	var n int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", what, err)
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}
