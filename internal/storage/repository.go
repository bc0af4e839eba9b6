package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/query"

	_ "modernc.org/sqlite"
)

const (
	selectCategory = `SELECT c.id, c.name, c.owner_id FROM categories c`

	selectTransaction = `SELECT t.id, t.title, t.amount, t.transaction_type, t.description, t.date,
	c.id, c.name, c.owner_id
FROM transactions t
JOIN categories c ON c.id = t.category_id`

	countTransaction = `SELECT COUNT(*) FROM transactions t JOIN categories c ON c.id = t.category_id`
	countCategory    = `SELECT COUNT(*) FROM categories c`
)

type SQLiteRepository struct {
	db  *sql.DB
	dsn string
}

var _ Store = (*SQLiteRepository)(nil)

// DSN builds a modernc sqlite DSN with foreign keys enforced on every connection.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it to the latest schema.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, errors.New("sqlite database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, dsn: dsn}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateCategory inserts c and returns it with its new id.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, owner_id) VALUES (?, ?)`,
		c.Name, ownerArg(c.Owner))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, selectCategory+` WHERE c.id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, owner_id = ? WHERE id = ?`,
		c.Name, ownerArg(c.Owner), c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if err := expectRow(res, "category", c.ID); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// DeleteCategory removes the category's transactions and the category in one
// SQL transaction. The foreign key cascade would do the same; deleting
// explicitly keeps the guarantee when foreign keys are disabled.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	removed, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE category_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transactions of category %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if err := expectRow(res, "category", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category delete: %w", err)
	}

	n, _ := removed.RowsAffected()
	slog.InfoContext(ctx, "Category deleted", "id", id, "transactions_removed", n)
	return nil
}

func (r *SQLiteRepository) FindCategories(ctx context.Context, q query.Query) ([]core.Category, int, error) {
	where, args, err := categoryColumns.renderWhere(q)
	if err != nil {
		return nil, 0, fmt.Errorf("render category query: %w", err)
	}
	order, err := categoryColumns.renderOrder(q)
	if err != nil {
		return nil, 0, fmt.Errorf("render category order: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countCategory+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	limit, limitArgs := renderLimit(q)
	rows, err := r.db.QueryContext(ctx, selectCategory+where+order+limit, append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate categories: %w", err)
	}
	return out, total, nil
}

func (r *SQLiteRepository) OrphanCategories(ctx context.Context, owner core.UserID) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET owner_id = NULL WHERE owner_id = ?`, int64(owner))
	if err != nil {
		return 0, fmt.Errorf("orphan categories of %d: %w", owner, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// CreateTransaction inserts t, which must reference an existing category.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (title, amount, transaction_type, description, date, category_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Title, t.Amount, string(t.Type), t.Description, t.Date.String(), t.Category.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransaction+` WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		SET title = ?, amount = ?, transaction_type = ?, description = ?, category_id = ?
		WHERE id = ?`,
		t.Title, t.Amount, string(t.Type), t.Description, t.Category.ID, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	if err := expectRow(res, "transaction", t.ID); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, t.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return expectRow(res, "transaction", id)
}

func (r *SQLiteRepository) FindTransactions(ctx context.Context, q query.Query) ([]core.Transaction, int, error) {
	where, args, err := transactionColumns.renderWhere(q)
	if err != nil {
		return nil, 0, fmt.Errorf("render transaction query: %w", err)
	}
	order, err := transactionColumns.renderOrder(q)
	if err != nil {
		return nil, 0, fmt.Errorf("render transaction order: %w", err)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countTransaction+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	limit, limitArgs := renderLimit(q)
	rows, err := r.db.QueryContext(ctx, selectTransaction+where+order+limit, append(args, limitArgs...)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c     core.Category
		owner sql.NullInt64
	)
	if err := s.Scan(&c.ID, &c.Name, &owner); err != nil {
		return core.Category{}, err
	}
	c.Owner = ownerFrom(owner)
	return c, nil
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		txType  string
		rawDate string
		owner   sql.NullInt64
	)
	err := s.Scan(&t.ID, &t.Title, &t.Amount, &txType, &t.Description, &rawDate,
		&t.Category.ID, &t.Category.Name, &owner)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d has malformed date %q: %w", t.ID, rawDate, err)
	}
	t.Type = core.TransactionType(txType)
	t.Date = date
	t.Category.Owner = ownerFrom(owner)
	return t, nil
}

func ownerArg(owner *core.UserID) any {
	if owner == nil {
		return nil
	}
	return int64(*owner)
}

func ownerFrom(n sql.NullInt64) *core.UserID {
	if !n.Valid {
		return nil
	}
	return core.OwnerRef(core.UserID(n.Int64))
}

func expectRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, core.ErrNotFound)
	}
	return nil
}
