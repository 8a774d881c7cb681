// Package storage is the SQLite backend of the development API server.
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
	"time"

	_ "modernc.org/sqlite"

	"finboard/internal/core"
	"finboard/internal/store"
)

// Timestamps are stored as fixed-width UTC text so string order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Ledger = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under the API server.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// placeholders returns "?, ?, ?" for n values and the values as args.
func placeholders(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

// Accounts

const accountColumns = `
	a.id, a.kind, a.name,
	a.opening_balance + COALESCE((
		SELECT SUM(CASE WHEN t.source_id = a.id THEN t.source_amount ELSE 0 END
		         + CASE WHEN t.target_id = a.id THEN t.target_amount ELSE 0 END)
		FROM transactions t
		WHERE t.executed_at IS NOT NULL AND (t.source_id = a.id OR t.target_id = a.id)
	), 0),
	a.capital, a.currency, a.color, a.archived, a.parent_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a        core.Account
		kind     string
		archived int64
		parent   sql.NullInt64
	)
	if err := row.Scan(&a.ID, &kind, &a.Name, &a.Balance, &a.Capital, &a.Currency, &a.Color, &archived, &parent); err != nil {
		return core.Account{}, err
	}
	a.Kind = core.AccountKind(kind)
	a.Archived = archived != 0
	a.ParentID = intPtr(parent)
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, f store.AccountFilter) ([]core.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts a"
	var (
		conds []string
		args  []any
	)
	if !f.Archived {
		conds = append(conds, "a.archived = 0")
	}
	if len(f.Kinds) > 0 {
		marks := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			marks[i] = "?"
			args = append(args, string(k))
		}
		conds = append(conds, "a.kind IN ("+strings.Join(marks, ", ")+")")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := make([]core.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts a WHERE a.id = ?", id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) checkParent(ctx context.Context, a core.Account) error {
	if a.ParentID == nil {
		return nil
	}
	if *a.ParentID == a.ID {
		return core.ErrNestedChildren
	}
	var grand sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT parent_id FROM accounts WHERE id = ?", *a.ParentID).Scan(&grand)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("parent account %d: %w", *a.ParentID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get parent account: %w", err)
	}
	if grand.Valid {
		return core.ErrNestedChildren
	}
	if a.ID == 0 {
		return nil
	}
	var hasChildren bool
	err = r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM accounts WHERE parent_id = ?)", a.ID).Scan(&hasChildren)
	if err != nil {
		return fmt.Errorf("count child accounts: %w", err)
	}
	if hasChildren {
		return core.ErrNestedChildren
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	a.ID = 0
	if err := r.checkParent(ctx, a); err != nil {
		return core.Account{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (kind, name, opening_balance, capital, currency, color, archived, parent_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.Kind), a.Name, a.Balance, a.Capital, a.Currency, a.Color, boolInt(a.Archived), nullInt(a.ParentID))
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("create account id: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite", "account_id", id, "kind", a.Kind)
	return r.GetAccount(ctx, id)
}

// UpdateAccount leaves the opening balance untouched.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := r.checkParent(ctx, a); err != nil {
		return core.Account{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET kind = ?, name = ?, capital = ?, currency = ?, color = ?, archived = ?, parent_id = ?
		WHERE id = ?`,
		string(a.Kind), a.Name, a.Capital, a.Currency, a.Color, boolInt(a.Archived), nullInt(a.ParentID), a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Account{}, fmt.Errorf("account %d: %w", a.ID, core.ErrNotFound)
	}
	return r.GetAccount(ctx, a.ID)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	var refs int64
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM transactions WHERE source_id = ?1 OR target_id = ?1)
		     + (SELECT COUNT(*) FROM accounts WHERE parent_id = ?1)`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count account references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("account %d: %w", id, store.ErrInUse)
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// Transactions

const transactionSelect = `
SELECT t.id, t.source_amount, t.target_amount, t.description, t.category_id,
       t.issued_at, t.executed_at, t.created_at, t.updated_at,
       s.id, s.name, s.kind, s.currency, s.color, s.archived,
       sp.id, sp.name, sp.kind, sp.currency, sp.color, sp.archived,
       g.id, g.name, g.kind, g.currency, g.color, g.archived,
       gp.id, gp.name, gp.kind, gp.currency, gp.color, gp.archived
FROM transactions t
JOIN accounts s ON s.id = t.source_id
LEFT JOIN accounts sp ON sp.id = s.parent_id
JOIN accounts g ON g.id = t.target_id
LEFT JOIN accounts gp ON gp.id = g.parent_id`

type refColumns struct {
	id       sql.NullInt64
	name     sql.NullString
	kind     sql.NullString
	currency sql.NullString
	color    sql.NullString
	archived sql.NullInt64
}

func (c *refColumns) dest() []any {
	return []any{&c.id, &c.name, &c.kind, &c.currency, &c.color, &c.archived}
}

func (c *refColumns) ref() *core.AccountRef {
	if !c.id.Valid {
		return nil
	}
	return &core.AccountRef{
		ID:       c.id.Int64,
		Name:     c.name.String,
		Kind:     core.AccountKind(c.kind.String),
		Currency: c.currency.String,
		Color:    c.color.String,
		Archived: c.archived.Int64 != 0,
	}
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                       core.Transaction
		category                 sql.NullInt64
		issued, created, updated string
		executed                 sql.NullString
		source, sourceParent     refColumns
		target, targetParent     refColumns
	)
	dest := []any{&tx.ID, &tx.SourceAmount, &tx.TargetAmount, &tx.Description, &category,
		&issued, &executed, &created, &updated}
	dest = append(dest, source.dest()...)
	dest = append(dest, sourceParent.dest()...)
	dest = append(dest, target.dest()...)
	dest = append(dest, targetParent.dest()...)
	if err := row.Scan(dest...); err != nil {
		return core.Transaction{}, err
	}

	var err error
	tx.CategoryID = intPtr(category)
	if tx.IssuedAt, err = parseTime(issued); err != nil {
		return core.Transaction{}, err
	}
	if tx.ExecutedAt, err = parseNullTime(executed); err != nil {
		return core.Transaction{}, err
	}
	if tx.CreatedAt, err = parseTime(created); err != nil {
		return core.Transaction{}, err
	}
	if tx.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Transaction{}, err
	}
	tx.Source = *source.ref()
	tx.Source.Parent = sourceParent.ref()
	tx.Target = *target.ref()
	tx.Target.Parent = targetParent.ref()
	return tx, nil
}

// transactionWhere translates the filter into SQL; it mirrors TransactionFilter.Match.
func transactionWhere(f store.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	switch f.State {
	case store.ExecutedOnly:
		conds = append(conds, "t.executed_at IS NOT NULL")
	case store.PendingOnly:
		conds = append(conds, "t.executed_at IS NULL")
	}
	if f.ExecutedFrom != nil {
		conds = append(conds, "(t.executed_at IS NULL OR t.executed_at >= ?)")
		args = append(args, formatTime(*f.ExecutedFrom))
	}
	if f.ExecutedUntil != nil {
		conds = append(conds, "(t.executed_at IS NULL OR t.executed_at <= ?)")
		args = append(args, formatTime(*f.ExecutedUntil))
	}
	if len(f.Accounts) > 0 {
		marks, ids := placeholders(f.Accounts)
		var parts []string
		for _, col := range []string{"t.source_id", "t.target_id", "s.parent_id", "g.parent_id"} {
			parts = append(parts, col+" IN ("+marks+")")
			args = append(args, ids...)
		}
		conds = append(conds, "("+strings.Join(parts, " OR ")+")")
	}
	if len(f.Categories) > 0 {
		marks, ids := placeholders(f.Categories)
		conds = append(conds, "t.category_id IN ("+marks+")")
		args = append(args, ids...)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	where, args := transactionWhere(f)
	rows, err := r.db.QueryContext(ctx, transactionSelect+where+" ORDER BY t.issued_at, t.id", args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, transactionSelect+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) checkRefs(ctx context.Context, tx core.Transaction) error {
	for _, id := range []int64{tx.Source.ID, tx.Target.ID} {
		var one int
		err := r.db.QueryRowContext(ctx, "SELECT 1 FROM accounts WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check account %d: %w", id, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := r.checkRefs(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	now := formatTime(r.now())
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (source_id, target_id, source_amount, target_amount, description,
		                          category_id, issued_at, executed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Source.ID, tx.Target.ID, tx.SourceAmount, tx.TargetAmount, tx.Description,
		nullInt(tx.CategoryID), formatTime(tx.IssuedAt), formatNullTime(tx.ExecutedAt), now, now)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"transaction_id", id,
		"source_account_id", tx.Source.ID,
		"target_account_id", tx.Target.ID,
		"amount_minor", tx.SourceAmount)

	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := r.checkRefs(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET source_id = ?, target_id = ?, source_amount = ?, target_amount = ?,
		       description = ?, category_id = ?, issued_at = ?, executed_at = ?, updated_at = ?
		WHERE id = ?`,
		tx.Source.ID, tx.Target.ID, tx.SourceAmount, tx.TargetAmount, tx.Description,
		nullInt(tx.CategoryID), formatTime(tx.IssuedAt), formatNullTime(tx.ExecutedAt), formatTime(r.now()), tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", tx.ID, core.ErrNotFound)
	}
	return r.GetTransaction(ctx, tx.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// Goals

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target, saved, currency, position, achieved_at, archived_at
		FROM goals ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		var (
			g                  core.Goal
			achieved, archived sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Target, &g.Saved, &g.Currency, &g.Position, &achieved, &archived); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.AchievedAt, err = parseNullTime(achieved); err != nil {
			return nil, err
		}
		if g.ArchivedAt, err = parseNullTime(archived); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if g.Position == 0 {
		if err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), 0) + 1 FROM goals").Scan(&g.Position); err != nil {
			return core.Goal{}, fmt.Errorf("next goal position: %w", err)
		}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (name, target, saved, currency, position, achieved_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.Name, g.Target, g.Saved, g.Currency, g.Position, formatNullTime(g.AchievedAt), formatNullTime(g.ArchivedAt))
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.Goal{}, fmt.Errorf("create goal id: %w", err)
	}
	return g, nil
}
