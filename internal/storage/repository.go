package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertUser registers a Telegram user, refreshing name fields on
// conflict so renames propagate.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, first_name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name`,
		u.ID, u.Username, u.FirstName)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// ListUsers returns all known users ordered by first name.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, first_name, created_at
		FROM users
		ORDER BY first_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// CreateTransaction persists a transaction and returns it with the
// assigned id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, kind, description, category, channel, amount_cents, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Kind), t.Description, t.Category, t.Channel,
		t.Amount.Cents, t.OccurredAt.Format(dateLayout))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"user_id", t.UserID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"occurred_at", t.OccurredAt.Format(dateLayout))

	return t, nil
}

// ListParams narrows ListTransactions. Zero values mean unbounded.
type ListParams struct {
	UserID int64
	From   time.Time
	To     time.Time
}

// ListTransactions returns transactions matching the params, ordered
// by occurrence date then id.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, p ListParams) ([]core.Transaction, error) {
	query := `
		SELECT id, user_id, kind, description, category, channel, amount_cents, occurred_at, created_at
		FROM transactions
		WHERE 1=1`
	var args []any
	if p.UserID != 0 {
		query += " AND user_id = ?"
		args = append(args, p.UserID)
	}
	if !p.From.IsZero() {
		query += " AND occurred_at >= ?"
		args = append(args, p.From.Format(dateLayout))
	}
	if !p.To.IsZero() {
		query += " AND occurred_at <= ?"
		args = append(args, p.To.Format(dateLayout))
	}
	query += " ORDER BY occurred_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListTransactionsByMonth returns one user's transactions of a kind
// inside a single calendar month.
func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, userID int64, kind core.TransactionKind, year, month int) ([]core.Transaction, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, description, category, channel, amount_cents, occurred_at, created_at
		FROM transactions
		WHERE user_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at, id`,
		userID, string(kind), from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list transactions by month: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var kind, occurredAt, createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &kind, &t.Description, &t.Category,
			&t.Channel, &t.Amount.Cents, &occurredAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.TransactionKind(kind)
		day, err := time.Parse(dateLayout, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
		}
		t.OccurredAt = core.Date{Time: day}
		t.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// Rollup is one row of the monthly_rollups fast path maintained by the
// worker.
type Rollup struct {
	UserID     int64
	Year       int
	Month      int
	Kind       core.TransactionKind
	TotalCents int64
	TxCount    int64
}

// ApplyRollup adds a delta to one rollup bucket, creating it if absent.
func (r *SQLiteRepository) ApplyRollup(ctx context.Context, userID int64, year, month int, kind core.TransactionKind, deltaCents int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_rollups (user_id, year, month, kind, total_cents, tx_count, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, datetime('now'))
		ON CONFLICT(user_id, year, month, kind) DO UPDATE SET
			total_cents = total_cents + excluded.total_cents,
			tx_count = tx_count + 1,
			updated_at = datetime('now')`,
		userID, year, month, string(kind), deltaCents)
	if err != nil {
		return fmt.Errorf("apply rollup: %w", err)
	}
	return nil
}

// GetRollups returns rollup rows, optionally narrowed to one user,
// ordered chronologically.
func (r *SQLiteRepository) GetRollups(ctx context.Context, userID int64) ([]Rollup, error) {
	query := `
		SELECT user_id, year, month, kind, total_cents, tx_count
		FROM monthly_rollups`
	var args []any
	if userID != 0 {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY year, month, user_id, kind"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get rollups: %w", err)
	}
	defer rows.Close()

	var rollups []Rollup
	for rows.Next() {
		var ru Rollup
		var kind string
		if err := rows.Scan(&ru.UserID, &ru.Year, &ru.Month, &kind, &ru.TotalCents, &ru.TxCount); err != nil {
			return nil, fmt.Errorf("scan rollup: %w", err)
		}
		ru.Kind = core.TransactionKind(kind)
		rollups = append(rollups, ru)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rollups: %w", err)
	}
	return rollups, nil
}

// RecomputeRollups rebuilds the whole monthly_rollups table from the
// transactions table in one write transaction. The worker runs this
// periodically so drift from missed events heals itself.
func (r *SQLiteRepository) RecomputeRollups(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reconcile: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_rollups`); err != nil {
		return fmt.Errorf("clear rollups: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO monthly_rollups (user_id, year, month, kind, total_cents, tx_count, updated_at)
		SELECT
			user_id,
			CAST(strftime('%Y', occurred_at) AS INTEGER),
			CAST(strftime('%m', occurred_at) AS INTEGER),
			kind,
			SUM(amount_cents),
			COUNT(*),
			datetime('now')
		FROM transactions
		GROUP BY user_id, strftime('%Y', occurred_at), strftime('%m', occurred_at), kind`); err != nil {
		return fmt.Errorf("rebuild rollups: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reconcile: %w", err)
	}

	slog.InfoContext(ctx, "Monthly rollups reconciled")
	return nil
}
