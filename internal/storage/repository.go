// Package storage is the authoritative SQLite store for transactions,
// clients, the goal record, the vault total, and per-period client
// payment flags.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"brisa/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

const dateLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction stores a transaction under a generated id.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, description, amount, currency, date, type, category, client_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Description, t.Amount, string(t.Currency), t.Date.Format(dateLayout),
		string(t.Type), t.Category, t.ClientID, t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"record_id", t.ID,
		"type", string(t.Type),
		"amount", t.Amount,
		"category", t.Category)

	return t, nil
}

// ListTransactions returns all transactions ordered by date descending.
func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, currency, date, type, category, client_id, created_at
		 FROM transactions ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			currency string
			dateStr  string
			kind     string
		)
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount, &currency, &dateStr,
			&kind, &t.Category, &t.ClientID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
		}
		t.Currency = core.Currency(currency)
		t.Date = date
		t.Type = core.TransactionType(kind)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction fetches a single transaction by id.
func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var (
		t        core.Transaction
		currency string
		dateStr  string
		kind     string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount, currency, date, type, category, client_id, created_at
		 FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.Description, &t.Amount, &currency, &dateStr,
			&kind, &t.Category, &t.ClientID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
	}
	t.Currency = core.Currency(currency)
	t.Date = date
	t.Type = core.TransactionType(kind)
	return t, nil
}

// UnmirroredTransactions returns transactions the mirror has not
// confirmed yet, oldest first so the sweep replays them in order.
func (r *Repository) UnmirroredTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, currency, date, type, category, client_id, created_at
		 FROM transactions WHERE mirrored = 0 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list unmirrored transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			currency string
			dateStr  string
			kind     string
		)
		if err := rows.Scan(&t.ID, &t.Description, &t.Amount, &currency, &dateStr,
			&kind, &t.Category, &t.ClientID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
		}
		t.Currency = core.Currency(currency)
		t.Date = date
		t.Type = core.TransactionType(kind)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unmirrored transactions: %w", err)
	}
	return out, nil
}

// MarkMirrored records that the mirror holds the current state of the
// transaction. Marking an already-deleted record is not an error.
func (r *Repository) MarkMirrored(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET mirrored = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction mirrored: %w", err)
	}
	return nil
}

// DeleteTransaction removes a transaction permanently.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateClient stores a client under a generated id.
func (r *Repository) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	if c.Currency == "" {
		c.Currency = core.CurrencyARS
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, monthly_fee, currency, active, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.MonthlyFee, string(c.Currency), boolToInt(c.Active), c.Notes, c.CreatedAt)
	if err != nil {
		return core.Client{}, fmt.Errorf("insert client: %w", err)
	}

	slog.InfoContext(ctx, "Client saved", "client_id", c.ID, "name", c.Name)
	return c, nil
}

// ListClients returns all clients in creation order.
func (r *Repository) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, monthly_fee, currency, active, notes, created_at
		 FROM clients ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []core.Client
	for rows.Next() {
		var (
			c        core.Client
			currency string
			active   int
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.MonthlyFee, &currency, &active, &c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		c.Currency = core.Currency(currency)
		c.Active = active != 0
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return out, nil
}

// ClientUpdate carries the mutable client fields; nil means unchanged.
type ClientUpdate struct {
	Name       *string
	MonthlyFee *float64
	Currency   *core.Currency
	Active     *bool
	Notes      *string
}

// UpdateClient applies a partial update and returns the updated row.
func (r *Repository) UpdateClient(ctx context.Context, id string, upd ClientUpdate) (core.Client, error) {
	current, err := r.getClient(ctx, id)
	if err != nil {
		return core.Client{}, err
	}

	if upd.Name != nil {
		current.Name = *upd.Name
	}
	if upd.MonthlyFee != nil {
		current.MonthlyFee = *upd.MonthlyFee
	}
	if upd.Currency != nil {
		current.Currency = *upd.Currency
	}
	if upd.Active != nil {
		current.Active = *upd.Active
	}
	if upd.Notes != nil {
		current.Notes = *upd.Notes
	}

	if err := current.Validate(); err != nil {
		return core.Client{}, err
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE clients SET name = ?, monthly_fee = ?, currency = ?, active = ?, notes = ? WHERE id = ?`,
		current.Name, current.MonthlyFee, string(current.Currency), boolToInt(current.Active), current.Notes, id)
	if err != nil {
		return core.Client{}, fmt.Errorf("update client: %w", err)
	}

	slog.InfoContext(ctx, "Client updated", "client_id", id)
	return current, nil
}

// DeleteClient removes a client and its payment flags.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete client rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM client_payments WHERE client_id = ?`, id); err != nil {
		return fmt.Errorf("delete client payments: %w", err)
	}
	return nil
}

func (r *Repository) getClient(ctx context.Context, id string) (core.Client, error) {
	var (
		c        core.Client
		currency string
		active   int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, monthly_fee, currency, active, notes, created_at
		 FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.MonthlyFee, &currency, &active, &c.Notes, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Client{}, ErrNotFound
	}
	if err != nil {
		return core.Client{}, fmt.Errorf("get client: %w", err)
	}
	c.Currency = core.Currency(currency)
	c.Active = active != 0
	return c, nil
}

// GetGoal returns the single goal record, ErrNotFound when absent.
func (r *Repository) GetGoal(ctx context.Context) (core.Goal, error) {
	var g core.Goal
	err := r.db.QueryRowContext(ctx,
		`SELECT label, target_amount FROM goals ORDER BY updated_at DESC LIMIT 1`).
		Scan(&g.Label, &g.TargetAmount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// UpsertGoal stores the goal, keyed by label.
func (r *Repository) UpsertGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (label, target_amount, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (label) DO UPDATE SET target_amount = excluded.target_amount, updated_at = excluded.updated_at`,
		g.Label, g.TargetAmount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert goal: %w", err)
	}
	return nil
}

// VaultTotal reads the single authoritative vault row.
func (r *Repository) VaultTotal(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx, `SELECT total FROM vault WHERE id = 1`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("get vault total: %w", err)
	}
	return total, nil
}

// SetVaultTotal overwrites the vault total.
func (r *Repository) SetVaultTotal(ctx context.Context, total float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE vault SET total = ?, updated_at = ? WHERE id = 1`, total, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set vault total: %w", err)
	}
	return nil
}

// MarkClientPaid flags a client as paid for the given period. Marking
// twice in the same period is a no-op.
func (r *Repository) MarkClientPaid(ctx context.Context, clientID string, period core.PeriodKey) error {
	if _, err := r.getClient(ctx, clientID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO client_payments (client_id, month, year, paid_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (client_id, month, year) DO NOTHING`,
		clientID, period.Month, period.Year, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark client paid: %w", err)
	}
	slog.InfoContext(ctx, "Client payment recorded",
		"client_id", clientID, "month", period.Month, "year", period.Year)
	return nil
}

// PaidClientIDs returns the ids of clients flagged paid for the period.
// Flags for other periods are invisible here, so the paid state resets
// naturally when the month rolls over.
func (r *Repository) PaidClientIDs(ctx context.Context, period core.PeriodKey) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT client_id FROM client_payments WHERE month = ? AND year = ?`,
		period.Month, period.Year)
	if err != nil {
		return nil, fmt.Errorf("list paid clients: %w", err)
	}
	defer rows.Close()

	paid := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan paid client: %w", err)
		}
		paid[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paid clients: %w", err)
	}
	return paid, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
