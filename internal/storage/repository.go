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

	"quadra/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRepository is the single store behind the three logical collections
// (members, games, transactions) plus sessions. Timestamps are persisted as
// RFC 3339 UTC strings so range queries compare lexicographically.
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping reports whether the database is reachable. Used by readiness probes.
func (r *SQLiteRepository) Ping() error {
	return r.db.Ping()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ─── Members ────────────────────────────────────────────────────────────────

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member, passwordHash string) (core.Member, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Role == "" {
		m.Role = core.RoleUser
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, full_name, email, phone, role, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FullName, m.Email, m.Phone, string(m.Role), passwordHash, encodeTime(m.CreatedAt))
	if isUniqueViolation(err) {
		return core.Member{}, fmt.Errorf("member email %s: %w", m.Email, core.ErrConflict)
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("create member: %w", err)
	}

	slog.InfoContext(ctx, "Member created", "member_id", m.ID, "email", m.Email)
	return m, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id string) (core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, phone, role, created_at FROM members WHERE id = ?`, id)
	return scanMember(row)
}

// GetMemberByEmail also returns the stored password hash for credential checks.
func (r *SQLiteRepository) GetMemberByEmail(ctx context.Context, email string) (core.Member, string, error) {
	var m core.Member
	var role, created, hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, phone, role, password_hash, created_at
		 FROM members WHERE email = ?`, email).
		Scan(&m.ID, &m.FullName, &m.Email, &m.Phone, &role, &hash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, "", fmt.Errorf("member %s: %w", email, core.ErrNotFound)
	}
	if err != nil {
		return core.Member{}, "", fmt.Errorf("get member by email: %w", err)
	}
	m.Role = core.Role(role)
	m.CreatedAt = decodeTime(created)
	return m, hash, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, full_name, email, phone, role, created_at FROM members ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetMemberRole(ctx context.Context, id string, role core.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE members SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return fmt.Errorf("set member role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Member role updated", "member_id", id, "role", role)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (core.Member, error) {
	var m core.Member
	var role, created string
	err := row.Scan(&m.ID, &m.FullName, &m.Email, &m.Phone, &role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, fmt.Errorf("member: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("scan member: %w", err)
	}
	m.Role = core.Role(role)
	m.CreatedAt = decodeTime(created)
	return m, nil
}

// ─── Sessions ───────────────────────────────────────────────────────────────

func (r *SQLiteRepository) CreateSession(ctx context.Context, token, memberID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, member_id, created_at) VALUES (?, ?, ?)`,
		token, memberID, encodeTime(time.Now()))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSessionMember(ctx context.Context, token string) (core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT m.id, m.full_name, m.email, m.phone, m.role, m.created_at
		 FROM sessions s JOIN members m ON m.id = s.member_id
		 WHERE s.token = ?`, token)
	m, err := scanMember(row)
	if errors.Is(err, core.ErrNotFound) {
		return core.Member{}, fmt.Errorf("session: %w", core.ErrUnauthenticated)
	}
	return m, err
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ─── Games ──────────────────────────────────────────────────────────────────

// CreateGame inserts an occurrence for the game's calendar day. The insert
// is conditional on the unique day index, so a concurrent creation for the
// same day is a silent no-op; created reports whether this call inserted.
func (r *SQLiteRepository) CreateGame(ctx context.Context, g core.Game) (core.Game, bool, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO games (id, date, day_key, location, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(day_key) DO NOTHING`,
		g.ID, encodeTime(g.Date), core.DayKey(g.Date), g.Location, encodeTime(g.CreatedAt))
	if err != nil {
		return core.Game{}, false, fmt.Errorf("create game: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Game{}, false, fmt.Errorf("create game rows affected: %w", err)
	}
	if n == 0 {
		return core.Game{}, false, nil
	}
	g.Attendance = map[string]core.RSVPStatus{}

	slog.InfoContext(ctx, "Game created", "game_id", g.ID, "game_date", core.DayKey(g.Date))
	return g, true, nil
}

// FindGameByDateRange returns the first occurrence whose date falls within
// [from, to], which callers use as the existence check for one calendar day.
func (r *SQLiteRepository) FindGameByDateRange(ctx context.Context, from, to time.Time) (core.Game, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, location, created_at FROM games
		 WHERE date >= ? AND date <= ? ORDER BY date LIMIT 1`,
		encodeTime(from), encodeTime(to))
	g, err := scanGame(row)
	if errors.Is(err, core.ErrNotFound) {
		return core.Game{}, false, nil
	}
	if err != nil {
		return core.Game{}, false, err
	}
	if g.Attendance, err = r.attendanceFor(ctx, g.ID); err != nil {
		return core.Game{}, false, err
	}
	return g, true, nil
}

func (r *SQLiteRepository) GetGame(ctx context.Context, id string) (core.Game, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, location, created_at FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if err != nil {
		return core.Game{}, err
	}
	if g.Attendance, err = r.attendanceFor(ctx, g.ID); err != nil {
		return core.Game{}, err
	}
	return g, nil
}

// ListUpcomingGames returns occurrences with date >= from, ascending,
// capped at limit, each with its attendance map loaded.
func (r *SQLiteRepository) ListUpcomingGames(ctx context.Context, from time.Time, limit int) ([]core.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, location, created_at FROM games
		 WHERE date >= ? ORDER BY date ASC LIMIT ?`,
		encodeTime(from), limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming games: %w", err)
	}
	defer rows.Close()

	var out []core.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Attendance, err = r.attendanceFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SetAttendance writes exactly one (game, member) attendance entry. Other
// members' rows are untouched, which is what makes concurrent RSVPs safe.
func (r *SQLiteRepository) SetAttendance(ctx context.Context, gameID, memberID string, status core.RSVPStatus) error {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, gameID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("game %s: %w", gameID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check game: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO game_attendance (game_id, member_id, status, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(game_id, member_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		gameID, memberID, string(status), encodeTime(time.Now()))
	if err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) attendanceFor(ctx context.Context, gameID string) (map[string]core.RSVPStatus, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_id, status FROM game_attendance WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	defer rows.Close()

	out := map[string]core.RSVPStatus{}
	for rows.Next() {
		var memberID, status string
		if err := rows.Scan(&memberID, &status); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out[memberID] = core.RSVPStatus(status)
	}
	return out, rows.Err()
}

func scanGame(row rowScanner) (core.Game, error) {
	var g core.Game
	var date, created string
	err := row.Scan(&g.ID, &date, &g.Location, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Game{}, fmt.Errorf("game: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Game{}, fmt.Errorf("scan game: %w", err)
	}
	g.Date = decodeTime(date)
	g.CreatedAt = decodeTime(created)
	return g, nil
}

// ─── Transactions ───────────────────────────────────────────────────────────

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions
		 (id, member_id, type, amount_cents, date, month, year, description, category, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.MemberID, string(t.Type), t.Amount.Cents, encodeTime(t.Date), t.Month, t.Year,
		t.Description, t.Category, string(t.Status), encodeTime(t.CreatedAt), encodeTime(t.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", t.ID,
		"member_id", t.MemberID,
		"transaction_type", t.Type,
		"amount_cents", t.Amount.Cents)
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, txSelect+` WHERE id = ?`, id)
	return scanTransaction(row)
}

func (r *SQLiteRepository) ListTransactionsByMember(ctx context.Context, memberID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, txSelect+` WHERE member_id = ? ORDER BY date DESC, created_at DESC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// PendingSyncTransactions returns transactions not yet mirrored to the
// treasury sheet. Used by the worker as a backup scan for lost messages.
func (r *SQLiteRepository) PendingSyncTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, txSelect+` WHERE synced_at IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET synced_at = ?, sync_error = 0 WHERE id = ?`,
		encodeTime(time.Now()), id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_error = sync_error + 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "transaction_id", id)
	return nil
}

const txSelect = `SELECT id, member_id, type, amount_cents, date, month, year,
 description, category, status, created_at, updated_at FROM transactions`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, status, date, created, updated string
	err := row.Scan(&t.ID, &t.MemberID, &typ, &t.Amount.Cents, &date, &t.Month, &t.Year,
		&t.Description, &t.Category, &status, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.TransactionType(typ)
	t.Status = core.TransactionStatus(status)
	t.Date = decodeTime(date)
	t.CreatedAt = decodeTime(created)
	t.UpdatedAt = decodeTime(updated)
	return t, nil
}
