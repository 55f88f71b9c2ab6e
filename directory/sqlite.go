package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/permission"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// SQLite is a UserDirectory stored in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLite, error) {
	inMemory := path == MemoryDSN
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// every new connection would see an empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if !inMemory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_authorities (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		authority TEXT NOT NULL,
		PRIMARY KEY (user_id, authority)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// AddUser inserts rec. It returns [ErrUserExists] when the username is taken.
func (s *SQLite) AddUser(ctx context.Context, rec goGuard.UserRecord) error {
	if strings.TrimSpace(rec.Username) == "" {
		return errors.New("username empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, rec.Username, rec.PasswordHash, rec.Status.String(), time.Now().Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrUserExists, rec.Username)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	for _, a := range permission.NormalizeAuthorities(rec.Authorities) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_authorities (user_id, authority) VALUES (?, ?)`, id, a,
		); err != nil {
			return fmt.Errorf("failed to insert authority: %w", err)
		}
	}

	return tx.Commit()
}

// SetStatus changes the account status of username.
func (s *SQLite) SetStatus(ctx context.Context, username string, status goGuard.AccountStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET status = ? WHERE username = ?`, status.String(), username)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", goGuard.ErrUserNotFound, username)
	}
	return nil
}

// LookupUser implements goGuard.UserDirectory.
func (s *SQLite) LookupUser(ctx context.Context, username string) (goGuard.UserRecord, error) {
	var id, hash, status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, status FROM users WHERE username = ?`, username,
	).Scan(&id, &hash, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return goGuard.UserRecord{}, fmt.Errorf("%w: %s", goGuard.ErrUserNotFound, username)
	}
	if err != nil {
		return goGuard.UserRecord{}, fmt.Errorf("failed to query user: %w", err)
	}

	st, ok := goGuard.ParseAccountStatus(status)
	if !ok {
		// unreadable status never authenticates
		st = goGuard.AccountDisabled
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT authority FROM user_authorities WHERE user_id = ? ORDER BY authority`, id,
	)
	if err != nil {
		return goGuard.UserRecord{}, fmt.Errorf("failed to query authorities: %w", err)
	}
	defer rows.Close()

	var authorities []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return goGuard.UserRecord{}, fmt.Errorf("failed to scan authority: %w", err)
		}
		authorities = append(authorities, a)
	}
	if err := rows.Err(); err != nil {
		return goGuard.UserRecord{}, err
	}

	return goGuard.UserRecord{
		Username:     username,
		PasswordHash: hash,
		Authorities:  authorities,
		Status:       st,
	}, nil
}

// Usernames lists all usernames in order.
func (s *SQLite) Usernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SeedDemo inserts the demo accounts that are not already present.
func (s *SQLite) SeedDemo(ctx context.Context, hasher interface{ Hash(string) (string, error) }) error {
	roles, err := DemoRoles()
	if err != nil {
		return err
	}
	for _, u := range DemoUsers() {
		rec, err := Provision(u, hasher, roles)
		if err != nil {
			return err
		}
		if err := s.AddUser(ctx, rec); err != nil && !errors.Is(err, ErrUserExists) {
			return err
		}
	}
	return nil
}

var _ goGuard.UserDirectory = (*SQLite)(nil)
