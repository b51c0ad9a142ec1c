package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ProviderLine is the provider ID of LINE accounts in the accounts table.
const ProviderLine = "line"

// SQLiteDirectory is a recipient directory backed by SQLite.
type SQLiteDirectory struct {
	db *sql.DB
}

// OpenDirectory opens or creates the directory database at path.
func OpenDirectory(path string) (*SQLiteDirectory, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &SQLiteDirectory{db: db}
	if err := d.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return d, nil
}

func (d *SQLiteDirectory) init() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id     TEXT PRIMARY KEY,
			email  TEXT
		);

		CREATE TABLE IF NOT EXISTS accounts (
			user_id      TEXT NOT NULL,
			provider_id  TEXT NOT NULL,
			account_id   TEXT NOT NULL,
			PRIMARY KEY (user_id, provider_id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);
	`)
	return err
}

// Close closes the database.
func (d *SQLiteDirectory) Close() error {
	return d.db.Close()
}

// PushAccount returns the LINE account linked to userID, or "".
func (d *SQLiteDirectory) PushAccount(ctx context.Context, userID string) (string, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var accountID string
	err = conn.QueryRowContext(ctx,
		`SELECT account_id FROM accounts WHERE user_id = ? AND provider_id = ? LIMIT 1`,
		userID, ProviderLine,
	).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query account: %w", err)
	}
	return accountID, nil
}

// EmailAddress returns the email address of userID, or "".
func (d *SQLiteDirectory) EmailAddress(ctx context.Context, userID string) (string, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var email sql.NullString
	err = conn.QueryRowContext(ctx, `SELECT email FROM users WHERE id = ?`, userID).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user: %w", err)
	}
	return email.String, nil
}

// PutUser creates or updates a user. An empty email clears the address.
func (d *SQLiteDirectory) PutUser(ctx context.Context, userID, email string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, email) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email`,
		userID, sql.NullString{String: email, Valid: email != ""},
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// LinkAccount links a provider account to an existing user.
func (d *SQLiteDirectory) LinkAccount(ctx context.Context, userID, providerID, accountID string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, provider_id, account_id) VALUES (?, ?, ?)
		ON CONFLICT(user_id, provider_id) DO UPDATE SET account_id = excluded.account_id`,
		userID, providerID, accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}
	return nil
}
