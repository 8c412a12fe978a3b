// Package store is the backend persistence: accounts and per-user UI
// configuration, on SQLite by default or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"golang.org/x/crypto/bcrypt"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned by Authenticate for a wrong login or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is an account row.
type User struct {
	ID           string `db:"id"`
	Login        string `db:"login"`
	PasswordHash string `db:"password_hash"`
	IsAdmin      bool   `db:"is_admin"`
	CreatedAt    string `db:"created_at"`
}

// UIConfig is a user's saved UI configuration, stored as a JSON document.
type UIConfig struct {
	UserID    string `db:"user_id"`
	Config    string `db:"config"`
	UpdatedAt string `db:"updated_at"`
}

// UpdatedTime parses UpdatedAt; the zero time when unset or malformed.
func (c UIConfig) UpdatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, c.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		login TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_ui_config (
		user_id TEXT PRIMARY KEY REFERENCES users(id),
		config TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// Seed is an account created by Init when its login does not exist yet.
type Seed struct {
	Login    string
	Password string
	IsAdmin  bool
}

// DefaultSeeds are the demo accounts.
var DefaultSeeds = []Seed{
	{Login: "admin", Password: "admin", IsAdmin: true},
	{Login: "demo", Password: "demo"},
}

// Store wraps the database handle.
type Store struct {
	db       *sqlx.DB
	now      func() time.Time
	hashCost int
}

// New wraps an open handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now, hashCost: bcrypt.DefaultCost}
}

// SetHashCost sets the bcrypt cost for passwords hashed from now on.
// Tests lower it to bcrypt.MinCost.
func (s *Store) SetHashCost(cost int) {
	s.hashCost = cost
}

// Open connects with driver. For SQLite dsn is a file path.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "", DriverSQLite:
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return New(db), nil
	case DriverPostgres:
		db, err := sqlx.Open(DriverPostgres, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return New(db), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Init creates the schema and the seed accounts.
func (s *Store) Init(ctx context.Context, seeds []Seed) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, seed := range seeds {
		_, err := s.UserByLogin(ctx, seed.Login)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("seed %s: %w", seed.Login, err)
		}
		if _, err := s.CreateUser(ctx, seed.Login, seed.Password, seed.IsAdmin); err != nil {
			return fmt.Errorf("seed %s: %w", seed.Login, err)
		}
	}
	return nil
}

// CreateUser inserts an account with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, login, password string, isAdmin bool) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
		CreatedAt:    s.now().UTC().Format(time.RFC3339),
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (id, login, password_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		u.ID, u.Login, u.PasswordHash, u.IsAdmin, u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UserByLogin looks up an account by login.
func (s *Store) UserByLogin(ctx context.Context, login string) (User, error) {
	return s.getUser(ctx, `SELECT id, login, password_hash, is_admin, created_at FROM users WHERE login = ?`, login)
}

// UserByID looks up an account by id.
func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, login, password_hash, is_admin, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) getUser(ctx context.Context, query string, arg interface{}) (User, error) {
	var u User
	if err := s.db.GetContext(ctx, &u, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Authenticate checks a login/password pair.
func (s *Store) Authenticate(ctx context.Context, login, password string) (User, error) {
	u, err := s.UserByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// GetUIConfig returns the saved configuration of userID.
func (s *Store) GetUIConfig(ctx context.Context, userID string) (UIConfig, error) {
	var c UIConfig
	err := s.db.GetContext(ctx, &c, s.db.Rebind(`
		SELECT user_id, config, updated_at FROM user_ui_config WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return UIConfig{}, ErrNotFound
	}
	if err != nil {
		return UIConfig{}, fmt.Errorf("get ui config: %w", err)
	}
	return c, nil
}

const upsertUIConfig = `
	INSERT INTO user_ui_config (user_id, config, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at`

// PutUIConfig replaces the saved configuration of userID.
func (s *Store) PutUIConfig(ctx context.Context, userID, config string) (UIConfig, error) {
	c := UIConfig{UserID: userID, Config: config, UpdatedAt: s.now().UTC().Format(time.RFC3339)}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(upsertUIConfig), c.UserID, c.Config, c.UpdatedAt); err != nil {
		return UIConfig{}, fmt.Errorf("put ui config: %w", err)
	}
	return c, nil
}

// PushUIConfigToAll stores config for every account in one transaction and
// returns how many accounts were updated.
func (s *Store) PushUIConfigToAll(ctx context.Context, config string) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("push ui config: %w", err)
	}
	defer tx.Rollback()

	var ids []string
	if err := tx.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return 0, fmt.Errorf("push ui config: list users: %w", err)
	}
	at := s.now().UTC().Format(time.RFC3339)
	stmt := tx.Rebind(upsertUIConfig)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, stmt, id, config, at); err != nil {
			return 0, fmt.Errorf("push ui config: user %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("push ui config: commit: %w", err)
	}
	return len(ids), nil
}
