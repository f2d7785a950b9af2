package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/darmiel/keygate/internal/config"
)

// SQLiteConfig is the inline configuration block for the sqlite
// backend.
type SQLiteConfig struct {
	// Path to the database file.
	Path string `mapstructure:"path"`

	// MaxConnections bounds the connection pool.
	MaxConnections int `mapstructure:"max_connections"`

	// PoolTimeoutSeconds bounds the blocking wait for a pooled
	// connection.
	PoolTimeoutSeconds int `mapstructure:"pool_timeout"`
}

const (
	defaultMaxConnections = 5
	defaultPoolTimeout    = 5 * time.Second
)

// SQLite verifies credentials against a users table in a SQLite
// database. Passwords are stored as salted argon2i digests.
type SQLite struct {
	db          *sql.DB
	poolTimeout time.Duration
}

var _ Authenticator = (*SQLite)(nil)

type userRecord struct {
	Username string
	Hash     []byte
	Salt     []byte
}

// NewSQLite opens (and, if needed, bootstraps) the user database.
func NewSQLite(cfg config.AuthenticatorConfig) (*SQLite, error) {
	var conf SQLiteConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &conf})
	if err != nil {
		return nil, fmt.Errorf("creating decoder for sqlite authenticator: %w", err)
	}
	if err := decoder.Decode(cfg.Config); err != nil {
		return nil, fmt.Errorf("decoding config for sqlite authenticator: %w", err)
	}
	if conf.Path == "" {
		return nil, fmt.Errorf("sqlite authenticator requires 'path'")
	}
	if conf.MaxConnections <= 0 {
		conf.MaxConnections = defaultMaxConnections
	}

	poolTimeout := defaultPoolTimeout
	if conf.PoolTimeoutSeconds > 0 {
		poolTimeout = time.Duration(conf.PoolTimeoutSeconds) * time.Second
	}

	db, err := sql.Open("sqlite", conf.Path)
	if err != nil {
		return nil, fmt.Errorf("opening user database: %w", err)
	}
	db.SetMaxOpenConns(conf.MaxConnections)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, poolTimeout: poolTimeout}, nil
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			username   TEXT PRIMARY KEY,
			hash       BLOB NOT NULL,
			salt       BLOB NOT NULL
		);`,
	); err != nil {
		return fmt.Errorf("initializing 'users' table schema: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// lookup fetches a user record. Connection acquisition blocks at most
// poolTimeout; the query itself runs under the request's context.
func (s *SQLite) lookup(ctx context.Context, username string) (*userRecord, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, s.poolTimeout)
	defer cancel()

	conn, err := s.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrConnectionTimeout
		}
		return nil, fmt.Errorf("acquiring database connection: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	var user userRecord
	row := conn.QueryRowContext(ctx,
		`SELECT username, hash, salt FROM users WHERE username = ?`, username)
	if err := row.Scan(&user.Username, &user.Hash, &user.Salt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLite) Authenticate(ctx context.Context, username, password string, includeRefreshPayload bool) (*Result, error) {
	user, err := s.lookup(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// same failure as a wrong password, on purpose
			log.Ctx(ctx).Debug().Str("username", username).Msg("user not found")
			return nil, ErrAuthenticationFailure
		}
		return nil, err
	}

	if !VerifyPassword(password, user.Salt, user.Hash) {
		log.Ctx(ctx).Debug().Str("username", username).Msg("password digest mismatch")
		return nil, ErrAuthenticationFailure
	}

	return buildResult(user.Username, includeRefreshPayload)
}

// AuthenticateRefreshToken re-resolves the subject from the payload and
// verifies the user still exists; a user deleted since issuance can no
// longer refresh.
func (s *SQLite) AuthenticateRefreshToken(ctx context.Context, payload json.RawMessage) (*Result, error) {
	username, err := unmarshalRefreshPayload(payload)
	if err != nil {
		return nil, err
	}

	user, err := s.lookup(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAuthenticationFailure
		}
		return nil, err
	}

	return buildResult(user.Username, false)
}

// AddUser inserts or replaces a user with a freshly salted digest.
// Used by the CLI, not by the request path.
func (s *SQLite) AddUser(ctx context.Context, username, password string) error {
	salt, err := NewSalt()
	if err != nil {
		return err
	}
	hash := HashPassword(password, salt)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (username, hash, salt) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET hash = excluded.hash, salt = excluded.salt`,
		username, hash, salt)
	if err != nil {
		return fmt.Errorf("storing user %q: %w", username, err)
	}
	return nil
}

// ListUsers returns all usernames in the store.
func (s *SQLite) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		usernames = append(usernames, username)
	}
	return usernames, rows.Err()
}

func buildResult(username string, includeRefreshPayload bool) (*Result, error) {
	res := &Result{
		Subject:       username,
		PrivateClaims: map[string]any{},
	}
	if includeRefreshPayload {
		payload, err := marshalRefreshPayload(username)
		if err != nil {
			return nil, err
		}
		res.RefreshPayload = payload
	}
	return res, nil
}
