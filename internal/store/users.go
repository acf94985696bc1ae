package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"otrack/internal/workorder"
)

var (
	// ErrUserNotFound reports an unknown e-mail or user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound reports an unknown or revoked session token.
	ErrSessionNotFound = errors.New("session not found")
)

// User is a registered operator.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// SessionRecord is a persisted sign-in.
type SessionRecord struct {
	Token     string
	UserID    string
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// InsertUser registers a user. E-mails are unique regardless of case.
func (s *Store) InsertUser(ctx context.Context, user User) error {
	const op = "insert user"
	ctx = ensureContext(ctx)
	created := user.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)`,
		user.ID, strings.TrimSpace(user.Email), formatTime(created),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return workorder.E(op, workorder.ErrConflict, fmt.Errorf("email %s already registered", user.Email))
		}
		return storageError(op, err)
	}
	return nil
}

// GetUserByEmail looks up a user by case-insensitive e-mail.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const op = "get user"
	ctx = ensureContext(ctx)
	var (
		user    User
		created sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE email = ?`,
		strings.TrimSpace(email),
	).Scan(&user.ID, &user.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return User{}, storageError(op, err)
	}
	user.CreatedAt = parseNullTime(created)
	return user, nil
}

// ListUsers returns every registered user ordered by e-mail.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	const op = "list users"
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT id, email, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var (
			user    User
			created sql.NullString
		)
		if err := rows.Scan(&user.ID, &user.Email, &created); err != nil {
			return nil, storageError(op, err)
		}
		user.CreatedAt = parseNullTime(created)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return users, nil
}

// InsertSession persists a new session for an existing user.
func (s *Store) InsertSession(ctx context.Context, session SessionRecord) error {
	const op = "insert session"
	_, err := s.db.ExecContext(ensureContext(ctx),
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, formatTime(session.CreatedAt), formatTime(session.ExpiresAt),
	)
	if err != nil {
		return storageError(op, err)
	}
	return nil
}

// GetSession resolves a token to its session and user e-mail.
func (s *Store) GetSession(ctx context.Context, token string) (SessionRecord, error) {
	const op = "get session"
	var (
		record  SessionRecord
		created sql.NullString
		expires sql.NullString
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT s.token, s.user_id, u.email, s.created_at, s.expires_at
        FROM sessions s JOIN users u ON u.id = s.user_id
        WHERE s.token = ?`,
		token,
	).Scan(&record.Token, &record.UserID, &record.Email, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	if err != nil {
		return SessionRecord{}, storageError(op, err)
	}
	record.CreatedAt = parseNullTime(created)
	record.ExpiresAt = parseNullTime(expires)
	return record, nil
}

// DeleteSession revokes a token. It reports whether a session was removed.
func (s *Store) DeleteSession(ctx context.Context, token string) (bool, error) {
	const op = "delete session"
	res, err := s.db.ExecContext(ensureContext(ctx), `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return false, storageError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storageError(op, err)
	}
	return affected > 0, nil
}

// PurgeExpiredSessions removes sessions that expired before now.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	const op = "purge expired sessions"
	res, err := s.db.ExecContext(ensureContext(ctx), `DELETE FROM sessions WHERE expires_at < ?`, formatTime(now))
	if err != nil {
		return 0, storageError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, storageError(op, err)
	}
	return affected, nil
}
