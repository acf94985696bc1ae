package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"otrack/internal/logging"
	"otrack/internal/store"
	"otrack/internal/workorder"
)

// Store is the persistence the provider needs.
type Store interface {
	InsertUser(ctx context.Context, user store.User) error
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	InsertSession(ctx context.Context, session store.SessionRecord) error
	GetSession(ctx context.Context, token string) (store.SessionRecord, error)
	DeleteSession(ctx context.Context, token string) (bool, error)
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Session is an authenticated sign-in. Authorized service calls take it
// explicitly.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}

// Require returns ErrUnauthorized unless session is present and unexpired.
func Require(op string, session *Session, now time.Time) error {
	if session == nil {
		return workorder.E(op, workorder.ErrUnauthorized, errors.New("no session"))
	}
	if session.Expired(now) {
		return workorder.E(op, workorder.ErrUnauthorized, errors.New("session expired"))
	}
	return nil
}

// Event tells listeners whether a session began or ended.
type Event struct {
	Kind    EventKind
	Session Session
}

// EventKind enumerates session changes.
type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
	EventExpired   EventKind = "expired"
)

// Option customizes a Provider.
type Option func(*Provider)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logging.NewComponentLogger(logger, "identity")
	}
}

// Provider issues and resolves sessions.
type Provider struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
}

// DefaultTTL applies when the configured lifetime is zero.
const DefaultTTL = 12 * time.Hour

// New constructs a Provider backed by st.
func New(st Store, ttl time.Duration, opts ...Option) *Provider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	p := &Provider{
		store:     st,
		ttl:       ttl,
		now:       time.Now,
		logger:    logging.NewNop(),
		listeners: make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Now returns the provider clock reading.
func (p *Provider) Now() time.Time {
	return p.now()
}

// RegisterUser adds a user with the given e-mail.
func (p *Provider) RegisterUser(ctx context.Context, email string) (store.User, error) {
	const op = "register user"
	normalized, err := normalizeEmail(email)
	if err != nil {
		return store.User{}, workorder.E(op, workorder.ErrValidation, err)
	}
	user := store.User{ID: uuid.NewString(), Email: normalized, CreatedAt: p.now().UTC()}
	if err := p.store.InsertUser(ctx, user); err != nil {
		return store.User{}, err
	}
	p.logger.Info("user registered", logging.String(logging.FieldActor, user.ID), logging.String("email", user.Email))
	return user, nil
}

// SignIn starts a session for a registered e-mail.
func (p *Provider) SignIn(ctx context.Context, email string) (*Session, error) {
	const op = "sign in"
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, workorder.E(op, workorder.ErrValidation, err)
	}
	user, err := p.store.GetUserByEmail(ctx, normalized)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, workorder.E(op, workorder.ErrUnauthorized, fmt.Errorf("no user registered for %s", normalized))
	}
	if err != nil {
		return nil, err
	}

	now := p.now().UTC()
	session := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(p.ttl),
	}
	if err := p.store.InsertSession(ctx, store.SessionRecord{
		Token:     session.Token,
		UserID:    session.UserID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}); err != nil {
		return nil, err
	}
	if purged, err := p.store.PurgeExpiredSessions(ctx, now); err != nil {
		p.logger.Warn("expired session purge failed",
			logging.String(logging.FieldEventType, "session_purge_failed"),
			logging.Error(err),
		)
	} else if purged > 0 {
		p.logger.Debug("expired sessions purged", logging.Int64("count", purged))
	}

	p.logger.Info("signed in", logging.String(logging.FieldActor, user.ID))
	p.notify(Event{Kind: EventSignedIn, Session: *session})
	return session, nil
}

// GetSession resolves a bearer token. Unknown and expired tokens fail with
// ErrUnauthorized; expired ones are also revoked.
func (p *Provider) GetSession(ctx context.Context, token string) (*Session, error) {
	const op = "get session"
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, workorder.E(op, workorder.ErrUnauthorized, errors.New("no session token"))
	}
	record, err := p.store.GetSession(ctx, token)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, workorder.E(op, workorder.ErrUnauthorized, errors.New("unknown session"))
	}
	if err != nil {
		return nil, err
	}
	session := &Session{
		Token:     record.Token,
		UserID:    record.UserID,
		Email:     record.Email,
		CreatedAt: record.CreatedAt,
		ExpiresAt: record.ExpiresAt,
	}
	if session.Expired(p.now()) {
		if removed, err := p.store.DeleteSession(ctx, token); err == nil && removed {
			p.notify(Event{Kind: EventExpired, Session: *session})
		}
		return nil, workorder.E(op, workorder.ErrUnauthorized, errors.New("session expired"))
	}
	return session, nil
}

// SignOut revokes token. Unknown tokens are not an error.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	record, lookupErr := p.store.GetSession(ctx, token)
	removed, err := p.store.DeleteSession(ctx, token)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	ended := Session{Token: token}
	if lookupErr == nil {
		ended = Session{
			Token:     record.Token,
			UserID:    record.UserID,
			Email:     record.Email,
			CreatedAt: record.CreatedAt,
			ExpiresAt: record.ExpiresAt,
		}
	}
	p.logger.Info("signed out", logging.String(logging.FieldActor, ended.UserID))
	p.notify(Event{Kind: EventSignedOut, Session: ended})
	return nil
}

// OnSessionChange registers fn for sign-in, sign-out, and expiry events. The
// returned function removes the registration.
func (p *Provider) OnSessionChange(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) notify(event Event) {
	p.mu.Lock()
	fns := make([]func(Event), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(event)
	}
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", errors.New("email is required")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("invalid email %q", email)
	}
	return strings.ToLower(addr.Address), nil
}
