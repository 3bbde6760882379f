package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/fircode/shelter/internal/model"
	"github.com/fircode/shelter/internal/repository"
	"github.com/fircode/shelter/internal/utils"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// SessionConfig carries the session settings taken from config.Config.
type SessionConfig struct {
	TokenBytes int
	MaxAge     time.Duration
	Debug      bool   // debug cookies are readable from scripts
	Secure     bool   // set the Secure attribute
	HashKey    string // optional HMAC key; empty sends the raw token
}

// SessionManager issues, resolves and revokes cookie sessions.  Only the
// SHA-256 of a token is stored, so a leaked table cannot be replayed.
type SessionManager struct {
	users    *repository.UserRepo
	sessions *repository.SessionRepo
	hasher   *utils.Hasher
	cfg      SessionConfig
	codec    *securecookie.SecureCookie
	log      *slog.Logger

	now func() time.Time
}

func NewSessionManager(users *repository.UserRepo, sessions *repository.SessionRepo, hasher *utils.Hasher, cfg SessionConfig, log *slog.Logger) *SessionManager {
	m := &SessionManager{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
	if cfg.HashKey != "" {
		m.codec = securecookie.New([]byte(cfg.HashKey), nil).MaxAge(int(cfg.MaxAge / time.Second))
	}
	return m
}

// CreateSession checks the credentials and opens a new session.  Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (m *SessionManager) CreateSession(ctx context.Context, email, password string) (*http.Cookie, model.User, error) {
	u, err := m.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		m.hasher.VerifyDummy(password)
		return nil, model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return nil, model.User{}, fmt.Errorf("load user: %w", err)
	}
	if !m.hasher.Verify(password, u.PasswordHash) {
		return nil, model.User{}, ErrInvalidCredentials
	}

	raw, err := utils.NewSessionToken(m.cfg.TokenBytes)
	if err != nil {
		return nil, model.User{}, fmt.Errorf("generate token: %w", err)
	}
	now := m.now()
	if err := m.sessions.Store(ctx, model.SessionToken{
		TokenHash: utils.HashToken(raw),
		UserEmail: u.Email,
		IssuedAt:  now.Unix(),
	}); err != nil {
		return nil, model.User{}, fmt.Errorf("store session: %w", err)
	}

	value, err := m.encode(raw)
	if err != nil {
		return nil, model.User{}, fmt.Errorf("encode cookie: %w", err)
	}
	c := m.baseCookie()
	c.Value = value
	c.Expires = now.Add(m.cfg.MaxAge).UTC()
	c.MaxAge = int(m.cfg.MaxAge / time.Second)
	return c, u, nil
}

// ResolveSession maps a cookie value onto its user.  Expired rows are
// deleted when they are seen.
func (m *SessionManager) ResolveSession(ctx context.Context, cookieValue string) (model.User, error) {
	if cookieValue == "" {
		return model.User{}, &AuthError{Kind: EmptyToken}
	}
	raw, ok := m.decode(cookieValue)
	if !ok {
		return model.User{}, &AuthError{Kind: InvalidToken}
	}
	hash := utils.HashToken(raw)
	s, u, err := m.sessions.Lookup(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, &AuthError{Kind: InvalidToken}
	}
	if err != nil {
		return model.User{}, fmt.Errorf("lookup session: %w", err)
	}
	if s.Expired(m.now(), m.cfg.MaxAge) {
		if err := m.sessions.DeleteByHash(ctx, hash); err != nil {
			m.log.Warn("drop expired session failed", "err", err)
		}
		return model.User{}, &AuthError{Kind: InvalidToken}
	}
	return u, nil
}

// CloseSession forgets the session behind cookieValue, if any, and returns
// a cookie that clears it on the client.  It never fails for a missing or
// garbled cookie; only a store error is reported.
func (m *SessionManager) CloseSession(ctx context.Context, cookieValue string) (*http.Cookie, error) {
	clear := m.baseCookie()
	clear.MaxAge = -1
	clear.Expires = time.Unix(0, 0).UTC()

	if cookieValue == "" {
		return clear, nil
	}
	raw, ok := m.decode(cookieValue)
	if !ok {
		return clear, nil
	}
	if err := m.sessions.DeleteByHash(ctx, utils.HashToken(raw)); err != nil {
		return clear, fmt.Errorf("delete session: %w", err)
	}
	return clear, nil
}

// RevokeOthers ends every session of email except the one behind
// keepCookie.  Used after a password change.
func (m *SessionManager) RevokeOthers(ctx context.Context, email, keepCookie string) (int64, error) {
	keep := ""
	if raw, ok := m.decode(keepCookie); ok {
		keep = utils.HashToken(raw)
	}
	return m.sessions.DeleteOthersForUser(ctx, repository.NormalizeEmail(email), keep)
}

// PurgeExpired deletes every session older than the configured lifetime.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := m.now().Add(-m.cfg.MaxAge).Unix()
	return m.sessions.DeleteIssuedBefore(ctx, cutoff)
}

// RunJanitor calls PurgeExpired every interval until ctx is cancelled.
func (m *SessionManager) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := m.PurgeExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					m.log.Error("session purge failed", "err", err)
				}
				continue
			}
			if n > 0 {
				m.log.Info("purged expired sessions", "count", n)
			}
		}
	}
}

func (m *SessionManager) baseCookie() *http.Cookie {
	c := &http.Cookie{
		Name:   CookieName,
		Path:   "/",
		Secure: m.cfg.Secure,
	}
	if !m.cfg.Debug {
		c.HttpOnly = true
		c.SameSite = http.SameSiteStrictMode
	}
	return c
}

func (m *SessionManager) encode(raw string) (string, error) {
	if m.codec == nil {
		return raw, nil
	}
	return m.codec.Encode(CookieName, raw)
}

func (m *SessionManager) decode(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	if m.codec == nil {
		return value, true
	}
	var raw string
	if err := m.codec.Decode(CookieName, value, &raw); err != nil || raw == "" {
		return "", false
	}
	return raw, true
}
