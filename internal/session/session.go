// Package session owns the authenticated identity and credential for
// the client instance. A session is all-or-nothing: user and token are
// set and cleared together, and everything else gates on it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tally/internal/api"
	"tally/internal/log"
)

// Well-known credential store keys.
const (
	tokenKey = "token"
	userKey  = "user"
)

// DefaultTokenTTL bounds how long a persisted credential is honored.
const DefaultTokenTTL = time.Hour

// User is the display identity of the authenticated account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Token is the opaque bearer credential with its expiry.
type Token struct {
	Value   string `json:"value"`
	Expires int64  `json:"expires"` // unix
}

// HasExpired reports whether the token is past its expiry.
func (t Token) HasExpired() bool {
	return time.Now().Unix() >= t.Expires
}

// AuthAPI is the slice of the remote client the manager needs.
type AuthAPI interface {
	Login(ctx context.Context, identifier, secret string) (api.LoginResult, error)
	Register(ctx context.Context, profile api.Profile) error
}

// Config tunes the manager.
type Config struct {
	// TokenTTL bounds the persisted credential's lifetime.
	TokenTTL time.Duration

	// AutoLogin controls whether Register also authenticates the new
	// account. The observed flows disagree on this, so it is policy.
	AutoLogin bool
}

// Manager drives the session lifecycle. It implements api.TokenSource.
type Manager struct {
	mu     sync.Mutex
	auth   AuthAPI
	creds  *CredStore
	cfg    Config
	logger *log.Logger

	user  *User
	token *Token

	teardownMu sync.Mutex
	onTeardown []func()
}

func NewManager(auth AuthAPI, creds *CredStore, cfg Config, logger *log.Logger) *Manager {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &Manager{
		auth:   auth,
		creds:  creds,
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentSession),
	}
}

// Restore loads a previously persisted credential and identity. A
// missing or expired entry is the normal unauthenticated outcome, not
// an error; Restore never fails.
func (m *Manager) Restore() bool {
	var token Token
	var user User
	if !m.creds.Get(tokenKey, &token) || !m.creds.Get(userKey, &user) {
		return false
	}
	if token.HasExpired() {
		m.creds.Remove(tokenKey)
		m.creds.Remove(userKey)
		return false
	}

	m.mu.Lock()
	m.token = &token
	m.user = &user
	m.mu.Unlock()

	m.logger.Info("session restored", log.FieldOperation, log.OpRestore, log.FieldUser, user.Username)
	return true
}

// Login exchanges credentials for a token and persists both halves of
// the session. Failure classification is carried by the error:
// api.IsAuth means the credentials were rejected, api.IsUnreachable
// means the store could not be reached.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	result, err := m.auth.Login(ctx, identifier, secret)
	if err != nil {
		m.logger.Warn("login failed", log.FieldOperation, log.OpLogin, log.FieldError, err.Error())
		return fmt.Errorf("login: %w", err)
	}

	user := User{ID: result.ID.String(), Username: result.Username, Email: result.Email}
	token := Token{Value: result.Token, Expires: time.Now().Add(m.cfg.TokenTTL).Unix()}

	m.mu.Lock()
	m.user = &user
	m.token = &token
	m.mu.Unlock()

	m.creds.Set(tokenKey, token, m.cfg.TokenTTL)
	m.creds.Set(userKey, user, m.cfg.TokenTTL)

	m.logger.Info("logged in", log.FieldOperation, log.OpLogin, log.FieldUser, user.Username)
	return nil
}

// Register creates a new account. When AutoLogin is set the new
// credentials are exchanged for a session right away; otherwise the
// caller decides whether to log in.
func (m *Manager) Register(ctx context.Context, username, email, secret string) error {
	err := m.auth.Register(ctx, api.Profile{Username: username, Email: email, Password: secret})
	if err != nil {
		m.logger.Warn("registration failed", log.FieldOperation, log.OpRegister, log.FieldError, err.Error())
		return fmt.Errorf("register: %w", err)
	}
	m.logger.Info("account registered", log.FieldOperation, log.OpRegister, log.FieldUser, username)

	if !m.cfg.AutoLogin {
		return nil
	}
	return m.Login(ctx, email, secret)
}

// Logout clears the persisted credential and identity synchronously.
// Best effort; it always succeeds.
func (m *Manager) Logout() {
	m.mu.Lock()
	user := m.user
	m.user = nil
	m.token = nil
	m.mu.Unlock()

	m.creds.Remove(tokenKey)
	m.creds.Remove(userKey)

	if user != nil {
		m.logger.Info("logged out", log.FieldOperation, log.OpLogout, log.FieldUser, user.Username)
	}
	m.notifyTeardown()
}

// Teardown is Logout triggered by an authentication failure from the
// remote store; it is wired as the API client's unauthorized hook.
func (m *Manager) Teardown() {
	m.mu.Lock()
	active := m.user != nil
	m.mu.Unlock()
	if !active {
		return
	}
	m.logger.Warn("remote store rejected credentials, ending session")
	m.Logout()
}

// OnTeardown registers fn to run whenever the session ends, whether by
// explicit logout or forced teardown. Used to clear dependent state
// such as the transaction cache.
func (m *Manager) OnTeardown(fn func()) {
	m.teardownMu.Lock()
	defer m.teardownMu.Unlock()
	m.onTeardown = append(m.onTeardown, fn)
}

func (m *Manager) notifyTeardown() {
	m.teardownMu.Lock()
	fns := make([]func(), len(m.onTeardown))
	copy(fns, m.onTeardown)
	m.teardownMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Token implements api.TokenSource. Expired tokens are not handed out.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil || m.token.HasExpired() {
		return "", false
	}
	return m.token.Value, true
}

// Authenticated reports whether a full session (user and live token)
// is present.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user != nil && m.token != nil && !m.token.HasExpired()
}

// CurrentUser returns the session identity, if any.
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return User{}, false
	}
	return *m.user, true
}
