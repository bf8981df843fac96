package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/vedsharma/adminkit/internal/logging"
	"github.com/vedsharma/adminkit/internal/storage"
)

// Storage keys for persisted tokens.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Translator looks up user-facing messages.
type Translator interface {
	Get(key string) string
}

// SessionState is a snapshot of a Session.
type SessionState struct {
	Authenticating bool
	Error          string
	UserName       string
	Tokens         Tokens
}

// Session tracks the signed-in user and keeps the provider and the
// persistent storage in sync with the current tokens.
type Session struct {
	provider Provider
	trans    Translator
	storage  storage.Storage

	mu    sync.RWMutex
	state SessionState
}

// NewSession creates a session. Tokens refreshed by the provider are
// persisted automatically.
func NewSession(provider Provider, trans Translator, store storage.Storage) *Session {
	s := &Session{provider: provider, trans: trans, storage: store}
	provider.OnRefresh(func(tokens Tokens) {
		s.mu.Lock()
		s.state.Tokens = tokens
		s.mu.Unlock()
		if err := s.SaveToStorage(); err != nil {
			logging.Warn().Err(err).Msg("Failed to persist refreshed tokens")
		}
	})
	return s
}

// State returns a copy of the session state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthorized reports whether an access token is held.
func (s *Session) IsAuthorized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Tokens.AccessToken != ""
}

// Error returns the last authentication error message.
func (s *Session) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Error
}

// Authenticate signs in. Wrong credentials are not returned as an error;
// they set the session error message instead.
func (s *Session) Authenticate(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	s.state.Authenticating = true
	s.state.Error = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state.Authenticating = false
		s.mu.Unlock()
	}()

	tokens, err := s.provider.Authenticate(ctx, creds)
	if err != nil {
		var wc *WrongCredentialsError
		if errors.As(err, &wc) {
			msg := wc.Message
			if msg == "" {
				msg = s.trans.Get("wrongCredentials")
			}
			s.mu.Lock()
			s.state.Error = msg
			s.mu.Unlock()
			logging.Ctx(ctx).Info().Str("login", creds.Login).Msg("Authentication rejected")
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.state.Tokens = tokens
	s.state.UserName = creds.Login
	s.mu.Unlock()

	return s.sync()
}

// Logout tells the provider while requests still carry the token, then
// clears local state. Local state is cleared even when the provider fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.provider.Logout(ctx)

	s.mu.Lock()
	s.state = SessionState{}
	s.mu.Unlock()

	s.provider.AuthorizeHTTPRequests("", "")
	if saveErr := s.SaveToStorage(); saveErr != nil && err == nil {
		err = saveErr
	}
	return err
}

// SaveToStorage persists the current tokens.
func (s *Session) SaveToStorage() error {
	tokens := s.State().Tokens
	if err := s.storage.Set(AccessTokenKey, tokens.AccessToken); err != nil {
		return err
	}
	return s.storage.Set(RefreshTokenKey, tokens.RefreshToken)
}

// LoadFromStorage restores persisted tokens and wires them into the provider.
func (s *Session) LoadFromStorage() error {
	access, _, err := s.storage.Get(AccessTokenKey)
	if err != nil {
		return err
	}
	refresh, _, err := s.storage.Get(RefreshTokenKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state.Tokens = Tokens{AccessToken: access, RefreshToken: refresh}
	s.mu.Unlock()

	return s.sync()
}

func (s *Session) sync() error {
	tokens := s.State().Tokens
	s.provider.AuthorizeHTTPRequests(tokens.AccessToken, tokens.RefreshToken)
	return s.SaveToStorage()
}
