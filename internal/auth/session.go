package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const refreshLeeway = 30 * time.Second

// CredentialStore persists tokens between runs.
type CredentialStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

// FileStore keeps tokens in a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

func (f FileStore) Load() (Tokens, error) {
	var t Tokens
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return t, fmt.Errorf("failed to read credentials: %w", err)
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return Tokens{}, fmt.Errorf("failed to decode credentials: %w", err)
	}
	return t, nil
}

func (f FileStore) Save(t Tokens) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}
	if err := os.WriteFile(f.Path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// MemoryStore is a CredentialStore for a single process, used per SSH
// session.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func (m *MemoryStore) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryStore) Save(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	return nil
}

func (m *MemoryStore) Clear() error {
	return m.Save(Tokens{})
}

// Session hands out a valid bearer credential, refreshing it when needed.
// Any failure clears the stored credentials and asks for a new login.
type Session struct {
	client *Client
	store  CredentialStore
	logger *log.Logger
	now    func() time.Time
}

func NewSession(client *Client, store CredentialStore, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{client: client, store: store, logger: logger, now: time.Now}
}

func (s *Session) Login(ctx context.Context, email, password string) (Me, error) {
	tokens, err := s.client.Login(ctx, email, password)
	if err != nil {
		return Me{}, err
	}
	if err := s.store.Save(tokens); err != nil {
		return Me{}, err
	}
	return s.Me(ctx)
}

func (s *Session) Register(ctx context.Context, email, password string) (Me, error) {
	if err := s.client.Register(ctx, email, password); err != nil {
		return Me{}, err
	}
	return s.Login(ctx, email, password)
}

// Bearer returns an access token that is not about to expire.
func (s *Session) Bearer(ctx context.Context) (string, error) {
	tokens, err := s.store.Load()
	if err != nil {
		return "", s.fail(err)
	}
	if tokens.RefreshToken == "" {
		return "", ErrLoginRequired
	}

	if tokens.AccessToken != "" {
		at, err := ParseAccessToken(tokens.AccessToken)
		if err == nil && !at.Expired(s.now(), refreshLeeway) {
			return tokens.AccessToken, nil
		}
	}

	access, err := s.client.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return "", s.fail(err)
	}
	tokens.AccessToken = access
	if err := s.store.Save(tokens); err != nil {
		return "", s.fail(err)
	}
	s.logger.Debug("Access token refreshed")
	return access, nil
}

func (s *Session) Me(ctx context.Context) (Me, error) {
	bearer, err := s.Bearer(ctx)
	if err != nil {
		return Me{}, err
	}
	me, err := s.client.Me(ctx, bearer)
	if err != nil {
		return Me{}, s.fail(err)
	}
	return me, nil
}

func (s *Session) Logout(ctx context.Context) error {
	tokens, err := s.store.Load()
	if err == nil && tokens.RefreshToken != "" {
		if err := s.client.Logout(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
			s.logger.Warn("Logout request failed", "err", err)
		}
	}
	return s.store.Clear()
}

func (s *Session) fail(cause error) error {
	s.logger.Warn("Session invalidated", "err", cause)
	if err := s.store.Clear(); err != nil {
		s.logger.Error("Could not clear credentials", "err", err)
	}
	return fmt.Errorf("%w: %v", ErrLoginRequired, cause)
}

// --- Form validation ---

var (
	ErrInvalidEmail    = errors.New("enter a valid email address")
	ErrInvalidPassword = errors.New("password must be 6 to 50 characters")
	ErrPasswordMatch   = errors.New("the passwords did not match")
)

func ValidateLogin(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	if n := len([]rune(password)); n < 6 || n > 50 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateRegistration(email, password, confirm string) error {
	if err := ValidateLogin(email, password); err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMatch
	}
	return nil
}
