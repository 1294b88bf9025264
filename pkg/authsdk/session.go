package authsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// refreshSkew refreshes access tokens this long before they expire.
const refreshSkew = 30 * time.Second

// ErrNoRefreshToken is returned when the access token has expired and the
// session cannot renew it.
var ErrNoRefreshToken = errors.New("authsdk: access token expired and no refresh token available")

// Session holds the tokens of one login and refreshes them on demand. It is
// safe for concurrent use.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

// NewSession wraps the tokens of a completed login.
func (c *Client) NewSession(tokens *TokenPair) *Session {
	s := &Session{client: c}
	s.store(tokens)
	return s
}

// LoginSession logs in with email and password and, when the account has MFA
// enabled, completes the challenge with code. code is ignored otherwise.
func (c *Client) LoginSession(ctx context.Context, email, password, recaptchaToken, code string) (*Session, error) {
	res, err := c.Login(ctx, email, password, recaptchaToken)
	if err != nil {
		return nil, err
	}
	if res.RequiresMFA {
		if code == "" {
			return nil, fmt.Errorf("authsdk: %s", res.Message)
		}
		if res, err = c.VerifyMFA(ctx, res.MFASessionToken, code); err != nil {
			return nil, err
		}
	}
	if res.Tokens == nil {
		return nil, fmt.Errorf("authsdk: login returned no tokens")
	}
	return c.NewSession(res.Tokens), nil
}

func (s *Session) store(t *TokenPair) {
	s.accessToken = t.AccessToken
	s.refreshToken = t.RefreshToken
	s.expiresAt = time.Now().Add(time.Duration(t.ExpiresIn)*time.Second - refreshSkew)
}

// token returns a valid access token, refreshing if it is about to expire.
func (s *Session) token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		tok := s.accessToken
		s.mu.RUnlock()
		return tok, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.store(pair)
	return s.accessToken, nil
}

// Refresh rotates the tokens now, regardless of expiry.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return err
	}
	s.store(pair)
	return nil
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Logout revokes the refresh token and then the access token. The session
// is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	access, refresh := s.accessToken, s.refreshToken
	s.accessToken, s.refreshToken, s.expiresAt = "", "", time.Time{}
	s.mu.Unlock()

	if refresh != "" {
		if err := s.client.Logout(ctx, refresh); err != nil {
			return err
		}
	}
	return s.client.Logout(ctx, access)
}

func (s *Session) Me(ctx context.Context) (*ProfileResponse, error) {
	tok, err := s.token(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.Me(ctx, tok)
}
