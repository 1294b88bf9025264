package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/domain"
	"github.com/aussiebroadwan/skygate/internal/auth/store"
)

// Profile is the caller-facing view of an account.
type Profile struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name,omitempty"`
	Role          string     `json:"role"`
	AuthProvider  string     `json:"authProvider"`
	EmailVerified bool       `json:"emailVerified"`
	MFAEnabled    bool       `json:"mfaEnabled"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type AccountService struct {
	Store store.Store
}

func (s *AccountService) GetProfile(ctx context.Context, accountID string, role domain.Role) (Profile, error) {
	a, err := s.Store.Accounts().GetAccountByID(ctx, role, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return Profile{}, userNotFound(msgUserNotFound)
	}
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		Role:          string(a.Role),
		AuthProvider:  string(a.AuthProvider),
		EmailVerified: a.EmailVerified,
		MFAEnabled:    a.MFAEnabled,
		LastLoginAt:   a.LastLoginAt,
		CreatedAt:     a.CreatedAt,
	}, nil
}
