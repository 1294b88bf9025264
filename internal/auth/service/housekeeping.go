package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/skygate/internal/auth/store"
)

// HousekeepingService periodically purges expired refresh tokens,
// revocations, one-time tokens and signing keys.
type HousekeepingService struct {
	Store       store.Store
	Revocations store.Revocations
	Logger      *slog.Logger
	Interval    time.Duration
	Now         func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to one hour.
// revocations may differ from the store's own when redis is configured.
func NewHousekeepingService(st store.Store, revocations store.Revocations, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if revocations == nil {
		revocations = st.Revocations()
	}
	return &HousekeepingService{
		Store:       st,
		Revocations: revocations,
		Logger:      logger,
		Interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start is non-blocking. Call Stop to shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs one cleanup pass and reports how many steps succeeded.
// A failing step does not stop the others.
func (s *HousekeepingService) RunOnce(ctx context.Context) int {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	steps := []struct {
		name string
		fn   func(context.Context, time.Time) error
	}{
		{"refresh tokens", s.Store.RefreshTokens().DeleteExpiredRefreshTokens},
		{"revocations", s.Revocations.DeleteExpiredRevocations},
		{"password reset tokens", s.Store.PasswordResetTokens().DeleteStaleTokens},
		{"verification tokens", s.Store.VerificationTokens().DeleteStaleTokens},
		{"signing keys", s.Store.SigningKeys().DeleteExpiredSigningKeys},
	}

	ok := 0
	for _, step := range steps {
		if err := step.fn(ctx, now); err != nil {
			s.Logger.Error("housekeeping step failed", "step", step.name, "error", err)
			continue
		}
		ok++
	}
	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", ok)
	return ok
}
