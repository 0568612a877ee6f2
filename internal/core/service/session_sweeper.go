package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quizdesk/exam-platform/internal/core/ports"
)

const defaultSweepInterval = time.Hour

// SessionSweeper periodically deletes expired sessions from storage. Reads
// already filter expired entries, so the sweep only bounds storage growth.
type SessionSweeper struct {
	repo     ports.UserRepository
	interval time.Duration
	logger   zerolog.Logger
}

func NewSessionSweeper(repo ports.UserRepository, interval time.Duration, logger zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SessionSweeper{repo: repo, interval: interval, logger: logger}
}

// Run blocks, sweeping once per interval until ctx is cancelled. Intended to
// be started in its own goroutine at boot.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	touched, err := s.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error().Err(err).Msg("session sweep failed")
		return
	}
	if touched > 0 {
		s.logger.Info().Int64("users_touched", touched).Msg("pruned expired sessions")
	}
}
