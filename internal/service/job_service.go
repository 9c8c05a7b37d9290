package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"parkeaya-panel/internal/logger"
	"parkeaya-panel/internal/metrics"
	"parkeaya-panel/internal/repository"
)

const (
	healthCheckTimeout   = 10 * time.Second
	sessionPurgeSchedule = "@every 10m"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

// JobService runs the panel's periodic jobs: the remote health check and
// the purge of expired sessions.
type JobService struct {
	Remote   HealthChecker
	Sessions *repository.SessionRepository

	mu     sync.Mutex
	lastUp *bool
}

func NewJobService(remote HealthChecker, sessions *repository.SessionRepository) *JobService {
	return &JobService{Remote: remote, Sessions: sessions}
}

// CheckRemoteHealth checks the remote backend once, publishes the result as
// a gauge and logs whenever the state flips.
func (s *JobService) CheckRemoteHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	err := s.Remote.Health(ctx)
	up := err == nil
	metrics.SetRemoteUp(up)

	s.mu.Lock()
	changed := s.lastUp == nil || *s.lastUp != up
	s.lastUp = &up
	s.mu.Unlock()

	if changed {
		if up {
			logger.Info("Cron Job: remote backend is reachable")
		} else {
			logger.Warn("Cron Job: remote backend is unreachable", "error", err)
		}
	}
	if err != nil {
		return fmt.Errorf("cron job: remote health check failed: %w", err)
	}
	return nil
}

// RemoteUp reports the last check result; ok is false before the first check.
func (s *JobService) RemoteUp() (up, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastUp == nil {
		return false, false
	}
	return *s.lastUp, true
}

func (s *JobService) PurgeExpiredSessions() int {
	n := s.Sessions.PurgeExpired()
	if n > 0 {
		logger.Info("Cron Job: purged expired sessions", "count", n)
	}
	return n
}

// Start schedules the jobs. An empty healthSchedule disables the health check.
func (s *JobService) Start(healthSchedule string) (*cron.Cron, error) {
	c := cron.New()

	if healthSchedule != "" {
		if _, err := c.AddFunc(healthSchedule, func() {
			_ = s.CheckRemoteHealth(context.Background())
		}); err != nil {
			return nil, fmt.Errorf("invalid health check schedule %q: %w", healthSchedule, err)
		}
	}
	if _, err := c.AddFunc(sessionPurgeSchedule, func() { s.PurgeExpiredSessions() }); err != nil {
		return nil, fmt.Errorf("invalid session purge schedule: %w", err)
	}

	c.Start()
	logger.Info("Cron jobs started", "health_schedule", healthSchedule, "session_purge_schedule", sessionPurgeSchedule)
	return c, nil
}
