package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAdminNotAuthorized is returned when the performing user is not the configured admin.
var ErrAdminNotAuthorized = errors.New("performing user is not authorized as an admin")

// AdminService exposes operator actions to the chat bot, guarded by the admin identity.
type AdminService struct {
	monitoring      *MonitoringService
	cycles          CycleRunner
	adminTelegramID int64
	clock           func() time.Time
}

func NewAdminService(monitoring *MonitoringService, cycles CycleRunner, adminID int64) *AdminService {
	return &AdminService{
		monitoring:      monitoring,
		cycles:          cycles,
		adminTelegramID: adminID,
		clock:           time.Now,
	}
}

// Stats returns the current monitoring snapshot.
func (s *AdminService) Stats(ctx context.Context, performingAdminID int64) (*Stats, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	return s.monitoring.Snapshot(ctx, s.clock())
}

// RunCycle triggers an escalation cycle outside the regular schedule. It is safe to run
// alongside scheduled cycles; the alarm claim prevents duplicates.
func (s *AdminService) RunCycle(ctx context.Context, performingAdminID int64) (*CycleReport, error) {
	if performingAdminID != s.adminTelegramID {
		return nil, ErrAdminNotAuthorized
	}
	report, err := s.cycles.RunCycle(ctx, s.clock())
	if err != nil {
		return report, fmt.Errorf("manual cycle failed: %w", err)
	}
	return report, nil
}

// SweepOrphans runs the orphan sweep and returns the number of notifications marked.
func (s *AdminService) SweepOrphans(ctx context.Context, performingAdminID int64) (int64, error) {
	if performingAdminID != s.adminTelegramID {
		return 0, ErrAdminNotAuthorized
	}
	return s.monitoring.SweepOrphans(ctx, s.clock())
}
