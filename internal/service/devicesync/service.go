package devicesync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/devicegw"
	"github.com/google/uuid"
)

// initialLookback bounds the first sync when the punch store is empty.
const initialLookback = 48 * time.Hour

// Gateway is the slice of the device gateway client the sync job needs.
type Gateway interface {
	ListPunches(ctx context.Context, since time.Time) ([]devicegw.Punch, error)
}

// Reconciler recomputes daily records for a date window. Satisfied by the
// attendance service; the sync job runs without request claims.
type Reconciler interface {
	ReconcileWindow(ctx context.Context, from, to time.Time, employeeID *string) (attendance.ReconcileResponse, error)
}

// Service pulls punches from the device gateway, appends them to the
// append-only punch store, and reconciles the affected days. One sync per
// organization runs at a time; an overlapping trigger is refused, not queued.
type Service struct {
	gateway   Gateway
	punchRepo attendance.PunchEventRepository
	engine    Reconciler
	orgID     string
	logger    *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

func NewService(gateway Gateway, punchRepo attendance.PunchEventRepository, engine Reconciler, orgID string, logger *slog.Logger) *Service {
	return &Service{
		gateway:   gateway,
		punchRepo: punchRepo,
		engine:    engine,
		orgID:     orgID,
		running:   make(map[string]bool),
		logger:    logger,
	}
}

// RegisterJobs wires the periodic sync onto the scheduler.
func (s *Service) RegisterJobs(scheduler *cron.Scheduler, interval time.Duration) {
	scheduler.AddJob("device-punch-sync", interval, s.Sync)
}

// Sync runs one full pull-ingest-reconcile cycle for the configured
// organization. Safe to trigger manually between scheduled runs.
func (s *Service) Sync(ctx context.Context) error {
	if !s.tryLock(s.orgID) {
		return attendance.ErrSyncInProgress
	}
	defer s.unlock(s.orgID)

	since, err := s.sinceMark(ctx)
	if err != nil {
		return err
	}

	punches, err := s.gateway.ListPunches(ctx, since)
	if err != nil {
		return err
	}
	if len(punches) == 0 {
		s.logger.Info("device sync found no new punches", slog.String("org_id", s.orgID))
		return nil
	}

	now := time.Now().UTC()
	events := make([]attendance.PunchEvent, 0, len(punches))
	var earliest, latest time.Time

	for _, p := range punches {
		// A malformed punch is skipped, never fails the batch.
		if p.EmployeeID == "" {
			s.logger.Warn("skipping punch with missing employee id",
				slog.String("device_id", p.DeviceID),
				slog.Time("timestamp", p.Timestamp))
			continue
		}
		if p.Timestamp.IsZero() {
			s.logger.Warn("skipping punch with missing timestamp",
				slog.String("employee_id", p.EmployeeID),
				slog.String("device_id", p.DeviceID))
			continue
		}

		ts := p.Timestamp.UTC()
		if earliest.IsZero() || ts.Before(earliest) {
			earliest = ts
		}
		if ts.After(latest) {
			latest = ts
		}

		events = append(events, attendance.PunchEvent{
			ID:         uuid.NewString(),
			EmployeeID: p.EmployeeID,
			DeviceID:   p.DeviceID,
			Timestamp:  ts,
			SyncedAt:   now,
		})
	}

	if len(events) == 0 {
		return nil
	}

	inserted, err := s.punchRepo.Append(ctx, events)
	if err != nil {
		return err
	}

	// Reconcile the whole touched span even when every event deduplicated
	// away: a retried batch must leave records exactly as the first run did.
	// The span is widened by a day each side because records key on the
	// employee's local calendar day, which for an offset timezone is not
	// always the UTC date of the punch.
	result, err := s.engine.ReconcileWindow(ctx, earliest.AddDate(0, 0, -1), latest.AddDate(0, 0, 1), nil)
	if err != nil {
		return err
	}

	s.logger.Info("device sync completed",
		slog.String("org_id", s.orgID),
		slog.Int("fetched", len(punches)),
		slog.Int("ingested", inserted),
		slog.Int("deduplicated", len(events)-inserted),
		slog.Int("reconciled_days", result.ReconciledDays),
		slog.Int("rejected_punches", result.RejectedPunches))

	return nil
}

// sinceMark picks the pull watermark: the newest ingestion time, or a bounded
// lookback on a cold store. Overlap with already ingested punches is fine,
// the store deduplicates on the exact tuple.
func (s *Service) sinceMark(ctx context.Context) (time.Time, error) {
	last, err := s.punchRepo.LastSyncedAt(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if last == nil {
		return time.Now().UTC().Add(-initialLookback), nil
	}
	return *last, nil
}

func (s *Service) tryLock(orgID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[orgID] {
		return false
	}
	s.running[orgID] = true
	return true
}

func (s *Service) unlock(orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, orgID)
}
