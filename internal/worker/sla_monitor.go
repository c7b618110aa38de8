package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hey-coffee/maintenance-service/internal/config"
	"github.com/hey-coffee/maintenance-service/internal/events"
	"github.com/hey-coffee/maintenance-service/internal/persistence"
	"github.com/hey-coffee/maintenance-service/internal/service"
	"github.com/hey-coffee/maintenance-service/internal/sla"
)

const (
	slaStatusHashKey = "sla:last_status"
	sweepBatchSize   = 500
	sweepTimeout     = 30 * time.Second
)

// SLAMonitor periodically reclassifies open requests and publishes an event
// whenever one crosses into a worse severity band. The last published band
// per request is kept in Redis so restarts do not re-announce old breaches.
type SLAMonitor struct {
	requests   *service.RequestService
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	schedule   string
	cron       *cron.Cron
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(requests *service.RequestService, dispatcher events.Dispatcher, redis *persistence.Redis, cfg config.MonitorConfig, logger *zap.Logger) *SLAMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAMonitor{
		requests:   requests,
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		schedule:   cfg.Schedule,
	}
}

// Start schedules the sweep. The schedule accepts standard cron expressions
// plus the @every form.
func (m *SLAMonitor) Start() error {
	m.cron = cron.New()
	if _, err := m.cron.AddFunc(m.schedule, m.runSweep); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("sla monitor started", zap.String("schedule", m.schedule))
	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (m *SLAMonitor) Stop() {
	if m.cron == nil {
		return
	}
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("sla monitor stopped")
}

func (m *SLAMonitor) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	m.Sweep(ctx, time.Now())
}

// Sweep classifies every open request at the given instant and announces
// newly degraded ones.
func (m *SLAMonitor) Sweep(ctx context.Context, now time.Time) {
	open, err := m.requests.ListOpenForMonitor(ctx, sweepBatchSize)
	if err != nil {
		m.logger.Error("sla sweep failed to list open requests", zap.Error(err))
		return
	}

	degraded := 0
	for i := range open {
		req := &open[i]
		result := sla.Classify(sla.SnapshotOf(req), now)
		if !announceable(result.Status) {
			continue
		}
		last, err := m.redis.HGet(ctx, slaStatusHashKey, req.ID)
		if err != nil {
			m.logger.Warn("sla dedupe lookup failed", zap.String("request_id", req.ID), zap.Error(err))
		}
		if last == string(result.Status) {
			continue
		}

		m.publish(ctx, req.ID, last, result)
		if err := m.redis.HSet(ctx, slaStatusHashKey, req.ID, string(result.Status)); err != nil {
			m.logger.Warn("sla dedupe store failed", zap.String("request_id", req.ID), zap.Error(err))
		}
		degraded++
	}

	m.logger.Debug("sla sweep completed",
		zap.Int("open_requests", len(open)),
		zap.Int("announced", degraded))
}

func (m *SLAMonitor) publish(ctx context.Context, requestID, lastStatus string, result sla.Classification) {
	if m.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSLAStatusChanged,
		RequestID: requestID,
		Actor:     service.SystemActor(),
		Timestamp: time.Now(),
		Payload: events.SLAStatusChangedPayload{
			OldStatus:       lastStatus,
			NewStatus:       string(result.Status),
			DueAt:           result.DueAt,
			ElapsedFraction: result.ElapsedFraction,
		},
	}
	_ = m.dispatcher.Publish(ctx, event)
}

// announceable filters the bands worth notifying about. ON_TRACK and
// completed requests stay quiet.
func announceable(status sla.Status) bool {
	switch status {
	case sla.StatusWarning, sla.StatusCritical, sla.StatusBreached:
		return true
	}
	return false
}
