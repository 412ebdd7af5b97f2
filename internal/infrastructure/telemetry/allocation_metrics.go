package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a nil meter is passed to NewAllocationMetrics.
var ErrMeterNil = errors.New("meter cannot be nil")

// AllocationMetrics holds the counters and histograms recorded by the allocation service.
type AllocationMetrics struct {
	sessionsOpened *Counter
	eventsApplied  *Counter
	eventsRejected *Counter
	saves          *Counter
	saveDuration   *Histogram
}

// NewAllocationMetrics registers the allocation instruments on meter.
func NewAllocationMetrics(meter metric.Meter) (*AllocationMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var err error
	m := &AllocationMetrics{}
	if m.sessionsOpened, err = NewCounter(meter, "allocation_sessions_opened_total",
		"Allocation sessions opened", "{session}"); err != nil {
		return nil, err
	}
	if m.eventsApplied, err = NewCounter(meter, "allocation_events_applied_total",
		"Allocation events applied to a session", "{event}"); err != nil {
		return nil, err
	}
	if m.eventsRejected, err = NewCounter(meter, "allocation_events_rejected_total",
		"Allocation events rejected by the reducer", "{event}"); err != nil {
		return nil, err
	}
	if m.saves, err = NewCounter(meter, "allocation_saves_total",
		"Allocation session saves", "{save}"); err != nil {
		return nil, err
	}
	if m.saveDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "allocation_save_duration_seconds",
		Description: "Time spent persisting a save plan",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// SessionOpened counts a new session.
func (m *AllocationMetrics) SessionOpened(ctx context.Context, applicationType, mode string) {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc(ctx, AttrApplicationType.String(applicationType), AttrSessionMode.String(mode))
}

// EventApplied counts a reducer event that changed the session.
func (m *AllocationMetrics) EventApplied(ctx context.Context, eventType string) {
	if m == nil {
		return
	}
	m.eventsApplied.Inc(ctx, AttrEventType.String(eventType))
}

// EventRejected counts a reducer event that was refused.
func (m *AllocationMetrics) EventRejected(ctx context.Context, eventType, code string) {
	if m == nil {
		return
	}
	m.eventsRejected.Inc(ctx, AttrEventType.String(eventType), AttrErrorCode.String(code))
}

// SaveCompleted records a save attempt and its duration.
func (m *AllocationMetrics) SaveCompleted(ctx context.Context, applicationType string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.saves.Inc(ctx, AttrApplicationType.String(applicationType), AttrOutcome.String(outcome))
	m.saveDuration.RecordDuration(ctx, d, AttrApplicationType.String(applicationType))
}
