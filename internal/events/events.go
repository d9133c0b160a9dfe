// Package events describes the progress events emitted while an analysis runs.
package events

import (
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies an analysis stage.
type EventType string

const (
	AnalysisStarted     EventType = "analysis_started"
	MetricsComputed     EventType = "metrics_computed"
	SimulationCompleted EventType = "simulation_completed"
	FrontierSampled     EventType = "frontier_sampled"
	AnalysisCompleted   EventType = "analysis_completed"
	AnalysisFailed      EventType = "analysis_failed"
)

// Terminal reports whether no further events follow this one.
func (t EventType) Terminal() bool {
	return t == AnalysisCompleted || t == AnalysisFailed
}

// Sink receives events for one analysis. It may be called from several goroutines.
type Sink func(*EventWithData)

// Manager stamps and logs events before handing them to a sink.
type Manager struct {
	log zerolog.Logger
	now func() time.Time
}

// NewManager creates a new event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		log: log.With().Str("service", "events").Logger(),
		now: time.Now,
	}
}

// Emit builds an event for data, logs it and forwards it to sink when sink is non-nil.
func (m *Manager) Emit(sink Sink, module string, data EventData) *EventWithData {
	event := &EventWithData{
		Type:      data.EventType(),
		Timestamp: m.now().UTC(),
		Module:    module,
		Data:      data,
	}

	m.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", module).
		Msg("Event emitted")

	if sink != nil {
		sink(event)
	}
	return event
}
