package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	EventType() EventType
}

// AnalysisStartedData contains data for AnalysisStarted events
type AnalysisStartedData struct {
	ReportID string   `json:"report_id"`
	Profile  string   `json:"profile,omitempty"`
	Assets   []string `json:"assets"`
}

// EventType returns the event type for AnalysisStartedData
func (d *AnalysisStartedData) EventType() EventType {
	return AnalysisStarted
}

// MetricsComputedData contains data for MetricsComputed events
type MetricsComputedData struct {
	ReportID       string  `json:"report_id"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
	Sharpe         float64 `json:"sharpe"`
	Observations   int     `json:"observations"`
	ZeroFilled     int     `json:"zero_filled"`
	Cached         bool    `json:"cached"`
}

// EventType returns the event type for MetricsComputedData
func (d *MetricsComputedData) EventType() EventType {
	return MetricsComputed
}

// SimulationCompletedData contains data for SimulationCompleted events
type SimulationCompletedData struct {
	ReportID       string  `json:"report_id"`
	NumSimulations int     `json:"num_simulations"`
	HorizonPeriods int     `json:"horizon_periods"`
	TerminalP5     float64 `json:"terminal_p5"`
	TerminalP50    float64 `json:"terminal_p50"`
	TerminalP95    float64 `json:"terminal_p95"`
	Seed           uint64  `json:"seed"`
}

// EventType returns the event type for SimulationCompletedData
func (d *SimulationCompletedData) EventType() EventType {
	return SimulationCompleted
}

// FrontierSampledData contains data for FrontierSampled events
type FrontierSampledData struct {
	ReportID      string  `json:"report_id"`
	NumSamples    int     `json:"num_samples"`
	MaxSharpe     float64 `json:"max_sharpe"`
	MinVolatility float64 `json:"min_volatility"`
	Seed          uint64  `json:"seed"`
}

// EventType returns the event type for FrontierSampledData
func (d *FrontierSampledData) EventType() EventType {
	return FrontierSampled
}

// AnalysisCompletedData contains data for AnalysisCompleted events
type AnalysisCompletedData struct {
	ReportID   string          `json:"report_id"`
	Duration   time.Duration   `json:"duration_ns"`
	Cached     bool            `json:"cached"`
	ArchiveKey string          `json:"archive_key,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
}

// EventType returns the event type for AnalysisCompletedData
func (d *AnalysisCompletedData) EventType() EventType {
	return AnalysisCompleted
}

// AnalysisFailedData contains data for AnalysisFailed events
type AnalysisFailedData struct {
	ReportID string `json:"report_id,omitempty"`
	Error    string `json:"error"`
}

// EventType returns the event type for AnalysisFailedData
func (d *AnalysisFailedData) EventType() EventType {
	return AnalysisFailed
}

// EventWithData represents an event with typed data
type EventWithData struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// MarshalJSON customizes JSON serialization for EventWithData
func (e *EventWithData) MarshalJSON() ([]byte, error) {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}

	return json.Marshal(aux)
}

// UnmarshalJSON restores the typed data for known event types
func (e *EventWithData) UnmarshalJSON(data []byte) error {
	type Alias EventWithData
	aux := &struct {
		Data json.RawMessage `json:"data"`
		*Alias
	}{
		Alias: (*Alias)(e),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 {
		return nil
	}

	var eventData EventData
	switch aux.Type {
	case AnalysisStarted:
		eventData = &AnalysisStartedData{}
	case MetricsComputed:
		eventData = &MetricsComputedData{}
	case SimulationCompleted:
		eventData = &SimulationCompletedData{}
	case FrontierSampled:
		eventData = &FrontierSampledData{}
	case AnalysisCompleted:
		eventData = &AnalysisCompletedData{}
	case AnalysisFailed:
		eventData = &AnalysisFailedData{}
	default:
		eventData = &GenericEventData{Type: aux.Type}
	}

	if err := json.Unmarshal(aux.Data, eventData); err != nil {
		return err
	}
	e.Data = eventData
	return nil
}

// GenericEventData is a fallback for events that don't have a specific type
type GenericEventData struct {
	Type EventType              `json:"-"`
	Data map[string]interface{} `json:"-"`
}

// EventType returns the event type for GenericEventData
func (d *GenericEventData) EventType() EventType {
	return d.Type
}

// MarshalJSON customizes JSON serialization for GenericEventData
func (d *GenericEventData) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Data)
}

// UnmarshalJSON customizes JSON deserialization for GenericEventData
func (d *GenericEventData) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &d.Data)
}
