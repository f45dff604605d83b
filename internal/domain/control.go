package domain

import (
	"time"

	"github.com/smartcity/traffic/pkg/geo"
)

// LightState is a traffic light phase
type LightState string

const (
	LightRed    LightState = "RED"
	LightYellow LightState = "YELLOW"
	LightGreen  LightState = "GREEN"
)

// ValidLightState reports whether s is one of the three phases
func ValidLightState(s LightState) bool {
	switch s {
	case LightRed, LightYellow, LightGreen:
		return true
	}
	return false
}

// TrafficLight is a controlled intersection signal. State and cycle duration
// change only through a recorded ControlAction.
type TrafficLight struct {
	ID           int64      `json:"id"`
	LightID      string     `json:"light_id"`
	Location     geo.Point  `json:"location"`
	Intersection string     `json:"intersection_name,omitempty"`
	State        LightState `json:"current_state"`
	CycleSeconds int        `json:"cycle_duration"`
	Active       bool       `json:"is_active"`
	UpdatedAt    time.Time  `json:"last_updated"`
}

// Coord implements geo.Located
func (l TrafficLight) Coord() geo.Point { return l.Location }

// Priority grades an advisory signal
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Advisory signal categories
const (
	SignalSpeedLimit        = "SPEED_LIMIT"
	SignalLaneClosure       = "LANE_CLOSURE"
	SignalReroute           = "REROUTE"
	SignalEmergencyResponse = "EMERGENCY_RESPONSE"
)

// AdvisorySignal is a transient broadcast message about road conditions.
// Expired signals are not deleted; consumers evaluate ExpiresAt against
// wall-clock time.
type AdvisorySignal struct {
	ID        int64      `json:"id"`
	SignalID  string     `json:"signal_id"`
	Category  string     `json:"signal_type"`
	Location  geo.Point  `json:"location"`
	Message   string     `json:"message"`
	Priority  Priority   `json:"priority"`
	Active    bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Coord implements geo.Located
func (s AdvisorySignal) Coord() geo.Point { return s.Location }

// Expired reports whether the signal has passed its expiry at the given time
func (s AdvisorySignal) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// ActionStatus is the execution state of a control action
type ActionStatus string

const (
	ActionPending  ActionStatus = "PENDING"
	ActionExecuted ActionStatus = "EXECUTED"
	ActionFailed   ActionStatus = "FAILED"
)

// Control action types
const (
	ActionLightChange       = "LIGHT_CHANGE"
	ActionLightTimingUpdate = "LIGHT_TIMING_UPDATE"
	ActionEmergencyOverride = "EMERGENCY_OVERRIDE"
	ActionSignalUpdate      = "SIGNAL_UPDATE"
)

// Actors recorded on system-initiated actions
const (
	ActorAdaptiveSystem  = "ADAPTIVE_SYSTEM"
	ActorEmergencySystem = "EMERGENCY_SYSTEM"
	ActorSystem          = "SYSTEM"
)

// ControlAction is the append-only audit record paired with every mutation
// of a controlled entity. Write-once.
type ControlAction struct {
	ID         int64          `json:"id"`
	Type       string         `json:"action_type"`
	TargetID   string         `json:"target_id"`
	Payload    map[string]any `json:"action_data"`
	Status     ActionStatus   `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	ExecutedAt *time.Time     `json:"executed_at,omitempty"`
	Actor      string         `json:"created_by"`
}
