package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartcity/traffic/internal/domain"
	"github.com/smartcity/traffic/pkg/geo"
	"github.com/smartcity/traffic/pkg/utils"
)

// Config bundles the tunables of the control layer. All geographic windows
// and cycle bounds live here so callers can override them.
type Config struct {
	// SignalWindow is the intersection-level correlation tolerance
	SignalWindow geo.Window
	// EmergencyWindow is the corridor tolerance around an emergency site
	EmergencyWindow geo.Window
	// HighFractionAbove triggers the congestion branch of the adaptive rule
	HighFractionAbove float64
	// QuietCountBelow triggers the quiet-intersection branch
	QuietCountBelow float64
	// CycleExtend / CycleReduce are the per-decision cycle adjustments
	CycleExtend int
	CycleReduce int
	// CycleMin / CycleMax bound every cycle the controller writes
	CycleMin int
	CycleMax int
	// DefaultCycle is assigned to newly registered lights
	DefaultCycle int
	// ReadingLimit bounds the snapshot fetched per adaptive run
	ReadingLimit int
	// AdvisoryExpiry is how long an emergency advisory stays valid
	AdvisoryExpiry time.Duration
}

// DefaultConfig returns the control tunables used by the system
func DefaultConfig() Config {
	return Config{
		SignalWindow:      geo.WindowDeg(0.005),
		EmergencyWindow:   geo.WindowDeg(0.01),
		HighFractionAbove: 0.5,
		QuietCountBelow:   20,
		CycleExtend:       30,
		CycleReduce:       20,
		CycleMin:          60,
		CycleMax:          180,
		DefaultCycle:      120,
		ReadingLimit:      50,
		AdvisoryExpiry:    2 * time.Hour,
	}
}

// Service owns traffic lights and advisory signals. Every mutation it
// performs is paired with exactly one audit record in the same transaction.
type Service struct {
	store    domain.ControlStore
	readings domain.ReadingStore
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates the control service
func NewService(store domain.ControlStore, readings domain.ReadingStore, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		readings: readings,
		cfg:      cfg,
		logger:   logger.Named("control"),
		now:      time.Now,
	}
}

// RunAdaptiveControl evaluates every active light against its correlated
// readings and applies the first-match timing rule. Lights with no nearby
// readings are skipped. Returns the audit records of all decisions taken.
func (s *Service) RunAdaptiveControl(ctx context.Context) ([]domain.ControlAction, error) {
	readings, err := s.readings.RecentReadings(ctx, s.cfg.ReadingLimit, "")
	if err != nil {
		return nil, domain.Upstream("reading store", err)
	}

	lights, err := s.store.ActiveLights(ctx)
	if err != nil {
		return nil, domain.Upstream("control store", err)
	}

	actions := make([]domain.ControlAction, 0)
	for _, light := range lights {
		nearby := geo.Correlate(light.Location, readings, s.cfg.SignalWindow)
		if len(nearby) == 0 {
			continue
		}

		plan := planAdaptive(light, nearby, s.cfg)
		if !plan.changed(light) {
			continue
		}

		now := s.now().UTC()
		payload := map[string]any{
			"old_cycle_duration":    light.CycleSeconds,
			"new_cycle_duration":    plan.newCycle,
			"avg_vehicle_count":     utils.RoundTo(plan.meanCount, 1),
			"high_congestion_areas": plan.highCount,
		}
		if plan.recommendState != "" {
			payload["recommended_state"] = string(plan.recommendState)
		}
		action := domain.ControlAction{
			Type:       domain.ActionLightTimingUpdate,
			TargetID:   light.LightID,
			Payload:    payload,
			Status:     domain.ActionExecuted,
			CreatedAt:  now,
			ExecutedAt: &now,
			Actor:      domain.ActorAdaptiveSystem,
		}

		var recorded domain.ControlAction
		if plan.newCycle != light.CycleSeconds {
			updated := light
			updated.CycleSeconds = plan.newCycle
			updated.UpdatedAt = now
			recorded, err = s.store.ApplyLightAction(ctx, updated, action)
		} else {
			// state-only recommendation: no entity mutation, but the
			// decision is still audited
			recorded, err = s.store.AppendAction(ctx, action)
		}
		if err != nil {
			return actions, domain.Upstream("control store", err)
		}

		s.logger.Info("adaptive timing decision",
			zap.String("light_id", light.LightID),
			zap.Int("old_cycle", light.CycleSeconds),
			zap.Int("new_cycle", plan.newCycle),
			zap.Float64("avg_vehicle_count", plan.meanCount),
		)
		actions = append(actions, recorded)
	}

	return actions, nil
}

// EmergencyResult is the outcome of an emergency override
type EmergencyResult struct {
	Signal         domain.AdvisorySignal  `json:"emergency_signal"`
	AffectedLights int                    `json:"affected_lights"`
	Actions        []domain.ControlAction `json:"control_actions"`
}

// EmergencyResponse forces every light near the emergency to GREEN, each
// with its own audit record, and always publishes one CRITICAL expiring
// advisory at the emergency location, even when no lights are affected.
func (s *Service) EmergencyResponse(ctx context.Context, emergencyType string, location geo.Point) (EmergencyResult, error) {
	if emergencyType == "" {
		return EmergencyResult{}, domain.MissingField("emergency_type")
	}

	lights, err := s.store.ActiveLights(ctx)
	if err != nil {
		return EmergencyResult{}, domain.Upstream("control store", err)
	}

	now := s.now().UTC()
	expires := now.Add(s.cfg.AdvisoryExpiry)
	// second-granularity identifier; a collision within the same second is
	// accepted, see the project design notes
	signal := domain.AdvisorySignal{
		SignalID:  fmt.Sprintf("EMERGENCY_%s", now.Format("20060102_150405")),
		Category:  domain.SignalEmergencyResponse,
		Location:  location,
		Message:   fmt.Sprintf("Emergency Response: %s. Clear the area.", emergencyType),
		Priority:  domain.PriorityCritical,
		Active:    true,
		CreatedAt: now,
		ExpiresAt: &expires,
	}
	created, err := s.store.CreateSignal(ctx, signal)
	if err != nil {
		return EmergencyResult{}, domain.Upstream("control store", err)
	}

	affected := geo.Correlate(location, lights, s.cfg.EmergencyWindow)
	result := EmergencyResult{
		Signal:         created,
		AffectedLights: len(affected),
		Actions:        make([]domain.ControlAction, 0, len(affected)),
	}

	for _, light := range affected {
		updated := light
		updated.State = domain.LightGreen
		updated.UpdatedAt = now

		action := domain.ControlAction{
			Type:     domain.ActionEmergencyOverride,
			TargetID: light.LightID,
			Payload: map[string]any{
				"emergency_type":     emergencyType,
				"old_state":          string(light.State),
				"new_state":          string(domain.LightGreen),
				"emergency_location": map[string]float64{"lat": location.Lat, "lng": location.Lng},
			},
			Status:     domain.ActionExecuted,
			CreatedAt:  now,
			ExecutedAt: &now,
			Actor:      domain.ActorEmergencySystem,
		}

		recorded, err := s.store.ApplyLightAction(ctx, updated, action)
		if err != nil {
			return result, domain.Upstream("control store", err)
		}
		result.Actions = append(result.Actions, recorded)
	}

	s.logger.Info("emergency override",
		zap.String("emergency_type", emergencyType),
		zap.Int("affected_lights", result.AffectedLights),
		zap.String("signal_id", created.SignalID),
	)
	return result, nil
}

// CreateLight registers a new traffic light with defaults applied
func (s *Service) CreateLight(ctx context.Context, light domain.TrafficLight) (domain.TrafficLight, error) {
	if light.LightID == "" {
		return domain.TrafficLight{}, domain.MissingField("light_id")
	}
	if light.State == "" {
		light.State = domain.LightGreen
	}
	if !domain.ValidLightState(light.State) {
		return domain.TrafficLight{}, domain.NewValidationError("current_state", "must be RED, YELLOW, or GREEN")
	}
	if light.CycleSeconds == 0 {
		light.CycleSeconds = s.cfg.DefaultCycle
	}
	light.Active = true
	light.UpdatedAt = s.now().UTC()

	created, err := s.store.CreateLight(ctx, light)
	if err != nil {
		return domain.TrafficLight{}, domain.Upstream("control store", err)
	}
	return created, nil
}

// ListLights returns all active lights
func (s *Service) ListLights(ctx context.Context) ([]domain.TrafficLight, error) {
	lights, err := s.store.ActiveLights(ctx)
	if err != nil {
		return nil, domain.Upstream("control store", err)
	}
	return lights, nil
}

// UpdateLightState applies a manual state change, audited as LIGHT_CHANGE
// with the operator as actor
func (s *Service) UpdateLightState(ctx context.Context, lightID string, state domain.LightState, reason, operator string) (domain.TrafficLight, error) {
	if !domain.ValidLightState(state) {
		return domain.TrafficLight{}, domain.NewValidationError("state", "must be RED, YELLOW, or GREEN")
	}

	light, err := s.store.LightByID(ctx, lightID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TrafficLight{}, err
		}
		return domain.TrafficLight{}, domain.Upstream("control store", err)
	}

	if reason == "" {
		reason = "Manual update"
	}
	if operator == "" {
		operator = domain.ActorSystem
	}

	now := s.now().UTC()
	updated := light
	updated.State = state
	updated.UpdatedAt = now

	action := domain.ControlAction{
		Type:     domain.ActionLightChange,
		TargetID: lightID,
		Payload: map[string]any{
			"old_state": string(light.State),
			"new_state": string(state),
			"reason":    reason,
		},
		Status:     domain.ActionExecuted,
		CreatedAt:  now,
		ExecutedAt: &now,
		Actor:      operator,
	}

	if _, err := s.store.ApplyLightAction(ctx, updated, action); err != nil {
		return domain.TrafficLight{}, domain.Upstream("control store", err)
	}
	return updated, nil
}

// CreateSignal publishes an operator advisory signal. Unset identifiers get
// a generated one; unset priority defaults to MEDIUM.
func (s *Service) CreateSignal(ctx context.Context, sig domain.AdvisorySignal) (domain.AdvisorySignal, error) {
	if sig.Category == "" {
		return domain.AdvisorySignal{}, domain.MissingField("signal_type")
	}
	if sig.Message == "" {
		return domain.AdvisorySignal{}, domain.MissingField("message")
	}
	if sig.SignalID == "" {
		sig.SignalID = uuid.NewString()
	}
	if sig.Priority == "" {
		sig.Priority = domain.PriorityMedium
	}
	sig.Active = true
	sig.CreatedAt = s.now().UTC()

	created, err := s.store.CreateSignal(ctx, sig)
	if err != nil {
		return domain.AdvisorySignal{}, domain.Upstream("control store", err)
	}
	return created, nil
}

// ListSignals returns all active signals; expiry is left to callers
func (s *Service) ListSignals(ctx context.Context) ([]domain.AdvisorySignal, error) {
	signals, err := s.store.ActiveSignals(ctx)
	if err != nil {
		return nil, domain.Upstream("control store", err)
	}
	return signals, nil
}

// RecentActions returns the newest audit records
func (s *Service) RecentActions(ctx context.Context, limit int) ([]domain.ControlAction, error) {
	actions, err := s.store.RecentActions(ctx, limit)
	if err != nil {
		return nil, domain.Upstream("control store", err)
	}
	return actions, nil
}
