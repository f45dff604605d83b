package control

import (
	"github.com/smartcity/traffic/internal/analysis"
	"github.com/smartcity/traffic/internal/domain"
)

// lightPlan is the outcome of evaluating one light against nearby traffic
type lightPlan struct {
	newCycle       int
	recommendState domain.LightState // empty when no state change is proposed
	meanCount      float64
	highCount      int
}

// planAdaptive applies the first-match decision rule to a light and its
// correlated readings. The two branches are alternatives, never cumulative:
// heavy congestion extends the cycle (and proposes GREEN for a RED light),
// light traffic shortens it, anything between leaves the light alone.
// Callers must not invoke this with zero readings; such lights are skipped.
func planAdaptive(light domain.TrafficLight, nearby []domain.Reading, cfg Config) lightPlan {
	plan := lightPlan{newCycle: light.CycleSeconds}

	var countSum float64
	for _, r := range nearby {
		countSum += float64(r.VehicleCount)
		if r.DerivedCongestion() == domain.CongestionHigh {
			plan.highCount++
		}
	}
	plan.meanCount = countSum / float64(len(nearby))

	highFraction := analysis.HighFraction(nearby)
	switch {
	case highFraction > cfg.HighFractionAbove:
		// heavy congestion: extend green time, capped at the maximum cycle
		if c := light.CycleSeconds + cfg.CycleExtend; c < cfg.CycleMax {
			plan.newCycle = c
		} else {
			plan.newCycle = cfg.CycleMax
		}
		if light.State == domain.LightRed {
			plan.recommendState = domain.LightGreen
		}
	case plan.meanCount < cfg.QuietCountBelow:
		// quiet intersection: shorten the cycle, floored at the minimum
		if c := light.CycleSeconds - cfg.CycleReduce; c > cfg.CycleMin {
			plan.newCycle = c
		} else {
			plan.newCycle = cfg.CycleMin
		}
	}

	return plan
}

// changed reports whether the plan proposes anything different from the
// light's current configuration
func (p lightPlan) changed(light domain.TrafficLight) bool {
	return p.newCycle != light.CycleSeconds || p.recommendState != ""
}
