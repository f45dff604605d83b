package domain

import (
	"time"

	"github.com/smartcity/traffic/pkg/geo"
)

// Severity grades an incident as reported
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// ValidSeverity reports whether s is one of the accepted severities
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IncidentStatus is the incident lifecycle state
type IncidentStatus string

const (
	IncidentActive   IncidentStatus = "ACTIVE"
	IncidentResolved IncidentStatus = "RESOLVED"
)

// Incident is a reported road event. The only permitted mutation is the
// ACTIVE to RESOLVED transition, which stamps ResolvedAt.
type Incident struct {
	ID          int64          `json:"id"`
	Type        string         `json:"incident_type"`
	Location    geo.Point      `json:"location"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description,omitempty"`
	Status      IncidentStatus `json:"status"`
	ReportedAt  time.Time      `json:"reported_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}

// Coord implements geo.Located
func (i Incident) Coord() geo.Point { return i.Location }
