// Package asset defines the canonical water-infrastructure asset record and
// the normalization of loosely typed backend rows into it.
package asset

import (
	"strings"
)

// Sentinels used when a backend row omits a field.
const (
	NotAvailable  = "N/A"
	DefaultStatus = StatusNormal
)

// Type classifies an asset on the map.
type Type string

// Known asset types.
const (
	TypePump   Type = "pump"
	TypeSump   Type = "sump"
	TypeTank   Type = "tank"
	TypeBore   Type = "bore"
	TypeGovt   Type = "govt"
	TypeSensor Type = "sensor"
)

// Types lists the known asset types in display order.
var Types = []Type{TypePump, TypeSump, TypeTank, TypeBore, TypeGovt, TypeSensor}

// Known reports whether t is one of the enumerated types.
func (t Type) Known() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// ParseType lower-cases s. Unknown values are kept as-is so a new backend
// type still renders rather than disappearing.
func ParseType(s string) Type {
	return Type(strings.ToLower(strings.TrimSpace(s)))
}

// Status is the operational state reported for an asset.
type Status string

// Known statuses.
const (
	StatusNormal     Status = "Normal"
	StatusRunning    Status = "Running"
	StatusWorking    Status = "Working"
	StatusNotWorking Status = "Not Working"
	StatusWarning    Status = "Warning"
	StatusCritical   Status = "Critical"
	StatusFlowing    Status = "Flowing"
	StatusActive     Status = "Active"
)

// Position is a (latitude, longitude) pair.
type Position [2]float64

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[0] }

// Lng returns the longitude.
func (p Position) Lng() float64 { return p[1] }

// Asset is an immutable value describing one piece of infrastructure.
type Asset struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Type       Type     `json:"type" yaml:"type"`
	Position   Position `json:"position" yaml:"position"`
	Capacity   string   `json:"capacity" yaml:"capacity"`
	Specs      string   `json:"specs" yaml:"specs"`
	Status     Status   `json:"status" yaml:"status"`
	IsCritical bool     `json:"isCritical" yaml:"isCritical"`
}

// IsCriticalStatus reports whether a fixture with this status should be
// flagged critical.
func IsCriticalStatus(s Status) bool {
	return s == StatusCritical || s == StatusWarning
}

// ClassifyFixture maps the free-text kind used in fixture files
// ("Hostel Sump", "Primary Hub", "OHT Pair", "IIIT Bore") to a Type.
func ClassifyFixture(kind string) Type {
	k := strings.ToLower(kind)
	switch {
	case strings.Contains(k, "pump"), strings.Contains(k, "hub"):
		return TypePump
	case strings.Contains(k, "sump"):
		return TypeSump
	case strings.Contains(k, "oht"), strings.Contains(k, "tank"):
		return TypeTank
	case strings.Contains(k, "govt"):
		return TypeGovt
	case strings.Contains(k, "sensor"):
		return TypeSensor
	default:
		return TypeBore
	}
}
