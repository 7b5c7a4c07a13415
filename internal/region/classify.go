package region

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Severity ranks how urgently a region needs attention.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Deforestation thresholds, in percent of the region's area.
const (
	CriticalDeforestationPct = 10.0
	HighDeforestationPct     = 5.0
	ModerateDeforestationPct = 2.0
)

// Colors shared by markers, list badges and popups.
const (
	ColorActive     = "#16a34a"
	ColorMonitoring = "#2563eb"
	ColorPaused     = "#6b7280"
	ColorModerate   = "#eab308"
	ColorHigh       = "#f97316"
	ColorCritical   = "#dc2626"
)

// Appearance is how a region is drawn everywhere it appears.
type Appearance struct {
	Color    string   `json:"color" yaml:"color"`
	Severity Severity `json:"severity" yaml:"severity"`
	Label    string   `json:"label" yaml:"label"`
}

// Classify maps a region's status and latest deforestation measurement to its
// appearance. It is the single source of this mapping for every view.
func Classify(r forestshield.Region) Appearance {
	label := StatusLabel(r.Status)

	if r.Status == forestshield.StatusPaused {
		return Appearance{Color: ColorPaused, Severity: SeverityNone, Label: label}
	}

	if r.LastDeforestationPercentage != nil {
		pct := *r.LastDeforestationPercentage
		switch {
		case pct >= CriticalDeforestationPct:
			return Appearance{Color: ColorCritical, Severity: SeverityCritical, Label: label}
		case pct >= HighDeforestationPct:
			return Appearance{Color: ColorHigh, Severity: SeverityHigh, Label: label}
		case pct >= ModerateDeforestationPct:
			return Appearance{Color: ColorModerate, Severity: SeverityModerate, Label: label}
		}
	}

	if r.Status == forestshield.StatusMonitoring {
		return Appearance{Color: ColorMonitoring, Severity: SeverityNone, Label: label}
	}
	return Appearance{Color: ColorActive, Severity: SeverityNone, Label: label}
}

// StatusLabel renders a status for display, e.g. "MONITORING" -> "Monitoring".
func StatusLabel(s forestshield.RegionStatus) string {
	if s == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(strings.ToLower(string(s)))
}
