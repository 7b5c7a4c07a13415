package region

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/forestshield/pkg/forestshield"
)

func pct(v float64) *float64 { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		region forestshield.Region
		want   Appearance
	}{
		{
			name:   "active without analysis",
			region: forestshield.Region{Status: forestshield.StatusActive},
			want:   Appearance{Color: ColorActive, Severity: SeverityNone, Label: "Active"},
		},
		{
			name:   "monitoring low deforestation",
			region: forestshield.Region{Status: forestshield.StatusMonitoring, LastDeforestationPercentage: pct(1.2)},
			want:   Appearance{Color: ColorMonitoring, Severity: SeverityNone, Label: "Monitoring"},
		},
		{
			name:   "moderate",
			region: forestshield.Region{Status: forestshield.StatusActive, LastDeforestationPercentage: pct(2)},
			want:   Appearance{Color: ColorModerate, Severity: SeverityModerate, Label: "Active"},
		},
		{
			name:   "high",
			region: forestshield.Region{Status: forestshield.StatusMonitoring, LastDeforestationPercentage: pct(7.5)},
			want:   Appearance{Color: ColorHigh, Severity: SeverityHigh, Label: "Monitoring"},
		},
		{
			name:   "critical",
			region: forestshield.Region{Status: forestshield.StatusActive, LastDeforestationPercentage: pct(10)},
			want:   Appearance{Color: ColorCritical, Severity: SeverityCritical, Label: "Active"},
		},
		{
			name:   "paused wins over deforestation",
			region: forestshield.Region{Status: forestshield.StatusPaused, LastDeforestationPercentage: pct(40)},
			want:   Appearance{Color: ColorPaused, Severity: SeverityNone, Label: "Paused"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.region))
		})
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Monitoring", StatusLabel(forestshield.StatusMonitoring))
	assert.Equal(t, "Unknown", StatusLabel(""))
}
