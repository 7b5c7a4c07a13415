package region

import (
	"math"
	"strings"

	"github.com/sells-group/forestshield/internal/fault"
	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Stored regions and drag gestures share one upper bound. Gestures are
// measured in meters on release; the result is stored in kilometers and
// clamped to the stored bound.
const (
	MinRadiusKm = 1.0
	MaxRadiusKm = 50.0

	MinGestureRadiusMeters = 100.0
	MaxGestureRadiusMeters = MaxRadiusKm * 1000

	MinCloudCover     = 0
	MaxCloudCover     = 100
	DefaultCloudCover = 20
)

// Operator-facing validation messages.
const (
	MsgRadiusTooLarge     = "Radius cannot exceed 50 kilometers"
	MsgRadiusTooSmall     = "Radius must be at least 1 kilometer"
	MsgGestureTooSmall    = "Radius must be at least 100 meters"
	MsgGestureTooLarge    = "Radius cannot exceed 50 kilometers"
	MsgCloudCoverRange    = "Cloud cover threshold must be between 0 and 100"
	MsgNameRequired       = "Region name is required"
	MsgCoordinatesInvalid = "Coordinates are out of range"
)

// ValidateRadiusKm checks a stored-region radius.
func ValidateRadiusKm(km float64) error {
	switch {
	case math.IsNaN(km) || math.IsInf(km, 0):
		return fault.Validation("radiusKm", MsgRadiusTooSmall)
	case km > MaxRadiusKm:
		return fault.Validation("radiusKm", MsgRadiusTooLarge)
	case km < MinRadiusKm:
		return fault.Validation("radiusKm", MsgRadiusTooSmall)
	}
	return nil
}

// ValidateGestureRadius checks the radius of a released drag gesture.
func ValidateGestureRadius(meters float64) error {
	switch {
	case math.IsNaN(meters) || meters < MinGestureRadiusMeters:
		return fault.Gesture(MsgGestureTooSmall)
	case meters/1000 > MaxRadiusKm:
		return fault.Gesture(MsgGestureTooLarge)
	}
	return nil
}

// GestureRadiusValid reports whether a live gesture radius would be accepted.
func GestureRadiusValid(meters float64) bool {
	return ValidateGestureRadius(meters) == nil
}

// ValidateCloudCover checks a cloud cover threshold percentage.
func ValidateCloudCover(pct int) error {
	if pct < MinCloudCover || pct > MaxCloudCover {
		return fault.Validation("cloudCoverThreshold", MsgCloudCoverRange)
	}
	return nil
}

// ValidateName checks a region name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fault.Validation("name", MsgNameRequired)
	}
	return nil
}

// ValidateCreate checks a create payload before it is sent.
func ValidateCreate(dto forestshield.CreateRegionDto) error {
	if err := ValidateName(dto.Name); err != nil {
		return err
	}
	if dto.Latitude < -90 || dto.Latitude > 90 || dto.Longitude < -180 || dto.Longitude > 180 {
		return fault.Validation("latitude", MsgCoordinatesInvalid)
	}
	if err := ValidateRadiusKm(dto.RadiusKm); err != nil {
		return err
	}
	return ValidateCloudCover(dto.CloudCoverThreshold)
}

// ValidateUpdate checks every field present in a partial update.
func ValidateUpdate(dto forestshield.UpdateRegionDto) error {
	if dto.Name != nil {
		if err := ValidateName(*dto.Name); err != nil {
			return err
		}
	}
	if dto.RadiusKm != nil {
		if err := ValidateRadiusKm(*dto.RadiusKm); err != nil {
			return err
		}
	}
	if dto.CloudCoverThreshold != nil {
		return ValidateCloudCover(*dto.CloudCoverThreshold)
	}
	return nil
}

// RoundRadiusKm rounds to one decimal place.
func RoundRadiusKm(km float64) float64 {
	return math.Round(km*10) / 10
}

// ClampRadiusKm clamps to the stored-region bound.
func ClampRadiusKm(km float64) float64 {
	return math.Max(MinRadiusKm, math.Min(MaxRadiusKm, km))
}

// RoundCoord rounds a coordinate to four decimal places (about 11 m).
func RoundCoord(deg float64) float64 {
	return math.Round(deg*1e4) / 1e4
}
