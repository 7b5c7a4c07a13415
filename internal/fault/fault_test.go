package fault

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/forestshield/pkg/forestshield"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"validation", Validation("radiusKm", "Radius cannot exceed 50 kilometers"), KindValidation},
		{"gesture", Gesture("Radius must be at least 100 meters"), KindGesture},
		{"wrapped validation", eris.Wrap(Validation("name", "Name is required"), "update"), KindValidation},
		{"bad request", &forestshield.APIError{StatusCode: 400}, KindRejected},
		{"not found wrapped", eris.Wrap(&forestshield.APIError{StatusCode: 404}, "get region"), KindRejected},
		{"rate limited", &forestshield.APIError{StatusCode: 429}, KindNetwork},
		{"server error", &forestshield.APIError{StatusCode: 502}, KindNetwork},
		{"connection refused", errors.New("dial tcp 127.0.0.1:3000: connect: connection refused"), KindNetwork},
		{"other", errors.New("decode response"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsClientSide(t *testing.T) {
	assert.True(t, IsClientSide(Validation("x", "y")))
	assert.True(t, IsClientSide(Gesture("y")))
	assert.False(t, IsClientSide(&forestshield.APIError{StatusCode: 400}))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Radius cannot exceed 50 kilometers",
		Message(Validation("radiusKm", "Radius cannot exceed 50 kilometers"), "Failed to update region"))
	assert.Equal(t, "Failed to update region",
		Message(&forestshield.APIError{StatusCode: 500}, "Failed to update region"))
	assert.Equal(t, "Unable to reach the Forest Shield backend",
		Message(errors.New("connect: connection refused"), "Failed to update region"))
}

func TestMentions(t *testing.T) {
	err := eris.Wrap(&forestshield.APIError{StatusCode: 400, Message: "radiusKm must not be greater than 50"}, "update")
	assert.True(t, Mentions(err, "radiusKm"))
	assert.False(t, Mentions(err, "cloudCoverThreshold"))
	assert.False(t, Mentions(nil, "radiusKm"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "gesture", KindGesture.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
