// Package fault classifies console errors into the four kinds operators see:
// backend unreachable, backend rejected, client-side validation and gesture
// validation. Client-side kinds never reach the network.
package fault

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/sells-group/forestshield/pkg/forestshield"
)

// Kind is the origin of an error.
type Kind int

const (
	// KindUnknown is anything that does not match another kind.
	KindUnknown Kind = iota
	// KindNetwork means the backend could not be reached or failed server-side.
	KindNetwork
	// KindRejected means the backend refused the request (4xx).
	KindRejected
	// KindValidation means a client-side check failed before any call was made.
	KindValidation
	// KindGesture means a drag gesture ended outside the allowed radius.
	KindGesture
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRejected:
		return "rejected"
	case KindValidation:
		return "validation"
	case KindGesture:
		return "gesture"
	default:
		return "unknown"
	}
}

// Error is a client-side error carrying the message shown to the operator.
type Error struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Validation returns a client-side validation error for field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Gesture returns a drag-gesture validation error.
func Gesture(message string) *Error {
	return &Error{Kind: KindGesture, Field: "radius", Message: message}
}

// Classify returns the kind of err.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	var apiErr *forestshield.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
			apiErr.StatusCode != http.StatusRequestTimeout && apiErr.StatusCode != http.StatusTooManyRequests {
			return KindRejected
		}
		return KindNetwork
	}

	if isUnreachable(err) {
		return KindNetwork
	}
	return KindUnknown
}

// IsClientSide reports whether err was raised before any network call.
func IsClientSide(err error) bool {
	k := Classify(err)
	return k == KindValidation || k == KindGesture
}

// Message returns the operator-facing text for err. Client-side errors carry
// their own message; backend errors fall back to fallback.
func Message(err error, fallback string) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if Classify(err) == KindNetwork && isUnreachable(err) {
		return "Unable to reach the Forest Shield backend"
	}
	return fallback
}

// Mentions reports whether the backend error text for err contains substr.
func Mentions(err error, substr string) bool {
	if err == nil {
		return false
	}
	var apiErr *forestshield.APIError
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, substr) || strings.Contains(apiErr.Body, substr)
	}
	return strings.Contains(err.Error(), substr)
}

func isUnreachable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset by peer",
		"no such host",
		"i/o timeout",
		"tls handshake timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
