// Package notify implements the transient banner the console uses to surface
// the outcome of operator actions.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a banner message stays visible.
const DefaultTTL = 5 * time.Second

// Level is the tone of a banner message.
type Level string

const (
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
)

// Message is one banner entry.
type Message struct {
	Level Level     `json:"level" yaml:"level"`
	Text  string    `json:"text" yaml:"text"`
	At    time.Time `json:"at" yaml:"at"`
}

// Banner holds at most one message and clears it after a fixed TTL. A newer
// message replaces the current one and restarts the timer.
type Banner struct {
	mu      sync.Mutex
	ttl     time.Duration
	current *Message
	timer   *time.Timer
	closed  bool
	now     func() time.Time
}

// NewBanner creates a banner whose messages clear after ttl (DefaultTTL if ttl <= 0).
func NewBanner(ttl time.Duration) *Banner {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Banner{ttl: ttl, now: time.Now}
}

// Error shows an error message.
func (b *Banner) Error(text string) {
	b.Show(LevelError, text)
}

// Success shows a success message.
func (b *Banner) Success(text string) {
	b.Show(LevelSuccess, text)
}

// Show replaces the current message.
func (b *Banner) Show(level Level, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	msg := &Message{Level: level, Text: text, At: b.now()}
	b.current = msg
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.ttl, func() { b.expire(msg) })

	if level == LevelError {
		zap.L().Warn("banner", zap.String("level", string(level)), zap.String("text", text))
	} else {
		zap.L().Debug("banner", zap.String("level", string(level)), zap.String("text", text))
	}
}

// Current returns the visible message, if any.
func (b *Banner) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Message{}, false
	}
	return *b.current, true
}

// Clear hides the current message.
func (b *Banner) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// Close stops the pending timer. Later messages are dropped.
func (b *Banner) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.current = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

// expire clears msg only if it is still the visible one.
func (b *Banner) expire(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == msg {
		b.current = nil
		b.timer = nil
	}
}
