// Package model defines the core data structures for toastui.
package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind selects the presentation theme of a toast. It carries no behaviour.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// DefaultDuration is how long a toast stays up when the caller gives no duration.
const DefaultDuration = 3500 * time.Millisecond

// Kinds returns all valid kinds in display order.
func Kinds() []Kind {
	return []Kind{KindSuccess, KindError, KindWarning, KindInfo}
}

// ParseKind normalizes s to a Kind. Unknown values become KindInfo.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindSuccess:
		return KindSuccess
	case KindError:
		return KindError
	case KindWarning, "warn":
		return KindWarning
	default:
		return KindInfo
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return true
	}
	return false
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Request describes a toast to raise. Zero values are normalized by NewToast.
type Request struct {
	Kind     Kind
	Title    string
	Message  string
	Duration time.Duration
}

// Toast is a single notification. It is never modified after creation.
type Toast struct {
	ID        string        `json:"id" yaml:"id"`
	Kind      Kind          `json:"kind" yaml:"kind"`
	Title     string        `json:"title" yaml:"title"`
	Message   string        `json:"message,omitempty" yaml:"message,omitempty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

// NewToast builds a Toast from req with a fresh ULID.
// An invalid kind becomes KindInfo and a non-positive duration becomes fallback
// (or DefaultDuration if fallback is also non-positive).
func NewToast(req Request, fallback time.Duration, now time.Time) Toast {
	kind := req.Kind
	if !kind.Valid() {
		kind = ParseKind(string(kind))
	}

	duration := req.Duration
	if duration <= 0 {
		duration = fallback
	}
	if duration <= 0 {
		duration = DefaultDuration
	}

	return Toast{
		ID:        ulid.Make().String(),
		Kind:      kind,
		Title:     req.Title,
		Message:   req.Message,
		Duration:  duration,
		CreatedAt: now,
	}
}

// ExpiresAt returns when the toast auto-dismisses.
func (t Toast) ExpiresAt() time.Time {
	return t.CreatedAt.Add(t.Duration)
}

// Remaining returns the time left before auto-dismiss, never negative.
func (t Toast) Remaining(now time.Time) time.Duration {
	left := t.ExpiresAt().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Progress returns the fraction of the display time still left, from 1 down to 0.
func (t Toast) Progress(now time.Time) float64 {
	if t.Duration <= 0 {
		return 0
	}
	p := float64(t.Remaining(now)) / float64(t.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// MessageTruncated returns the message collapsed to one line and cut to maxLen runes.
func (t Toast) MessageTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	msg := []rune(strings.Join(strings.Fields(t.Message), " "))
	if len(msg) <= maxLen {
		return string(msg)
	}
	if maxLen <= 1 {
		return string(msg[:maxLen])
	}
	return string(msg[:maxLen-1]) + "…"
}
