package display

import (
	"time"

	"github.com/jmylchreest/toastui/internal/model"
)

// State is the lifecycle stage of an active toast.
type State int

const (
	// StateEntering means the entrance animation is running.
	StateEntering State = iota
	// StateVisible means the toast is fully shown.
	StateVisible
	// StateExiting means the exit animation is running.
	StateExiting
	// StateRemoved means the toast left the active set. Terminal.
	StateRemoved
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateEntering:
		return "entering"
	case StateVisible:
		return "visible"
	case StateExiting:
		return "exiting"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// CloseReason records why a toast left the active set.
type CloseReason int

const (
	// CloseReasonExpired means the display duration ran out.
	CloseReasonExpired CloseReason = iota + 1
	// CloseReasonDismissed means Dismiss was called for the toast.
	CloseReasonDismissed
	// CloseReasonEvicted means a newer toast pushed it out of a full set.
	CloseReasonEvicted
	// CloseReasonClosed means CloseAll closed it.
	CloseReasonClosed
)

// String returns the string representation of CloseReason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonEvicted:
		return "evicted"
	case CloseReasonClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ActiveToast is a snapshot of one entry in the active sequence.
type ActiveToast struct {
	model.Toast
	State State
	// StateSince is when the toast entered State.
	StateSince time.Time
}

// EventType indicates the type of change to the active set.
type EventType int

const (
	// EventAdded means a toast entered the active set.
	EventAdded EventType = iota
	// EventStateChanged means a toast moved to a new lifecycle state.
	EventStateChanged
	// EventRemoved means a toast left the active set.
	EventRemoved
)

// Event signals a change to the active set.
type Event struct {
	Type   EventType
	Toast  model.Toast
	State  State
	Reason CloseReason // Set for EventRemoved and for exits
	Active int         // Size of the active set after the change
}

// CloseCallback is called once for every toast that leaves the active set.
type CloseCallback func(toast model.Toast, reason CloseReason)
