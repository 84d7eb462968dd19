package vellum

import "time"

// EventType identifies a kind of canonical interaction event.
type EventType uint8

const (
	EventPointerDown EventType = iota // a pointer pressed on the surface
	EventPointerMove                  // a tracked pointer moved
	EventPointerUp                    // a tracked pointer released (or cancelled)
	EventWheel                        // wheel scroll, carries DeltaY
	EventDoubleTap                    // two taps within the time and distance windows
	EventLongPress                    // press held past the long-press deadline
	EventKeyUp                        // key release not claimed by a shortcut
	EventToggleMode                   // flip navigate/direct
	EventTick                         // per-frame clock carrier for deadline checks
	EventError                        // re-injected action failure (ActionName, Err)
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventPointerDown:
		return "pointerDown"
	case EventPointerMove:
		return "pointerMove"
	case EventPointerUp:
		return "pointerUp"
	case EventWheel:
		return "wheel"
	case EventDoubleTap:
		return "doubleTap"
	case EventLongPress:
		return "longPress"
	case EventKeyUp:
		return "keyUp"
	case EventToggleMode:
		return "toggleMode"
	case EventTick:
		return "tick"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// PointerRecord is the last known screen position of an active pointer.
type PointerRecord struct {
	X, Y float64
}

// Event is the canonical interaction event consumed by the gesture
// machine. It is a tagged variant: Type selects which optional fields are
// meaningful. Pointers is a snapshot of the full active-pointer map at
// emission time; mutating it does not affect the adapter.
type Event struct {
	Type EventType
	Time time.Time

	// Pointer fields (down/move/up/doubleTap/longPress/wheel).
	PointerID int
	X, Y      float64
	Pointers  map[int]PointerRecord

	// Hit classification (down and up; doubleTap carries the second
	// tap's hit). HitElement and Handle are independent: a handle can
	// sit over an element or over blank canvas.
	HitElement bool
	ElementID  string
	Handle     Handle
	EdgeLabel  bool   // hit landed on an edge's label
	EdgeID     string // valid when EdgeLabel is true

	// Snapshots attached by the adapter.
	Selected map[string]bool
	View     ViewState

	// Wheel fields.
	DeltaY float64

	// Key fields.
	Key  Key
	Mods KeyModifiers

	// Error fields (EventError only).
	ActionName string
	Err        error
}

// snapshotPointers copies an active-pointer map for attachment to an event.
func snapshotPointers(src map[int]PointerRecord) map[int]PointerRecord {
	out := make(map[int]PointerRecord, len(src))
	for id, rec := range src {
		out[id] = rec
	}
	return out
}
