package vellum

import "math"

// Vec2 is a 2D vector used for positions, offsets, and sizes throughout
// the API. Coordinates are screen pixels unless a function says otherwise.
type Vec2 struct {
	X, Y float64
}

// Dist returns the Euclidean distance to other.
func (v Vec2) Dist(other Vec2) float64 {
	dx := other.X - v.X
	dy := other.Y - v.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin
// at the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.X, other.X)
	y := math.Min(r.Y, other.Y)
	x2 := math.Max(r.X+r.Width, other.X+other.Width)
	y2 := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// RectFromCorners builds a normalized Rect from two opposite corners in
// any order. Used for lasso boxes dragged in any direction.
func RectFromCorners(a, b Vec2) Rect {
	x := math.Min(a.X, b.X)
	y := math.Min(a.Y, b.Y)
	return Rect{X: x, Y: y, Width: math.Abs(b.X - a.X), Height: math.Abs(b.Y - a.Y)}
}

// Mode is the orthogonal session state governing which gestures are
// reachable from a blank-canvas press. It persists independently of
// gesture completion.
type Mode uint8

const (
	ModeNavigate Mode = iota // pan/zoom the canvas; presses select
	ModeDirect                // edit elements directly; blank presses lasso
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "navigate"
}

// Toggled returns the other mode.
func (m Mode) Toggled() Mode {
	if m == ModeNavigate {
		return ModeDirect
	}
	return ModeNavigate
}

// Handle identifies a dedicated interactive control overlaid on a selected
// element. A non-zero handle on pointer down bypasses normal gesture
// disambiguation and routes straight to the matching exclusive gesture.
type Handle uint8

const (
	HandleNone       Handle = iota // no handle under the pointer
	HandleResize                   // corner resize grip
	HandleScale                    // uniform scale grip
	HandleRotate                   // rotation grip
	HandleReorder                  // z-order drag grip
	HandleEdge                     // edge creation anchor
	HandleCreateNode               // spawn-connected-node anchor
)

// String returns the handle name, or "none".
func (h Handle) String() string {
	switch h {
	case HandleResize:
		return "resize"
	case HandleScale:
		return "scale"
	case HandleRotate:
		return "rotate"
	case HandleReorder:
		return "reorder"
	case HandleEdge:
		return "edge"
	case HandleCreateNode:
		return "createNode"
	default:
		return "none"
	}
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command key
)

// Key is a normalized key name for keyboard events forwarded to the
// machine. Only the keys the engine reacts to are named; any other value
// passes through untouched.
type Key string

const (
	KeyEscape Key = "Escape"
	KeyZ      Key = "z"
)
