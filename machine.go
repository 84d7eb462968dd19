package vellum

import (
	"time"
)

// --- Tuning constants ---

const (
	// defaultDragDeadZone is the travel (strictly greater than, in screen
	// pixels) required before an ambiguous press commits to a drag-like
	// gesture.
	defaultDragDeadZone = 5.0

	// wheelIdleTimeout is the quiet period after the last wheel event
	// before wheelZoom settles back to idle. Each new wheel event
	// re-arms it: a debounce, not a rate limit.
	wheelIdleTimeout = 100 * time.Millisecond

	// wheelZoomStep is the zoom factor applied per wheel notch.
	wheelZoomStep = 1.1

	// reorderStepPixels is the vertical travel per z-order step while
	// dragging the reorder grip.
	reorderStepPixels = 24.0

	// minElementSize is the smallest width/height a resize can produce.
	minElementSize = 8.0
)

// Gesture identifies the single active gesture state. Exactly one is
// active at any instant; mode is the orthogonal second region.
type Gesture uint8

const (
	GestureIdle Gesture = iota
	GesturePressPendingNavigate
	GesturePanCanvas
	GesturePressPendingDirect
	GestureMoveGroup
	GesturePinchCanvas
	GesturePinchGroup
	GestureLassoSelect
	GestureResizeElement
	GestureScaleElement
	GestureRotateElement
	GestureReorderElement
	GestureCreateEdge
	GestureCreateNode
	GestureDoubleTapCanvas
	GestureDoubleTapElement
	GestureDoubleTapEdgeLabel
	GestureWheelZoom
)

var gestureNames = [...]string{
	"idle", "pressPendingNavigate", "panCanvas", "pressPendingDirect",
	"moveGroup", "pinchCanvas", "pinchGroup", "lassoSelect",
	"resizeElement", "scaleElement", "rotateElement", "reorderElement",
	"createEdge", "createNode", "doubleTapCanvas", "doubleTapElement",
	"doubleTapEdgeLabel", "wheelZoom",
}

// String returns the gesture state name.
func (g Gesture) String() string {
	if int(g) < len(gestureNames) {
		return gestureNames[g]
	}
	return "unknown"
}

// elementStart is an element's transform at gesture start, used for
// ratio-based incremental updates.
type elementStart struct {
	X, Y     float64
	Scale    float64
	Rotation float64
}

// draft holds transient per-gesture working data. It is cleared entirely
// on every return to idle.
type draft struct {
	pointerID  int
	start      Vec2 // screen-space down point
	startView  ViewState
	hitElement bool
	elementID  string

	// Pinch: the two tracked pointer ids and the initial geometry the
	// incremental updates are ratioed against.
	pinchIDs      [2]int
	pinchDist     float64
	pinchAngle    float64
	pinchCentroid Vec2

	// Group gestures: per-element start transforms and the canvas-space
	// anchor the deltas apply around.
	starts      map[string]elementStart
	anchor      Vec2 // canvas-space down point (move) or group center (pinch)
	groupCenter Vec2

	// Single-element gestures.
	startBounds   Rect
	startScale    float64
	startRotation float64

	// Lasso.
	lassoActive bool

	// Reorder.
	reorderApplied int

	// Edge / node creation.
	sourceID string
	lastPos  Vec2
}

// Context is the gesture machine's working state: the active-pointer map,
// the per-gesture draft, and the controller every action mutates through.
type Context struct {
	Pointers   map[int]PointerRecord
	Draft      draft
	Controller Controller

	// LastError records the most recent re-injected action failure.
	LastError       error
	LastErrorAction string
}

// deadline is a single cancellable timer token. It is always cancelled or
// overwritten before being re-armed, so at most one is pending per
// concern.
type deadline struct {
	armed bool
	at    time.Time
}

func (d *deadline) arm(at time.Time) { d.armed, d.at = true, at }

func (d *deadline) cancel() { d.armed = false }

func (d *deadline) due(now time.Time) bool { return d.armed && !now.Before(d.at) }

// Service is the running gesture state machine. It consumes canonical
// events via Send, applies guarded transitions from the transition table,
// and drives canvas mutations through the action bridge. It runs for the
// lifetime of the session; there is no terminal state.
//
// Dispatch is run-to-completion: events sent while one is being processed
// are queued and drained before Send returns. Never call Send from
// multiple goroutines.
type Service struct {
	mode    Mode
	gesture Gesture
	ctx     Context

	queue      []Event
	processing bool

	wheelDeadline deadline
	dragDeadZone  float64

	logf func(format string, args ...any)
}

// NewService creates a machine in navigate/idle driving the given
// controller.
func NewService(ctrl Controller) *Service {
	return &Service{
		mode:         ModeNavigate,
		gesture:      GestureIdle,
		dragDeadZone: defaultDragDeadZone,
		ctx: Context{
			Pointers:   make(map[int]PointerRecord),
			Controller: ctrl,
		},
		logf: logPrintf,
	}
}

// Mode returns the current mode region state.
func (s *Service) Mode() Mode { return s.mode }

// Gesture returns the current gesture region state.
func (s *Service) Gesture() Gesture { return s.gesture }

// Context returns the machine's working context. Mutating it outside of
// dispatch is for tests only.
func (s *Service) Context() *Context { return &s.ctx }

// SetDragDeadZone overrides the press-pending deadzone in screen pixels.
func (s *Service) SetDragDeadZone(px float64) { s.dragDeadZone = px }

// Send queues a canonical event and, unless a dispatch is already in
// flight, drains the queue to completion.
func (s *Service) Send(ev Event) {
	s.queue = append(s.queue, ev)
	if s.processing {
		return
	}
	s.processing = true
	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.dispatch(next)
	}
	s.processing = false
}

// dispatch processes a single event: bookkeeping, region-global events,
// then the (gesture, event type) transition table.
func (s *Service) dispatch(ev Event) {
	s.trackPointers(ev)

	switch ev.Type {
	case EventToggleMode:
		s.toggleMode()
		return
	case EventKeyUp:
		if ev.Key == KeyEscape {
			s.toggleMode()
		}
		return
	case EventError:
		s.ctx.LastError = ev.Err
		s.ctx.LastErrorAction = ev.ActionName
		return
	case EventTick:
		if s.gesture == GestureWheelZoom && s.wheelDeadline.due(ev.Time) {
			s.invoke(ActionWheelZoomEnd, ev)
			s.setGesture(GestureIdle)
		}
		return
	}

	byType, ok := transitions[s.gesture]
	if !ok {
		return
	}
	if fn := byType[ev.Type]; fn != nil {
		fn(s, ev)
	}
}

// trackPointers keeps the context's pointer map in sync. Adapter-emitted
// events carry an authoritative snapshot; machine-driven tests may omit
// it, in which case the map is maintained incrementally.
func (s *Service) trackPointers(ev Event) {
	if ev.Pointers != nil {
		s.ctx.Pointers = ev.Pointers
		return
	}
	switch ev.Type {
	case EventPointerDown, EventPointerMove:
		s.ctx.Pointers[ev.PointerID] = PointerRecord{X: ev.X, Y: ev.Y}
	case EventPointerUp:
		delete(s.ctx.Pointers, ev.PointerID)
	}
}

// setGesture changes the gesture region. Returning to idle clears the
// draft and any pending wheel deadline.
func (s *Service) setGesture(g Gesture) {
	s.gesture = g
	if g == GestureIdle {
		s.ctx.Draft = draft{}
		s.wheelDeadline.cancel()
	}
}

// toggleMode flips the mode region without touching the gesture region.
// A toggle mid-gesture is tolerated: the gesture continues.
func (s *Service) toggleMode() {
	s.mode = s.mode.Toggled()
	s.invoke(ActionSwitchMode, Event{Type: EventToggleMode})
}

// pointerCount returns the number of active pointers known to the machine.
func (s *Service) pointerCount() int {
	return len(s.ctx.Pointers)
}

// beyondDeadZone reports whether a point has strictly exceeded the
// deadzone from the draft's down point. Exactly at the deadzone does not
// trigger.
func (s *Service) beyondDeadZone(x, y float64) bool {
	dx := x - s.ctx.Draft.start.X
	dy := y - s.ctx.Draft.start.Y
	return dx*dx+dy*dy > s.dragDeadZone*s.dragDeadZone
}

// --- Transition table ---

type transitionFn func(*Service, Event)

// transitions is the table-driven core: one guarded handler per
// (gesture, event type) pair. Guard logic (deadzone, handle kind, pointer
// count) lives in the handlers so it stays centrally inspectable.
var transitions = map[Gesture]map[EventType]transitionFn{
	GestureIdle: {
		EventPointerDown: (*Service).idlePointerDown,
		EventWheel:       (*Service).startWheelZoom,
		EventDoubleTap:   (*Service).idleDoubleTap,
	},
	GesturePressPendingNavigate: {
		EventPointerMove: (*Service).pressPendingNavigateMove,
		EventPointerUp:   (*Service).pressPendingUp,
		EventPointerDown: (*Service).escalateToPinchCanvas,
		EventLongPress:   (*Service).pressPendingLongPress,
	},
	GesturePanCanvas: {
		EventPointerMove: (*Service).panMove,
		EventPointerUp:   (*Service).panUp,
		EventPointerDown: (*Service).escalateToPinchCanvas,
	},
	GesturePressPendingDirect: {
		EventPointerMove: (*Service).pressPendingDirectMove,
		EventPointerUp:   (*Service).pressPendingUp,
		EventPointerDown: (*Service).escalateToPinchCanvas,
	},
	GestureMoveGroup: {
		EventPointerMove: (*Service).moveGroupMove,
		EventPointerUp:   (*Service).moveGroupUp,
		EventPointerDown: (*Service).escalateToPinchGroup,
	},
	GesturePinchCanvas: {
		EventPointerMove: (*Service).pinchCanvasMove,
		EventPointerUp:   (*Service).pinchCanvasUp,
	},
	GesturePinchGroup: {
		EventPointerMove: (*Service).pinchGroupMove,
		EventPointerUp:   (*Service).pinchGroupUp,
	},
	GestureLassoSelect: {
		EventPointerMove: (*Service).lassoMove,
		EventPointerUp:   (*Service).lassoUp,
		EventPointerDown: (*Service).lassoSecondPointer,
	},
	GestureResizeElement: {
		EventPointerMove: (*Service).resizeMove,
		EventPointerUp:   (*Service).resizeUp,
	},
	GestureScaleElement: {
		EventPointerMove: (*Service).scaleMove,
		EventPointerUp:   (*Service).scaleUp,
	},
	GestureRotateElement: {
		EventPointerMove: (*Service).rotateMove,
		EventPointerUp:   (*Service).rotateUp,
	},
	GestureReorderElement: {
		EventPointerMove: (*Service).reorderMove,
		EventPointerUp:   (*Service).reorderUp,
	},
	GestureCreateEdge: {
		EventPointerMove: (*Service).edgePreviewMove,
		EventPointerUp:   (*Service).edgeCommitUp,
	},
	GestureCreateNode: {
		EventPointerMove: (*Service).edgePreviewMove,
		EventPointerUp:   (*Service).nodeCommitUp,
	},
	GestureWheelZoom: {
		EventWheel:       (*Service).startWheelZoom,
		EventPointerDown: (*Service).wheelZoomInterrupted,
	},
}

// --- Idle ---

// idlePointerDown is the single-pointer disambiguation entry point. A
// non-null handle routes straight to its exclusive gesture; otherwise the
// press is ambiguous and goes press-pending (navigate), press-pending on a
// hit element (direct), or lasso on blank canvas (direct).
func (s *Service) idlePointerDown(ev Event) {
	d := &s.ctx.Draft
	d.pointerID = ev.PointerID
	d.start = Vec2{X: ev.X, Y: ev.Y}
	d.startView = ev.View
	d.hitElement = ev.HitElement
	d.elementID = ev.ElementID

	if ev.Handle != HandleNone {
		if !s.routeHandle(ev) {
			// Declined routing stays idle; idle never keeps a draft.
			s.ctx.Draft = draft{}
		}
		return
	}

	if s.mode == ModeNavigate {
		s.setGesture(GesturePressPendingNavigate)
		return
	}

	// Direct mode.
	if ev.HitElement {
		s.setGesture(GesturePressPendingDirect)
		return
	}
	cx, cy := s.ctx.Controller.ScreenToCanvas(ev.X, ev.Y)
	d.anchor = Vec2{X: cx, Y: cy}
	d.lassoActive = true
	s.setGesture(GestureLassoSelect)
	s.invoke(ActionLassoUpdate, ev)
}

// routeHandle maps a handle classification to its exclusive gesture,
// bypassing deadzone disambiguation entirely. Returns false when no
// gesture can start (no element resolves for an element-bound handle),
// in which case the machine stays idle.
func (s *Service) routeHandle(ev Event) bool {
	d := &s.ctx.Draft
	id := ev.ElementID
	if !ev.HitElement {
		if sel := s.ctx.Controller.SelectedIDs(); len(sel) > 0 {
			id = sel[0]
		}
	}
	d.elementID = id

	switch ev.Handle {
	case HandleResize, HandleScale, HandleRotate:
		el := s.ctx.Controller.FindElementByID(id)
		if el == nil {
			return false
		}
		d.startBounds = Rect{X: el.X, Y: el.Y, Width: el.Width, Height: el.Height}
		d.startScale = el.Scale
		d.startRotation = el.Rotation
		switch ev.Handle {
		case HandleResize:
			s.setGesture(GestureResizeElement)
		case HandleScale:
			s.setGesture(GestureScaleElement)
		default:
			s.setGesture(GestureRotateElement)
		}
		return true
	case HandleReorder:
		if s.ctx.Controller.FindElementByID(id) == nil {
			return false
		}
		d.reorderApplied = 0
		s.setGesture(GestureReorderElement)
		return true
	case HandleEdge:
		d.sourceID = id
		s.setGesture(GestureCreateEdge)
		return true
	case HandleCreateNode:
		d.sourceID = id
		s.setGesture(GestureCreateNode)
		return true
	}
	return false
}

// idleDoubleTap routes a double tap to its transient state, runs the
// effect, and settles back in idle within the same dispatch.
func (s *Service) idleDoubleTap(ev Event) {
	switch {
	case ev.EdgeLabel:
		s.setGesture(GestureDoubleTapEdgeLabel)
		s.invoke(ActionEditEdgeLabel, ev)
	case ev.HitElement:
		s.setGesture(GestureDoubleTapElement)
		s.mode = ModeDirect
		s.invoke(ActionEditElement, ev)
	default:
		s.setGesture(GestureDoubleTapCanvas)
		s.invoke(ActionSpawnElement, ev)
	}
	s.setGesture(GestureIdle)
}

// --- Press pending ---

func (s *Service) pressPendingNavigateMove(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID || !s.beyondDeadZone(ev.X, ev.Y) {
		return
	}
	s.setGesture(GesturePanCanvas)
	s.invoke(ActionPanCanvas, ev)
}

func (s *Service) pressPendingDirectMove(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID || !s.beyondDeadZone(ev.X, ev.Y) {
		return
	}
	s.beginMoveGroup(ev)
	s.invoke(ActionMoveGroup, ev)
}

// beginMoveGroup selects the pressed element if needed and captures
// per-element start offsets for the group move.
func (s *Service) beginMoveGroup(ev Event) {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	if d.elementID != "" && !ctrl.IsElementSelected(d.elementID) {
		ctrl.SelectElement(d.elementID, false)
	}
	d.starts = captureStarts(ctrl)
	cx, cy := ctrl.ScreenToCanvas(d.start.X, d.start.Y)
	d.anchor = Vec2{X: cx, Y: cy}
	s.setGesture(GestureMoveGroup)
}

// captureStarts snapshots the transform of every selected element.
func captureStarts(ctrl Controller) map[string]elementStart {
	starts := make(map[string]elementStart)
	for _, id := range ctrl.SelectedIDs() {
		if el := ctrl.FindElementByID(id); el != nil {
			starts[id] = elementStart{X: el.X, Y: el.Y, Scale: el.Scale, Rotation: el.Rotation}
		}
	}
	return starts
}

// pressPendingUp ends a press with no committed movement: select the hit
// element, or clear the selection on a blank tap.
func (s *Service) pressPendingUp(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID {
		return
	}
	s.invoke(ActionTapSelect, ev)
	s.setGesture(GestureIdle)
}

// pressPendingLongPress selects the pressed element and switches to
// direct mode; the ongoing press continues as a direct press.
func (s *Service) pressPendingLongPress(ev Event) {
	if !s.ctx.Draft.hitElement {
		return
	}
	s.mode = ModeDirect
	s.invoke(ActionLongPressSelect, ev)
	s.setGesture(GesturePressPendingDirect)
}

// --- Pan ---

func (s *Service) panMove(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID {
		return
	}
	s.invoke(ActionPanCanvas, ev)
}

func (s *Service) panUp(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID {
		return
	}
	s.invoke(ActionPanEnd, ev)
	s.setGesture(GestureIdle)
}

// --- Pinch escalation and degradation ---

// escalateToPinchCanvas handles a second pointer landing during any
// single-pointer gesture without an active group move.
func (s *Service) escalateToPinchCanvas(ev Event) {
	if s.pointerCount() < 2 {
		return
	}
	s.capturePinch(ev)
	s.setGesture(GesturePinchCanvas)
}

// escalateToPinchGroup handles a second pointer landing mid group move.
func (s *Service) escalateToPinchGroup(ev Event) {
	if s.pointerCount() < 2 {
		return
	}
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	s.capturePinch(ev)
	d.starts = captureStarts(ctrl)
	if bbox, ok := ctrl.GroupBBox(); ok {
		d.groupCenter = Vec2{X: bbox.X + bbox.Width/2, Y: bbox.Y + bbox.Height/2}
	}
	s.setGesture(GesturePinchGroup)
}

// lassoSecondPointer cancels the in-progress selection box exactly once,
// then escalates to pinchCanvas.
func (s *Service) lassoSecondPointer(ev Event) {
	if s.pointerCount() < 2 {
		return
	}
	if s.ctx.Draft.lassoActive {
		s.ctx.Draft.lassoActive = false
		s.invoke(ActionLassoCancel, ev)
	}
	s.capturePinch(ev)
	s.setGesture(GesturePinchCanvas)
}

// capturePinch records the two pointer ids and the initial inter-pointer
// distance, angle, and centroid that incremental updates ratio against.
func (s *Service) capturePinch(ev Event) {
	d := &s.ctx.Draft
	// The draft pointer may itself have lifted (three fingers, primary
	// up first); anchor on whichever pointers are still live.
	ids := make([]int, 0, 2)
	if _, ok := s.ctx.Pointers[d.pointerID]; ok {
		ids = append(ids, d.pointerID)
	}
	for id := range s.ctx.Pointers {
		if len(ids) == 2 {
			break
		}
		if len(ids) == 1 && id == ids[0] {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return
	}
	d.pointerID = ids[0]
	d.pinchIDs = [2]int{ids[0], ids[1]}
	p0 := s.ctx.Pointers[ids[0]]
	p1 := s.ctx.Pointers[ids[1]]
	d.pinchDist, d.pinchAngle, d.pinchCentroid = pinchGeometry(p0, p1)
	d.startView = ev.View
}

// pinchCanvasUp degrades back to panCanvas while a pointer remains;
// otherwise the pinch completes.
func (s *Service) pinchCanvasUp(ev Event) {
	if s.pointerCount() >= 2 {
		s.capturePinch(ev) // re-anchor around the survivors
		return
	}
	if s.pointerCount() == 1 {
		s.degradeToPan(ev)
		return
	}
	s.invoke(ActionPinchCanvasEnd, ev)
	s.setGesture(GestureIdle)
}

func (s *Service) degradeToPan(ev Event) {
	d := &s.ctx.Draft
	for id, rec := range s.ctx.Pointers {
		d.pointerID = id
		d.start = Vec2{X: rec.X, Y: rec.Y}
	}
	d.startView = ev.View
	s.setGesture(GesturePanCanvas)
}

// pinchGroupUp degrades back to moveGroup while a pointer remains;
// otherwise the group transform completes.
func (s *Service) pinchGroupUp(ev Event) {
	if s.pointerCount() >= 2 {
		s.capturePinch(ev)
		s.ctx.Draft.starts = captureStarts(s.ctx.Controller)
		return
	}
	if s.pointerCount() == 1 {
		d := &s.ctx.Draft
		ctrl := s.ctx.Controller
		for id, rec := range s.ctx.Pointers {
			d.pointerID = id
			d.start = Vec2{X: rec.X, Y: rec.Y}
			cx, cy := ctrl.ScreenToCanvas(rec.X, rec.Y)
			d.anchor = Vec2{X: cx, Y: cy}
		}
		d.startView = ev.View
		d.starts = captureStarts(ctrl)
		s.setGesture(GestureMoveGroup)
		return
	}
	s.invoke(ActionPinchGroupEnd, ev)
	s.setGesture(GestureIdle)
}

func (s *Service) pinchCanvasMove(ev Event) {
	s.invoke(ActionPinchCanvas, ev)
}

func (s *Service) pinchGroupMove(ev Event) {
	s.invoke(ActionPinchGroup, ev)
}

// --- Group move ---

func (s *Service) moveGroupMove(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID {
		return
	}
	s.invoke(ActionMoveGroup, ev)
}

func (s *Service) moveGroupUp(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID {
		return
	}
	s.invoke(ActionMoveGroupEnd, ev)
	s.setGesture(GestureIdle)
}

// --- Lasso ---

func (s *Service) lassoMove(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID {
		return
	}
	s.invoke(ActionLassoUpdate, ev)
}

func (s *Service) lassoUp(ev Event) {
	if ev.PointerID != s.ctx.Draft.pointerID {
		return
	}
	s.invoke(ActionLassoEnd, ev)
	s.setGesture(GestureIdle)
}

// --- Single-element handle gestures ---

func (s *Service) resizeMove(ev Event)  { s.invoke(ActionResizeElement, ev) }
func (s *Service) scaleMove(ev Event)   { s.invoke(ActionScaleElement, ev) }
func (s *Service) rotateMove(ev Event)  { s.invoke(ActionRotateElement, ev) }
func (s *Service) reorderMove(ev Event) { s.invoke(ActionReorderElement, ev) }

func (s *Service) resizeUp(ev Event) {
	s.invoke(ActionResizeEnd, ev)
	s.setGesture(GestureIdle)
}

func (s *Service) scaleUp(ev Event) {
	s.invoke(ActionScaleEnd, ev)
	s.setGesture(GestureIdle)
}

func (s *Service) rotateUp(ev Event) {
	s.invoke(ActionRotateEnd, ev)
	s.setGesture(GestureIdle)
}

func (s *Service) reorderUp(ev Event) {
	s.invoke(ActionReorderEnd, ev)
	s.setGesture(GestureIdle)
}

// --- Edge / node creation ---

func (s *Service) edgePreviewMove(ev Event) {
	s.ctx.Draft.lastPos = Vec2{X: ev.X, Y: ev.Y}
	s.invoke(ActionConnectPreview, ev)
}

func (s *Service) edgeCommitUp(ev Event) {
	s.invoke(ActionCreateEdge, ev)
	s.setGesture(GestureIdle)
}

func (s *Service) nodeCommitUp(ev Event) {
	s.invoke(ActionCreateNode, ev)
	s.setGesture(GestureIdle)
}

// --- Wheel zoom ---

// startWheelZoom applies a pointer-centered zoom immediately and (re)arms
// the idle deadline.
func (s *Service) startWheelZoom(ev Event) {
	s.setGesture(GestureWheelZoom)
	s.invoke(ActionWheelZoom, ev)
	s.wheelDeadline.arm(ev.Time.Add(wheelIdleTimeout))
}

// wheelZoomInterrupted finalizes the zoom early when a press arrives
// mid-burst, then lets idle disambiguation handle the press.
func (s *Service) wheelZoomInterrupted(ev Event) {
	s.invoke(ActionWheelZoomEnd, ev)
	s.setGesture(GestureIdle)
	s.idlePointerDown(ev)
}
