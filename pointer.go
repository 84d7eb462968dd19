package vellum

import "time"

const (
	// doubleTapWindow is the maximum delay between two tap starts for
	// the second to count as a double tap.
	doubleTapWindow = 300 * time.Millisecond

	// doubleTapRadius is the maximum Euclidean distance (inclusive)
	// between the two tap start points.
	doubleTapRadius = 10.0

	// longPressDelay is how long a press must hold still before
	// LONG_PRESS fires.
	longPressDelay = 600 * time.Millisecond
)

// pointerMeta is the adapter's per-pointer bookkeeping beyond the last
// known position: where the contact started, whether it ever left the
// deadzone, and what it hit on the way down.
type pointerMeta struct {
	start    Vec2
	downTime time.Time
	moved    bool
	hit      Hit
}

// tapMemory remembers the most recent completed tap for double-tap
// detection.
type tapMemory struct {
	valid bool
	time  time.Time
	pos   Vec2
}

// Adapter normalizes raw surface input into canonical events for a
// Service: it owns the active-pointer map, performs hit and handle
// classification, detects double taps and long presses via deadline
// tokens, and routes undo/redo shortcuts straight to the controller.
//
// Use InstallPointerAdapter rather than constructing one directly.
type Adapter struct {
	surface     *Surface
	service     *Service
	getView     func() ViewState
	getSelected func() []string

	pointers map[int]PointerRecord
	meta     map[int]*pointerMeta

	lastTap       tapMemory
	pendingDouble bool
	doublePointer int

	longPress        deadline
	longPressPointer int

	shortcutKeys map[Key]bool
	remove       func()
}

// InstallPointerAdapter wires an adapter between a surface and a running
// machine. getView and getSelected supply the viewport and selected-id
// snapshots attached to every canonical event. The returned cleanup
// removes the surface listener, cancels pending deadlines, and cancels
// any tracked contacts, releasing their captures and settling the
// machine; the adapter must not be used afterwards.
func InstallPointerAdapter(surface *Surface, service *Service, getView func() ViewState, getSelected func() []string) (cleanup func()) {
	a := &Adapter{
		surface:      surface,
		service:      service,
		getView:      getView,
		getSelected:  getSelected,
		pointers:     make(map[int]PointerRecord),
		meta:         make(map[int]*pointerMeta),
		shortcutKeys: make(map[Key]bool),
	}
	a.remove = surface.OnRaw(a.handleRaw)
	return a.cleanup
}

func (a *Adapter) cleanup() {
	if a.remove != nil {
		a.remove()
		a.remove = nil
	}
	a.longPress.cancel()
	a.pendingDouble = false
	a.lastTap = tapMemory{}
	// Synthesize a cancel-equivalent up per tracked pointer so the
	// machine settles back to idle instead of holding a stale gesture.
	for id := range a.pointers {
		pos := a.pointers[id]
		delete(a.pointers, id)
		delete(a.meta, id)
		a.surface.ReleasePointerCapture(id)
		a.emit(Event{
			Type: EventPointerUp, Time: time.Now(),
			PointerID: id, X: pos.X, Y: pos.Y,
		})
	}
}

// handleRaw is the single raw-event entry point.
func (a *Adapter) handleRaw(ev RawEvent) {
	switch ev.Kind {
	case RawPointerDown:
		a.pointerDown(ev)
	case RawPointerMove:
		a.pointerMove(ev)
	case RawPointerUp, RawPointerCancel:
		// Cancel is handled identically to up.
		a.pointerUp(ev)
	case RawWheel:
		a.wheel(ev)
	case RawKeyDown:
		a.keyDown(ev)
	case RawKeyUp:
		a.keyUp(ev)
	case RawTick:
		a.tick(ev)
	}
}

// emit fills in the snapshots every canonical event carries and sends it.
func (a *Adapter) emit(ev Event) {
	ev.Pointers = snapshotPointers(a.pointers)
	if a.getView != nil {
		ev.View = a.getView()
	}
	if a.getSelected != nil {
		ids := a.getSelected()
		sel := make(map[string]bool, len(ids))
		for _, id := range ids {
			sel[id] = true
		}
		ev.Selected = sel
	}
	a.service.Send(ev)
}

func (a *Adapter) pointerDown(raw RawEvent) {
	id := raw.PointerID
	pos := Vec2{X: raw.X, Y: raw.Y}

	a.pointers[id] = PointerRecord{X: raw.X, Y: raw.Y}
	hit := a.surface.Index().HitTest(raw.X, raw.Y)
	a.meta[id] = &pointerMeta{start: pos, downTime: raw.Time, hit: hit}
	a.surface.SetPointerCapture(id)

	// A second tap starting inside both windows arms the double tap;
	// it fires after the tap completes.
	if a.lastTap.valid &&
		raw.Time.Sub(a.lastTap.time) <= doubleTapWindow &&
		pos.Dist(a.lastTap.pos) <= doubleTapRadius {
		a.pendingDouble = true
		a.doublePointer = id
	} else if a.pendingDouble && a.doublePointer == id {
		a.pendingDouble = false
	}

	// Long press tracks single-pointer presses only; a second pointer
	// disqualifies the pending one.
	if len(a.pointers) == 1 {
		a.longPress.arm(raw.Time.Add(longPressDelay))
		a.longPressPointer = id
	} else {
		a.longPress.cancel()
	}

	a.emit(Event{
		Type: EventPointerDown, Time: raw.Time,
		PointerID: id, X: raw.X, Y: raw.Y,
		HitElement: hit.Element, ElementID: hit.ElementID,
		Handle: hit.Handle, EdgeLabel: hit.EdgeLabel, EdgeID: hit.EdgeID,
		Mods: raw.Mods,
	})
}

func (a *Adapter) pointerMove(raw RawEvent) {
	id := raw.PointerID
	m, tracked := a.meta[id]
	if !tracked {
		return // move without a down: silently ignored
	}
	a.pointers[id] = PointerRecord{X: raw.X, Y: raw.Y}

	if !m.moved {
		dx := raw.X - m.start.X
		dy := raw.Y - m.start.Y
		if dx*dx+dy*dy > defaultDragDeadZone*defaultDragDeadZone {
			m.moved = true
			if a.longPress.armed && a.longPressPointer == id {
				a.longPress.cancel()
			}
			if a.pendingDouble && a.doublePointer == id {
				a.pendingDouble = false
			}
		}
	}

	a.emit(Event{
		Type: EventPointerMove, Time: raw.Time,
		PointerID: id, X: raw.X, Y: raw.Y,
		Mods: raw.Mods,
	})
}

func (a *Adapter) pointerUp(raw RawEvent) {
	id := raw.PointerID
	m, tracked := a.meta[id]
	if !tracked {
		return // up without a down: silently ignored
	}
	delete(a.pointers, id)
	delete(a.meta, id)
	a.surface.ReleasePointerCapture(id)
	if a.longPress.armed && a.longPressPointer == id {
		a.longPress.cancel()
	}

	// Up events carry a fresh hit so release targets (edge creation)
	// can be resolved.
	hit := a.surface.Index().HitTest(raw.X, raw.Y)
	a.emit(Event{
		Type: EventPointerUp, Time: raw.Time,
		PointerID: id, X: raw.X, Y: raw.Y,
		HitElement: hit.Element, ElementID: hit.ElementID,
		Handle: hit.Handle, EdgeLabel: hit.EdgeLabel, EdgeID: hit.EdgeID,
		Mods: raw.Mods,
	})

	if m.moved {
		return // a drag, not a tap
	}
	if a.pendingDouble && a.doublePointer == id {
		a.pendingDouble = false
		a.lastTap = tapMemory{} // reset tap memory after firing
		a.emit(Event{
			Type: EventDoubleTap, Time: raw.Time,
			PointerID: id, X: m.start.X, Y: m.start.Y,
			HitElement: m.hit.Element, ElementID: m.hit.ElementID,
			Handle: m.hit.Handle, EdgeLabel: m.hit.EdgeLabel, EdgeID: m.hit.EdgeID,
			Mods: raw.Mods,
		})
		return
	}
	a.lastTap = tapMemory{valid: true, time: m.downTime, pos: m.start}
}

func (a *Adapter) wheel(raw RawEvent) {
	a.emit(Event{
		Type: EventWheel, Time: raw.Time,
		X: raw.X, Y: raw.Y, DeltaY: raw.DeltaY,
		Mods: raw.Mods,
	})
}

// keyDown intercepts undo/redo; everything else is ignored until key up.
func (a *Adapter) keyDown(raw RawEvent) {
	if raw.Key == KeyZ && raw.Mods&(ModCtrl|ModMeta) != 0 {
		ctrl := a.service.Context().Controller
		if raw.Mods&ModShift != 0 {
			ctrl.Redo()
		} else {
			ctrl.Undo()
		}
		a.shortcutKeys[raw.Key] = true
	}
}

// keyUp forwards key releases not claimed by a shortcut.
func (a *Adapter) keyUp(raw RawEvent) {
	if a.shortcutKeys[raw.Key] {
		delete(a.shortcutKeys, raw.Key)
		return
	}
	a.emit(Event{
		Type: EventKeyUp, Time: raw.Time,
		Key: raw.Key, Mods: raw.Mods,
	})
}

// tick services the long-press deadline and forwards the clock pulse so
// the machine can service its own deadlines.
func (a *Adapter) tick(raw RawEvent) {
	if a.longPress.due(raw.Time) {
		a.longPress.cancel()
		id := a.longPressPointer
		if m, ok := a.meta[id]; ok {
			a.emit(Event{
				Type: EventLongPress, Time: raw.Time,
				PointerID: id, X: m.start.X, Y: m.start.Y,
				HitElement: m.hit.Element, ElementID: m.hit.ElementID,
				Handle: m.hit.Handle, EdgeLabel: m.hit.EdgeLabel, EdgeID: m.hit.EdgeID,
			})
		}
	}
	a.service.Send(Event{Type: EventTick, Time: raw.Time})
}
