package vellum

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	maxPointers = 10 // pointer 0 = mouse, 1-9 = touch
)

// RawKind identifies a raw input event delivered to a Surface.
type RawKind uint8

const (
	RawPointerDown   RawKind = iota // a pointer pressed
	RawPointerMove                  // a pointer moved (pressed or hovering)
	RawPointerUp                    // a pointer released
	RawPointerCancel                // a pointer cancelled by the host
	RawWheel                        // wheel scroll
	RawKeyDown                      // key pressed
	RawKeyUp                        // key released
	RawTick                         // per-frame clock pulse
)

// RawEvent is an input event as delivered by the host windowing layer,
// before adapter normalization. Which fields are meaningful depends on
// Kind.
type RawEvent struct {
	Kind      RawKind
	Time      time.Time
	PointerID int
	X, Y      float64
	Button    MouseButton
	DeltaY    float64
	Key       Key
	Mods      KeyModifiers
}

// --- Surface ---

type rawHandler struct {
	id uint32
	fn func(RawEvent)
}

// Surface is the root input surface: the seam between the host windowing
// layer and the pointer adapter. Host code (an EbitenDriver, a gesture
// Script, or a test) dispatches raw events into it; the adapter installs
// a removable listener on it. The Surface also owns the hit-test index
// and pointer capture state, mirroring what a browser root element would
// provide.
type Surface struct {
	index    *ElementIndex
	handlers []rawHandler
	nextID   uint32
	captured map[int]bool
}

// NewSurface creates an empty Surface with a fresh hit-test index.
func NewSurface() *Surface {
	return &Surface{
		index:    NewElementIndex(),
		captured: make(map[int]bool),
	}
}

// Index returns the surface's hit-test index. The host keeps it in sync
// with whatever it renders.
func (s *Surface) Index() *ElementIndex {
	return s.index
}

// OnRaw registers a listener for every raw event dispatched to the
// surface. The returned func removes the listener; removal during
// dispatch takes effect on the next dispatch.
func (s *Surface) OnRaw(fn func(RawEvent)) (remove func()) {
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, rawHandler{id: id, fn: fn})
	return func() {
		for i := range s.handlers {
			if s.handlers[i].id == id {
				copy(s.handlers[i:], s.handlers[i+1:])
				s.handlers[len(s.handlers)-1] = rawHandler{}
				s.handlers = s.handlers[:len(s.handlers)-1]
				return
			}
		}
	}
}

// Dispatch fans a raw event out to every registered listener, in
// registration order. Events are processed synchronously to completion.
func (s *Surface) Dispatch(ev RawEvent) {
	for _, h := range s.handlers {
		h.fn(ev)
	}
}

// SetPointerCapture marks pointerID as captured by the surface for the
// duration of its contact.
func (s *Surface) SetPointerCapture(pointerID int) {
	s.captured[pointerID] = true
}

// ReleasePointerCapture releases a captured pointer. Releasing an
// uncaptured pointer is a no-op.
func (s *Surface) ReleasePointerCapture(pointerID int) {
	delete(s.captured, pointerID)
}

// HasPointerCapture reports whether pointerID is currently captured.
func (s *Surface) HasPointerCapture(pointerID int) bool {
	return s.captured[pointerID]
}

// --- Ebiten driver ---

// EbitenDriver polls Ebitengine input once per frame and synthesizes raw
// events into a Surface: mouse as pointer 0, touches in slots 1-9, wheel,
// and key transitions, followed by a tick pulse that services pending
// deadlines. Call Update from the game's Update.
type EbitenDriver struct {
	surface *Surface
	now     func() time.Time

	mouseDown  bool
	mouseBtn   MouseButton
	lastMouseX float64
	lastMouseY float64

	touchMap     [maxPointers]ebiten.TouchID
	touchUsed    [maxPointers]bool
	touchX       [maxPointers]float64
	touchY       [maxPointers]float64
	prevTouchIDs []ebiten.TouchID
	keyBuf       []ebiten.Key
}

// NewEbitenDriver creates a driver feeding the given surface.
func NewEbitenDriver(surface *Surface) *EbitenDriver {
	return &EbitenDriver{
		surface: surface,
		now:     time.Now,
	}
}

// Update polls input state and dispatches the frame's raw events.
func (d *EbitenDriver) Update() {
	now := d.now()
	mods := readModifiers()

	d.pollMouse(now, mods)
	d.pollTouches(now, mods)
	d.pollWheel(now, mods)
	d.pollKeys(now, mods)

	d.surface.Dispatch(RawEvent{Kind: RawTick, Time: now})
}

// pollMouse converts mouse button/cursor state into pointer 0 events.
func (d *EbitenDriver) pollMouse(now time.Time, mods KeyModifiers) {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)

	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		if left {
			button = MouseButtonLeft
		} else if right {
			button = MouseButtonRight
		} else {
			button = MouseButtonMiddle
		}
	}

	switch {
	case pressed && !d.mouseDown:
		d.mouseDown = true
		d.mouseBtn = button
		d.surface.Dispatch(RawEvent{
			Kind: RawPointerDown, Time: now, PointerID: 0,
			X: x, Y: y, Button: button, Mods: mods,
		})
	case !pressed && d.mouseDown:
		d.mouseDown = false
		d.surface.Dispatch(RawEvent{
			Kind: RawPointerUp, Time: now, PointerID: 0,
			X: x, Y: y, Button: d.mouseBtn, Mods: mods,
		})
	default:
		if x != d.lastMouseX || y != d.lastMouseY {
			d.surface.Dispatch(RawEvent{
				Kind: RawPointerMove, Time: now, PointerID: 0,
				X: x, Y: y, Button: d.mouseBtn, Mods: mods,
			})
		}
	}
	d.lastMouseX = x
	d.lastMouseY = y
}

// pollTouches maps ebiten touch IDs onto stable pointer slots 1-9 and
// emits down/move/up transitions for each.
func (d *EbitenDriver) pollTouches(now time.Time, mods KeyModifiers) {
	touchIDs := ebiten.AppendTouchIDs(d.prevTouchIDs[:0])
	d.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := d.touchSlot(tid)
		if slot < 0 {
			continue
		}
		tx, ty := ebiten.TouchPosition(tid)
		x, y := float64(tx), float64(ty)

		if !activeSlots[slot] && !d.slotWasActive(slot, tid) {
			d.surface.Dispatch(RawEvent{
				Kind: RawPointerDown, Time: now, PointerID: slot,
				X: x, Y: y, Button: MouseButtonLeft, Mods: mods,
			})
		} else if x != d.touchX[slot] || y != d.touchY[slot] {
			d.surface.Dispatch(RawEvent{
				Kind: RawPointerMove, Time: now, PointerID: slot,
				X: x, Y: y, Button: MouseButtonLeft, Mods: mods,
			})
		}
		activeSlots[slot] = true
		d.touchX[slot] = x
		d.touchY[slot] = y
	}

	// Release slots whose touch disappeared this frame.
	for i := 1; i < maxPointers; i++ {
		if d.touchUsed[i] && !activeSlots[i] {
			d.surface.Dispatch(RawEvent{
				Kind: RawPointerUp, Time: now, PointerID: i,
				X: d.touchX[i], Y: d.touchY[i], Button: MouseButtonLeft, Mods: mods,
			})
			d.touchUsed[i] = false
			d.touchMap[i] = 0
		}
	}
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (d *EbitenDriver) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if d.touchUsed[i] && d.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !d.touchUsed[i] {
			d.touchUsed[i] = true
			d.touchMap[i] = tid
			d.touchX[i] = -1
			d.touchY[i] = -1
			return i
		}
	}
	return -1
}

// slotWasActive reports whether slot already tracked tid before this frame
// (i.e. the allocation in touchSlot is not fresh).
func (d *EbitenDriver) slotWasActive(slot int, tid ebiten.TouchID) bool {
	return d.touchX[slot] >= 0 || d.touchY[slot] >= 0
}

// pollWheel emits a wheel event when the vertical wheel offset is nonzero.
func (d *EbitenDriver) pollWheel(now time.Time, mods KeyModifiers) {
	_, yoff := ebiten.Wheel()
	if yoff == 0 {
		return
	}
	mx, my := ebiten.CursorPosition()
	d.surface.Dispatch(RawEvent{
		Kind: RawWheel, Time: now, PointerID: 0,
		X: float64(mx), Y: float64(my), DeltaY: yoff, Mods: mods,
	})
}

// pollKeys emits key down/up transitions using inpututil.
func (d *EbitenDriver) pollKeys(now time.Time, mods KeyModifiers) {
	d.keyBuf = inpututil.AppendJustPressedKeys(d.keyBuf[:0])
	for _, k := range d.keyBuf {
		d.surface.Dispatch(RawEvent{
			Kind: RawKeyDown, Time: now, Key: normalizeKey(k), Mods: mods,
		})
	}
	d.keyBuf = inpututil.AppendJustReleasedKeys(d.keyBuf[:0])
	for _, k := range d.keyBuf {
		d.surface.Dispatch(RawEvent{
			Kind: RawKeyUp, Time: now, Key: normalizeKey(k), Mods: mods,
		})
	}
}

// normalizeKey converts an ebiten key to the engine's key names: single
// letters lowercased, everything else as ebiten names it.
func normalizeKey(k ebiten.Key) Key {
	name := k.String()
	if len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z' {
		return Key(name[0] | 0x20)
	}
	return Key(name)
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= ModMeta
	}
	return mods
}
