package vellum

import (
	"testing"
	"time"
)

// newAdapterFixture wires a surface, adapter, machine, and mock
// controller together the way a host would.
func newAdapterFixture(t *testing.T) (*Surface, *Service, *mockController) {
	t.Helper()
	surface := NewSurface()
	ctrl := newMockController()
	s := NewService(ctrl)
	s.logf = func(string, ...any) {}
	cleanup := InstallPointerAdapter(surface, s,
		func() ViewState { return ctrl.view }, ctrl.SelectedIDs)
	t.Cleanup(cleanup)
	return surface, s, ctrl
}

func rawDown(surface *Surface, at time.Time, id int, x, y float64) {
	surface.Dispatch(RawEvent{Kind: RawPointerDown, Time: at, PointerID: id, X: x, Y: y})
}

func rawMove(surface *Surface, at time.Time, id int, x, y float64) {
	surface.Dispatch(RawEvent{Kind: RawPointerMove, Time: at, PointerID: id, X: x, Y: y})
}

func rawUp(surface *Surface, at time.Time, id int, x, y float64) {
	surface.Dispatch(RawEvent{Kind: RawPointerUp, Time: at, PointerID: id, X: x, Y: y})
}

func rawTap(surface *Surface, at time.Time, x, y float64) {
	rawDown(surface, at, 0, x, y)
	rawUp(surface, at.Add(20*time.Millisecond), 0, x, y)
}

// --- Hit classification ---

func TestAdapterTapSelectsHitElement(t *testing.T) {
	surface, _, ctrl := newAdapterFixture(t)
	ctrl.addElement("a", 0, 0, 100, 100)
	surface.Index().SetElement("a", Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0)

	t0 := time.Unix(100, 0)
	rawTap(surface, t0, 50, 50)
	if !ctrl.selected["a"] {
		t.Fatalf("tap over indexed element did not select it: %v", ctrl.SelectedIDs())
	}
}

func TestAdapterCapturesPointerForContact(t *testing.T) {
	surface, _, _ := newAdapterFixture(t)
	t0 := time.Unix(100, 0)
	rawDown(surface, t0, 0, 10, 10)
	if !surface.HasPointerCapture(0) {
		t.Fatalf("pointer not captured after down")
	}
	rawUp(surface, t0.Add(time.Second), 0, 10, 10)
	if surface.HasPointerCapture(0) {
		t.Fatalf("pointer still captured after up")
	}
}

func TestAdapterCleanupReleasesCaptures(t *testing.T) {
	surface := NewSurface()
	ctrl := newMockController()
	s := NewService(ctrl)
	s.logf = func(string, ...any) {}
	cleanup := InstallPointerAdapter(surface, s, nil, nil)

	rawDown(surface, time.Unix(100, 0), 0, 10, 10)
	if s.Gesture() == GestureIdle {
		t.Fatalf("setup: down did not start a gesture")
	}
	cleanup()
	if surface.HasPointerCapture(0) {
		t.Fatalf("cleanup left pointer captured")
	}
	// Cleanup cancels the tracked contact, so the machine settles too.
	if s.Gesture() != GestureIdle {
		t.Fatalf("machine not settled by cleanup: gesture = %v", s.Gesture())
	}
	if len(s.ctx.Pointers) != 0 {
		t.Fatalf("cleanup left pointers in the machine: %v", s.ctx.Pointers)
	}
	// A removed listener receives nothing.
	rawDown(surface, time.Unix(101, 0), 0, 10, 10)
	if s.Gesture() != GestureIdle {
		t.Fatalf("event reached machine after cleanup: gesture = %v", s.Gesture())
	}
}

// --- Double tap ---

func TestDoubleTapTiming(t *testing.T) {
	tests := []struct {
		name      string
		delay     time.Duration
		dist      float64
		wantFires bool
	}{
		{"within both windows", 299 * time.Millisecond, 10.0, true},
		{"too late", 301 * time.Millisecond, 0, false},
		{"too far", 299 * time.Millisecond, 10.1, false},
		{"at time limit", 300 * time.Millisecond, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface, _, ctrl := newAdapterFixture(t)
			t0 := time.Unix(100, 0)
			rawTap(surface, t0, 100, 100)
			// Delay is measured between the two tap starts.
			rawTap(surface, t0.Add(tt.delay), 100+tt.dist, 100)

			fired := len(ctrl.created) == 1
			if fired != tt.wantFires {
				t.Errorf("double tap fired = %v, want %v (created %d)", fired, tt.wantFires, len(ctrl.created))
			}
		})
	}
}

func TestDoubleTapMemoryResets(t *testing.T) {
	surface, _, ctrl := newAdapterFixture(t)
	t0 := time.Unix(100, 0)

	// Three rapid taps: the first two form a double tap, the third starts
	// a fresh tap memory and must not fire.
	rawTap(surface, t0, 100, 100)
	rawTap(surface, t0.Add(150*time.Millisecond), 100, 100)
	rawTap(surface, t0.Add(300*time.Millisecond), 100, 100)
	if len(ctrl.created) != 1 {
		t.Fatalf("three taps created %d elements, want 1", len(ctrl.created))
	}

	// A fourth tap pairs with the third.
	rawTap(surface, t0.Add(450*time.Millisecond), 100, 100)
	if len(ctrl.created) != 2 {
		t.Fatalf("four taps created %d elements, want 2", len(ctrl.created))
	}
}

func TestDoubleTapSuppressedByDrag(t *testing.T) {
	surface, _, ctrl := newAdapterFixture(t)
	t0 := time.Unix(100, 0)
	rawTap(surface, t0, 100, 100)

	// Second press in the window, but it drags away before release.
	rawDown(surface, t0.Add(100*time.Millisecond), 0, 100, 100)
	rawMove(surface, t0.Add(120*time.Millisecond), 0, 160, 100)
	rawUp(surface, t0.Add(140*time.Millisecond), 0, 160, 100)

	if len(ctrl.created) != 0 {
		t.Fatalf("dragged second tap still fired double tap")
	}
}

// --- Long press ---

func TestLongPressFiresAfterHold(t *testing.T) {
	surface, s, ctrl := newAdapterFixture(t)
	ctrl.addElement("a", 0, 0, 100, 100)
	surface.Index().SetElement("a", Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0)

	t0 := time.Unix(100, 0)
	rawDown(surface, t0, 0, 50, 50)
	surface.Dispatch(RawEvent{Kind: RawTick, Time: t0.Add(599 * time.Millisecond)})
	if ctrl.mode == ModeDirect {
		t.Fatalf("long press fired before its delay")
	}
	surface.Dispatch(RawEvent{Kind: RawTick, Time: t0.Add(600 * time.Millisecond)})
	if !ctrl.selected["a"] || ctrl.mode != ModeDirect {
		t.Fatalf("long press did not select and switch mode: selected=%v mode=%v", ctrl.SelectedIDs(), ctrl.mode)
	}
	if s.Gesture() != GesturePressPendingDirect {
		t.Fatalf("gesture = %v, want pressPendingDirect", s.Gesture())
	}
}

func TestLongPressSuppressedByMove(t *testing.T) {
	surface, _, ctrl := newAdapterFixture(t)
	ctrl.addElement("a", 0, 0, 100, 100)
	surface.Index().SetElement("a", Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0)

	t0 := time.Unix(100, 0)
	rawDown(surface, t0, 0, 50, 50)
	rawMove(surface, t0.Add(100*time.Millisecond), 0, 60, 50) // beyond deadzone
	surface.Dispatch(RawEvent{Kind: RawTick, Time: t0.Add(700 * time.Millisecond)})

	if len(ctrl.selected) != 0 {
		t.Fatalf("moved press still long-press selected: %v", ctrl.SelectedIDs())
	}
	if ctrl.mode == ModeDirect {
		t.Fatalf("moved press still switched mode")
	}
}

func TestLongPressSuppressedBySecondPointer(t *testing.T) {
	surface, s, ctrl := newAdapterFixture(t)
	ctrl.addElement("a", 0, 0, 100, 100)
	surface.Index().SetElement("a", Rect{X: 0, Y: 0, Width: 100, Height: 100}, 0)

	t0 := time.Unix(100, 0)
	rawDown(surface, t0, 0, 50, 50)
	rawDown(surface, t0.Add(50*time.Millisecond), 1, 200, 200)
	surface.Dispatch(RawEvent{Kind: RawTick, Time: t0.Add(700 * time.Millisecond)})

	if len(ctrl.selected) != 0 {
		t.Fatalf("two-pointer press still long-press selected")
	}
	if s.Gesture() != GesturePinchCanvas {
		t.Fatalf("gesture = %v, want pinchCanvas", s.Gesture())
	}
}

// --- Keyboard ---

func TestUndoRedoShortcuts(t *testing.T) {
	surface, s, ctrl := newAdapterFixture(t)
	t0 := time.Unix(100, 0)

	surface.Dispatch(RawEvent{Kind: RawKeyDown, Time: t0, Key: KeyZ, Mods: ModCtrl})
	surface.Dispatch(RawEvent{Kind: RawKeyUp, Time: t0, Key: KeyZ, Mods: ModCtrl})
	if ctrl.undos != 1 {
		t.Fatalf("undos = %d, want 1", ctrl.undos)
	}

	surface.Dispatch(RawEvent{Kind: RawKeyDown, Time: t0, Key: KeyZ, Mods: ModCtrl | ModShift})
	surface.Dispatch(RawEvent{Kind: RawKeyUp, Time: t0, Key: KeyZ, Mods: ModCtrl | ModShift})
	if ctrl.redos != 1 {
		t.Fatalf("redos = %d, want 1", ctrl.redos)
	}

	// Meta works as the shortcut modifier too.
	surface.Dispatch(RawEvent{Kind: RawKeyDown, Time: t0, Key: KeyZ, Mods: ModMeta})
	surface.Dispatch(RawEvent{Kind: RawKeyUp, Time: t0, Key: KeyZ, Mods: ModMeta})
	if ctrl.undos != 2 {
		t.Fatalf("meta+z undos = %d, want 2", ctrl.undos)
	}

	// A plain z press is not a shortcut and must not undo or toggle mode.
	surface.Dispatch(RawEvent{Kind: RawKeyDown, Time: t0, Key: KeyZ})
	surface.Dispatch(RawEvent{Kind: RawKeyUp, Time: t0, Key: KeyZ})
	if ctrl.undos != 2 {
		t.Fatalf("plain z triggered undo")
	}
	if s.Mode() != ModeNavigate {
		t.Fatalf("plain z toggled mode")
	}
}

func TestEscapeKeyTogglesModeThroughAdapter(t *testing.T) {
	surface, s, _ := newAdapterFixture(t)
	t0 := time.Unix(100, 0)
	surface.Dispatch(RawEvent{Kind: RawKeyDown, Time: t0, Key: KeyEscape})
	surface.Dispatch(RawEvent{Kind: RawKeyUp, Time: t0, Key: KeyEscape})
	if s.Mode() != ModeDirect {
		t.Fatalf("escape through adapter did not toggle mode")
	}
}

// --- Robustness ---

func TestAdapterIgnoresUntrackedPointers(t *testing.T) {
	surface, s, _ := newAdapterFixture(t)
	t0 := time.Unix(100, 0)

	// Up and move without a down are dropped before they reach the machine.
	rawUp(surface, t0, 4, 10, 10)
	rawMove(surface, t0, 4, 20, 20)
	if s.Gesture() != GestureIdle {
		t.Fatalf("untracked events reached the machine: gesture = %v", s.Gesture())
	}
	if len(s.ctx.Pointers) != 0 {
		t.Fatalf("untracked events polluted the pointer map: %v", s.ctx.Pointers)
	}
}

func TestPointerCancelTreatedAsUp(t *testing.T) {
	surface, s, _ := newAdapterFixture(t)
	t0 := time.Unix(100, 0)
	rawDown(surface, t0, 0, 100, 100)
	rawMove(surface, t0.Add(16*time.Millisecond), 0, 150, 100)
	if s.Gesture() != GesturePanCanvas {
		t.Fatalf("setup: gesture = %v", s.Gesture())
	}
	surface.Dispatch(RawEvent{Kind: RawPointerCancel, Time: t0.Add(32 * time.Millisecond), PointerID: 0, X: 150, Y: 100})
	if s.Gesture() != GestureIdle {
		t.Fatalf("cancel did not settle the gesture: %v", s.Gesture())
	}
	if surface.HasPointerCapture(0) {
		t.Fatalf("cancel left the pointer captured")
	}
}

// TestWheelSettlesWithinFrameBudget drives the wheel-idle debounce on the
// frame clock: after the last notch the machine must be idle again within
// 100-150ms of frame ticks.
func TestWheelSettlesWithinFrameBudget(t *testing.T) {
	surface, s, _ := newAdapterFixture(t)
	t0 := time.Unix(100, 0)
	surface.Dispatch(RawEvent{Kind: RawWheel, Time: t0, X: 100, Y: 100, DeltaY: 1})

	frame := 16 * time.Millisecond
	settled := time.Duration(0)
	for i := 1; i <= 12; i++ {
		at := time.Duration(i) * frame
		surface.Dispatch(RawEvent{Kind: RawTick, Time: t0.Add(at)})
		if s.Gesture() == GestureIdle {
			settled = at
			break
		}
	}
	if settled == 0 {
		t.Fatalf("wheel zoom never settled")
	}
	if settled < 100*time.Millisecond || settled > 150*time.Millisecond {
		t.Fatalf("settled after %v, want within [100ms, 150ms]", settled)
	}
}
