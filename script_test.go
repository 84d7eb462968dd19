package vellum

import (
	"testing"
)

func newScriptFixture(t *testing.T) (*Surface, *Board, *Service) {
	t.Helper()
	surface := NewSurface()
	b := NewBoard(surface)
	s := NewService(b)
	s.logf = func(string, ...any) {}
	cleanup := InstallPointerAdapter(surface, s, b.View, b.SelectedIDs)
	t.Cleanup(cleanup)
	b.Update(0)
	return surface, b, s
}

func TestLoadGestureScriptErrors(t *testing.T) {
	surface := NewSurface()
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"steps": [`},
		{"no steps", `{"steps": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadGestureScript([]byte(tt.data), surface); err == nil {
				t.Errorf("LoadGestureScript(%q) succeeded, want error", tt.data)
			}
		})
	}
}

func TestScriptDragPans(t *testing.T) {
	surface, b, s := newScriptFixture(t)
	script := `{"steps": [
		{"action": "drag", "fromX": 100, "fromY": 100, "toX": 200, "toY": 160, "frames": 5}
	]}`
	r, err := LoadGestureScript([]byte(script), surface)
	if err != nil {
		t.Fatalf("LoadGestureScript: %v", err)
	}
	r.RunToCompletion(1000)

	if !r.Done() {
		t.Fatalf("script did not finish")
	}
	if s.Gesture() != GestureIdle {
		t.Fatalf("gesture = %v, want idle after drag", s.Gesture())
	}
	cam := b.Camera()
	if cam.TranslateX != 100 || cam.TranslateY != 60 {
		t.Fatalf("camera = (%v, %v), want (100, 60)", cam.TranslateX, cam.TranslateY)
	}
	if b.History().CurrentLabel() != "pan" {
		t.Fatalf("history label = %q, want pan", b.History().CurrentLabel())
	}
}

func TestScriptWheelSettlesDuringWait(t *testing.T) {
	surface, b, s := newScriptFixture(t)
	// 10 wait frames at 1/60s is ~167ms, past the 100ms wheel debounce.
	script := `{"steps": [
		{"action": "wheel", "x": 100, "y": 100, "deltaY": 2},
		{"action": "wait", "frames": 10}
	]}`
	r, err := LoadGestureScript([]byte(script), surface)
	if err != nil {
		t.Fatalf("LoadGestureScript: %v", err)
	}
	r.RunToCompletion(1000)

	if s.Gesture() != GestureIdle {
		t.Fatalf("wheel zoom did not settle during wait: %v", s.Gesture())
	}
	if b.Camera().Zoom <= 1 {
		t.Fatalf("zoom = %v, want > 1", b.Camera().Zoom)
	}
	if b.History().CurrentLabel() != "zoom" {
		t.Fatalf("history label = %q, want zoom", b.History().CurrentLabel())
	}
}

func TestScriptTapSelects(t *testing.T) {
	surface, b, _ := newScriptFixture(t)
	el := b.AddElement(&Element{ID: "a", X: 50, Y: 50, Width: 100, Height: 100, Scale: 1})
	b.Update(0)

	script := `{"steps": [
		{"action": "tap", "x": 100, "y": 100}
	]}`
	r, err := LoadGestureScript([]byte(script), surface)
	if err != nil {
		t.Fatalf("LoadGestureScript: %v", err)
	}
	r.RunToCompletion(100)

	if !b.IsElementSelected(el.ID) {
		t.Fatalf("scripted tap did not select the element: %v", b.SelectedIDs())
	}
}

func TestScriptKeyUndo(t *testing.T) {
	surface, b, _ := newScriptFixture(t)
	b.AddElement(&Element{ID: "a", X: 0, Y: 0, Width: 50, Height: 50, Scale: 1})
	b.PushHistory("create element")
	b.Update(0)

	script := `{"steps": [
		{"action": "key", "key": "z", "mods": ["ctrl"]}
	]}`
	r, err := LoadGestureScript([]byte(script), surface)
	if err != nil {
		t.Fatalf("LoadGestureScript: %v", err)
	}
	r.RunToCompletion(100)

	if b.ElementCount() != 0 {
		t.Fatalf("ctrl+z did not undo back to the empty baseline: %d elements", b.ElementCount())
	}
}

func TestScriptClockAdvancesPerFrame(t *testing.T) {
	surface := NewSurface()
	script := `{"steps": [{"action": "wait", "frames": 3}]}`
	r, err := LoadGestureScript([]byte(script), surface)
	if err != nil {
		t.Fatalf("LoadGestureScript: %v", err)
	}
	start := r.Now()
	frames := r.RunToCompletion(100)
	if frames != 3 {
		t.Fatalf("ran %d frames, want 3", frames)
	}
	if got := r.Now().Sub(start); got != 3*scriptFrameStep {
		t.Fatalf("clock advanced %v, want %v", got, 3*scriptFrameStep)
	}
}
