package vellum

import "testing"

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside", 50, 40, true},
		{"top-left corner", 10, 20, true},
		{"bottom-right corner", 110, 70, true},
		{"outside left", 5, 40, false},
		{"outside right", 115, 40, false},
		{"outside top", 50, 15, false},
		{"outside bottom", 50, 75, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Rect.Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRectIntersects(t *testing.T) {
	base := Rect{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"overlapping", Rect{X: 50, Y: 50, Width: 100, Height: 100}, true},
		{"contained", Rect{X: 25, Y: 25, Width: 10, Height: 10}, true},
		{"sharing an edge", Rect{X: 100, Y: 0, Width: 50, Height: 100}, true},
		{"disjoint", Rect{X: 200, Y: 200, Width: 10, Height: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.other); got != tt.want {
				t.Errorf("Intersects(%+v) = %v, want %v", tt.other, got, tt.want)
			}
			if got := tt.other.Intersects(base); got != tt.want {
				t.Errorf("Intersects is not symmetric for %+v", tt.other)
			}
		})
	}
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 50, Height: 50}
	b := Rect{X: 100, Y: 25, Width: 50, Height: 100}
	got := a.Union(b)
	want := Rect{X: 0, Y: 0, Width: 150, Height: 125}
	if got != want {
		t.Fatalf("Union = %+v, want %+v", got, want)
	}
}

func TestRectFromCorners(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec2
		want Rect
	}{
		{"top-left to bottom-right", Vec2{X: 10, Y: 10}, Vec2{X: 60, Y: 40}, Rect{X: 10, Y: 10, Width: 50, Height: 30}},
		{"bottom-right to top-left", Vec2{X: 60, Y: 40}, Vec2{X: 10, Y: 10}, Rect{X: 10, Y: 10, Width: 50, Height: 30}},
		{"degenerate", Vec2{X: 5, Y: 5}, Vec2{X: 5, Y: 5}, Rect{X: 5, Y: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RectFromCorners(tt.a, tt.b); got != tt.want {
				t.Errorf("RectFromCorners(%+v, %+v) = %+v, want %+v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestModeToggled(t *testing.T) {
	if ModeNavigate.Toggled() != ModeDirect || ModeDirect.Toggled() != ModeNavigate {
		t.Fatalf("Toggled is not an involution")
	}
	if ModeNavigate.String() != "navigate" || ModeDirect.String() != "direct" {
		t.Fatalf("mode names = %q, %q", ModeNavigate.String(), ModeDirect.String())
	}
}

func TestGestureNamesComplete(t *testing.T) {
	for g := GestureIdle; g <= GestureWheelZoom; g++ {
		if g.String() == "unknown" {
			t.Errorf("gesture %d has no name", g)
		}
	}
	if Gesture(200).String() != "unknown" {
		t.Errorf("out-of-range gesture has a name")
	}
}

func TestElementDefaults(t *testing.T) {
	el := NewElement(ElementMarkdown, 10, 20)
	if el.ID == "" {
		t.Fatalf("element has no id")
	}
	if el.Scale != 1 || el.Width <= 0 || el.Height <= 0 {
		t.Fatalf("bad defaults: %+v", el)
	}
	other := NewElement(ElementText, 0, 0)
	if other.ID == el.ID {
		t.Fatalf("ids not unique: %q", el.ID)
	}
}
