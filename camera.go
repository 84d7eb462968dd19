package vellum

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	// minCanvasZoom and maxCanvasZoom clamp every zoom path (wheel,
	// pinch, animated).
	minCanvasZoom = 0.05
	maxCanvasZoom = 20.0
)

// clampZoom restricts a scale factor to the supported zoom range.
func clampZoom(scale float64) float64 {
	return math.Max(minCanvasZoom, math.Min(scale, maxCanvasZoom))
}

// viewAnim holds active tweens for the camera's translate and zoom.
type viewAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	tweenZ *gween.Tween
	doneX  bool
	doneY  bool
	doneZ  bool
}

// Camera is the canvas viewport: a uniform zoom followed by a
// screen-space translation. It is the viewport collaborator behind the
// Controller contract; gestures mutate it only through
// UpdateCanvasTransform.
type Camera struct {
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in).
	Zoom float64
	// TranslateX and TranslateY are the screen-space offset of the
	// canvas origin.
	TranslateX float64
	TranslateY float64

	anim *viewAnim
}

// NewCamera creates a camera at 1:1 zoom with no translation.
func NewCamera() *Camera {
	return &Camera{Zoom: 1}
}

// View returns the camera's state as a ViewState snapshot.
func (c *Camera) View() ViewState {
	return ViewState{Scale: c.Zoom, TranslateX: c.TranslateX, TranslateY: c.TranslateY}
}

// SetView applies a ViewState, clamping the zoom.
func (c *Camera) SetView(v ViewState) {
	c.Zoom = clampZoom(scaleOf(v))
	c.TranslateX = v.TranslateX
	c.TranslateY = v.TranslateY
}

// ScreenToCanvas converts screen coordinates to canvas coordinates.
func (c *Camera) ScreenToCanvas(sx, sy float64) (cx, cy float64) {
	return (sx - c.TranslateX) / c.Zoom, (sy - c.TranslateY) / c.Zoom
}

// CanvasToScreen converts canvas coordinates to screen coordinates.
func (c *Camera) CanvasToScreen(cx, cy float64) (sx, sy float64) {
	return cx*c.Zoom + c.TranslateX, cy*c.Zoom + c.TranslateY
}

// ZoomAt multiplies the zoom by factor, keeping the canvas point under
// the given screen position fixed.
func (c *Camera) ZoomAt(sx, sy, factor float64) {
	next := clampZoom(c.Zoom * factor)
	f := next / c.Zoom
	c.TranslateX = sx - (sx-c.TranslateX)*f
	c.TranslateY = sy - (sy-c.TranslateY)*f
	c.Zoom = next
}

// ScrollTo animates the translation to the given screen offset over
// duration seconds. Any animation in flight is replaced.
func (c *Camera) ScrollTo(tx, ty float64, duration float32, easeFn ease.TweenFunc) {
	c.anim = &viewAnim{
		tweenX: gween.New(float32(c.TranslateX), float32(tx), duration, easeFn),
		tweenY: gween.New(float32(c.TranslateY), float32(ty), duration, easeFn),
		doneZ:  true,
	}
}

// ZoomTo animates the zoom to the given factor over duration seconds.
// Any animation in flight is replaced.
func (c *Camera) ZoomTo(target float64, duration float32, easeFn ease.TweenFunc) {
	c.anim = &viewAnim{
		tweenZ: gween.New(float32(c.Zoom), float32(clampZoom(target)), duration, easeFn),
		doneX:  true,
		doneY:  true,
	}
}

// CenterOn animates the viewport so the given canvas point lands at the
// given screen position at the current zoom.
func (c *Camera) CenterOn(canvasX, canvasY, screenX, screenY float64, duration float32, easeFn ease.TweenFunc) {
	c.ScrollTo(screenX-canvasX*c.Zoom, screenY-canvasY*c.Zoom, duration, easeFn)
}

// Update advances any active view animation by dt seconds. Returns true
// while an animation is running so the host knows to keep rendering.
func (c *Camera) Update(dt float32) bool {
	if c.anim == nil {
		return false
	}
	a := c.anim
	if !a.doneX {
		val, done := a.tweenX.Update(dt)
		c.TranslateX = float64(val)
		a.doneX = done
	}
	if !a.doneY {
		val, done := a.tweenY.Update(dt)
		c.TranslateY = float64(val)
		a.doneY = done
	}
	if !a.doneZ {
		val, done := a.tweenZ.Update(dt)
		c.Zoom = clampZoom(float64(val))
		a.doneZ = done
	}
	if a.doneX && a.doneY && a.doneZ {
		c.anim = nil
		return false
	}
	return true
}
