package vellum

import (
	"fmt"
	"log"
	"math"
)

// ActionID names one entry in the action bridge table.
type ActionID string

const (
	ActionSwitchMode      ActionID = "switchMode"
	ActionTapSelect       ActionID = "tapSelect"
	ActionLongPressSelect ActionID = "longPressSelect"

	ActionPanCanvas ActionID = "panCanvas"
	ActionPanEnd    ActionID = "panEnd"

	ActionPinchCanvas    ActionID = "pinchCanvas"
	ActionPinchCanvasEnd ActionID = "pinchCanvasEnd"
	ActionPinchGroup     ActionID = "pinchGroup"
	ActionPinchGroupEnd  ActionID = "pinchGroupEnd"

	ActionMoveGroup    ActionID = "moveGroup"
	ActionMoveGroupEnd ActionID = "moveGroupEnd"

	ActionLassoUpdate ActionID = "lassoUpdate"
	ActionLassoEnd    ActionID = "lassoEnd"
	ActionLassoCancel ActionID = "lassoCancel"

	ActionResizeElement  ActionID = "resizeElement"
	ActionResizeEnd      ActionID = "resizeEnd"
	ActionScaleElement   ActionID = "scaleElement"
	ActionScaleEnd       ActionID = "scaleEnd"
	ActionRotateElement  ActionID = "rotateElement"
	ActionRotateEnd      ActionID = "rotateEnd"
	ActionReorderElement ActionID = "reorderElement"
	ActionReorderEnd     ActionID = "reorderEnd"

	ActionConnectPreview ActionID = "connectPreview"
	ActionCreateEdge     ActionID = "createEdge"
	ActionCreateNode     ActionID = "createNode"

	ActionSpawnElement  ActionID = "spawnElement"
	ActionEditElement   ActionID = "editElement"
	ActionEditEdgeLabel ActionID = "editEdgeLabel"

	ActionWheelZoom    ActionID = "wheelZoom"
	ActionWheelZoomEnd ActionID = "wheelZoomEnd"
)

type actionFunc func(s *Service, ev Event) error

// actions is the flat action table: one entry per gesture effect. Each
// action reads only from the draft and the Controller contract. End
// actions push their history snapshot last, so a failed action never
// records partial state as a completed user operation.
var actions = map[ActionID]actionFunc{
	ActionSwitchMode:      actionSwitchMode,
	ActionTapSelect:       actionTapSelect,
	ActionLongPressSelect: actionLongPressSelect,

	ActionPanCanvas: actionPanCanvas,
	ActionPanEnd:    actionPanEnd,

	ActionPinchCanvas:    actionPinchCanvas,
	ActionPinchCanvasEnd: actionPinchCanvasEnd,
	ActionPinchGroup:     actionPinchGroup,
	ActionPinchGroupEnd:  actionPinchGroupEnd,

	ActionMoveGroup:    actionMoveGroup,
	ActionMoveGroupEnd: actionMoveGroupEnd,

	ActionLassoUpdate: actionLassoUpdate,
	ActionLassoEnd:    actionLassoEnd,
	ActionLassoCancel: actionLassoCancel,

	ActionResizeElement:  actionResizeElement,
	ActionResizeEnd:      makeSnapshot("resize element"),
	ActionScaleElement:   actionScaleElement,
	ActionScaleEnd:       makeSnapshot("scale element"),
	ActionRotateElement:  actionRotateElement,
	ActionRotateEnd:      makeSnapshot("rotate element"),
	ActionReorderElement: actionReorderElement,
	ActionReorderEnd:     makeSnapshot("reorder element"),

	ActionConnectPreview: actionConnectPreview,
	ActionCreateEdge:     actionCreateEdge,
	ActionCreateNode:     actionCreateNode,

	ActionSpawnElement:  actionSpawnElement,
	ActionEditElement:   actionEditElement,
	ActionEditEdgeLabel: actionEditEdgeLabel,

	ActionWheelZoom:    actionWheelZoom,
	ActionWheelZoomEnd: actionWheelZoomEnd,
}

// invoke runs one action through the uniform error wrapper. A failure is
// logged and re-injected as an ERROR event rather than propagating; the
// transition that triggered the action still completes.
func (s *Service) invoke(id ActionID, ev Event) {
	fn, ok := actions[id]
	if !ok {
		s.logf("vellum: unknown action %q", id)
		return
	}
	if err := runAction(fn, s, ev); err != nil {
		s.logf("vellum: action %q failed: %v", id, err)
		s.queue = append(s.queue, Event{
			Type: EventError, Time: ev.Time,
			ActionName: string(id), Err: err,
		})
	}
}

// runAction converts panics in an action into errors so nothing in the
// engine is fatal to the process.
func runAction(fn actionFunc, s *Service, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(s, ev)
}

func logPrintf(format string, args ...any) {
	log.Printf(format, args...)
}

// --- Shared geometry ---

// pinchGeometry computes inter-pointer distance, angle, and centroid.
func pinchGeometry(p0, p1 PointerRecord) (dist, angle float64, centroid Vec2) {
	dx := p1.X - p0.X
	dy := p1.Y - p0.Y
	dist = math.Sqrt(dx*dx + dy*dy)
	angle = math.Atan2(dy, dx)
	centroid = Vec2{X: (p0.X + p1.X) / 2, Y: (p0.Y + p1.Y) / 2}
	return
}

// pinchPointers fetches the two tracked pinch pointers from the context.
func pinchPointers(s *Service) (p0, p1 PointerRecord, ok bool) {
	d := &s.ctx.Draft
	p0, ok0 := s.ctx.Pointers[d.pinchIDs[0]]
	p1, ok1 := s.ctx.Pointers[d.pinchIDs[1]]
	return p0, p1, ok0 && ok1
}

// scaleOf returns a view's scale, treating an uninitialized view as 1:1.
func scaleOf(v ViewState) float64 {
	if v.Scale > 0 {
		return v.Scale
	}
	return 1
}

// makeSnapshot builds an end action that only records a history snapshot.
func makeSnapshot(label string) actionFunc {
	return func(s *Service, ev Event) error {
		s.ctx.Controller.PushHistory(label)
		return nil
	}
}

// --- Mode and selection ---

func actionSwitchMode(s *Service, ev Event) error {
	s.ctx.Controller.SwitchMode(s.mode)
	s.ctx.Controller.RequestRender()
	return nil
}

func actionTapSelect(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	if d.hitElement {
		ctrl.SelectElement(d.elementID, ev.Mods&ModShift != 0)
	} else {
		ctrl.ClearSelection()
	}
	ctrl.RequestRender()
	return nil
}

func actionLongPressSelect(s *Service, ev Event) error {
	ctrl := s.ctx.Controller
	ctrl.SelectElement(s.ctx.Draft.elementID, false)
	ctrl.SwitchMode(ModeDirect)
	ctrl.RequestRender()
	return nil
}

// --- Pan ---

func actionPanCanvas(s *Service, ev Event) error {
	d := &s.ctx.Draft
	v := d.startView
	s.ctx.Controller.UpdateCanvasTransform(ViewState{
		Scale:      scaleOf(v),
		TranslateX: v.TranslateX + ev.X - d.start.X,
		TranslateY: v.TranslateY + ev.Y - d.start.Y,
	})
	s.ctx.Controller.RequestRender()
	return nil
}

func actionPanEnd(s *Service, ev Event) error {
	s.ctx.Controller.SaveLocalViewState()
	s.ctx.Controller.PushHistory("pan")
	return nil
}

// --- Pinch ---

func actionPinchCanvas(s *Service, ev Event) error {
	d := &s.ctx.Draft
	p0, p1, ok := pinchPointers(s)
	if !ok || d.pinchDist <= 0 {
		return nil
	}
	dist, _, centroid := pinchGeometry(p0, p1)
	start := scaleOf(d.startView)
	scale := clampZoom(start * dist / d.pinchDist)
	f := scale / start
	s.ctx.Controller.UpdateCanvasTransform(ViewState{
		Scale:      scale,
		TranslateX: centroid.X - (d.pinchCentroid.X-d.startView.TranslateX)*f,
		TranslateY: centroid.Y - (d.pinchCentroid.Y-d.startView.TranslateY)*f,
	})
	s.ctx.Controller.RequestRender()
	return nil
}

func actionPinchCanvasEnd(s *Service, ev Event) error {
	s.ctx.Controller.SaveLocalViewState()
	s.ctx.Controller.PushHistory("pinch zoom")
	return nil
}

func actionPinchGroup(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	p0, p1, ok := pinchPointers(s)
	if !ok || d.pinchDist <= 0 {
		return nil
	}
	dist, angle, centroid := pinchGeometry(p0, p1)
	f := dist / d.pinchDist
	dr := angle - d.pinchAngle
	viewScale := scaleOf(ev.View)
	cdx := (centroid.X - d.pinchCentroid.X) / viewScale
	cdy := (centroid.Y - d.pinchCentroid.Y) / viewScale
	sin, cos := math.Sincos(dr)

	for id, st := range d.starts {
		el := ctrl.FindElementByID(id)
		if el == nil {
			continue
		}
		offX := st.X - d.groupCenter.X
		offY := st.Y - d.groupCenter.Y
		el.X = d.groupCenter.X + cdx + (offX*cos-offY*sin)*f
		el.Y = d.groupCenter.Y + cdy + (offX*sin+offY*cos)*f
		el.Scale = st.Scale * f
		el.Rotation = st.Rotation + dr
		ctrl.UpdateElementNode(el)
	}
	ctrl.RequestRender()
	return nil
}

func actionPinchGroupEnd(s *Service, ev Event) error {
	s.ctx.Controller.PushHistory("group transform")
	return nil
}

// --- Group move ---

func actionMoveGroup(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	scale := scaleOf(ev.View)
	dx := (ev.X - d.start.X) / scale
	dy := (ev.Y - d.start.Y) / scale
	for id, st := range d.starts {
		el := ctrl.FindElementByID(id)
		if el == nil {
			continue
		}
		el.X = st.X + dx
		el.Y = st.Y + dy
		ctrl.UpdateElementNode(el)
	}
	ctrl.RequestRender()
	return nil
}

func actionMoveGroupEnd(s *Service, ev Event) error {
	s.ctx.Controller.PushHistory("group move")
	return nil
}

// --- Lasso ---

func actionLassoUpdate(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	cx, cy := ctrl.ScreenToCanvas(ev.X, ev.Y)
	r := RectFromCorners(d.anchor, Vec2{X: cx, Y: cy})
	ctrl.UpdateSelectionBox(r)
	ctrl.ClearSelection()
	for _, id := range ctrl.ElementsIntersecting(r) {
		ctrl.SelectElement(id, true)
	}
	ctrl.RequestRender()
	return nil
}

func actionLassoEnd(s *Service, ev Event) error {
	s.ctx.Controller.RemoveSelectionBox()
	s.ctx.Controller.RequestRender()
	return nil
}

func actionLassoCancel(s *Service, ev Event) error {
	s.ctx.Controller.RemoveSelectionBox()
	s.ctx.Controller.RequestRender()
	return nil
}

// --- Single-element handle gestures ---

func actionResizeElement(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	el := ctrl.FindElementByID(d.elementID)
	if el == nil {
		return nil
	}
	scale := scaleOf(ev.View)
	el.Width = math.Max(minElementSize, d.startBounds.Width+(ev.X-d.start.X)/scale)
	el.Height = math.Max(minElementSize, d.startBounds.Height+(ev.Y-d.start.Y)/scale)
	ctrl.UpdateElementNode(el)
	ctrl.RequestRender()
	return nil
}

func actionScaleElement(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	el := ctrl.FindElementByID(d.elementID)
	if el == nil {
		return nil
	}
	center := Vec2{
		X: d.startBounds.X + d.startBounds.Width/2,
		Y: d.startBounds.Y + d.startBounds.Height/2,
	}
	sx, sy := ctrl.ScreenToCanvas(d.start.X, d.start.Y)
	cx, cy := ctrl.ScreenToCanvas(ev.X, ev.Y)
	ref := center.Dist(Vec2{X: sx, Y: sy})
	if ref < 1e-6 {
		return nil
	}
	f := center.Dist(Vec2{X: cx, Y: cy}) / ref
	el.Scale = math.Max(0.05, d.startScale*f)
	ctrl.UpdateElementNode(el)
	ctrl.RequestRender()
	return nil
}

func actionRotateElement(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	el := ctrl.FindElementByID(d.elementID)
	if el == nil {
		return nil
	}
	center := Vec2{
		X: d.startBounds.X + d.startBounds.Width/2,
		Y: d.startBounds.Y + d.startBounds.Height/2,
	}
	sx, sy := ctrl.ScreenToCanvas(d.start.X, d.start.Y)
	cx, cy := ctrl.ScreenToCanvas(ev.X, ev.Y)
	a0 := math.Atan2(sy-center.Y, sx-center.X)
	a1 := math.Atan2(cy-center.Y, cx-center.X)
	el.Rotation = d.startRotation + (a1 - a0)
	ctrl.UpdateElementNode(el)
	ctrl.RequestRender()
	return nil
}

func actionReorderElement(s *Service, ev Event) error {
	d := &s.ctx.Draft
	steps := int((d.start.Y - ev.Y) / reorderStepPixels)
	if steps != d.reorderApplied {
		s.ctx.Controller.ReorderElement(d.elementID, steps-d.reorderApplied)
		d.reorderApplied = steps
		s.ctx.Controller.RequestRender()
	}
	return nil
}

// --- Edge / node creation ---

func actionConnectPreview(s *Service, ev Event) error {
	s.ctx.Controller.RequestRender()
	return nil
}

func actionCreateEdge(s *Service, ev Event) error {
	d := &s.ctx.Draft
	if d.sourceID == "" || !ev.HitElement || ev.ElementID == d.sourceID {
		return nil // released over nothing connectable: gesture abandoned
	}
	ctrl := s.ctx.Controller
	ctrl.CreateEdge(d.sourceID, ev.ElementID)
	ctrl.RequestRender()
	ctrl.PushHistory("create edge")
	return nil
}

func actionCreateNode(s *Service, ev Event) error {
	d := &s.ctx.Draft
	ctrl := s.ctx.Controller
	cx, cy := ctrl.ScreenToCanvas(ev.X, ev.Y)
	id := ctrl.CreateElementAt(cx, cy)
	if id == "" {
		return fmt.Errorf("create node at (%.1f, %.1f): controller returned no id", cx, cy)
	}
	if d.sourceID != "" {
		ctrl.CreateEdge(d.sourceID, id)
	}
	ctrl.SelectElement(id, false)
	ctrl.RequestRender()
	ctrl.PushHistory("create node")
	return nil
}

// --- Double tap ---

func actionSpawnElement(s *Service, ev Event) error {
	ctrl := s.ctx.Controller
	cx, cy := ctrl.ScreenToCanvas(ev.X, ev.Y)
	id := ctrl.CreateElementAt(cx, cy)
	if id == "" {
		return fmt.Errorf("spawn element at (%.1f, %.1f): controller returned no id", cx, cy)
	}
	ctrl.SelectElement(id, false)
	ctrl.RequestRender()
	ctrl.PushHistory("create element")
	return nil
}

func actionEditElement(s *Service, ev Event) error {
	ctrl := s.ctx.Controller
	ctrl.SwitchMode(ModeDirect)
	ctrl.SelectElement(ev.ElementID, false)
	ctrl.BeginElementEdit(ev.ElementID)
	ctrl.RequestRender()
	return nil
}

func actionEditEdgeLabel(s *Service, ev Event) error {
	s.ctx.Controller.BeginEdgeLabelEdit(ev.EdgeID)
	s.ctx.Controller.RequestRender()
	return nil
}

// --- Wheel zoom ---

func actionWheelZoom(s *Service, ev Event) error {
	v := ev.View
	start := scaleOf(v)
	scale := clampZoom(start * math.Pow(wheelZoomStep, ev.DeltaY))
	f := scale / start
	s.ctx.Controller.UpdateCanvasTransform(ViewState{
		Scale:      scale,
		TranslateX: ev.X - (ev.X-v.TranslateX)*f,
		TranslateY: ev.Y - (ev.Y-v.TranslateY)*f,
	})
	s.ctx.Controller.RequestRender()
	return nil
}

func actionWheelZoomEnd(s *Service, ev Event) error {
	s.ctx.Controller.SaveLocalViewState()
	s.ctx.Controller.PushHistory("zoom")
	return nil
}
