package vellum

import "sort"

// edgeLabelWidth/Height size an edge label's hit region, in screen pixels.
const (
	edgeLabelWidth  = 64.0
	edgeLabelHeight = 20.0
)

// Board is the reference Controller: an in-memory element and edge store
// with a selection set, a Camera viewport, and a snapshot History. It
// keeps the surface's hit index in sync with the model after every
// mutation. Hosts with their own document model implement Controller
// directly and skip Board entirely.
type Board struct {
	surface *Surface
	camera  *Camera
	history *History

	elements map[string]*Element
	edges    map[string]*Edge

	selection    map[string]bool
	selectionBox *Rect

	mode      Mode
	savedView ViewState
	nextZ     int

	editingElement string
	editingEdge    string

	renderRequested bool
	indexDirty      bool
}

// NewBoard creates an empty board bound to a surface's hit index. The
// empty state is recorded as the history baseline so the first undo has
// somewhere to land.
func NewBoard(surface *Surface) *Board {
	b := &Board{
		surface:   surface,
		camera:    NewCamera(),
		history:   NewHistory(0),
		elements:  make(map[string]*Element),
		edges:     make(map[string]*Edge),
		selection: make(map[string]bool),
	}
	b.savedView = b.camera.View()
	b.history.Push(b.snapshot("init"))
	return b
}

// Camera exposes the board's viewport.
func (b *Board) Camera() *Camera { return b.camera }

// History exposes the board's undo stack.
func (b *Board) History() *History { return b.history }

// Mode returns the board's notion of the current interaction mode, kept
// in sync by SwitchMode.
func (b *Board) Mode() Mode { return b.mode }

// View returns the current viewport snapshot. It is the getView hook for
// InstallPointerAdapter.
func (b *Board) View() ViewState { return b.camera.View() }

// AddElement inserts an element, assigning it the next z slot, and
// returns it for further setup.
func (b *Board) AddElement(el *Element) *Element {
	el.Z = b.nextZ
	b.nextZ++
	b.elements[el.ID] = el
	b.markDirty()
	return el
}

// RemoveElement deletes an element, its edges, and its selection entry.
func (b *Board) RemoveElement(id string) {
	delete(b.elements, id)
	delete(b.selection, id)
	for eid, e := range b.edges {
		if e.From == id || e.To == id {
			delete(b.edges, eid)
		}
	}
	b.markDirty()
}

// AddEdge inserts an edge between two existing elements.
func (b *Board) AddEdge(e *Edge) *Edge {
	b.edges[e.ID] = e
	b.markDirty()
	return e
}

// FindEdgeByID returns the edge with the given id, or nil.
func (b *Board) FindEdgeByID(id string) *Edge { return b.edges[id] }

// ElementCount returns how many elements the board holds.
func (b *Board) ElementCount() int { return len(b.elements) }

// AllElementIDs returns every element id in painter order (back to front).
func (b *Board) AllElementIDs() []string {
	ids := make([]string, 0, len(b.elements))
	for id := range b.elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, c := b.elements[ids[i]], b.elements[ids[j]]
		if a.Z != c.Z {
			return a.Z < c.Z
		}
		return ids[i] < ids[j]
	})
	return ids
}

// SelectionBox returns the active lasso rectangle, if any.
func (b *Board) SelectionBox() (Rect, bool) {
	if b.selectionBox == nil {
		return Rect{}, false
	}
	return *b.selectionBox, true
}

// EditingElement returns the id of the element whose inline editor is
// open, or "".
func (b *Board) EditingElement() string { return b.editingElement }

// EditingEdge returns the id of the edge whose label editor is open,
// or "".
func (b *Board) EditingEdge() string { return b.editingEdge }

// SavedView returns the last viewport snapshot captured by
// SaveLocalViewState.
func (b *Board) SavedView() ViewState { return b.savedView }

// ConsumeRenderRequest reports and clears the pending render flag. Hosts
// poll it once per frame.
func (b *Board) ConsumeRenderRequest() bool {
	r := b.renderRequested
	b.renderRequested = false
	return r
}

// Update advances camera animations and rebuilds the hit index when the
// model or viewport changed. Call once per frame with the frame delta in
// seconds.
func (b *Board) Update(dt float32) {
	if b.camera.Update(dt) {
		b.markDirty()
	}
	if b.indexDirty {
		b.rebuildIndex()
		b.indexDirty = false
	}
}

// --- Controller: lookup and conversion ---

// FindElementByID returns the element with the given id, or nil.
func (b *Board) FindElementByID(id string) *Element { return b.elements[id] }

// ScreenToCanvas converts screen coordinates through the camera.
func (b *Board) ScreenToCanvas(x, y float64) (float64, float64) {
	return b.camera.ScreenToCanvas(x, y)
}

// --- Controller: selection ---

// SelectElement adds an element to the selection, replacing it first
// unless additive.
func (b *Board) SelectElement(id string, additive bool) {
	if b.elements[id] == nil {
		return
	}
	if !additive {
		for k := range b.selection {
			delete(b.selection, k)
		}
	}
	b.selection[id] = true
	b.markDirty()
}

// ClearSelection empties the selection set.
func (b *Board) ClearSelection() {
	if len(b.selection) == 0 {
		return
	}
	for k := range b.selection {
		delete(b.selection, k)
	}
	b.markDirty()
}

// IsElementSelected reports whether an element is in the selection set.
func (b *Board) IsElementSelected(id string) bool { return b.selection[id] }

// SelectedIDs returns the selected element ids in a stable order.
func (b *Board) SelectedIDs() []string {
	ids := make([]string, 0, len(b.selection))
	for id := range b.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UpdateSelectionBox sets the lasso rectangle shown during a box select.
func (b *Board) UpdateSelectionBox(r Rect) {
	b.selectionBox = &r
	b.RequestRender()
}

// RemoveSelectionBox hides the lasso rectangle.
func (b *Board) RemoveSelectionBox() {
	b.selectionBox = nil
	b.RequestRender()
}

// GroupBBox returns the canvas-space bounding box of the selection.
func (b *Board) GroupBBox() (Rect, bool) {
	var box Rect
	first := true
	for id := range b.selection {
		el := b.elements[id]
		if el == nil {
			continue
		}
		eb := visualBounds(el)
		if first {
			box = eb
			first = false
			continue
		}
		box = box.Union(eb)
	}
	return box, !first
}

// ElementsIntersecting returns the ids of elements whose visual bounds
// intersect a canvas-space rectangle.
func (b *Board) ElementsIntersecting(r Rect) []string {
	var ids []string
	for id, el := range b.elements {
		if visualBounds(el).Intersects(r) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// --- Controller: rendering and viewport ---

// RequestRender flags that the host should redraw this frame.
func (b *Board) RequestRender() { b.renderRequested = true }

// UpdateCanvasTransform applies a viewport snapshot to the camera.
func (b *Board) UpdateCanvasTransform(v ViewState) {
	b.camera.SetView(v)
	b.markDirty()
}

// SaveLocalViewState captures the viewport for later restoration. The
// snapshot is a persistence seam; writing it anywhere durable is the
// host's business.
func (b *Board) SaveLocalViewState() { b.savedView = b.camera.View() }

// UpdateElementNode is called after a gesture mutated an element; the
// index rebuild picks up the new bounds.
func (b *Board) UpdateElementNode(el *Element) {
	if el == nil || b.elements[el.ID] == nil {
		return
	}
	b.markDirty()
}

// --- Controller: mode and history ---

// SwitchMode records the interaction mode the machine settled on.
func (b *Board) SwitchMode(m Mode) {
	b.mode = m
	b.RequestRender()
}

// Undo restores the previous snapshot, if any.
func (b *Board) Undo() {
	if snap, ok := b.history.Undo(); ok {
		b.restore(snap)
	}
}

// Redo reapplies the most recently undone snapshot, if any.
func (b *Board) Redo() {
	if snap, ok := b.history.Redo(); ok {
		b.restore(snap)
	}
}

// PushHistory records the current model under the given label.
func (b *Board) PushHistory(label string) {
	b.history.Push(b.snapshot(label))
}

// --- Controller: content mutation ---

// CreateElementAt inserts a new text element centered on a canvas point
// and returns its id.
func (b *Board) CreateElementAt(x, y float64) string {
	el := NewElement(ElementText, x, y)
	el.X -= el.Width / 2
	el.Y -= el.Height / 2
	b.AddElement(el)
	return el.ID
}

// CreateEdge connects two elements and returns the edge id, or "" when
// either end is unknown.
func (b *Board) CreateEdge(fromID, toID string) string {
	if b.elements[fromID] == nil || b.elements[toID] == nil {
		return ""
	}
	e := NewEdge(fromID, toID)
	b.AddEdge(e)
	return e.ID
}

// BeginElementEdit opens the inline editor for an element.
func (b *Board) BeginElementEdit(id string) {
	if b.elements[id] == nil {
		return
	}
	b.editingElement = id
	b.RequestRender()
}

// BeginEdgeLabelEdit opens the label editor for an edge.
func (b *Board) BeginEdgeLabelEdit(edgeID string) {
	if b.edges[edgeID] == nil {
		return
	}
	b.editingEdge = edgeID
	b.RequestRender()
}

// ReorderElement shifts an element's z position by delta steps.
func (b *Board) ReorderElement(id string, delta int) {
	el := b.elements[id]
	if el == nil || delta == 0 {
		return
	}
	el.Z += delta
	if el.Z < 0 {
		el.Z = 0
	}
	if el.Z >= b.nextZ {
		b.nextZ = el.Z + 1
	}
	b.markDirty()
}

// --- internals ---

func (b *Board) markDirty() {
	b.indexDirty = true
	b.renderRequested = true
}

// snapshot deep-copies the model under a label.
func (b *Board) snapshot(label string) Snapshot {
	snap := Snapshot{Label: label}
	for _, el := range b.elements {
		snap.Elements = append(snap.Elements, *el)
	}
	for _, e := range b.edges {
		snap.Edges = append(snap.Edges, *e)
	}
	return snap
}

// restore replaces the model with a snapshot, dropping selection entries
// for elements that no longer exist.
func (b *Board) restore(snap Snapshot) {
	b.elements = make(map[string]*Element, len(snap.Elements))
	b.nextZ = 0
	for i := range snap.Elements {
		el := snap.Elements[i]
		b.elements[el.ID] = &el
		if el.Z >= b.nextZ {
			b.nextZ = el.Z + 1
		}
	}
	b.edges = make(map[string]*Edge, len(snap.Edges))
	for i := range snap.Edges {
		e := snap.Edges[i]
		b.edges[e.ID] = &e
	}
	for id := range b.selection {
		if b.elements[id] == nil {
			delete(b.selection, id)
		}
	}
	b.markDirty()
}

// visualBounds is an element's canvas-space box with its scale applied
// around the center. Rotation is ignored for hit purposes.
func visualBounds(el *Element) Rect {
	w := el.Width * el.Scale
	h := el.Height * el.Scale
	cx := el.X + el.Width/2
	cy := el.Y + el.Height/2
	return Rect{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}

// rebuildIndex reprojects every model region into screen space.
func (b *Board) rebuildIndex() {
	ix := b.surface.Index()
	ix.Clear()

	for id, el := range b.elements {
		ix.SetElement(id, b.projectRect(visualBounds(el)), el.Z)
	}

	for id, e := range b.edges {
		if e.Label == "" {
			continue
		}
		from := b.elements[e.From]
		to := b.elements[e.To]
		if from == nil || to == nil {
			continue
		}
		fb, tb := visualBounds(from), visualBounds(to)
		mx := (fb.X + fb.Width/2 + tb.X + tb.Width/2) / 2
		my := (fb.Y + fb.Height/2 + tb.Y + tb.Height/2) / 2
		sx, sy := b.camera.CanvasToScreen(mx, my)
		ix.SetEdgeLabel(id, Rect{
			X:      sx - edgeLabelWidth/2,
			Y:      sy - edgeLabelHeight/2,
			Width:  edgeLabelWidth,
			Height: edgeLabelHeight,
		})
	}

	if box, ok := b.GroupBBox(); ok {
		ix.SetHandles(HandleZonesFor(b.projectRect(box)))
	} else {
		ix.SetHandles(nil)
	}
}

// projectRect converts a canvas-space rect to screen space.
func (b *Board) projectRect(r Rect) Rect {
	x, y := b.camera.CanvasToScreen(r.X, r.Y)
	return Rect{X: x, Y: y, Width: r.Width * b.camera.Zoom, Height: r.Height * b.camera.Zoom}
}
