package vellum

import "sort"

// handleGrip is the side length of a square handle zone, in screen pixels.
const handleGrip = 12.0

// rotateGripOffset is how far above the selection bbox the rotate grip sits.
const rotateGripOffset = 20.0

// Hit is the result of classifying a screen point against the index.
// Element hit and handle classification are independent: a handle zone can
// overlap an element or float over blank canvas, and both results attach
// to the same canonical event.
type Hit struct {
	Element   bool
	ElementID string
	Handle    Handle
	EdgeLabel bool
	EdgeID    string
}

// HandleZone is one interactive grip in screen space.
type HandleZone struct {
	Handle Handle
	Bounds Rect
}

type elementRegion struct {
	id     string
	bounds Rect
	z      int
}

type labelRegion struct {
	edgeID string
	bounds Rect
}

// ElementIndex is the screen-space hit-test index the adapter classifies
// pointer events against. The host keeps it in sync with what it renders:
// element bounds re-registered after transforms, handle zones rebuilt when
// the selection changes. Queries are stateless.
type ElementIndex struct {
	elements []elementRegion
	labels   []labelRegion
	handles  []HandleZone
	sorted   bool
}

// NewElementIndex creates an empty index.
func NewElementIndex() *ElementIndex {
	return &ElementIndex{}
}

// SetElement registers or updates an element's screen-space bounds and
// z-order.
func (ix *ElementIndex) SetElement(id string, bounds Rect, z int) {
	for i := range ix.elements {
		if ix.elements[i].id == id {
			ix.elements[i].bounds = bounds
			if ix.elements[i].z != z {
				ix.elements[i].z = z
				ix.sorted = false
			}
			return
		}
	}
	ix.elements = append(ix.elements, elementRegion{id: id, bounds: bounds, z: z})
	ix.sorted = false
}

// RemoveElement removes an element's region. Unknown ids are a no-op.
func (ix *ElementIndex) RemoveElement(id string) {
	for i := range ix.elements {
		if ix.elements[i].id == id {
			copy(ix.elements[i:], ix.elements[i+1:])
			ix.elements = ix.elements[:len(ix.elements)-1]
			return
		}
	}
}

// SetEdgeLabel registers or updates the screen-space bounds of an edge's
// label.
func (ix *ElementIndex) SetEdgeLabel(edgeID string, bounds Rect) {
	for i := range ix.labels {
		if ix.labels[i].edgeID == edgeID {
			ix.labels[i].bounds = bounds
			return
		}
	}
	ix.labels = append(ix.labels, labelRegion{edgeID: edgeID, bounds: bounds})
}

// RemoveEdgeLabel removes an edge label region. Unknown ids are a no-op.
func (ix *ElementIndex) RemoveEdgeLabel(edgeID string) {
	for i := range ix.labels {
		if ix.labels[i].edgeID == edgeID {
			copy(ix.labels[i:], ix.labels[i+1:])
			ix.labels = ix.labels[:len(ix.labels)-1]
			return
		}
	}
}

// SetHandles replaces the active handle zones. Pass nil to clear them
// (e.g. when the selection empties).
func (ix *ElementIndex) SetHandles(zones []HandleZone) {
	ix.handles = zones
}

// Clear empties the whole index.
func (ix *ElementIndex) Clear() {
	ix.elements = ix.elements[:0]
	ix.labels = ix.labels[:0]
	ix.handles = nil
	ix.sorted = true
}

// HitTest classifies a screen point. Handles are checked independently of
// elements; elements are checked topmost-first (reverse painter order);
// edge labels sit above elements. An unknown point yields the zero Hit.
func (ix *ElementIndex) HitTest(x, y float64) Hit {
	var hit Hit

	for i := len(ix.handles) - 1; i >= 0; i-- {
		if ix.handles[i].Bounds.Contains(x, y) {
			hit.Handle = ix.handles[i].Handle
			break
		}
	}

	for i := range ix.labels {
		if ix.labels[i].bounds.Contains(x, y) {
			hit.EdgeLabel = true
			hit.EdgeID = ix.labels[i].edgeID
			break
		}
	}

	if !ix.sorted {
		sort.SliceStable(ix.elements, func(a, b int) bool {
			return ix.elements[a].z < ix.elements[b].z
		})
		ix.sorted = true
	}
	for i := len(ix.elements) - 1; i >= 0; i-- {
		if ix.elements[i].bounds.Contains(x, y) {
			hit.Element = true
			hit.ElementID = ix.elements[i].id
			break
		}
	}
	return hit
}

// HandleZonesFor builds the standard grip layout around a selection bbox
// in screen space: resize at the four corners, scale on the right edge,
// rotate above the top center, reorder on the left edge, edge anchor at
// the right-center outside the box, createNode below the bottom center.
func HandleZonesFor(bbox Rect) []HandleZone {
	g := handleGrip
	half := g / 2
	cx := bbox.X + bbox.Width/2
	cy := bbox.Y + bbox.Height/2
	right := bbox.X + bbox.Width
	bottom := bbox.Y + bbox.Height

	grip := func(h Handle, x, y float64) HandleZone {
		return HandleZone{Handle: h, Bounds: Rect{X: x - half, Y: y - half, Width: g, Height: g}}
	}

	return []HandleZone{
		grip(HandleResize, bbox.X, bbox.Y),
		grip(HandleResize, right, bbox.Y),
		grip(HandleResize, bbox.X, bottom),
		grip(HandleResize, right, bottom),
		grip(HandleScale, right, cy),
		grip(HandleReorder, bbox.X, cy),
		grip(HandleRotate, cx, bbox.Y-rotateGripOffset),
		grip(HandleEdge, right+rotateGripOffset, cy),
		grip(HandleCreateNode, cx, bottom+rotateGripOffset),
	}
}
