package vellum

// ViewState is a snapshot of the canvas viewport: a uniform scale followed
// by a screen-space translation. screen = canvas*Scale + Translate.
type ViewState struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// ScreenToCanvas converts a screen point to canvas coordinates.
func (v ViewState) ScreenToCanvas(x, y float64) (float64, float64) {
	if v.Scale == 0 {
		return x, y
	}
	return (x - v.TranslateX) / v.Scale, (y - v.TranslateY) / v.Scale
}

// CanvasToScreen converts a canvas point to screen coordinates.
func (v ViewState) CanvasToScreen(x, y float64) (float64, float64) {
	return x*v.Scale + v.TranslateX, y*v.Scale + v.TranslateY
}

// Controller is the contract through which gestures mutate the canvas.
// The engine owns no canvas state of its own: the viewport, the selection
// set, and the element model all live behind this interface. Board is the
// reference implementation; hosts with their own model implement it
// directly.
//
// All methods are called synchronously from event dispatch, never
// concurrently.
type Controller interface {
	// Element lookup and coordinate conversion.
	FindElementByID(id string) *Element
	ScreenToCanvas(x, y float64) (float64, float64)

	// Selection.
	SelectElement(id string, additive bool)
	ClearSelection()
	IsElementSelected(id string) bool
	SelectedIDs() []string
	UpdateSelectionBox(r Rect)
	RemoveSelectionBox()
	GroupBBox() (Rect, bool)
	ElementsIntersecting(r Rect) []string

	// Rendering and viewport.
	RequestRender()
	UpdateCanvasTransform(v ViewState)
	SaveLocalViewState()
	UpdateElementNode(el *Element)

	// Mode and history.
	SwitchMode(m Mode)
	Undo()
	Redo()
	PushHistory(label string)

	// Content mutation.
	CreateElementAt(x, y float64) string
	CreateEdge(fromID, toID string) string
	BeginElementEdit(id string)
	BeginEdgeLabelEdit(edgeID string)
	ReorderElement(id string, delta int)
}
