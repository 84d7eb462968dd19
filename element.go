package vellum

import "fmt"

// ElementKind distinguishes canvas element content.
type ElementKind uint8

const (
	ElementText     ElementKind = iota // editable text block
	ElementImage                       // bitmap content
	ElementMarkdown                    // rendered markdown block
	ElementCanvas                      // nested canvas
)

// String returns the kind name.
func (k ElementKind) String() string {
	switch k {
	case ElementImage:
		return "image"
	case ElementMarkdown:
		return "markdown"
	case ElementCanvas:
		return "canvas"
	default:
		return "text"
	}
}

// Element is one graphical element on the canvas. Position and size are
// canvas coordinates; Scale and Rotation apply around the element center.
// Renderers own presentation; gestures mutate only these fields.
type Element struct {
	ID       string
	Kind     ElementKind
	X, Y     float64
	Width    float64
	Height   float64
	Scale    float64
	Rotation float64
	Z        int
	Text     string
}

// Bounds returns the element's untransformed canvas-space bounding box.
func (e *Element) Bounds() Rect {
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// Edge is a directed connector between two elements, optionally labeled.
type Edge struct {
	ID    string
	From  string
	To    string
	Label string
}

// elementIDCounter is a plain counter (no atomic — vellum is
// single-threaded).
var elementIDCounter uint64

func nextElementID(prefix string) string {
	elementIDCounter++
	return fmt.Sprintf("%s-%d", prefix, elementIDCounter)
}

// NewElement creates an element of the given kind at a canvas position
// with a default size and unit transform.
func NewElement(kind ElementKind, x, y float64) *Element {
	return &Element{
		ID:     nextElementID("el"),
		Kind:   kind,
		X:      x,
		Y:      y,
		Width:  160,
		Height: 90,
		Scale:  1,
	}
}

// NewEdge creates an edge connecting two element ids.
func NewEdge(from, to string) *Edge {
	return &Edge{
		ID:   nextElementID("edge"),
		From: from,
		To:   to,
	}
}
