package vellum

// defaultHistoryLimit bounds how many snapshots the undo stack keeps.
const defaultHistoryLimit = 128

// Snapshot is one labeled, self-contained copy of the canvas model. The
// label names the completed user operation that produced it ("pan",
// "group move", ...).
type Snapshot struct {
	Label    string
	Elements []Element
	Edges    []Edge
}

// History is a labeled snapshot undo/redo stack. The last entry of past
// is the current state; a push after an undo discards the redo branch.
type History struct {
	past   []Snapshot
	future []Snapshot
	limit  int
}

// NewHistory creates a history bounded to limit snapshots (0 uses the
// default).
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records a new current state and discards any redo branch. The
// oldest snapshot falls off when the bound is exceeded.
func (h *History) Push(snap Snapshot) {
	h.past = append(h.past, snap)
	h.future = h.future[:0]
	if len(h.past) > h.limit {
		copy(h.past, h.past[1:])
		h.past = h.past[:len(h.past)-1]
	}
}

// Undo steps back one snapshot, returning the state to restore. Returns
// false when there is nothing earlier than the current state.
func (h *History) Undo() (Snapshot, bool) {
	if len(h.past) < 2 {
		return Snapshot{}, false
	}
	cur := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, cur)
	return h.past[len(h.past)-1], true
}

// Redo reapplies the most recently undone snapshot.
func (h *History) Redo() (Snapshot, bool) {
	if len(h.future) == 0 {
		return Snapshot{}, false
	}
	snap := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, snap)
	return snap, true
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return len(h.past) >= 2 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// CurrentLabel returns the label of the current state, or "" when empty.
func (h *History) CurrentLabel() string {
	if len(h.past) == 0 {
		return ""
	}
	return h.past[len(h.past)-1].Label
}
