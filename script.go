package vellum

import (
	"encoding/json"
	"fmt"
	"time"
)

// scriptFrameStep is how far the synthetic clock advances per frame.
const scriptFrameStep = time.Second / 60

// scriptStep represents a single action in a gesture script.
type scriptStep struct {
	Action  string   `json:"action"`
	Pointer int      `json:"pointer,omitempty"`
	X       float64  `json:"x,omitempty"`
	Y       float64  `json:"y,omitempty"`
	FromX   float64  `json:"fromX,omitempty"`
	FromY   float64  `json:"fromY,omitempty"`
	ToX     float64  `json:"toX,omitempty"`
	ToY     float64  `json:"toY,omitempty"`
	DeltaY  float64  `json:"deltaY,omitempty"`
	Key     string   `json:"key,omitempty"`
	Mods    []string `json:"mods,omitempty"`
	Frames  int      `json:"frames,omitempty"`
}

// gestureScript is the top-level JSON structure for a gesture script.
type gestureScript struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner replays a recorded gesture script against a surface, one
// frame at a time, with a synthetic clock. It stands in for the live
// driver in automated runs: multi-frame drags are expanded into per-frame
// moves, and a clock tick is dispatched every frame so deadline-based
// gestures (long press, wheel idle) fire deterministically.
type ScriptRunner struct {
	surface *Surface
	steps   []scriptStep

	cursor    int
	waitCount int
	queue     []RawEvent
	now       time.Time
	done      bool
}

// LoadGestureScript parses a JSON gesture script and returns a runner
// bound to the surface. Step it once per frame until Done.
func LoadGestureScript(jsonData []byte, surface *Surface) (*ScriptRunner, error) {
	var script gestureScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse gesture script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse gesture script: no steps")
	}
	return &ScriptRunner{
		surface: surface,
		steps:   script.Steps,
		now:     time.Unix(0, 0),
	}, nil
}

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Now returns the runner's synthetic clock.
func (r *ScriptRunner) Now() time.Time {
	return r.now
}

// Step advances the script by one frame: it drains at most one queued
// raw event, otherwise executes the next step, then always dispatches a
// clock tick.
func (r *ScriptRunner) Step() {
	if r.done {
		return
	}
	r.now = r.now.Add(scriptFrameStep)

	switch {
	case len(r.queue) > 0:
		// Drain pending injections one per frame before advancing.
		ev := r.queue[0]
		r.queue = r.queue[1:]
		ev.Time = r.now
		r.surface.Dispatch(ev)
	case r.waitCount > 0:
		r.waitCount--
	case r.cursor < len(r.steps):
		st := r.steps[r.cursor]
		r.cursor++
		r.execute(st)
	}

	r.surface.Dispatch(RawEvent{Kind: RawTick, Time: r.now})

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(r.queue) == 0 {
		r.done = true
	}
}

// RunToCompletion steps until the script is done, bounded to avoid a
// runaway loop on a malformed script.
func (r *ScriptRunner) RunToCompletion(maxFrames int) int {
	frames := 0
	for !r.done && frames < maxFrames {
		r.Step()
		frames++
	}
	return frames
}

// execute translates one step into raw events. The first event dispatches
// this frame; the rest queue for the following frames.
func (r *ScriptRunner) execute(st scriptStep) {
	mods := parseMods(st.Mods)

	switch st.Action {
	case "down":
		r.inject(RawEvent{Kind: RawPointerDown, PointerID: st.Pointer, X: st.X, Y: st.Y, Mods: mods})
	case "move":
		r.inject(RawEvent{Kind: RawPointerMove, PointerID: st.Pointer, X: st.X, Y: st.Y, Mods: mods})
	case "up":
		r.inject(RawEvent{Kind: RawPointerUp, PointerID: st.Pointer, X: st.X, Y: st.Y, Mods: mods})
	case "tap":
		r.inject(
			RawEvent{Kind: RawPointerDown, PointerID: st.Pointer, X: st.X, Y: st.Y, Mods: mods},
			RawEvent{Kind: RawPointerUp, PointerID: st.Pointer, X: st.X, Y: st.Y, Mods: mods},
		)
	case "drag":
		frames := st.Frames
		if frames < 2 {
			frames = 2
		}
		events := make([]RawEvent, 0, frames+2)
		events = append(events, RawEvent{Kind: RawPointerDown, PointerID: st.Pointer, X: st.FromX, Y: st.FromY, Mods: mods})
		for i := 1; i <= frames; i++ {
			t := float64(i) / float64(frames)
			events = append(events, RawEvent{
				Kind:      RawPointerMove,
				PointerID: st.Pointer,
				X:         st.FromX + (st.ToX-st.FromX)*t,
				Y:         st.FromY + (st.ToY-st.FromY)*t,
				Mods:      mods,
			})
		}
		events = append(events, RawEvent{Kind: RawPointerUp, PointerID: st.Pointer, X: st.ToX, Y: st.ToY, Mods: mods})
		r.inject(events...)
	case "wheel":
		r.inject(RawEvent{Kind: RawWheel, X: st.X, Y: st.Y, DeltaY: st.DeltaY, Mods: mods})
	case "key":
		r.inject(
			RawEvent{Kind: RawKeyDown, Key: Key(st.Key), Mods: mods},
			RawEvent{Kind: RawKeyUp, Key: Key(st.Key), Mods: mods},
		)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}
}

// inject dispatches the first event now and queues the rest.
func (r *ScriptRunner) inject(events ...RawEvent) {
	if len(events) == 0 {
		return
	}
	first := events[0]
	first.Time = r.now
	r.surface.Dispatch(first)
	r.queue = append(r.queue, events[1:]...)
}

// parseMods builds a modifier mask from script mod names. Unknown names
// are ignored.
func parseMods(names []string) KeyModifiers {
	var mods KeyModifiers
	for _, n := range names {
		switch n {
		case "shift":
			mods |= ModShift
		case "ctrl":
			mods |= ModCtrl
		case "alt":
			mods |= ModAlt
		case "meta":
			mods |= ModMeta
		}
	}
	return mods
}
