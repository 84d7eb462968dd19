// Package vellum is a gesture interaction engine for infinite-canvas
// applications built on [Ebitengine].
//
// Vellum turns raw pointer, wheel, and key input into canvas operations:
// pan, pinch zoom, lasso select, group move and transform, handle-driven
// resize/scale/rotate/reorder, edge creation, and tap/double-tap/long-press
// element interactions. It owns no rendering and no document model; the
// host drives both through the [Controller] contract.
//
// # Quick start
//
// Wire a [Surface], the state machine, and a controller together, then
// feed the surface from an [EbitenDriver] each frame:
//
//	surface := vellum.NewSurface()
//	board := vellum.NewBoard(surface)
//	machine := vellum.NewService(board)
//	cleanup := vellum.InstallPointerAdapter(surface, machine, board.View, board.SelectedIDs)
//	defer cleanup()
//
//	driver := vellum.NewEbitenDriver(surface)
//
//	// each ebiten.Game Update:
//	driver.Update()
//	board.Update(1.0 / 60)
//
// [Board] is a reference controller with an in-memory element store,
// camera viewport, and snapshot undo history. Hosts with their own
// document model implement [Controller] directly instead.
//
// # Architecture
//
// Input flows one way through three layers:
//
//   - [Surface] and [EbitenDriver] produce raw events, including a clock
//     tick every frame.
//   - The pointer [Adapter] normalizes raw events into canonical events:
//     it tracks active pointers, classifies hits against the surface's
//     [ElementIndex], and detects double taps and long presses.
//   - The [Service] is a mode-and-gesture state machine: each canonical
//     event either transitions the gesture state, fires an action against
//     the [Controller], or is ignored.
//
// Everything is single-threaded and deterministic: timers are deadlines
// checked against event timestamps, so replaying the same events yields
// the same state. [ScriptRunner] exploits this to replay recorded
// gesture scripts in tests.
//
// [Ebitengine]: https://ebitengine.org
package vellum
