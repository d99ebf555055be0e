// Package pov is a print-oriented debugging aid: it intercepts attribute
// writes, function and method calls, and container mutations, and reports
// them as structured, colorized trace blocks on a configurable sink.
//
// # Usage
//
// Log ad-hoc values through a builder:
//
//	pov.New().Detail(3).View(pov.N("total", total), "items[0].price")
//
// or through the package-level shorthands (pov.Info, pov.View, pov.Check).
//
// # Architecture
//
// Output is organized in nested blocks: every logging call opens a block,
// nested calls indent under it with per-severity bar characters, and the
// outermost close flushes everything prefixed with the process id and the
// call stack delta since the previous block.
//
// Interception comes in three shapes:
//
//   - Observable: attribute-write tracing over a field bag or a struct
//   - Track / TrackMemfun / TrackObject: call tracing via wrappers
//   - Dict / List: container proxies that narrate every mutation
//
// # Configuration
//
// Behavior is controlled by POV_* environment variables, a TOML file
// named by POV_CONFIG, or an explicit pov.Init(cfg). POV_DISABLE turns
// the whole package into no-ops.
package pov
