// Package errors provides the structured error type used by the randomizer.
//
// Errors carry the Phase of the run in which they occurred, a Kind naming the
// failure class, and a Severity. Every kind the engine produces today is
// Fatal: a run either yields a complete image or nothing. Recoverable errors
// are reported through the error hook and the run continues.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseWrite, errors.KindEncodingTooLarge).
//		Family("airline names").
//		Attr("name").
//		Offset(0x764d3).
//		Detail("9 bytes do not fit in 8").
//		Build()
//
// Or the convenience constructors for common cases:
//
//	err := errors.Configuration("no ROM specified")
//	err := errors.TooLarge("name", 9, 8)
//
// Match kinds with Is:
//
//	if errors.Is(err, errors.KindCyclicDependency) { ... }
package errors
