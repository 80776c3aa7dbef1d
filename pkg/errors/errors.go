package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which step of a run produced the error
type Phase string

const (
	PhaseInit      Phase = "init"      // option and declaration checks
	PhaseSchema    Phase = "schema"    // layout descriptor parsing
	PhaseLoad      Phase = "load"      // image normalization, record reads
	PhasePatch     Phase = "patch"     // patch application
	PhaseRandomize Phase = "randomize" // intershuffle, randomize, mutate
	PhaseCleanup   Phase = "cleanup"   // post-mutation validation
	PhaseWrite     Phase = "write"     // record serialization
	PhaseVerify    Phase = "verify"    // patch verification
	PhaseSerialize Phase = "serialize" // final image assembly
)

// Kind categorizes the error
type Kind string

const (
	KindConfiguration         Kind = "configuration"
	KindMalformedLayout       Kind = "malformed_layout"
	KindEncodingTooLarge      Kind = "encoding_too_large"
	KindInvalidMutationPolicy Kind = "invalid_mutation_policy"
	KindCyclicDependency      Kind = "cyclic_dependency"
	KindPatchVerification     Kind = "patch_verification"
	KindAssertion             Kind = "assertion"
	KindMutation              Kind = "mutation"
	KindIO                    Kind = "io"
)

// Severity tells the orchestrator whether a run can continue
type Severity int

const (
	Fatal Severity = iota
	Recoverable
)

func (s Severity) String() string {
	if s == Recoverable {
		return "recoverable"
	}
	return "fatal"
}

// Error is the structured error type used throughout the engine
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Severity Severity
	Family   string
	Attr     string
	Offset   int // image offset, -1 when not applicable
	Detail   string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Family != "" || e.Attr != "" {
		b.WriteString(" at ")
		switch {
		case e.Family != "" && e.Attr != "":
			b.WriteString(e.Family)
			b.WriteByte('.')
			b.WriteString(e.Attr)
		case e.Family != "":
			b.WriteString(e.Family)
		default:
			b.WriteString(e.Attr)
		}
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset 0x%x)", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same kind. A target with an empty phase
// matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Fatal reports whether the error must abort the run
func (e *Error) Fatal() bool {
	return e.Severity == Fatal
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Family sets the record family display name
func (b *Builder) Family(name string) *Builder {
	b.err.Family = name
	return b
}

// Attr sets the attribute name
func (b *Builder) Attr(name string) *Builder {
	b.err.Attr = name
	return b
}

// Offset sets the image offset
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Recoverable marks the error as non-fatal
func (b *Builder) Recoverable() *Builder {
	b.err.Severity = Recoverable
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Convenience constructors for common error patterns

// Configuration creates a configuration error raised before any byte is read
func Configuration(detail string, args ...any) *Error {
	return New(PhaseInit, KindConfiguration).Detail(detail, args...).Build()
}

// MalformedLayout creates a layout descriptor error
func MalformedLayout(spec string, detail string) *Error {
	return New(PhaseSchema, KindMalformedLayout).Detail("%q: %s", spec, detail).Build()
}

// TooLarge creates an encoding error for a value that needs more bytes than
// the field captured
func TooLarge(attr string, need, have int) *Error {
	return New(PhaseWrite, KindEncodingTooLarge).
		Attr(attr).
		Detail("value needs %d bytes, field holds %d", need, have).
		Build()
}

// InvalidPolicy creates a mutation policy error
func InvalidPolicy(family, attr, detail string) *Error {
	return New(PhaseInit, KindInvalidMutationPolicy).Family(family).Attr(attr).Detail("%s", detail).Build()
}

// Cycle creates a dependency cycle error naming the families involved
func Cycle(families []string) *Error {
	return New(PhaseInit, KindCyclicDependency).
		Detail("no order satisfies after-order among %s", strings.Join(families, ", ")).
		Build()
}

// PatchMismatch creates a patch verification error
func PatchMismatch(offset int, want, got []byte) *Error {
	return New(PhaseVerify, KindPatchVerification).
		Offset(offset).
		Detail("want % x, got % x", want, got).
		Build()
}

// Assertion creates a cleanup assertion error
func Assertion(family, attr, detail string) *Error {
	return New(PhaseCleanup, KindAssertion).Family(family).Attr(attr).Detail("%s", detail).Build()
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return New(phase, kind).Cause(cause).Detail("%s", detail).Build()
}

// Is reports whether any error in err's chain has the given kind
func Is(err error, kind Kind) bool {
	return stderrors.Is(err, &Error{Kind: kind})
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsFatal reports whether err should abort a run. Errors that are not *Error
// are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := As(err); ok {
		return e.Fatal()
	}
	return true
}
