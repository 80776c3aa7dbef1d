package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: New(PhaseWrite, KindEncodingTooLarge).
				Family("airline names").
				Attr("name").
				Offset(0x764d3).
				Detail("9 bytes do not fit in 8").
				Build(),
			contains: []string{"[write]", "encoding_too_large", "airline names.name", "0x764d3", "9 bytes"},
		},
		{
			name:     "minimal error",
			err:      New(PhaseInit, KindCyclicDependency).Build(),
			contains: []string{"[init]", "cyclic_dependency"},
		},
		{
			name:     "error with cause",
			err:      Wrap(PhaseLoad, KindIO, stderrors.New("short read"), "reading image"),
			contains: []string{"[load]", "io", "reading image", "caused by", "short read"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestError_OffsetOmittedByDefault(t *testing.T) {
	err := Configuration("no ROM specified")
	assert.NotContains(t, err.Error(), "offset")
	assert.Equal(t, -1, err.Offset)
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("running family: %w", TooLarge("name", 9, 8))

	assert.True(t, Is(err, KindEncodingTooLarge))
	assert.False(t, Is(err, KindAssertion))
	assert.False(t, Is(stderrors.New("plain"), KindEncodingTooLarge))
	assert.True(t, stderrors.Is(err, &Error{Phase: PhaseWrite, Kind: KindEncodingTooLarge}))
	assert.False(t, stderrors.Is(err, &Error{Phase: PhaseInit, Kind: KindEncodingTooLarge}))
}

func TestAs(t *testing.T) {
	cause := Assertion("plane data", "seller", "changed from 3 to 4")
	wrapped := fmt.Errorf("cleanup: %w", cause)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "seller", got.Attr)
	assert.Equal(t, PhaseCleanup, got.Phase)

	_, ok = As(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestSeverity(t *testing.T) {
	t.Run("default is fatal", func(t *testing.T) {
		err := PatchMismatch(0x10, []byte{1}, []byte{2})
		assert.True(t, err.Fatal())
		assert.True(t, IsFatal(err))
	})

	t.Run("recoverable", func(t *testing.T) {
		err := New(PhaseRandomize, KindAssertion).Recoverable().Build()
		assert.False(t, err.Fatal())
		assert.False(t, IsFatal(fmt.Errorf("wrapped: %w", err)))
		assert.Equal(t, "recoverable", err.Severity.String())
	})

	t.Run("foreign errors are fatal", func(t *testing.T) {
		assert.True(t, IsFatal(stderrors.New("boom")))
		assert.False(t, IsFatal(nil))
	})
}

func TestBuilder_BuildCopies(t *testing.T) {
	b := New(PhaseInit, KindConfiguration).Detail("first")
	first := b.Build()
	b.Detail("second")
	second := b.Build()

	assert.Equal(t, "first", first.Detail)
	assert.Equal(t, "second", second.Detail)
}

func TestCycle(t *testing.T) {
	err := Cycle([]string{"plane data", "airline names"})
	assert.Contains(t, err.Error(), "plane data, airline names")
	assert.Equal(t, KindCyclicDependency, err.Kind)
}

func TestConstructors_DetailIsLiteral(t *testing.T) {
	assert.Equal(t, "want 100% of bounds", InvalidPolicy("A", "v", "want 100% of bounds").Detail)
	assert.Equal(t, "%d changed", Assertion("A", "v", "%d changed").Detail)
	assert.Equal(t, "reading 50%", Wrap(PhaseLoad, KindIO, stderrors.New("eof"), "reading 50%").Detail)
	assert.Equal(t, KindInvalidMutationPolicy, InvalidPolicy("A", "v", "x").Kind)
	assert.Equal(t, KindAssertion, Assertion("A", "v", "x").Kind)
}
