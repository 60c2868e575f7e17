package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrInvalidValue, "value is NaN").WithAxis("omega")
	assert.Equal(t, `[INVALID_VALUE] axis "omega": value is NaN`, err.Error())

	bare := New(ErrNoSolution, "nothing in range")
	assert.Equal(t, "[NO_SOLUTION] nothing in range", bare.Error())
}

func TestSentinelMatching(t *testing.T) {
	err := New(ErrNoConvergence, "no root found after %d iterations", 1000)
	assert.True(t, stderrors.Is(err, Sentinel(ErrNoConvergence)))
	assert.False(t, stderrors.Is(err, Sentinel(ErrNoSolution)))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("matrix is singular")
	err := Wrap(cause, ErrLatticeParam, "singular B matrix")
	assert.Equal(t, ErrLatticeParam, CodeOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrInvalidValue, CodeOf(New(ErrInvalidValue, "x")))
	assert.Equal(t, Code(""), CodeOf(stderrors.New("foreign")))
}

func TestFatalfPanics(t *testing.T) {
	require.PanicsWithError(t,
		`[CONFIG] axis "omega" added twice to the same holder`,
		func() { Fatalf("axis %q added twice to the same holder", "omega") })
}
