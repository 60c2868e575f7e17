package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hklgo/pkg/log"
	"hklgo/pkg/unit"
)

func TestUnboundEngine(t *testing.T) {
	e := NewHKL(log.Discard())
	require.NotNil(t, e.PseudoByName("h"))
	assert.Nil(t, e.PseudoByName("nope"))

	assert.Error(t, e.Get(), "reading an unbound engine")
	assert.Error(t, e.Set([]float64{0, 0, 1}, unit.Default))
}

func TestSelectMode(t *testing.T) {
	e := NewHKL(log.Discard())
	e.AddMode(NewHKLMode("first", nil, nil, nil))
	e.AddMode(NewHKLMode("second", nil, nil, nil))

	assert.Equal(t, "first", e.Mode().Name, "first registered mode is the default")
	require.NoError(t, e.SelectMode("second"))
	assert.Equal(t, "second", e.Mode().Name)
	assert.Error(t, e.SelectMode("nope"))
}

func TestListRegistry(t *testing.T) {
	l := NewList(nil)
	l.Add(New("a", log.Discard()))
	l.Add(New("b", log.Discard()))

	require.NotNil(t, l.EngineByName("a"))
	assert.Nil(t, l.EngineByName("nope"))
	assert.Panics(t, func() { l.Add(New("a", log.Discard())) })
}
