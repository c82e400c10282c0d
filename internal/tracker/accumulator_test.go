package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator(t *testing.T) {
	a := NewAccumulator(300)
	assert.Equal(t, int64(0), a.Elapsed())
	assert.Equal(t, "00:00:00", a.String())

	assert.False(t, a.Tick(false))
	assert.Equal(t, int64(0), a.Elapsed())

	for i := 0; i < 61; i++ {
		assert.True(t, a.Tick(true))
	}
	assert.Equal(t, "00:01:01", a.String())

	a.Resume()
	assert.Equal(t, int64(300), a.Elapsed())
	a.Tick(true)
	a.Resume()
	assert.Equal(t, int64(300), a.Elapsed())

	a.Reset()
	assert.Equal(t, int64(0), a.Elapsed())
	assert.Equal(t, int64(300), a.Previous())
}

func TestAccumulatorNegativePrevious(t *testing.T) {
	a := NewAccumulator(-5)
	a.Resume()
	assert.Equal(t, int64(0), a.Elapsed())
}
