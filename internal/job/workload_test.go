package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkloadRun(t *testing.T) {
	w := NewWorkload([]Burst{{CPU: 2, IO: 3}, {CPU: 1, IO: 9}})
	assert.Equal(t, 3, w.Remaining())

	done, io, fin := w.Run()
	assert.False(t, done)
	assert.False(t, fin)
	assert.Zero(t, io)

	done, io, fin = w.Run()
	assert.True(t, done)
	assert.False(t, fin)
	assert.Equal(t, 3, io)
	assert.Equal(t, 1, w.Remaining())

	done, io, fin = w.Run()
	assert.True(t, done)
	assert.True(t, fin, "the last burst's io is ignored")
	assert.Zero(t, io)
	assert.True(t, w.Done())
	assert.Zero(t, w.Remaining())

	_, _, fin = w.Run()
	assert.True(t, fin)
}

func TestShapes(t *testing.T) {
	assert.Equal(t, []Burst{{CPU: 4}}, CPUBound(4))
	assert.Equal(t, []Burst{{CPU: 1, IO: 2}, {CPU: 1, IO: 2}, {CPU: 1}}, Interactive(1, 2, 3))
	assert.Nil(t, Interactive(1, 2, 0))
}

func TestSpecValidate(t *testing.T) {
	ok := Spec{ID: 1, Bursts: CPUBound(1)}
	require.NoError(t, ok.Validate())
	assert.Equal(t, 1, ok.TotalCPU())

	assert.Error(t, Spec{ID: 1}.Validate())
	assert.Error(t, Spec{ID: 1, Bursts: []Burst{{CPU: 0}}}.Validate())
	assert.Error(t, Spec{ID: 1, Bursts: []Burst{{CPU: 1, IO: -1}}}.Validate())
	assert.Error(t, Spec{ID: 1, Arrive: -2, Bursts: CPUBound(1)}.Validate())
}

func TestGenerateIsDeterministic(t *testing.T) {
	p := GenParams{Count: 25, Seed: 99, Interactive: 0.5, FirstID: 10}
	a, err := Generate(p)
	require.NoError(t, err)
	b, err := Generate(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	require.Len(t, a, 25)
	last := int64(0)
	for i, s := range a {
		assert.Equal(t, uint64(10+i), s.ID)
		assert.GreaterOrEqual(t, s.Arrive, last)
		last = s.Arrive
		require.NoError(t, s.Validate())
	}
}

func TestGenerateMix(t *testing.T) {
	all, err := Generate(GenParams{Count: 10, Seed: 1, Interactive: 1})
	require.NoError(t, err)
	for _, s := range all {
		assert.Greater(t, len(s.Bursts), 1, s.Name)
	}

	none, err := Generate(GenParams{Count: 10, Seed: 1, Interactive: 0, MaxCPU: 6})
	require.NoError(t, err)
	for _, s := range none {
		require.Len(t, s.Bursts, 1)
		assert.LessOrEqual(t, s.Bursts[0].CPU, 6)
	}

	_, err = Generate(GenParams{Count: 1, Interactive: 2})
	assert.Error(t, err)
	_, err = Generate(GenParams{Count: -1})
	assert.Error(t, err)
}
