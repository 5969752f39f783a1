package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImmediateEnqueueNormalisesLevel(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	a := NewTask(1, "a", 1, testSlice)
	b := NewTask(2, "b", 0, testSlice)
	c := NewTask(3, "c", 2, testSlice)
	p.Enqueue(rq, a)
	p.Enqueue(rq, b)
	p.Enqueue(rq, c)

	assert.Equal(t, []*Task{a}, rq.Tasks(0))
	assert.Equal(t, []*Task{b, c}, rq.Tasks(1))
	assert.Equal(t, 2, b.Level)
	assert.Equal(t, 3, rq.NrRunning)
	require.NoError(t, rq.Validate())
}

// T5 runs on level 2; a level-1 arrival flags it immediately.
func TestImmediateScenarioPreemptOnArrival(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	t5 := NewTask(5, "t5", 2, testSlice)
	p.Enqueue(rq, t5)
	running(rq, t5)

	t6 := NewTask(6, "t6", 1, testSlice)
	p.Enqueue(rq, t6)
	assert.True(t, t5.NeedResched)
	assert.Same(t, t6, rq.Head(0))
	assert.Same(t, t6, p.PickNext(rq, t5))
}

func TestImmediateArrivalDoesNotPreemptLevelOne(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	a := NewTask(1, "a", 1, testSlice)
	p.Enqueue(rq, a)
	running(rq, a)

	p.Enqueue(rq, NewTask(2, "b", 1, testSlice))
	p.Enqueue(rq, NewTask(3, "c", 2, testSlice))
	assert.False(t, a.NeedResched)
}

func TestImmediateArrivalWhileIdle(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	require.Nil(t, rq.Running)
	assert.NotPanics(t, func() { p.Enqueue(rq, NewTask(1, "a", 1, testSlice)) })
}

// T7 with one tick left is demoted and relinked inside Tick.
func TestImmediateScenarioDemotion(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	other := NewTask(8, "other", 2, testSlice)
	t7 := NewTask(7, "t7", 1, testSlice)
	p.Enqueue(rq, other)
	p.Enqueue(rq, t7)
	running(rq, t7)
	t7.Counter = 1

	p.Tick(rq, t7)
	assert.Equal(t, 2, t7.Level)
	assert.Equal(t, testSlice, t7.Counter)
	assert.True(t, t7.NeedResched)
	assert.Zero(t, rq.Len(0))
	assert.Equal(t, []*Task{other, t7}, rq.Tasks(1))
	assert.Equal(t, 2, rq.NrRunning)
	require.NoError(t, rq.Validate())
}

func TestImmediateTickWithinSlice(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	a := NewTask(1, "a", 1, testSlice)
	p.Enqueue(rq, a)
	running(rq, a)

	p.Tick(rq, a)
	assert.Equal(t, testSlice-1, a.Counter)
	assert.False(t, a.NeedResched)
	assert.Equal(t, []*Task{a}, rq.Tasks(0))
}

func TestImmediateLevelTwoIsNotCharged(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	a := NewTask(1, "a", 2, testSlice)
	p.Enqueue(rq, a)
	running(rq, a)

	for i := 0; i < 10*testSlice; i++ {
		p.Tick(rq, a)
	}
	assert.Equal(t, testSlice, a.Counter)
	assert.False(t, a.NeedResched, "FCFS keeps the CPU while level 1 is empty")

	b := NewTask(2, "b", 1, testSlice)
	p.Enqueue(rq, b)
	a.NeedResched = false // the host cleared it at a reschedule that kept a
	p.Tick(rq, a)
	assert.True(t, a.NeedResched, "level 1 is runnable")
}

func TestImmediateTickOutOfRangePanics(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	a := NewTask(1, "a", 1, testSlice)
	p.Enqueue(rq, a)
	a.Level = 5
	assert.Panics(t, func() { p.Tick(rq, a) })
}

func TestImmediateScenarioEmptyQueues(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	prev := NewTask(1, "prev", 1, testSlice)
	prev.State = StateRunning

	assert.Nil(t, p.PickNext(rq, prev))
	assert.Nil(t, p.PickNext(rq, nil))
}

func TestImmediateStrictPriority(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	low := NewTask(1, "low", 2, testSlice)
	high := NewTask(2, "high", 1, testSlice)
	p.Enqueue(rq, low)
	assert.Same(t, low, p.PickNext(rq, nil))
	p.Enqueue(rq, high)
	assert.Same(t, high, p.PickNext(rq, low))
}

func TestImmediateDequeueAfterRelocate(t *testing.T) {
	p := NewImmediate(testSlice)
	rq := p.NewRunQueue()
	a := NewTask(1, "a", 1, 1)
	p.Enqueue(rq, a)
	running(rq, a)
	a.Counter = 1

	p.Tick(rq, a)
	require.Equal(t, 1, rq.Len(1))
	p.Dequeue(rq, a)
	assert.Zero(t, rq.NrRunning)
	require.NoError(t, rq.Validate())
}
