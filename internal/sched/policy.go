package sched

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultTimeSlice is the number of ticks granted on each admission to a
// time-sliced level.
const DefaultTimeSlice = 5

// ErrUnknownPolicy is returned by New for a name nothing is registered under.
var ErrUnknownPolicy = errors.New("unknown scheduling policy")

// Policy is the hook set a host framework drives. All four operations assume
// exclusive access to rq for their duration and never fail; a call that
// breaks the contract (dequeuing an unqueued task, ticking a task on an
// unknown level) panics.
type Policy interface {
	Name() string
	// Levels returns the level descriptors a run queue for this policy needs.
	Levels() Levels
	// NewRunQueue returns an empty run queue shaped for this policy.
	NewRunQueue() *RunQueue
	// Admits reports whether a task may be enqueued carrying level.
	Admits(level int) bool

	Enqueue(rq *RunQueue, t *Task)
	Dequeue(rq *RunQueue, t *Task)
	Tick(rq *RunQueue, t *Task)
	// PickNext returns the task to run after prev. A nil result means the
	// host falls back to its idle task.
	PickNext(rq *RunQueue, prev *Task) *Task
}

type factory func(timeSlice int) Policy

var registry = map[string]factory{
	PolicyDeferred:  func(ts int) Policy { return NewDeferred(ts) },
	PolicyImmediate: func(ts int) Policy { return NewImmediate(ts) },
}

// New builds the named policy with the given time slice. A non-positive time
// slice selects DefaultTimeSlice.
func New(name string, timeSlice int) (Policy, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownPolicy, name, strings.Join(Names(), ", "))
	}
	return f(timeSlice), nil
}

// Names lists the registered policy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// base carries the bookkeeping both MLFQ variants share.
type base struct {
	timeSlice int
	levels    Levels
}

func newBase(timeSlice int, levels Levels) base {
	if timeSlice <= 0 {
		timeSlice = DefaultTimeSlice
	}
	if err := levels.validate(); err != nil {
		panic("sched: " + err.Error())
	}
	return base{timeSlice: timeSlice, levels: levels}
}

func (b *base) Levels() Levels { return b.levels }

// TimeSlice returns the ticks granted per admission.
func (b *base) TimeSlice() int { return b.timeSlice }

func (b *base) NewRunQueue() *RunQueue { return NewRunQueue(b.levels) }

// admit appends t to level index i and counts it runnable.
func (b *base) admit(rq *RunQueue, i int, t *Task) {
	if t.Counter <= 0 {
		t.Counter = b.timeSlice
	}
	rq.pushBack(i, t)
	rq.NrRunning++
}

func (b *base) Dequeue(rq *RunQueue, t *Task) {
	rq.unlink(t)
	rq.NrRunning--
}

// charge consumes one tick of t's slice and reports whether it ran out. The
// counter is refilled on exhaustion so it is never observed below zero.
func (b *base) charge(t *Task) bool {
	t.Counter--
	if t.Counter > 0 {
		return false
	}
	t.NeedResched = true
	t.Counter = b.timeSlice
	return true
}

// demote lowers t by one step along the descriptor list and returns the
// index of its new level. Tasks already on a terminal level stay put.
func (b *base) demote(t *Task) int {
	i := b.levels.mustIndex(t.Level)
	to := b.levels[i].DemoteTo
	if to == NoDemotion {
		return i
	}
	t.Level = b.levels[to].Rank
	return to
}
