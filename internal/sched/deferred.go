// internal/sched/deferred.go

package sched

import "fmt"

const PolicyDeferred = "deferred"

// Deferred is the deferred-relink MLFQ. Level 0 is served before level 1 and
// both are round-robin. A task that exhausts its slice on level 0 is marked
// for level 1 in Tick, but its queue node only moves on the next PickNext,
// while it is still the task occupying the CPU.
type Deferred struct {
	base
}

// DeferredLevels: two time-sliced levels, 0 falls to 1.
var DeferredLevels = Levels{
	{Rank: 0, TimeSliced: true, DemoteTo: 1},
	{Rank: 1, TimeSliced: true, DemoteTo: NoDemotion},
}

func NewDeferred(timeSlice int) *Deferred {
	return &Deferred{base: newBase(timeSlice, DeferredLevels)}
}

func (p *Deferred) Name() string { return PolicyDeferred }

// Admits accepts only the deferred ranks; Tick faults on anything else.
func (p *Deferred) Admits(level int) bool {
	_, ok := p.levels.Index(level)
	return ok
}

// Enqueue appends t to level 0 when it carries level 0 and to level 1
// otherwise. It never raises a preemption signal.
func (p *Deferred) Enqueue(rq *RunQueue, t *Task) {
	i := 1
	if t.Level == p.levels[0].Rank {
		i = 0
	}
	p.admit(rq, i, t)
}

// Tick charges one tick to t and, on slice expiry, requests a reschedule and
// demotes a level-0 task. Queue placement is left alone.
func (p *Deferred) Tick(rq *RunQueue, t *Task) {
	p.levels.mustIndex(t.Level)
	if p.charge(t) {
		p.demote(t)
	}
}

// PickNext rotates prev to the tail of its current level when it is still
// running, then returns the head of the highest non-empty level. When both
// levels are empty prev itself is returned.
func (p *Deferred) PickNext(rq *RunQueue, prev *Task) *Task {
	if prev == nil {
		panic("sched: deferred PickNext needs a previous task")
	}
	p.rebalanceOnReturn(rq, prev)
	if next := rq.first(); next != nil {
		return next
	}
	return prev
}

// rebalanceOnReturn completes any demotion recorded by Tick and implements
// round-robin at a stable level. Tasks the host does not hold in this queue
// (its idle task, for one) are left untouched.
func (p *Deferred) rebalanceOnReturn(rq *RunQueue, prev *Task) {
	if prev.State != StateRunning || !rq.Contains(prev) {
		return
	}
	i, ok := p.levels.Index(prev.Level)
	if !ok {
		panic(fmt.Sprintf("sched: %v outside deferred levels", prev))
	}
	rq.requeue(i, prev)
}
