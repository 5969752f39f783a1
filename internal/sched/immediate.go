// internal/sched/immediate.go

package sched

import "fmt"

const PolicyImmediate = "immediate"

// Immediate is the immediate-relink MLFQ. Level 1 is time-sliced and always
// preempts level 2, which runs first-come first-served. Demotion moves the
// task between queues inside Tick so the next Enqueue sees the real level-1
// population.
type Immediate struct {
	base
}

// ImmediateLevels: time-sliced level 1 falls to FCFS level 2.
var ImmediateLevels = Levels{
	{Rank: 1, TimeSliced: true, DemoteTo: 1},
	{Rank: 2, TimeSliced: false, DemoteTo: NoDemotion},
}

func NewImmediate(timeSlice int) *Immediate {
	return &Immediate{base: newBase(timeSlice, ImmediateLevels)}
}

func (p *Immediate) Name() string { return PolicyImmediate }

// Admits accepts any level since Enqueue normalises unknown ones to level 2.
func (p *Immediate) Admits(level int) bool { return true }

// Enqueue admits a level-1 task to level 1 and flags a running level-2 task
// for preemption. Any other task is normalised to level 2.
func (p *Immediate) Enqueue(rq *RunQueue, t *Task) {
	high, low := p.levels[0], p.levels[1]
	if t.Level == high.Rank {
		p.admit(rq, 0, t)
		if cur := rq.Running; cur != nil && cur.Level == low.Rank {
			cur.NeedResched = true
		}
		return
	}
	t.Level = low.Rank
	p.admit(rq, 1, t)
}

// PickNext returns the head of level 1, else the head of level 2, else nil.
// prev is never returned as a fallback.
func (p *Immediate) PickNext(rq *RunQueue, prev *Task) *Task {
	return rq.first()
}

// Tick charges level-1 tasks and relocates them on expiry. A level-2 task is
// not charged but yields as soon as level 1 holds anything.
func (p *Immediate) Tick(rq *RunQueue, t *Task) {
	switch i := p.levels.mustIndex(t.Level); {
	case p.levels[i].TimeSliced:
		if p.charge(t) {
			p.relocate(rq, t)
		}
	default:
		if rq.Len(0) > 0 {
			t.NeedResched = true
		}
	}
}

// relocate demotes t and moves it to the tail of its new level right away.
func (p *Immediate) relocate(rq *RunQueue, t *Task) {
	to := p.demote(t)
	if !rq.Contains(t) {
		panic(fmt.Sprintf("sched: relocating %v which is not queued", t))
	}
	rq.requeue(to, t)
}
