// internal/sched/runqueue.go

package sched

import (
	"container/list"
	"errors"
	"fmt"
)

// RunQueue holds one FIFO sequence of runnable tasks per level, the task the
// host currently runs, and the number of queued tasks.
type RunQueue struct {
	levels    Levels
	queues    []*list.List
	Running   *Task // set by the host; nil while idle
	NrRunning int
}

// NewRunQueue creates an empty run queue shaped by the given levels.
func NewRunQueue(levels Levels) *RunQueue {
	qs := make([]*list.List, len(levels))
	for i := range qs {
		qs[i] = list.New()
	}
	return &RunQueue{
		levels: levels,
		queues: qs,
	}
}

// Levels returns the level descriptors in dispatch order.
func (rq *RunQueue) Levels() Levels { return rq.levels }

// Len returns the number of tasks queued at level index i.
func (rq *RunQueue) Len(i int) int { return rq.queues[i].Len() }

// Head returns the first task at level index i, or nil.
func (rq *RunQueue) Head(i int) *Task {
	if e := rq.queues[i].Front(); e != nil {
		return e.Value.(*Task)
	}
	return nil
}

// Tasks returns the tasks queued at level index i in FIFO order.
func (rq *RunQueue) Tasks(i int) []*Task {
	out := make([]*Task, 0, rq.queues[i].Len())
	for e := rq.queues[i].Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Task))
	}
	return out
}

// Contains reports whether t sits in a level sequence of this queue.
func (rq *RunQueue) Contains(t *Task) bool {
	return t != nil && t.elem != nil && t.owner == rq
}

// pushBack appends t at the tail of level index i.
func (rq *RunQueue) pushBack(i int, t *Task) {
	if t.elem != nil {
		panic(fmt.Sprintf("sched: %v already queued at #%d", t, t.queue))
	}
	t.elem = rq.queues[i].PushBack(t)
	t.queue = i
	t.owner = rq
}

// unlink removes t from the level sequence holding it.
func (rq *RunQueue) unlink(t *Task) {
	if t.elem == nil || t.owner != rq {
		panic(fmt.Sprintf("sched: %v is not queued", t))
	}
	rq.queues[t.queue].Remove(t.elem)
	t.elem = nil
	t.owner = nil
}

// requeue moves t to the tail of level index i.
func (rq *RunQueue) requeue(i int, t *Task) {
	rq.unlink(t)
	rq.pushBack(i, t)
}

// first returns the head of the highest non-empty level, or nil.
func (rq *RunQueue) first() *Task {
	for i := range rq.queues {
		if t := rq.Head(i); t != nil {
			return t
		}
	}
	return nil
}

// Validate checks the structural invariants of the queue: each queued task
// appears once with a consistent membership token and a non-negative counter,
// and the total matches NrRunning. A running task may still sit in the
// sequence of its previous level under deferred relinking, so level placement
// is not checked here.
func (rq *RunQueue) Validate() error {
	var errs []error
	seen := make(map[*Task]int)
	total := 0
	for i, q := range rq.queues {
		for e := q.Front(); e != nil; e = e.Next() {
			t := e.Value.(*Task)
			total++
			if j, dup := seen[t]; dup {
				errs = append(errs, fmt.Errorf("task %d queued at #%d and #%d", t.ID, j, i))
				continue
			}
			seen[t] = i
			if t.elem != e || t.queue != i || t.owner != rq {
				errs = append(errs, fmt.Errorf("task %d has a stale membership token", t.ID))
			}
			if t.Counter < 0 {
				errs = append(errs, fmt.Errorf("task %d has negative counter %d", t.ID, t.Counter))
			}
		}
	}
	if total != rq.NrRunning {
		errs = append(errs, fmt.Errorf("nr_running %d, queued %d", rq.NrRunning, total))
	}
	return errors.Join(errs...)
}
