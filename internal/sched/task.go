package sched

import (
	"container/list"
	"fmt"
)

// TaskID uniquely identifies a task in the run queue.
type TaskID uint64

// TaskState is the lifecycle state of a task as seen by the host.
type TaskState int

const (
	StateNew TaskState = iota
	StateRunnable
	StateRunning
	StateBlocked
	StateExited
)

func (s TaskState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateRunnable:
		return "RUNNABLE"
	case StateRunning:
		return "RUNNING"
	case StateBlocked:
		return "BLOCKED"
	case StateExited:
		return "EXITED"
	default:
		return "UNKNOWN"
	}
}

// Task carries the scheduling-relevant state of one schedulable unit.
//
// The host is the only writer of State. The policy is the only writer of
// Level, Counter and NeedResched, and of queue membership through RunQueue.
type Task struct {
	ID          TaskID
	Name        string
	State       TaskState
	Level       int  // current priority class, meaning depends on the policy
	Counter     int  // remaining time-slice ticks
	NeedResched bool // cooperative request for a reschedule

	// queue membership token; nil when the task is in no level sequence
	elem  *list.Element
	queue int
	owner *RunQueue
}

// NewTask creates a task at the given level with a full time slice.
// NOTE: the task is not queued; the host hands it to Policy.Enqueue when it
// becomes runnable.
func NewTask(id TaskID, name string, level, timeSlice int) *Task {
	if timeSlice <= 0 {
		timeSlice = DefaultTimeSlice
	}
	return &Task{
		ID:      id,
		Name:    name,
		State:   StateNew,
		Level:   level,
		Counter: timeSlice,
	}
}

// Queued reports whether the task currently sits in a level sequence.
func (t *Task) Queued() bool { return t.elem != nil }

func (t *Task) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("task %d(%s) L%d c=%d %s", t.ID, t.Name, t.Level, t.Counter, t.State)
}
