// internal/kernel/event.go

package kernel

import (
	"time"

	"mlfq/internal/sched"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusEnqueue
	StatusWake
	StatusDispatch
	StatusPreempt
	StatusDemote
	StatusBlock
	StatusFinish
	StatusTick
)

// StatusEvent is emitted every tick or on key actions
type StatusEvent struct {
	Time    time.Time
	Tick    int64
	Kind    StatusKind
	TaskID  sched.TaskID
	Level   int
	Counter int
	Queued  int // run queue population after the event
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusWake:
		return "Wake"
	case StatusDispatch:
		return "Dispatch"
	case StatusPreempt:
		return "Preempt"
	case StatusDemote:
		return "Demote"
	case StatusBlock:
		return "Block"
	case StatusFinish:
		return "Finish"
	case StatusTick:
		return "Tick"
	default:
		return "Unknown"
	}
}
