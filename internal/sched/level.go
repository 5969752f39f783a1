package sched

import "fmt"

// NoDemotion marks a level that has no lower level to fall to.
const NoDemotion = -1

// LevelDesc describes one priority level of a run queue. Levels are kept in
// dispatch order: index 0 is always served first.
type LevelDesc struct {
	Rank       int  // value stored in Task.Level for tasks of this level
	TimeSliced bool // whether Tick charges Task.Counter at this level
	DemoteTo   int  // index of the level a task falls to on slice expiry, or NoDemotion
}

// Levels is an ordered list of level descriptors.
type Levels []LevelDesc

// Index returns the position of the level whose rank is r.
func (ls Levels) Index(r int) (int, bool) {
	for i, l := range ls {
		if l.Rank == r {
			return i, true
		}
	}
	return 0, false
}

// mustIndex is Index for callers that hold a contract on the rank.
func (ls Levels) mustIndex(r int) int {
	i, ok := ls.Index(r)
	if !ok {
		panic(fmt.Sprintf("sched: level %d outside %v", r, ls.ranks()))
	}
	return i
}

func (ls Levels) ranks() []int {
	rs := make([]int, len(ls))
	for i, l := range ls {
		rs[i] = l.Rank
	}
	return rs
}

// validate rejects descriptor lists a policy cannot run on.
func (ls Levels) validate() error {
	if len(ls) == 0 {
		return fmt.Errorf("no levels")
	}
	seen := make(map[int]bool, len(ls))
	for i, l := range ls {
		if seen[l.Rank] {
			return fmt.Errorf("duplicate rank %d", l.Rank)
		}
		seen[l.Rank] = true
		// demotion only ratchets downward
		if l.DemoteTo != NoDemotion && (l.DemoteTo <= i || l.DemoteTo >= len(ls)) {
			return fmt.Errorf("level %d demotes to invalid index %d", l.Rank, l.DemoteTo)
		}
	}
	return nil
}

func (l LevelDesc) String() string {
	mode := "fcfs"
	if l.TimeSliced {
		mode = "sliced"
	}
	if l.DemoteTo == NoDemotion {
		return fmt.Sprintf("L%d(%s)", l.Rank, mode)
	}
	return fmt.Sprintf("L%d(%s, demote->#%d)", l.Rank, mode, l.DemoteTo)
}
