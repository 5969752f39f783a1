package job

import "fmt"

// Burst is one phase of a task: CPU ticks followed by an I/O wait.
type Burst struct {
	CPU int `yaml:"cpu"`
	IO  int `yaml:"io"` // ticks blocked after the CPU phase; ignored on the last burst
}

// Spec describes a task the host should admit.
type Spec struct {
	ID     uint64  `yaml:"id"`
	Name   string  `yaml:"name"`
	Level  int     `yaml:"level"`  // initial priority class, policy specific
	Arrive int64   `yaml:"arrive"` // tick at which the task first becomes runnable
	Bursts []Burst `yaml:"bursts"`
}

// Validate rejects specs the host cannot run.
func (s Spec) Validate() error {
	if len(s.Bursts) == 0 {
		return fmt.Errorf("task %d: no bursts", s.ID)
	}
	for i, b := range s.Bursts {
		if b.CPU <= 0 {
			return fmt.Errorf("task %d: burst %d has cpu %d", s.ID, i, b.CPU)
		}
		if b.IO < 0 {
			return fmt.Errorf("task %d: burst %d has io %d", s.ID, i, b.IO)
		}
	}
	if s.Arrive < 0 {
		return fmt.Errorf("task %d: negative arrival %d", s.ID, s.Arrive)
	}
	return nil
}

// TotalCPU is the number of ticks the task needs to finish.
func (s Spec) TotalCPU() int {
	n := 0
	for _, b := range s.Bursts {
		n += b.CPU
	}
	return n
}

// CPUBound returns a single burst that never blocks.
func CPUBound(ticks int) []Burst {
	return []Burst{{CPU: ticks}}
}

// Interactive returns n short bursts separated by I/O waits.
func Interactive(cpu, io, n int) []Burst {
	if n <= 0 {
		return nil
	}
	bs := make([]Burst, n)
	for i := range bs {
		bs[i] = Burst{CPU: cpu, IO: io}
	}
	bs[n-1].IO = 0
	return bs
}

// Workload tracks a task's progress through its bursts.
type Workload struct {
	bursts []Burst
	idx    int
	left   int // CPU ticks left in the current burst
}

func NewWorkload(bursts []Burst) *Workload {
	w := &Workload{bursts: bursts}
	if len(bursts) > 0 {
		w.left = bursts[0].CPU
	}
	return w
}

// Run consumes one CPU tick. When the current burst ends it reports the I/O
// wait that follows and whether the task is finished.
func (w *Workload) Run() (burstDone bool, io int, finished bool) {
	if w.Done() {
		return true, 0, true
	}
	w.left--
	if w.left > 0 {
		return false, 0, false
	}
	io = w.bursts[w.idx].IO
	w.idx++
	if w.idx >= len(w.bursts) {
		return true, 0, true
	}
	w.left = w.bursts[w.idx].CPU
	return true, io, false
}

// Done reports whether every burst has been consumed.
func (w *Workload) Done() bool { return w.idx >= len(w.bursts) }

// Remaining returns the CPU ticks still owed.
func (w *Workload) Remaining() int {
	if w.Done() {
		return 0
	}
	n := w.left
	for _, b := range w.bursts[w.idx+1:] {
		n += b.CPU
	}
	return n
}
