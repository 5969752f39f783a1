// internal/kernel/kernel.go

package kernel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/google/uuid"

	"mlfq/internal/job"
	"mlfq/internal/logging"
	"mlfq/internal/sched"
)

// IdleID is reserved for the kernel's idle task.
const IdleID sched.TaskID = 0

var (
	ErrDuplicateTask = errors.New("task already exists")
	ErrReservedID    = errors.New("task id is reserved")
	ErrLevel         = errors.New("level not admitted by policy")
)

// Kernel is a single-CPU host that drives a scheduling policy one timer
// interrupt at a time and streams state changes.
type Kernel struct {
	// Scheduler-related
	mu        sync.Mutex      // serialises every policy call
	cfg       Config          // tick pacing, time slice, limits
	policy    sched.Policy    // the policy under test
	rq        *sched.RunQueue // run queue shaped by the policy
	idle      *sched.Task     // runs whenever the policy has nothing
	cur       *sched.Task     // task on the CPU, idle included
	now       int64           // current tick
	procs     *treemap.Map    // TaskID -> *proc, ordered by ID
	sleepers  *binaryheap.Heap
	seq       uint64 // tie-break for sleepers waking on the same tick
	live      int    // tasks admitted but not exited
	switches  int64
	idleTicks int64

	// event-related
	logger    *slog.Logger
	runID     uuid.UUID
	pending   []StatusEvent
	observers []func(StatusEvent)
	statusCh  chan StatusEvent

	// logging-related
	csvFile   *os.File
	csvWriter *csv.Writer
}

// proc is the kernel's bookkeeping for one task.
type proc struct {
	task  *sched.Task
	work  *job.Workload
	stats TaskStats
}

// wakeup is a pending arrival or end of an I/O wait.
type wakeup struct {
	at  int64
	seq uint64
	id  sched.TaskID
}

// New creates a kernel around the given policy. A nil logger discards logs.
func New(cfg Config, policy sched.Policy, logger *slog.Logger) *Kernel {
	cfg.clamp()
	if logger == nil {
		logger = logging.Discard()
	}
	idle := sched.NewTask(IdleID, "idle", -1, cfg.TimeSlice)
	idle.State = sched.StateRunning

	return &Kernel{
		cfg:      cfg,
		policy:   policy,
		rq:       policy.NewRunQueue(),
		idle:     idle,
		cur:      idle,
		procs:    treemap.NewWith(idCmp),
		sleepers: binaryheap.NewWith(wakeCmp),
		logger:   logger.With("policy", policy.Name()),
		runID:    uuid.New(),
	}
}

// Add registers a task; it becomes runnable at its arrival tick.
func (k *Kernel) Add(spec job.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	id := sched.TaskID(spec.ID)

	k.mu.Lock()
	defer k.mu.Unlock()

	if id == IdleID {
		return fmt.Errorf("task %d: %w", id, ErrReservedID)
	}
	if _, dup := k.procs.Get(id); dup {
		return fmt.Errorf("task %d: %w", id, ErrDuplicateTask)
	}
	if !k.policy.Admits(spec.Level) {
		return fmt.Errorf("task %d: %w: %s takes levels %v", id, ErrLevel, k.policy.Name(), k.policy.Levels())
	}
	name := spec.Name
	if name == "" {
		name = "task-" + strconv.FormatUint(spec.ID, 10)
	}
	arrive := spec.Arrive
	if arrive < k.now {
		arrive = k.now
	}

	p := &proc{
		task: sched.NewTask(id, name, spec.Level, k.cfg.TimeSlice),
		work: job.NewWorkload(spec.Bursts),
		stats: TaskStats{
			ID:       id,
			Name:     name,
			Arrive:   arrive,
			FirstRun: -1,
			Finish:   -1,
			Demoted:  -1,
		},
	}
	k.procs.Put(id, p)
	k.sleep(id, arrive)
	k.live++
	return nil
}

// AddAll registers every spec, stopping at the first error.
func (k *Kernel) AddAll(specs []job.Spec) error {
	for _, s := range specs {
		if err := k.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// OnEvent registers an observer called after each Step with that step's
// events. Observers run without the kernel lock held.
func (k *Kernel) OnEvent(fn func(StatusEvent)) {
	k.mu.Lock()
	k.observers = append(k.observers, fn)
	k.mu.Unlock()
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Run().
func (k *Kernel) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open csv trace: %w", err)
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"run_id", "timestamp", "tick", "event", "task_id", "level", "counter", "queued"}); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	w.Flush()
	k.csvFile = f
	k.csvWriter = w
	return nil
}

// Now returns the current tick.
func (k *Kernel) Now() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.now
}

// Current returns the task on the CPU, or nil while idle.
func (k *Kernel) Current() *sched.Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cur == k.idle {
		return nil
	}
	return k.cur
}

// Task returns the task registered under id.
func (k *Kernel) Task(id sched.TaskID) (*sched.Task, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.procs.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*proc).task, true
}

// RunQueue exposes the run queue for inspection between steps.
func (k *Kernel) RunQueue() *sched.RunQueue { return k.rq }

// Done reports whether every admitted task has exited.
func (k *Kernel) Done() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.live == 0
}

// Step performs one timer interrupt: pending arrivals and wake-ups are
// enqueued, a reschedule happens if one is due, and the task on the CPU is
// charged one tick.
func (k *Kernel) Step() {
	k.mu.Lock()
	k.step()
	evs := k.pending
	k.pending = nil
	obs := k.observers
	k.mu.Unlock()

	for _, ev := range evs {
		for _, fn := range obs {
			fn(ev)
		}
	}
}

func (k *Kernel) step() {
	k.release()
	if k.needsSchedule() {
		k.schedule()
	}
	k.accountWaiting()
	if k.cur == k.idle {
		k.idleTicks++
	} else {
		k.runCurrent()
	}
	if k.cfg.Debug {
		if err := k.rq.Validate(); err != nil {
			panic(fmt.Sprintf("kernel: run queue corrupt at tick %d: %v", k.now, err))
		}
	}
	k.now++
}

// release enqueues every sleeper whose wake tick has come.
func (k *Kernel) release() {
	for {
		v, ok := k.sleepers.Peek()
		if !ok || v.(wakeup).at > k.now {
			return
		}
		k.sleepers.Pop()
		p := k.proc(v.(wakeup).id)
		t := p.task

		kind := StatusWake
		if t.State == sched.StateNew {
			kind = StatusEnqueue
		}
		t.State = sched.StateRunnable
		k.policy.Enqueue(k.rq, t)
		k.emit(kind, t)
		k.logger.Debug("task runnable", "tick", k.now, "task", t.ID, "level", t.Level)
	}
}

func (k *Kernel) needsSchedule() bool {
	return k.cur == k.idle || k.cur.State != sched.StateRunning || k.cur.NeedResched
}

// schedule asks the policy for the next task and switches to it. A nil
// answer, or one naming a task the run queue does not hold, selects idle.
func (k *Kernel) schedule() {
	prev := k.cur
	next := k.policy.PickNext(k.rq, prev)
	if next == nil || !k.rq.Contains(next) {
		next = k.idle
	}
	prev.NeedResched = false
	if next == prev {
		return
	}

	if prev != k.idle && prev.State == sched.StateRunning {
		prev.State = sched.StateRunnable
		k.proc(prev.ID).stats.Preemptions++
		k.emit(StatusPreempt, prev)
	}
	k.switches++
	k.cur = next

	if next == k.idle {
		k.rq.Running = nil
		k.emit(StatusIdle, next)
		return
	}
	next.State = sched.StateRunning
	k.rq.Running = next
	st := &k.proc(next.ID).stats
	st.Dispatches++
	if st.FirstRun < 0 {
		st.FirstRun = k.now
	}
	k.emit(StatusDispatch, next)
}

// runCurrent charges one tick to the running task and retires it when its
// burst ends.
func (k *Kernel) runCurrent() {
	t := k.cur
	p := k.proc(t.ID)
	p.stats.CPU++

	level := t.Level
	k.policy.Tick(k.rq, t)
	k.emit(StatusTick, t)
	if t.Level != level {
		if p.stats.Demoted < 0 {
			p.stats.Demoted = k.now
		}
		k.emit(StatusDemote, t)
		k.logger.Debug("task demoted", "tick", k.now, "task", t.ID, "from", level, "to", t.Level)
	}

	burstDone, io, finished := p.work.Run()
	switch {
	case finished:
		t.State = sched.StateExited
		k.policy.Dequeue(k.rq, t)
		p.stats.Finish = k.now + 1
		p.stats.Level = t.Level
		k.live--
		k.emit(StatusFinish, t)
	case burstDone:
		t.State = sched.StateBlocked
		k.policy.Dequeue(k.rq, t)
		p.stats.IO += int64(io)
		k.sleep(t.ID, k.now+1+int64(io))
		k.emit(StatusBlock, t)
	}
}

// accountWaiting charges a tick of waiting to every queued task that is not
// on the CPU.
func (k *Kernel) accountWaiting() {
	for i := range k.rq.Levels() {
		for _, t := range k.rq.Tasks(i) {
			if t != k.cur {
				k.proc(t.ID).stats.Wait++
			}
		}
	}
}

func (k *Kernel) sleep(id sched.TaskID, at int64) {
	k.seq++
	k.sleepers.Push(wakeup{at: at, seq: k.seq, id: id})
}

func (k *Kernel) proc(id sched.TaskID) *proc {
	v, ok := k.procs.Get(id)
	if !ok {
		panic(fmt.Sprintf("kernel: unknown task %d", id))
	}
	return v.(*proc)
}

func (k *Kernel) emit(kind StatusKind, t *sched.Task) {
	k.pending = append(k.pending, StatusEvent{
		Time:    time.Now(),
		Tick:    k.now,
		Kind:    kind,
		TaskID:  t.ID,
		Level:   t.Level,
		Counter: t.Counter,
		Queued:  k.rq.NrRunning,
	})
}

// Run drives Step from a TickClock until every task exits, max_ticks is
// reached, or ctx is cancelled, and returns the run's summary.
func (k *Kernel) Run(ctx context.Context) (Summary, error) {
	k.mu.Lock()
	if k.statusCh != nil {
		k.mu.Unlock()
		return Summary{}, errors.New("kernel already running")
	}
	k.statusCh = make(chan StatusEvent, 256) // buffered channel for status events
	k.observers = append(k.observers, func(ev StatusEvent) { k.statusCh <- ev })
	k.mu.Unlock()

	// start loop
	go k.loop(ctx)

	// consume events
	for ev := range k.statusCh {
		k.handleEvent(ev)
	}

	if k.csvFile != nil {
		k.csvWriter.Flush()
		if err := k.csvWriter.Error(); err != nil {
			k.logger.Warn("csv trace incomplete", "err", err)
		}
		k.csvFile.Close()
	}

	sum := k.Summary()
	k.logger.Info("run finished",
		"run_id", k.runID,
		"ticks", sum.Ticks,
		"completed", sum.Completed,
		"switches", sum.Switches)
	if err := ctx.Err(); err != nil && !sum.Completed {
		return sum, err
	}
	return sum, nil
}

// loop paces steps with the tick clock
func (k *Kernel) loop(ctx context.Context) {
	clock := NewTickClock(1)
	clock.Start(time.Duration(k.cfg.TickMS) * time.Millisecond)
	defer func() {
		// stop the underlying clock to release its goroutine
		clock.Stop()
		close(k.statusCh)
	}()

	for !k.Done() && k.Now() < k.cfg.MaxTicks {
		if !clock.Wait(ctx) {
			return
		}
		k.Step()
	}
	if !k.Done() {
		k.logger.Warn("max ticks reached", "max_ticks", k.cfg.MaxTicks)
	}
	k.logger.Debug("tick clock stopped", "delivered", clock.Count())
}

func (k *Kernel) handleEvent(ev StatusEvent) {
	// ticks are only interesting when debugging
	level := slog.LevelInfo
	if ev.Kind == StatusTick {
		level = slog.LevelDebug
	}
	k.logger.Log(context.Background(), level, ev.Kind.String(),
		"tick", ev.Tick,
		"task", ev.TaskID,
		"level", ev.Level,
		"counter", ev.Counter,
		"queued", ev.Queued)

	// CSV output
	if k.csvWriter != nil {
		rec := []string{
			k.runID.String(),
			ev.Time.Format(time.RFC3339Nano),
			strconv.FormatInt(ev.Tick, 10),
			ev.Kind.String(),
			strconv.FormatUint(uint64(ev.TaskID), 10),
			strconv.Itoa(ev.Level),
			strconv.Itoa(ev.Counter),
			strconv.Itoa(ev.Queued),
		}
		k.csvWriter.Write(rec)
	}
}

// idCmp orders the task table by ID.
func idCmp(a, b any) int {
	ia, ib := a.(sched.TaskID), b.(sched.TaskID)
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}

// wakeCmp orders sleepers by wake tick, then by the order they went to sleep.
func wakeCmp(a, b any) int {
	wa, wb := a.(wakeup), b.(wakeup)
	switch {
	case wa.at < wb.at:
		return -1
	case wa.at > wb.at:
		return 1
	case wa.seq < wb.seq:
		return -1
	case wa.seq > wb.seq:
		return 1
	default:
		return 0
	}
}
