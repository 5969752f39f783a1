package kernel

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"

	"mlfq/internal/sched"
)

// TaskStats is the per-task accounting a run produces. Ticks are -1 until the
// event they record has happened.
type TaskStats struct {
	ID          sched.TaskID
	Name        string
	Arrive      int64
	FirstRun    int64
	Finish      int64
	Demoted     int64 // tick of the first demotion
	Level       int   // level at exit
	CPU         int64
	Left        int64 // CPU ticks still owed when the snapshot was taken
	Wait        int64 // ticks spent queued while another task ran
	IO          int64
	Dispatches  int64
	Preemptions int64
}

// Response is the delay between arrival and first dispatch.
func (s TaskStats) Response() int64 {
	if s.FirstRun < 0 {
		return -1
	}
	return s.FirstRun - s.Arrive
}

// Turnaround is the delay between arrival and exit.
func (s TaskStats) Turnaround() int64 {
	if s.Finish < 0 {
		return -1
	}
	return s.Finish - s.Arrive
}

// Summary aggregates a run.
type Summary struct {
	Policy         string
	Ticks          int64
	IdleTicks      int64
	Switches       int64
	Completed      bool
	Tasks          []TaskStats
	MeanTurnaround float64
	P95Turnaround  float64
	MeanResponse   float64
	P95Response    float64
	MeanWait       float64
}

// Summary snapshots the per-task accounting, ordered by task ID.
func (k *Kernel) Summary() Summary {
	k.mu.Lock()
	defer k.mu.Unlock()

	sum := Summary{
		Policy:    k.policy.Name(),
		Ticks:     k.now,
		IdleTicks: k.idleTicks,
		Switches:  k.switches,
		Completed: k.live == 0,
	}
	var turn, resp, wait stats.Float64Data
	for _, v := range k.procs.Values() {
		p := v.(*proc)
		st := p.stats
		st.Left = int64(p.work.Remaining())
		sum.Tasks = append(sum.Tasks, st)
		if ta := st.Turnaround(); ta >= 0 {
			turn = append(turn, float64(ta))
			wait = append(wait, float64(st.Wait))
		}
		if r := st.Response(); r >= 0 {
			resp = append(resp, float64(r))
		}
	}
	// stats returns an error only for empty input, where zero is the answer
	sum.MeanTurnaround, _ = stats.Mean(turn)
	sum.P95Turnaround, _ = stats.Percentile(turn, 95)
	sum.MeanResponse, _ = stats.Mean(resp)
	sum.P95Response, _ = stats.Percentile(resp, 95)
	sum.MeanWait, _ = stats.Mean(wait)
	return sum
}

// WriteReport renders the summary as an aligned table.
func (s Summary) WriteReport(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "ID\tName\tArrive\tFirst\tFinish\tCPU\tLeft\tWait\tIO\tResp\tTurn\tDemoted\tLevel\tPreempt\t\n")
	for _, t := range s.Tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t\n",
			t.ID, t.Name,
			humanize.Comma(t.Arrive),
			tickOrDash(t.FirstRun),
			tickOrDash(t.Finish),
			humanize.Comma(t.CPU),
			humanize.Comma(t.Left),
			humanize.Comma(t.Wait),
			humanize.Comma(t.IO),
			tickOrDash(t.Response()),
			tickOrDash(t.Turnaround()),
			tickOrDash(t.Demoted),
			t.Level,
			t.Preemptions,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	util := 0.0
	if s.Ticks > 0 {
		util = 100 * float64(s.Ticks-s.IdleTicks) / float64(s.Ticks)
	}
	_, err := fmt.Fprintf(w,
		"\npolicy=%s ticks=%s switches=%s cpu=%.1f%% completed=%t\n"+
			"turnaround mean=%.2f p95=%.2f  response mean=%.2f p95=%.2f  wait mean=%.2f\n",
		s.Policy, humanize.Comma(s.Ticks), humanize.Comma(s.Switches), util, s.Completed,
		s.MeanTurnaround, s.P95Turnaround, s.MeanResponse, s.P95Response, s.MeanWait)
	return err
}

func tickOrDash(v int64) string {
	if v < 0 {
		return "-"
	}
	return humanize.Comma(v)
}
