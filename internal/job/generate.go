package job

import (
	"fmt"
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// GenParams shapes a synthetic task mix.
type GenParams struct {
	Count       int     `yaml:"count"`
	Seed        uint64  `yaml:"seed"`
	ArrivalRate float64 `yaml:"arrival_rate"` // mean arrivals per tick
	Interactive float64 `yaml:"interactive"`  // fraction of I/O-bound tasks, 0..1
	MaxCPU      int     `yaml:"max_cpu"`      // upper bound on one CPU burst
	MaxIO       int     `yaml:"max_io"`       // upper bound on one I/O wait
	Level       int     `yaml:"level"`        // admission level for every task
	FirstID     uint64  `yaml:"first_id"`
}

func (p GenParams) withDefaults() GenParams {
	if p.ArrivalRate <= 0 {
		p.ArrivalRate = 0.2
	}
	if p.MaxCPU <= 0 {
		p.MaxCPU = 20
	}
	if p.MaxIO <= 0 {
		p.MaxIO = 10
	}
	if p.FirstID == 0 {
		p.FirstID = 1
	}
	return p
}

// Generate builds Count task specs with Poisson arrivals. I/O-bound tasks get
// several short bursts, the rest one long burst. The same seed always yields
// the same mix.
func Generate(p GenParams) ([]Spec, error) {
	if p.Count < 0 {
		return nil, fmt.Errorf("generate: negative count %d", p.Count)
	}
	if p.Interactive < 0 || p.Interactive > 1 {
		return nil, fmt.Errorf("generate: interactive fraction %v outside [0,1]", p.Interactive)
	}
	p = p.withDefaults()
	src := exprand.NewSource(p.Seed)
	arrivals := distuv.Poisson{Lambda: p.ArrivalRate, Src: src}
	coin := distuv.Bernoulli{P: p.Interactive, Src: src}
	cpu := distuv.Uniform{Min: 1, Max: float64(p.MaxCPU) + 1, Src: src}
	io := distuv.Uniform{Min: 1, Max: float64(p.MaxIO) + 1, Src: src}
	short := distuv.Uniform{Min: 1, Max: math.Max(2, float64(p.MaxCPU)/4+1), Src: src}

	specs := make([]Spec, 0, p.Count)
	tick := int64(0)
	for len(specs) < p.Count {
		n := int(arrivals.Rand())
		for i := 0; i < n && len(specs) < p.Count; i++ {
			id := p.FirstID + uint64(len(specs))
			s := Spec{ID: id, Level: p.Level, Arrive: tick}
			if coin.Rand() == 1 {
				s.Name = fmt.Sprintf("io-%d", id)
				s.Bursts = Interactive(int(short.Rand()), int(io.Rand()), 2+int(short.Rand()))
			} else {
				s.Name = fmt.Sprintf("cpu-%d", id)
				s.Bursts = CPUBound(int(cpu.Rand()))
			}
			specs = append(specs, s)
		}
		tick++
	}
	return specs, nil
}
