// package runners coordinates concurrent throughput probes, one per
// target device path. all probes of a round launch together, run on
// independent goroutines with no shared mutable state on the data
// path, and are joined before any aggregation or error surfaces.
package runners

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/CJJ1008/speed/internal/dio"
	"github.com/CJJ1008/speed/internal/probe"
)

// Kind selects the transfer direction of a round
type Kind int

const (
	// Write streams from memory to storage
	Write Kind = iota

	// Read streams from storage to memory
	Read
)

// Target pairs one file path with the bytes to move through it
type Target struct {
	Path string
	Size int64
}

// AggregateReport is the outcome of one concurrent round. Streams is
// indexed like the targets slice so per-target identity survives
// aggregation.
type AggregateReport struct {
	// sum of bytes actually transferred across all streams
	TotalBytes int64

	// wall-clock span from round start to the last finisher. streams
	// overlap in time, so this is the only denominator that gives a
	// truthful combined bandwidth.
	Wall time.Duration

	// per-stream results, indexed by target
	Streams []probe.Result

	// whether every stream achieved o_direct
	AllDirect bool
}

// BytesPerSecond returns the combined throughput over the round's
// wall-clock span
func (r AggregateReport) BytesPerSecond() float64 {
	if r.Wall <= 0 {
		return 0
	}
	return float64(r.TotalBytes) / r.Wall.Seconds()
}

// probeFunc matches the probe entry points so tests can substitute
// synthetic workers
type probeFunc func(path string, size, chunkSize int64, wantDirect, mandatory bool) (probe.Result, error)

// Coordinator fans rounds out across targets
type Coordinator struct {
	runWrite probeFunc
	runRead  probeFunc
}

// New returns a coordinator wired to the real probes
func New() *Coordinator {
	return &Coordinator{
		runWrite: probe.RunWrite,
		runRead:  probe.RunRead,
	}
}

// RunRound launches one probe per target and blocks until every probe
// has produced a result. a probe failure never interrupts its
// siblings: errors are collected and the round fails as a whole only
// after the join, so no handle or temp file is orphaned mid-flight.
// on a failed write round the coordinator removes every file the
// round created, including those of successful siblings.
func (c *Coordinator) RunRound(kind Kind, targets []Target, chunkSize int64, wantDirect, mandatory bool) (AggregateReport, error) {
	if len(targets) == 0 {
		return AggregateReport{}, errors.New("no targets for round")
	}

	run := c.runWrite
	if kind == Read {
		run = c.runRead
	}

	// each worker writes only its own slot, synchronized by the join
	results := make([]probe.Result, len(targets))
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	start := time.Now()

	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt Target) {
			defer wg.Done()
			results[i], errs[i] = run(tgt.Path, tgt.Size, chunkSize, wantDirect, mandatory)
		}(i, tgt)
	}

	wg.Wait()
	wall := time.Since(start)

	report := AggregateReport{
		Wall:      wall,
		Streams:   results,
		AllDirect: true,
	}
	for _, res := range results {
		report.TotalBytes += res.Bytes
		report.AllDirect = report.AllDirect && res.Direct
	}

	if err := roundError(targets, errs); err != nil {
		if kind == Write {
			// failure path cleanup: siblings may have created files
			// the caller never learns the names of
			removeTargets(targets)
		}
		return report, err
	}

	return report, nil
}

// roundError reduces per-worker errors to the round's error. an unmet
// mandatory direct-mode requirement anywhere dominates, because a
// partial round cannot answer whether direct io is achievable on every
// device. otherwise the first io failure wins.
func roundError(targets []Target, errs []error) error {
	var first error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, dio.ErrDirectUnavailable) {
			return fmt.Errorf("target %s: %w", targets[i].Path, err)
		}
		if first == nil {
			first = fmt.Errorf("target %s: %w", targets[i].Path, err)
		}
	}
	return first
}

func removeTargets(targets []Target) {
	for _, tgt := range targets {
		// best effort, the round already failed
		_ = os.Remove(tgt.Path)
	}
}
