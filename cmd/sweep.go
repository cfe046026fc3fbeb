package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/CJJ1008/speed/internal/config"
	"github.com/CJJ1008/speed/internal/layout"
	"github.com/CJJ1008/speed/internal/osutil"
	"github.com/CJJ1008/speed/internal/output"
	"github.com/CJJ1008/speed/internal/runners"
)

// sweep drives the doubling-size loop shared by all four scenarios:
// for each total size between the configured bounds it optionally
// prepares the target files, runs the configured number of rounds
// through the coordinator, averages the wall times and emits one step
// of output and one log row.
type sweep struct {
	kind    runners.Kind
	cfg     *config.Config
	coord   *runners.Coordinator
	format  output.OutputFormat
	devices []string // backing device per path, display only

	// prepare lays out the read targets for one size step, returning
	// whether the preparation itself achieved direct mode. nil for
	// write sweeps, which create their files inside the timed pass.
	prepare func(perTarget int64) (bool, error)

	// dropper evicts the page cache before each read round. nil
	// disables dropping entirely.
	dropper osutil.CacheDropper

	// removeEachStep deletes the test files after every size step to
	// free space for the next doubling, the multi-device behavior
	removeEachStep bool

	log    *output.Log
	logRow func(step output.Step) []string
}

func (s *sweep) run() error {
	total := s.cfg.MinBytes

	for total <= s.cfg.MaxBytes {
		per, err := s.cfg.PerTarget(total)
		if err != nil {
			return err
		}
		realTotal := per * int64(len(s.cfg.Paths))

		fmt.Fprintf(os.Stderr, "== size step %s (%s per target) ==\n",
			output.HumanSize(realTotal), output.HumanSize(per))

		if s.prepare != nil {
			prepDirect, err := s.prepare(per)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "prepared, direct_used_in_prepare=%v\n", prepDirect)
		}

		targets := make([]runners.Target, len(s.cfg.Paths))
		for i, p := range s.cfg.Paths {
			targets[i] = runners.Target{Path: p, Size: per}
		}

		var wallSum time.Duration
		var last runners.AggregateReport
		dropOK := false

		for r := 0; r < s.cfg.Rounds; r++ {
			if s.dropper != nil {
				dropOK = s.dropper.Drop()
				fmt.Fprintf(os.Stderr, "[round %d] drop_caches: %v\n", r+1, dropOK)
			}

			report, err := s.coord.RunRound(s.kind, targets, s.cfg.ChunkBytes, s.cfg.WantDirect, s.cfg.RequireDirect)
			if err != nil {
				return err
			}
			if s.cfg.Debug {
				spew.Fdump(os.Stderr, report)
			}

			wallSum += report.Wall
			last = report
			fmt.Fprintf(os.Stderr, "[round %d] wall=%.4fs  agg=%.2f MB/s\n",
				r+1, report.Wall.Seconds(), output.MBps(report.TotalBytes, report.Wall))
		}

		avgWall := wallSum / time.Duration(s.cfg.Rounds)

		step := output.NewStep(last.TotalBytes, per, avgWall)
		step.Direct = last.AllDirect
		step.DropOK = dropOK
		step.Streams = s.streamStats(last)

		text, err := output.FormatStep(step, s.format)
		if err != nil {
			return err
		}
		fmt.Print(text)

		if s.log != nil {
			if err := s.log.WriteRow(s.logRow(step)...); err != nil {
				return err
			}
		}

		if s.removeEachStep && !s.cfg.KeepFiles {
			layout.RemoveFiles(s.cfg.Paths)
			fmt.Fprintln(os.Stderr, "removed step test files")
		}

		total *= 2
	}

	return nil
}

// streamStats folds the per-stream probe results into display form,
// keeping target order
func (s *sweep) streamStats(report runners.AggregateReport) []output.StreamStat {
	stats := make([]output.StreamStat, len(report.Streams))
	for i, res := range report.Streams {
		stats[i] = output.StreamStat{
			Path:     s.cfg.Paths[i],
			Device:   s.devices[i],
			MBps:     output.MBps(res.Bytes, res.Elapsed),
			Bytes:    res.Bytes,
			Direct:   res.Direct,
			Checksum: res.Checksum,
		}
	}
	return stats
}

// resolveDevices maps every target path to its backing block device
// for display, and announces the mapping
func resolveDevices(dirs []string) []string {
	devices := make([]string, len(dirs))
	for i, d := range dirs {
		devices[i] = osutil.MountDevice(d)
		fmt.Fprintf(os.Stderr, "  %s  ->  %s\n", d, devices[i])
	}
	return devices
}
