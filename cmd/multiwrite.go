package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/CJJ1008/speed/internal/output"
	"github.com/CJJ1008/speed/internal/runners"
)

// multiwriteCmd runs a concurrent write sweep across several
// independently mounted devices, splitting each total size evenly and
// streaming to all targets at once. Aggregate bandwidth uses the
// slowest stream's wall time, not the sum.
var multiwriteCmd = &cobra.Command{
	Use:   "multiwrite <dir> [<dir>...]",
	Short: "concurrent write throughput sweep across several directories",
	Long: `Measures aggregate sequential write bandwidth from memory to
several devices at once. Each total size between --min-total-gb and
--max-total-gb is split evenly across the given directories, one
writer goroutine per target, and the step's bandwidth is the total
bytes over the slowest stream's wall time. Give each directory its own
device or the streams will contend for one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, devices, err := prepareMultiTargets(args, "speed_mw")
		if err != nil {
			return err
		}

		cfg := buildConfig(paths)
		cfg.MinBytes = gigabytes(minTotalGB)
		cfg.MaxBytes = gigabytes(maxTotalGB)
		if err := cfg.Validate(); err != nil {
			return err
		}
		format, err := output.ValidateFormat(cfg.Format)
		if err != nil {
			return err
		}

		log, err := openStepLog(cfg.LogPath, "multiwrite",
			"concurrent multi-device write throughput sweep",
			multiLogHeader(args, devices, cfg.ChunkBytes, cfg.Rounds),
			[]string{"total_size", "per_disk_size", "avg_wall_s", "agg_GBps", "agg_MBps", "per_disk_MBps", "direct_used"})
		if err != nil {
			return err
		}
		if log != nil {
			defer log.Close()
		}

		s := &sweep{
			kind:           runners.Write,
			cfg:            cfg,
			coord:          runners.New(),
			format:         format,
			devices:        devices,
			removeEachStep: true,
			log:            log,
			logRow:         multiwriteLogRow,
		}
		return s.run()
	},
}

func init() {
	multiwriteCmd.Flags().Float64Var(&minTotalGB, "min-total-gb", 1, "smallest total size across all devices, in gigabytes")
	multiwriteCmd.Flags().Float64Var(&maxTotalGB, "max-total-gb", 8, "largest total size across all devices, in gigabytes")
	rootCmd.AddCommand(multiwriteCmd)
}

// prepareMultiTargets validates every directory, derives one
// timestamped file path per directory and resolves the backing
// devices for display
func prepareMultiTargets(dirs []string, prefix string) ([]string, []string, error) {
	stamp := time.Now().Format("20060102_150405")

	paths := make([]string, len(dirs))
	for i, d := range dirs {
		if err := ensureWritableDirectory(d); err != nil {
			return nil, nil, err
		}
		paths[i] = filepath.Join(d, fmt.Sprintf("%s_part%d_%s.bin", prefix, i+1, stamp))
	}

	fmt.Fprintf(os.Stderr, "target devices (%d):\n", len(dirs))
	devices := resolveDevices(dirs)

	return paths, devices, nil
}

// multiLogHeader describes the target set in the log file preamble
func multiLogHeader(dirs, devices []string, chunkBytes int64, rounds int) []string {
	header := []string{fmt.Sprintf("targets: %d", len(dirs))}
	for i, d := range dirs {
		header = append(header, fmt.Sprintf("  %s  (%s)", d, devices[i]))
	}
	header = append(header,
		fmt.Sprintf("chunk:  %s", output.HumanSize(chunkBytes)),
		fmt.Sprintf("rounds: %d", rounds))
	return header
}

func multiwriteLogRow(step output.Step) []string {
	return []string{
		output.HumanSize(step.TotalBytes),
		output.HumanSize(step.PerTarget),
		fmt.Sprintf("%.4f", step.AvgWallSeconds),
		fmt.Sprintf("%.4f", step.GBps),
		fmt.Sprintf("%.2f", step.MBps),
		perStreamMBps(step.Streams),
		fmt.Sprintf("%v", step.Direct),
	}
}

// perStreamMBps joins the per-stream bandwidths into one log field
func perStreamMBps(streams []output.StreamStat) string {
	rates := make([]string, len(streams))
	for i, st := range streams {
		rates[i] = fmt.Sprintf("%.2f", st.MBps)
	}
	return strings.Join(rates, ",")
}

// gigabytes converts a fractional gigabyte count to bytes
func gigabytes(gb float64) int64 {
	return int64(gb * float64(1<<30))
}
