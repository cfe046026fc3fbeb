package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CJJ1008/speed/internal/layout"
	"github.com/CJJ1008/speed/internal/output"
	"github.com/CJJ1008/speed/internal/runners"
)

// multireadCmd runs a concurrent read sweep across several devices.
// Each step first streams the split files out to all targets in
// parallel, then times concurrent full read passes over them with the
// page cache dropped before every round.
var multireadCmd = &cobra.Command{
	Use:   "multiread <dir> [<dir>...]",
	Short: "concurrent read throughput sweep across several directories",
	Long: `Measures aggregate sequential read bandwidth from several
devices into memory. Each total size between --min-total-gb and
--max-total-gb is split evenly across the given directories and
written out first, then read back concurrently with one reader
goroutine per target and the page cache dropped before every round
(needs root; use --no-drop-caches to skip). The step's bandwidth is
the total bytes over the slowest stream's wall time.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, devices, err := prepareMultiTargets(args, "speed_mr")
		if err != nil {
			return err
		}

		cfg := buildConfig(paths)
		cfg.MinBytes = gigabytes(minTotalGB)
		cfg.MaxBytes = gigabytes(maxTotalGB)
		cfg.DropCaches = !noDropCaches
		if err := cfg.Validate(); err != nil {
			return err
		}
		format, err := output.ValidateFormat(cfg.Format)
		if err != nil {
			return err
		}

		log, err := openStepLog(cfg.LogPath, "multiread",
			"concurrent multi-device read throughput sweep",
			multiLogHeader(args, devices, cfg.ChunkBytes, cfg.Rounds),
			[]string{"total_size", "per_disk_size", "avg_wall_s", "agg_GBps", "agg_MBps", "per_disk_MBps", "direct_used", "checksums", "bytes_read"})
		if err != nil {
			return err
		}
		if log != nil {
			defer log.Close()
		}

		s := &sweep{
			kind:    runners.Read,
			cfg:     cfg,
			coord:   runners.New(),
			format:  format,
			devices: devices,
			prepare: func(per int64) (bool, error) {
				return layout.PrepareStreamedFiles(paths, per, cfg.ChunkBytes, cfg.WantDirect, cfg.RequireDirect)
			},
			dropper:        pickDropper(cfg.DropCaches),
			removeEachStep: true,
			log:            log,
			logRow:         multireadLogRow,
		}
		return s.run()
	},
}

func init() {
	multireadCmd.Flags().Float64Var(&minTotalGB, "min-total-gb", 1, "smallest total size across all devices, in gigabytes")
	multireadCmd.Flags().Float64Var(&maxTotalGB, "max-total-gb", 8, "largest total size across all devices, in gigabytes")
	multireadCmd.Flags().BoolVar(&noDropCaches, "no-drop-caches", false, "skip page cache eviction between rounds")
	rootCmd.AddCommand(multireadCmd)
}

func multireadLogRow(step output.Step) []string {
	return append(multiwriteLogRow(step),
		perStreamChecksums(step.Streams),
		fmt.Sprintf("%d", step.TotalBytes))
}

// perStreamChecksums joins the per-stream checksums into one log field
func perStreamChecksums(streams []output.StreamStat) string {
	sums := make([]string, len(streams))
	for i, st := range streams {
		sums[i] = fmt.Sprintf("%08x", st.Checksum)
	}
	return strings.Join(sums, ",")
}
