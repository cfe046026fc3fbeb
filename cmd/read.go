package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/CJJ1008/speed/internal/layout"
	"github.com/CJJ1008/speed/internal/osutil"
	"github.com/CJJ1008/speed/internal/output"
	"github.com/CJJ1008/speed/internal/runners"
)

var noDropCaches bool // skip page cache eviction between read rounds

// readCmd runs a single-target sequential read sweep: one device to
// memory. Each size step lays out a fresh preallocated file, then
// times repeated full passes over it, dropping the page cache before
// every round so the device is actually hit.
var readCmd = &cobra.Command{
	Use:   "read <dir>",
	Short: "sequential read throughput sweep against one directory",
	Long: `Measures sequential read bandwidth from a single device into
memory. For each size step a file is preallocated in <dir> and read
back in full, with the page cache dropped before every round (needs
root; use --no-drop-caches to skip). Sizes double from --min-mb up to
--max-mb.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if err := ensureWritableDirectory(dir); err != nil {
			return err
		}

		target := filepath.Join(dir, fmt.Sprintf("speed_read_%s.bin",
			time.Now().Format("20060102_150405")))

		cfg := buildConfig([]string{target})
		cfg.DropCaches = !noDropCaches
		if err := cfg.Validate(); err != nil {
			return err
		}
		format, err := output.ValidateFormat(cfg.Format)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "target device:")
		devices := resolveDevices([]string{dir})

		log, err := openStepLog(cfg.LogPath, "read",
			"sequential read throughput sweep",
			[]string{fmt.Sprintf("target: %s", target),
				fmt.Sprintf("chunk:  %s", output.HumanSize(cfg.ChunkBytes)),
				fmt.Sprintf("rounds: %d", cfg.Rounds)},
			[]string{"size", "avg_s", "MBps", "GBps", "direct_used", "drop_caches_ok"})
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
				return false, layout.PrepareReadFile(target, per)
			},
			dropper: pickDropper(cfg.DropCaches),
			log:     log,
			logRow:  readLogRow,
		}
		if err := s.run(); err != nil {
			return err
		}

		if !cfg.KeepFiles {
			layout.RemoveFiles(cfg.Paths)
		}
		return nil
	},
}

func init() {
	readCmd.Flags().Int64Var(&minMB, "min-mb", 256, "smallest test size in megabytes")
	readCmd.Flags().Int64Var(&maxMB, "max-mb", 1024, "largest test size in megabytes")
	readCmd.Flags().BoolVar(&noDropCaches, "no-drop-caches", false, "skip page cache eviction between rounds")
	rootCmd.AddCommand(readCmd)
}

// pickDropper selects the page cache eviction strategy
func pickDropper(drop bool) osutil.CacheDropper {
	if !drop {
		return osutil.NopDropper{}
	}
	return osutil.ProcDropper{}
}

// readLogRow renders one sweep step as a read log record
func readLogRow(step output.Step) []string {
	return append(writeLogRow(step), fmt.Sprintf("%v", step.DropOK))
}
