package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/CJJ1008/speed/internal/layout"
	"github.com/CJJ1008/speed/internal/output"
	"github.com/CJJ1008/speed/internal/runners"
)

// writeCmd runs a single-target sequential write sweep: memory to one
// device, doubling the file size each step between --min-mb and --max-mb.
var writeCmd = &cobra.Command{
	Use:   "write <dir>",
	Short: "sequential write throughput sweep against one directory",
	Long: `Measures sequential write bandwidth from memory to a single
device. For each size step a random-filled buffer is streamed to a
fresh file in <dir>, fsynced, and timed. Sizes double from --min-mb up
to --max-mb.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if err := ensureWritableDirectory(dir); err != nil {
			return err
		}

		target := filepath.Join(dir, fmt.Sprintf("speed_write_%s.bin",
			time.Now().Format("20060102_150405")))

		cfg := buildConfig([]string{target})
		if err := cfg.Validate(); err != nil {
			return err
		}
		format, err := output.ValidateFormat(cfg.Format)
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, "target device:")
		devices := resolveDevices([]string{dir})

		log, err := openStepLog(cfg.LogPath, "write",
			"sequential write throughput sweep",
			[]string{fmt.Sprintf("target: %s", target),
				fmt.Sprintf("chunk:  %s", output.HumanSize(cfg.ChunkBytes)),
				fmt.Sprintf("rounds: %d", cfg.Rounds)},
			[]string{"size", "avg_s", "MBps", "GBps", "direct_used"})
		if err != nil {
			return err
		}
		if log != nil {
			defer log.Close()
		}

		s := &sweep{
			kind:    runners.Write,
			cfg:     cfg,
			coord:   runners.New(),
			format:  format,
			devices: devices,
			log:     log,
			logRow:  writeLogRow,
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
	writeCmd.Flags().Int64Var(&minMB, "min-mb", 256, "smallest test size in megabytes")
	writeCmd.Flags().Int64Var(&maxMB, "max-mb", 1024, "largest test size in megabytes")
	rootCmd.AddCommand(writeCmd)
}

// writeLogRow renders one sweep step as a write log record
func writeLogRow(step output.Step) []string {
	return []string{
		output.HumanSize(step.TotalBytes),
		fmt.Sprintf("%.4f", step.AvgWallSeconds),
		fmt.Sprintf("%.2f", step.MBps),
		fmt.Sprintf("%.4f", step.GBps),
		fmt.Sprintf("%v", step.Direct),
	}
}

// openStepLog creates the tab separated log file. An empty path picks
// a timestamped default name; "none" disables logging and returns a
// nil log.
func openStepLog(path, prefix, title string, header, columns []string) (*output.Log, error) {
	if path == "none" {
		return nil, nil
	}
	if path == "" {
		path = output.DefaultLogName(prefix)
	}
	return output.CreateLog(path, title, header, columns)
}
