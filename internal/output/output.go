// package output renders benchmark results for humans and machines.
// the core hands over raw byte counts and wall times; everything
// user-facing (units, tables, json, log rows) lives here.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OutputFormat represents the supported output format types
type OutputFormat string

// supported output format constants
const (
	// table format outputs results in a human-readable table
	TableFormat OutputFormat = "table"

	// json format outputs results as a json object
	JSONFormat OutputFormat = "json"

	// flat format outputs results as space-separated values
	FlatFormat OutputFormat = "flat"
)

// ValidateFormat checks if the provided format string is a valid output format
func ValidateFormat(format string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(format))

	switch f {
	case TableFormat, JSONFormat, FlatFormat:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format '%s'. supported formats are: table, json, flat", format)
	}
}

// HumanSize converts a byte count to a human-readable string
func HumanSize(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}

	x := float64(n)
	i := 0
	for x >= 1024 && i < len(units)-1 {
		x /= 1024
		i++
	}

	return fmt.Sprintf("%.2f %s", x, units[i])
}

// MBps converts a byte count over a wall-clock span to megabytes per second
func MBps(bytes int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(bytes) / (1024 * 1024) / elapsed.Seconds()
}

// GBps converts a byte count over a wall-clock span to gigabytes per second
func GBps(bytes int64, elapsed time.Duration) float64 {
	return MBps(bytes, elapsed) / 1024
}

// StreamStat is the per-target slice of a Step
type StreamStat struct {
	// target file path
	Path string `json:"path"`

	// block device backing the target, informational
	Device string `json:"device"`

	// this stream's own bytes over its own elapsed time
	MBps float64 `json:"mbps"`

	// bytes actually transferred
	Bytes int64 `json:"bytes"`

	// whether this stream achieved o_direct
	Direct bool `json:"direct"`

	// sampled streaming checksum, zero for write streams
	Checksum uint32 `json:"checksum"`
}

// Step summarizes the averaged rounds at one size of the sweep
type Step struct {
	// requested total bytes across all targets
	TotalBytes int64 `json:"total_bytes"`

	// per-target share of the total
	PerTarget int64 `json:"per_target_bytes"`

	// wall-clock seconds averaged across rounds
	AvgWallSeconds float64 `json:"avg_wall_seconds"`

	// combined throughput over the averaged wall time
	MBps float64 `json:"mbps"`
	GBps float64 `json:"gbps"`

	// whether every stream of the final round achieved o_direct
	Direct bool `json:"direct"`

	// whether the page cache drop succeeded before the final round
	DropOK bool `json:"drop_caches_ok"`

	// per-target detail from the final round
	Streams []StreamStat `json:"streams"`
}

// NewStep derives the throughput fields from raw counts
func NewStep(totalBytes, perTarget int64, avgWall time.Duration) Step {
	return Step{
		TotalBytes:     totalBytes,
		PerTarget:      perTarget,
		AvgWallSeconds: avgWall.Seconds(),
		MBps:           MBps(totalBytes, avgWall),
		GBps:           GBps(totalBytes, avgWall),
	}
}

// FormatStep renders one sweep step in the requested format
func FormatStep(s Step, format OutputFormat) (string, error) {
	switch format {
	case TableFormat:
		var sb strings.Builder

		sb.WriteString(fmt.Sprintf("%-12s %s (per target %s)\n", "size", HumanSize(s.TotalBytes), HumanSize(s.PerTarget)))
		sb.WriteString(fmt.Sprintf("%-12s %.4fs\n", "avg wall", s.AvgWallSeconds))
		sb.WriteString(fmt.Sprintf("%-12s %.2f MB/s (%.4f GB/s)\n", "throughput", s.MBps, s.GBps))
		sb.WriteString(fmt.Sprintf("%-12s %v\n", "direct", s.Direct))

		// per-target breakdown only when there is more than one stream
		if len(s.Streams) > 1 {
			for i, st := range s.Streams {
				sb.WriteString(fmt.Sprintf("  [%d] %-16s %10.1f MB/s  %d bytes  direct=%v\n",
					i, st.Device, st.MBps, st.Bytes, st.Direct))
			}
		}

		return sb.String(), nil

	case JSONFormat:
		jsonBytes, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal json: %w", err)
		}
		return string(jsonBytes) + "\n", nil

	case FlatFormat:
		// one space-separated line per step, no headers
		return fmt.Sprintf("%d %d %.6f %.2f %.6f %v\n",
			s.TotalBytes, s.PerTarget, s.AvgWallSeconds, s.MBps, s.GBps, s.Direct), nil

	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}
