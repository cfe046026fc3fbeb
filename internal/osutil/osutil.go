// package osutil holds the privileged or platform-specific
// collaborators the benchmark treats as opaque: page cache eviction
// and mountpoint-to-device resolution for display.
package osutil

import (
	"os"
	"path/filepath"
	"strings"

	gdisk "github.com/shirou/gopsutil/v4/disk"
	"golang.org/x/sys/unix"
)

// dropCachesPath accepts "3" to evict both page cache and slab caches
const dropCachesPath = "/proc/sys/vm/drop_caches"

// CacheDropper asks the os to evict cached pages before a read round.
// Drop reports plain success or failure: cache state is best effort
// and never fails a round, the outcome is only recorded alongside the
// results.
type CacheDropper interface {
	Drop() bool
}

// ProcDropper drops caches through procfs, which requires root
type ProcDropper struct{}

func (ProcDropper) Drop() bool {
	// flush dirty pages first, drop_caches only evicts clean ones
	unix.Sync()

	err := os.WriteFile(dropCachesPath, []byte("3\n"), 0644)
	return err == nil
}

// NopDropper never drops anything, for runs where o_direct already
// bypasses the cache or the caller lacks privilege
type NopDropper struct{}

func (NopDropper) Drop() bool { return false }

// MountDevice resolves the block device backing dir, for display in
// reports and logs. resolution failures degrade to "UNKNOWN" rather
// than erroring, the value is informational only.
func MountDevice(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "UNKNOWN"
	}

	parts, err := gdisk.Partitions(true)
	if err != nil {
		return "UNKNOWN"
	}

	// deepest mountpoint containing the directory wins
	device := "UNKNOWN"
	best := -1
	for _, p := range parts {
		rel, err := filepath.Rel(p.Mountpoint, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			continue
		}
		if len(p.Mountpoint) > best {
			best = len(p.Mountpoint)
			device = p.Device
		}
	}

	return device
}
