package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/CJJ1008/speed/internal/config"
)

// program flags defined as global variables for access across functions
var (
	chunkMB       int64  // io chunk size in megabytes
	rounds        int    // repetitions per size step, averaged
	noDirect      bool   // disable o_direct
	requireDirect bool   // fail instead of falling back to buffered io
	keepFiles     bool   // keep test files after the run
	outFmt        string // output format
	logPath       string // benchmark log file (empty picks a timestamped name)
	debug         bool   // dump raw round reports to stderr
	version       bool   // print version and exit

	// single-device sweep bounds
	minMB int64 // smallest test size in megabytes
	maxMB int64 // largest test size in megabytes

	// multi-device sweep bounds, total across all devices
	minTotalGB float64 // smallest total size in gigabytes
	maxTotalGB float64 // largest total size in gigabytes
)

// program info const
const progVersion string = "0.3.1"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "speed",
	Short: "Measure uncached sequential throughput between memory and storage.",
	Long: `speed measures raw sequential io bandwidth between DRAM and block
storage through a best-effort direct io (o_direct) path, bypassing the
page cache to approximate true device speed. It tests one device or
several independently mounted devices concurrently, doubling the test
size from a minimum to a maximum and averaging repeated rounds.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// check if version flag was set
		if version {
			fmt.Printf("speed v%s\n", progVersion)
			os.Exit(1)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// the original scripts spelled flags with underscores; accept both
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	// define command line flags, writing values to our global variables
	rootCmd.PersistentFlags().Int64VarP(&chunkMB, "chunk-mb", "c", 8, "io chunk size in megabytes")
	rootCmd.PersistentFlags().IntVarP(&rounds, "rounds", "r", 3, "repetitions per test size, averaged")
	rootCmd.PersistentFlags().BoolVar(&noDirect, "no-direct", false, "disable o_direct (results may reflect the page cache)")
	rootCmd.PersistentFlags().BoolVar(&requireDirect, "require-direct", false, "fail instead of falling back when o_direct is unavailable")
	rootCmd.PersistentFlags().BoolVar(&keepFiles, "keep-files", false, "keep test files after the run")
	rootCmd.PersistentFlags().StringVar(&outFmt, "format", "table", "output format (table, json, or flat)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "benchmark log file (default is a timestamped name, \"none\" disables)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "dump raw round reports to stderr")
	rootCmd.PersistentFlags().BoolVarP(&version, "version", "V", false, "print version and exit")
}

// buildConfig assembles the explicit run configuration from the flag
// globals. commands adjust the sweep bounds afterwards.
func buildConfig(paths []string) *config.Config {
	cfg := config.New()
	cfg.Paths = paths
	cfg.MinBytes = minMB << 20
	cfg.MaxBytes = maxMB << 20
	cfg.ChunkBytes = chunkMB << 20
	cfg.Rounds = rounds
	cfg.WantDirect = !noDirect
	cfg.RequireDirect = requireDirect
	cfg.KeepFiles = keepFiles
	cfg.Format = outFmt
	cfg.LogPath = logPath
	cfg.Debug = debug
	return cfg
}

// ensureWritableDirectory verifies dirPath exists, is a directory and
// is writable by the calling user, creating it if needed
func ensureWritableDirectory(dirPath string) error {
	if info, err := os.Stat(dirPath); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists but is not a directory", dirPath)
		}

		// try to create a temporary file to test writeability
		testFile := dirPath + "/.write_test"
		f, err := os.Create(testFile)
		if err != nil {
			return fmt.Errorf("directory %s exists but is not writable: %v", dirPath, err)
		}
		f.Close()
		os.Remove(testFile)

		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check directory %s: %v", dirPath, err)
	}

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dirPath, err)
	}

	return nil
}
