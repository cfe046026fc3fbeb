package main

import (
	"log"
	"os"
	"runtime/pprof"

	"github.com/CJJ1008/speed/cmd"
)

func main() {
	// set SPEED_CPUPROFILE to a path to profile the io loops
	if cpuProfile := os.Getenv("SPEED_CPUPROFILE"); cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}
	cmd.Execute()
}
