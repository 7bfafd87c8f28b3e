package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/named-data/kite/fw/core"
)

// ProfileFiles names the output files of the enabled profiles.
type ProfileFiles struct {
	Cpu   string
	Mem   string
	Block string
}

type Profiler struct {
	files   ProfileFiles
	cpuFile *os.File
	block   *pprof.Profile
}

func NewProfiler(files ProfileFiles) *Profiler {
	return &Profiler{files: files}
}

func (p *Profiler) String() string {
	return "profiler"
}

// Start begins CPU and block profiling as configured.
func (p *Profiler) Start() (err error) {
	if p.files.Cpu != "" {
		p.cpuFile, err = os.Create(p.files.Cpu)
		if err != nil {
			return fmt.Errorf("unable to open output file for CPU profile: %w", err)
		}

		core.Log.Info(p, "Profiling CPU", "out", p.files.Cpu)
		if err = pprof.StartCPUProfile(p.cpuFile); err != nil {
			p.cpuFile.Close()
			p.cpuFile = nil
			return err
		}
	}

	if p.files.Block != "" {
		core.Log.Info(p, "Profiling blocking operations", "out", p.files.Block)
		runtime.SetBlockProfileRate(1)
		p.block = pprof.Lookup("block")
	}

	return nil
}

// Stop writes the block and memory profiles and ends CPU profiling.
func (p *Profiler) Stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
	}

	if p.block != nil {
		runtime.SetBlockProfileRate(0)
		if err := writeProfile(p.files.Block, p.block.WriteTo); err != nil {
			return fmt.Errorf("unable to write block profile: %w", err)
		}
		p.block = nil
	}

	if p.files.Mem != "" {
		core.Log.Info(p, "Profiling memory", "out", p.files.Mem)
		runtime.GC()
		err := writeProfile(p.files.Mem, func(w io.Writer, _ int) error {
			return pprof.WriteHeapProfile(w)
		})
		if err != nil {
			return fmt.Errorf("unable to write memory profile: %w", err)
		}
	}
	return nil
}

func writeProfile(path string, write func(w io.Writer, debug int) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return write(f, 0)
}
