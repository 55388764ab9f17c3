package main

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	stressWorkers  int
	stressOps      int
	stressHeapSize uint64
	stressMaxSize  uint64
	stressSeed     uint64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressWorkers, "workers", 4, "Number of concurrent goroutines")
	cmd.Flags().IntVar(&stressOps, "ops", 1000, "Operations per goroutine")
	cmd.Flags().Uint64Var(&stressHeapSize, "heap-size", 1<<20, "Heap size in bytes")
	cmd.Flags().Uint64Var(&stressMaxSize, "max-size", 512, "Largest request in bytes")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 1, "Random seed")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer one heap from many goroutines",
		Long: `The stress command runs several goroutines that allocate and release
random sizes and alignments through one allocator. Every allocation is
filled with a per-goroutine pattern that must survive until it is released.
At the end all memory is released and the free list is verified.

Example:
  heapctl stress
  heapctl stress --workers 16 --ops 10000 --seed 7 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
	return cmd
}

// stressReport is the outcome of a stress run.
type stressReport struct {
	Workers  int               `json:"workers"`
	Ops      int               `json:"ops"`
	Elapsed  time.Duration     `json:"elapsed_ns"`
	Stats    freelist.Stats    `json:"stats"`
	Counters freelist.Counters `json:"counters"`
}

func runStress() error {
	if stressWorkers < 1 || stressOps < 0 {
		return fmt.Errorf("need at least one worker and a non-negative op count")
	}
	if stressWorkers > 255 {
		return fmt.Errorf("at most 255 workers are supported")
	}
	if stressMaxSize == 0 {
		return fmt.Errorf("--max-size must be non-zero")
	}

	s, err := newSession(defaultBase, stressHeapSize)
	if err != nil {
		return err
	}
	defer s.Close()

	printVerbose("Stressing %d-byte heap with %d workers x %d ops\n", stressHeapSize, stressWorkers, stressOps)
	report, err := stress(s.heap, stressWorkers, stressOps, stressMaxSize, stressSeed)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(report)
	}
	c := report.Counters
	printInfo("%d workers x %d ops in %s\n", report.Workers, report.Ops, report.Elapsed.Round(time.Microsecond))
	printInfo("  allocations: %d (%d perfect, %d split, %d failed)\n", c.AllocCalls, c.PerfectFits, c.SplitFits, c.Failures)
	printInfo("  releases:    %d (%d fragments dropped, %d bytes)\n", c.ReleaseCalls, c.DroppedFragments, c.BytesDropped)
	printInfo("  free list:   %d blocks, %d bytes, largest %d\n",
		report.Stats.FreeBlocks, report.Stats.FreeBytes, report.Stats.LargestBlock)
	return nil
}

// stress runs workers goroutines against a and verifies the heap afterwards.
func stress(a *alloc.Allocator, workers, ops int, maxSize, seed uint64) (stressReport, error) {
	start := time.Now()
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[w] = stressWorker(a, byte(w+1), ops, maxSize, rand.New(rand.NewPCG(seed, uint64(w))))
		}()
	}
	wg.Wait()

	report := stressReport{Workers: workers, Ops: ops, Elapsed: time.Since(start)}
	for _, err := range errs {
		if err != nil {
			return report, err
		}
	}

	var err error
	a.Inspect(func(fl *freelist.FreeList) {
		err = verify.FreeList(fl)
	})
	if err != nil {
		return report, fmt.Errorf("heap corrupt after stress: %w", err)
	}
	report.Stats = a.Stats()
	report.Counters = a.Counters()
	logger.Info("stress: done", "workers", workers, "ops", ops, "elapsed", report.Elapsed)
	return report, nil
}

func stressWorker(a *alloc.Allocator, pattern byte, ops int, maxSize uint64, rng *rand.Rand) error {
	m := a.Memory()
	var live []verify.Region

	release := func(i int) error {
		r := live[i]
		for _, b := range m.Bytes(r.Addr, r.Size) {
			if b != pattern {
				return fmt.Errorf("worker %d: allocation [%s, %s) was overwritten", pattern, r.Addr, r.End())
			}
		}
		a.Release(r.Addr, r.Size)
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
		return nil
	}

	for range ops {
		if len(live) > 0 && rng.IntN(3) == 0 {
			if err := release(rng.IntN(len(live))); err != nil {
				return err
			}
			continue
		}
		size := 1 + rng.Uint64N(maxSize)
		align := uint64(1) << rng.IntN(7)
		addr := a.Allocate(size, align)
		if addr == mem.Null {
			continue
		}
		if uint64(addr)%align != 0 {
			return fmt.Errorf("worker %d: %s not aligned to %d", pattern, addr, align)
		}
		buf := m.Bytes(addr, size)
		for i := range buf {
			buf[i] = pattern
		}
		live = append(live, verify.Region{Addr: addr, Size: size})
	}
	for len(live) > 0 {
		if err := release(len(live) - 1); err != nil {
			return err
		}
	}
	return nil
}
