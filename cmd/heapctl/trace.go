package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
)

const (
	defaultBase     = 0x8000_0000
	defaultHeapSize = 64 << 10
)

var (
	traceBase     uint64
	traceHeapSize uint64
	traceCheck    bool
)

func init() {
	cmd := newTraceCmd()
	cmd.Flags().Uint64Var(&traceBase, "base", defaultBase, "Physical address the heap starts at")
	cmd.Flags().Uint64Var(&traceHeapSize, "heap-size", defaultHeapSize, "Heap size in bytes")
	cmd.Flags().BoolVar(&traceCheck, "check", false, "Verify heap invariants after every step")
	rootCmd.AddCommand(cmd)
}

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <script>",
		Short: "Replay an allocation script against a fresh heap",
		Long: `The trace command replays an allocation script against a fresh heap
and prints what the allocator did at each step.

Script lines:
  alloc <name> <size> [align]   allocate (align defaults to 8)
  free <name>                   release a named allocation
  check                         verify heap invariants
  dump                          print the free list

Example:
  heapctl trace fragmentation.txt
  heapctl trace fragmentation.txt --check --heap-size 0x1000
  heapctl trace fragmentation.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(args)
		},
	}
	return cmd
}

// traceReport is the --json output of trace.
type traceReport struct {
	Steps    []step            `json:"steps"`
	Stats    freelist.Stats    `json:"stats"`
	Counters freelist.Counters `json:"counters"`
}

func runTrace(args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	cmds, err := parseScript(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	printVerbose("Parsed %d commands from %s\n", len(cmds), args[0])

	s, err := newSession(mem.Addr(traceBase), traceHeapSize)
	if err != nil {
		return err
	}
	defer s.Close()

	steps, runErr := s.run(cmds, traceCheck)

	if jsonOut {
		if err := printJSON(traceReport{
			Steps:    steps,
			Stats:    s.heap.Stats(),
			Counters: s.heap.Counters(),
		}); err != nil {
			return err
		}
		return runErr
	}

	for _, st := range steps {
		printStep(st)
	}
	if runErr != nil {
		return runErr
	}

	stats := s.heap.Stats()
	printInfo("\n%d free blocks, %d bytes free, largest %d\n",
		stats.FreeBlocks, stats.FreeBytes, stats.LargestBlock)
	return nil
}

func printStep(st step) {
	switch st.Op {
	case opAlloc:
		if st.Failed {
			printInfo("%4d  alloc %-8s %6d/%-4d -> failed\n", st.Line, st.Name, st.Size, st.Align)
			return
		}
		printInfo("%4d  alloc %-8s %6d/%-4d -> %s\n", st.Line, st.Name, st.Size, st.Align, st.Addr)
	case opFree:
		printInfo("%4d  free  %-8s %6d      <- %s\n", st.Line, st.Name, st.Size, st.Addr)
	case opCheck:
		printInfo("%4d  check ok\n", st.Line)
	case opDump:
		printInfo("%4d  dump\n", st.Line)
		for _, b := range st.Blocks {
			printInfo("        %s  %d\n", b.Addr, b.Size)
		}
	}
}
