package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
)

var (
	mapBase     uint64
	mapHeapSize uint64
	mapWidth    int
)

var (
	freeColor    = lipgloss.Color("#04B575")
	usedColor    = lipgloss.Color("#7D56F4")
	partialColor = lipgloss.Color("#FFA500")
	borderColor  = lipgloss.Color("#383838")

	freeStyle    = lipgloss.NewStyle().Foreground(freeColor)
	usedStyle    = lipgloss.NewStyle().Foreground(usedColor)
	partialStyle = lipgloss.NewStyle().Foreground(partialColor)

	mapBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	mapTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(usedColor)
)

// Cell glyphs.
const (
	glyphFree    = '░'
	glyphUsed    = '█'
	glyphPartial = '▒'
)

func init() {
	cmd := newMapCmd()
	cmd.Flags().Uint64Var(&mapBase, "base", defaultBase, "Physical address the heap starts at")
	cmd.Flags().Uint64Var(&mapHeapSize, "heap-size", defaultHeapSize, "Heap size in bytes")
	cmd.Flags().IntVar(&mapWidth, "width", 64, "Cells per row")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map [script]",
		Short: "Draw the heap's free map",
		Long: `The map command replays an optional allocation script against a fresh
heap and draws which parts of it are free. Each cell covers an equal slice of
the heap: ` + string(glyphFree) + ` free, ` + string(glyphUsed) + ` in use, ` +
			string(glyphPartial) + ` partly free.

Example:
  heapctl map
  heapctl map fragmentation.txt --width 80
  heapctl map fragmentation.txt --no-color`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
	return cmd
}

func runMap(args []string) error {
	if mapWidth < 1 {
		return fmt.Errorf("--width must be positive")
	}

	s, err := newSession(mem.Addr(mapBase), mapHeapSize)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		cmds, err := parseScript(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if _, err := s.run(cmds, false); err != nil {
			return err
		}
	}

	cells := freeMap(s.heap.Blocks(), mem.Addr(mapBase), mapHeapSize, mapWidth)
	stats := s.heap.Stats()
	if jsonOut {
		return printJSON(struct {
			Cells string         `json:"cells"`
			Stats freelist.Stats `json:"stats"`
		}{string(cells), stats})
	}

	title := fmt.Sprintf("heap %s..%s", mem.Addr(mapBase), mem.Addr(mapBase)+mem.Addr(mapHeapSize))
	summary := fmt.Sprintf("%d free blocks, %d of %d bytes free, largest %d",
		stats.FreeBlocks, stats.FreeBytes, mapHeapSize, stats.LargestBlock)
	printInfo("%s\n", renderMap(title, cells, summary, !noColor))
	return nil
}

// freeMap divides [base, base+size) into width cells and classifies each by
// how much of it the free blocks cover. blocks must be in address order.
func freeMap(blocks []freelist.Block, base mem.Addr, size uint64, width int) []rune {
	cells := make([]rune, width)
	for i := range cells {
		lo := base + mem.Addr(size*uint64(i)/uint64(width))
		hi := base + mem.Addr(size*uint64(i+1)/uint64(width))
		if hi == lo {
			cells[i] = glyphUsed
			continue
		}

		var free uint64
		for _, b := range blocks {
			if b.Addr >= hi {
				break
			}
			start, end := max(b.Addr, lo), min(b.End(), hi)
			if start < end {
				free += uint64(end - start)
			}
		}
		switch {
		case free == 0:
			cells[i] = glyphUsed
		case free == uint64(hi-lo):
			cells[i] = glyphFree
		default:
			cells[i] = glyphPartial
		}
	}
	return cells
}

func renderMap(title string, cells []rune, summary string, color bool) string {
	var sb strings.Builder
	for _, c := range cells {
		glyph := string(c)
		if color {
			switch c {
			case glyphFree:
				glyph = freeStyle.Render(glyph)
			case glyphUsed:
				glyph = usedStyle.Render(glyph)
			case glyphPartial:
				glyph = partialStyle.Render(glyph)
			}
		}
		sb.WriteString(glyph)
	}

	if !color {
		return title + "\n" + sb.String() + "\n" + summary
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		mapTitleStyle.Render(title),
		sb.String(),
		summary,
	)
	return mapBoxStyle.Render(body)
}
