package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/freelist"
	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/heap/verify"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/mmfile"
)

var (
	errSyntax  = errors.New("syntax error")
	errUnknown = errors.New("unknown allocation")
	errInUse   = errors.New("name already allocated")
)

// Script operations.
const (
	opAlloc = "alloc"
	opFree  = "free"
	opCheck = "check"
	opDump  = "dump"
)

// command is one parsed script line.
//
//	alloc <name> <size> [align]
//	free <name>
//	check
//	dump
type command struct {
	Line  int
	Op    string
	Name  string
	Size  uint64
	Align uint64
}

// parseScript reads commands from r. Blank lines and lines starting with #
// are skipped. Numbers accept Go literal syntax (0x40, 1_024).
func parseScript(r io.Reader) ([]command, error) {
	var cmds []command
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cmd, err := parseCommand(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cmd.Line = line
		cmds = append(cmds, cmd)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

func parseCommand(f []string) (command, error) {
	cmd := command{Op: f[0]}
	switch cmd.Op {
	case opAlloc:
		if len(f) < 3 || len(f) > 4 {
			return cmd, fmt.Errorf("%w: usage: alloc <name> <size> [align]", errSyntax)
		}
		cmd.Name = f[1]
		size, err := strconv.ParseUint(f[2], 0, 64)
		if err != nil {
			return cmd, fmt.Errorf("%w: size %q: %w", errSyntax, f[2], err)
		}
		align := uint64(8)
		if len(f) == 4 {
			if align, err = strconv.ParseUint(f[3], 0, 64); err != nil {
				return cmd, fmt.Errorf("%w: align %q: %w", errSyntax, f[3], err)
			}
		}
		// Validate the request the way the allocator's callers must.
		l, err := alloc.NewLayout(size, align)
		if err != nil {
			return cmd, err
		}
		cmd.Size, cmd.Align = l.Size(), l.Align()
	case opFree:
		if len(f) != 2 {
			return cmd, fmt.Errorf("%w: usage: free <name>", errSyntax)
		}
		cmd.Name = f[1]
	case opCheck, opDump:
		if len(f) != 1 {
			return cmd, fmt.Errorf("%w: %s takes no arguments", errSyntax, cmd.Op)
		}
	default:
		return cmd, fmt.Errorf("%w: unknown operation %q", errSyntax, cmd.Op)
	}
	return cmd, nil
}

// step is the outcome of one command.
type step struct {
	Line   int              `json:"line"`
	Op     string           `json:"op"`
	Name   string           `json:"name,omitempty"`
	Size   uint64           `json:"size,omitempty"`
	Align  uint64           `json:"align,omitempty"`
	Addr   mem.Addr         `json:"addr,omitempty"`
	Failed bool             `json:"failed,omitempty"`
	Blocks []freelist.Block `json:"blocks,omitempty"`
}

// session is a fresh heap plus the allocations a script has made from it.
type session struct {
	heap  *alloc.Allocator
	live  map[string]verify.Region
	unmap func() error
}

// newSession maps size bytes at base and hands all of them to a new heap.
func newSession(base mem.Addr, size uint64) (*session, error) {
	buf, unmap, err := mmfile.Anonymous(int(size))
	if err != nil {
		return nil, fmt.Errorf("map heap: %w", err)
	}
	m, err := mem.New(base, buf)
	if err != nil {
		_ = unmap()
		return nil, err
	}
	a := alloc.New(m)
	if err := a.Init(base, size); err != nil {
		_ = unmap()
		return nil, err
	}
	return &session{heap: a, live: make(map[string]verify.Region), unmap: unmap}, nil
}

func (s *session) Close() error { return s.unmap() }

// exec runs one command. An allocation the heap cannot satisfy is recorded
// in the step, not returned as an error.
func (s *session) exec(cmd command) (step, error) {
	st := step{Line: cmd.Line, Op: cmd.Op, Name: cmd.Name, Size: cmd.Size, Align: cmd.Align}

	switch cmd.Op {
	case opAlloc:
		if _, ok := s.live[cmd.Name]; ok {
			return st, fmt.Errorf("line %d: %w: %s", cmd.Line, errInUse, cmd.Name)
		}
		st.Addr = s.heap.Allocate(cmd.Size, cmd.Align)
		if st.Addr == mem.Null {
			st.Failed = true
			logger.Debug("script: allocation failed", "line", cmd.Line, "size", cmd.Size, "align", cmd.Align)
			break
		}
		s.live[cmd.Name] = verify.Region{Addr: st.Addr, Size: cmd.Size}
	case opFree:
		r, ok := s.live[cmd.Name]
		if !ok {
			return st, fmt.Errorf("line %d: %w: %s", cmd.Line, errUnknown, cmd.Name)
		}
		s.heap.Release(r.Addr, r.Size)
		delete(s.live, cmd.Name)
		st.Addr, st.Size = r.Addr, r.Size
	case opCheck:
		if err := s.check(); err != nil {
			return st, fmt.Errorf("line %d: %w", cmd.Line, err)
		}
	case opDump:
		st.Blocks = s.heap.Blocks()
	}
	return st, nil
}

// check verifies the free list and that no live allocation overlaps it.
func (s *session) check() error {
	live := s.liveRegions()
	var err error
	s.heap.Inspect(func(fl *freelist.FreeList) {
		err = verify.AllInvariants(fl, live)
	})
	return err
}

// liveRegions returns the live allocations in address order.
func (s *session) liveRegions() []verify.Region {
	regions := make([]verify.Region, 0, len(s.live))
	for _, r := range s.live {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Addr < regions[j].Addr })
	return regions
}

// run executes cmds in order, checking invariants after each one when
// checkEach is set. It stops at the first error and returns the steps run so
// far.
func (s *session) run(cmds []command, checkEach bool) ([]step, error) {
	steps := make([]step, 0, len(cmds))
	for _, cmd := range cmds {
		st, err := s.exec(cmd)
		if err != nil {
			return steps, err
		}
		steps = append(steps, st)
		if checkEach && cmd.Op != opCheck {
			if err := s.check(); err != nil {
				return steps, fmt.Errorf("after line %d: %w", cmd.Line, err)
			}
		}
	}
	return steps, nil
}
