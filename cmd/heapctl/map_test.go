package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/freelist"
)

func TestFreeMap(t *testing.T) {
	blocks := []freelist.Block{
		{Addr: defaultBase + 0x400, Size: 0x400},
		{Addr: defaultBase + 0xC00, Size: 0x200},
	}
	cells := freeMap(blocks, defaultBase, 0x1000, 4)
	assert.Equal(t, string([]rune{glyphUsed, glyphFree, glyphUsed, glyphPartial}), string(cells))
}

func TestFreeMap_MoreCellsThanBytes(t *testing.T) {
	cells := freeMap([]freelist.Block{{Addr: defaultBase, Size: 2}}, defaultBase, 2, 4)
	require.Len(t, cells, 4)
	assert.Equal(t, 2, strings.Count(string(cells), string(glyphFree)))
}

func TestRenderMap_Plain(t *testing.T) {
	got := renderMap("heap", []rune{glyphFree, glyphUsed}, "summary", false)
	assert.Equal(t, "heap\n"+string(glyphFree)+string(glyphUsed)+"\nsummary", got)
}

func TestRenderMap_Styled(t *testing.T) {
	got := renderMap("heap", []rune{glyphFree, glyphPartial}, "summary", true)
	assert.Contains(t, got, "heap")
	assert.Contains(t, got, "summary")
	assert.Contains(t, got, string(glyphPartial))
}

func TestMapCommand(t *testing.T) {
	resetFlags()
	noColor = true
	mapHeapSize = 0x1000
	mapWidth = 16
	path := writeScript(t, "alloc a 0x800\n")

	out, err := captureOutput(t, func() error { return runMap([]string{path}) })
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "heap 0x80000000..0x80001000", lines[0])
	assert.Equal(t, strings.Repeat(string(glyphUsed), 8)+strings.Repeat(string(glyphFree), 8), lines[1])
	assert.Equal(t, "1 free blocks, 2048 of 4096 bytes free, largest 2048", lines[2])
}

func TestMapCommand_EmptyHeap(t *testing.T) {
	resetFlags()
	noColor = true
	mapWidth = 8

	out, err := captureOutput(t, func() error { return runMap(nil) })
	require.NoError(t, err)
	assert.Contains(t, out, strings.Repeat(string(glyphFree), 8))
}

func TestMapCommand_BadWidth(t *testing.T) {
	resetFlags()
	mapWidth = 0
	_, err := captureOutput(t, func() error { return runMap(nil) })
	require.Error(t, err)
}
