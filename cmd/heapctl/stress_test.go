package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStress(t *testing.T) {
	s, err := newSession(defaultBase, 256<<10)
	require.NoError(t, err)
	defer s.Close()

	report, err := stress(s.heap, 8, 500, 256, 42)
	require.NoError(t, err)

	// Every successful allocation is released again; Init counts as one
	// release.
	c := report.Counters
	assert.Equal(t, c.AllocCalls-c.Failures, c.ReleaseCalls-1)
	assert.LessOrEqual(t, c.AllocCalls, 8*500)
	assert.Positive(t, report.Stats.FreeBlocks)
}

func TestStressCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	stressWorkers, stressOps, stressHeapSize, stressMaxSize, stressSeed = 2, 100, 64<<10, 128, 3

	out, err := captureOutput(t, runStress)
	require.NoError(t, err)

	var report stressReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Workers)
	assert.Equal(t, 100, report.Ops)
}

func TestStressCommand_BadFlags(t *testing.T) {
	resetFlags()
	stressWorkers, stressOps, stressMaxSize = 0, 10, 64
	_, err := captureOutput(t, runStress)
	require.Error(t, err)
}
