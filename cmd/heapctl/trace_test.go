package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fragmentationScript = `# three blocks, free the middle one, reuse it
alloc a 64
alloc b 64
alloc c 64
free b
dump
alloc d 48
check
`

func TestTraceCommand(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		check       bool
		wantErr     bool
		wantContain []string
	}{
		{
			name:   "fragmentation",
			script: fragmentationScript,
			wantContain: []string{
				"alloc a",
				"-> 0x80000000",
				"free  b",
				"<- 0x80000040",
				"0x80000040  64",
				"alloc d",
				"check ok",
			},
		},
		{
			name:        "with per-step checks",
			script:      fragmentationScript,
			check:       true,
			wantContain: []string{"check ok", "free blocks"},
		},
		{
			name:        "exhaustion is reported, not fatal",
			script:      "alloc big 0x20000\n",
			wantContain: []string{"-> failed"},
		},
		{
			name:    "free of unknown name",
			script:  "free nope\n",
			wantErr: true,
		},
		{
			name:    "syntax error",
			script:  "allocate a 8\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			traceCheck = tt.check
			path := writeScript(t, tt.script)

			out, err := captureOutput(t, func() error { return runTrace([]string{path}) })
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantContain {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestTraceCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	path := writeScript(t, fragmentationScript)

	out, err := captureOutput(t, func() error { return runTrace([]string{path}) })
	require.NoError(t, err)

	var report traceReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Steps, 7)
	assert.Equal(t, 4, report.Counters.AllocCalls)
	assert.Equal(t, 2, report.Counters.ReleaseCalls)
	assert.Equal(t, 2, report.Stats.FreeBlocks)
}

func TestTraceCommand_MissingFile(t *testing.T) {
	resetFlags()
	_, err := captureOutput(t, func() error { return runTrace([]string{"does-not-exist.txt"}) })
	require.Error(t, err)
}
