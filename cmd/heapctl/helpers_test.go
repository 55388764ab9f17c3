package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// captureOutput collects what fn writes to stdout.
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := stdout
	var buf bytes.Buffer
	stdout = &buf
	defer func() { stdout = orig }()

	err := fn()
	return buf.String(), err
}

// writeScript stores an allocation script in a temp file and returns its path.
func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// resetFlags restores the global flags to their defaults.
func resetFlags() {
	verbose, quiet, jsonOut, noColor = false, false, false, false
	traceBase, traceHeapSize, traceCheck = defaultBase, defaultHeapSize, false
	mapBase, mapHeapSize, mapWidth = defaultBase, defaultHeapSize, 64
	stressWorkers, stressOps, stressHeapSize, stressMaxSize, stressSeed = 4, 1000, 1<<20, 512, 1
}
