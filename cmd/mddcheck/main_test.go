// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

const testdata = "../../model/testdata/"

func exec(t *testing.T, args ...string) (int, *report, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	if code == exitError {
		return code, nil, stderr.String()
	}
	var rep report
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &rep), stdout.String())
	return code, &rep, stderr.String()
}

func TestCheckSafe(t *testing.T) {
	for _, s := range []string{"BFS", "SAT", "GSAT"} {
		code, rep, _ := exec(t, "check", "--strategy", s, testdata+"counter.yaml")
		assert.Equal(t, exitSafe, code, s)
		assert.Equal(t, "safe", rep.Status)
		assert.Equal(t, "counter", rep.Model)
		assert.Equal(t, s, rep.Strategy)
		assert.Equal(t, int64(5), rep.Statistics.States)
		assert.Greater(t, rep.Statistics.CacheSize, 0, s)
		assert.Empty(t, rep.Trace)
	}
}

func TestCheckUnsafe(t *testing.T) {
	code, rep, _ := exec(t, "check", testdata+"mutex.yaml")
	assert.Equal(t, exitUnsafe, code)
	assert.Equal(t, "unsafe", rep.Status)
	require.Len(t, rep.Trace, 5)
	for _, s := range rep.Trace[:4] {
		assert.NotNil(t, s.Transition)
	}
	assert.Nil(t, rep.Trace[4].Transition)
	assert.Greater(t, rep.Statistics.Violating, int64(0))
}

func TestStates(t *testing.T) {
	code, rep, _ := exec(t, "check", "--states", "3", testdata+"counter.yaml")
	assert.Equal(t, exitSafe, code)
	require.Len(t, rep.States, 3)
	require.Len(t, rep.States[0], 2)
	assert.Equal(t, "done", rep.States[0][0].Key)
	assert.Equal(t, false, rep.States[0][0].Value)
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	dot := filepath.Join(dir, "states.dot")
	prom := filepath.Join(dir, "metrics.txt")
	code, _, _ := exec(t, "check", "--full", "--parallel", "2", "--threshold", "0",
		"--timeout", "10s", "--dot", dot, "--metrics-out", prom, testdata+"ring.yaml")
	assert.Equal(t, exitSafe, code)
	buf, err := os.ReadFile(dot)
	require.NoError(t, err)
	assert.Contains(t, string(buf), "digraph G {")
	buf, err = os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(buf), `mddcheck_checks_total{result="safe",strategy="GSAT"} 1`)
	assert.Contains(t, string(buf), "mddcheck_state_space_size 64")
}

func TestBackwardTrace(t *testing.T) {
	_, forward, _ := exec(t, "check", testdata+"mutex.yaml")
	_, backward, _ := exec(t, "check", "--backward-trace", testdata+"mutex.yaml")
	require.Equal(t, len(forward.Trace), len(backward.Trace))
	n := len(forward.Trace)
	for k := range forward.Trace {
		assert.Equal(t, forward.Trace[k].State, backward.Trace[n-1-k].State)
	}
}

func TestErrors(t *testing.T) {
	code, _, msg := exec(t, "check", "--strategy", "DFS", testdata+"counter.yaml")
	assert.Equal(t, exitError, code)
	assert.Contains(t, msg, "DFS")
	code, _, _ = exec(t, "check", testdata+"missing.yaml")
	assert.Equal(t, exitError, code)
	code, _, _ = exec(t, "check")
	assert.Equal(t, exitError, code)
}

func TestDebugLogs(t *testing.T) {
	code, _, logs := exec(t, "check", "--debug", testdata+"counter.yaml")
	assert.Equal(t, exitSafe, code)
	assert.Contains(t, logs, "check completed")
	assert.Contains(t, logs, "counter.yaml")
}
