package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/willibrandon/ChronoGL/pkg/config"
	"github.com/willibrandon/ChronoGL/pkg/tracetest"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.trace")

	assert.Contains(t, execute(t, "synth", path, "--frames", "2"), "Wrote 55 calls")

	info := execute(t, "info", path)
	assert.Contains(t, info, "Calls:")
	assert.Regexp(t, `Frames:\s+2\n`, info)

	frames := execute(t, "frames", path)
	assert.Contains(t, frames, "FRAME")

	tree := execute(t, "tree", path, "--context", "0", "--frame", "1")
	assert.Contains(t, tree, `glPushGroupMarkerEXT "color pass"`)

	st := execute(t, "state", path, "--at", "19", "--from", "18", "--context", "0")
	assert.Regexp(t, `(?m)^\* +VIEWPORT_WIDTH = 64$`, st)

	prof := filepath.Join(dir, "scene.pb.gz")
	stats := execute(t, "stats", path, "--top", "3", "--pprof", prof)
	assert.Contains(t, stats, "FUNCTION")
	f, err := os.Open(prof)
	require.NoError(t, err)
	defer f.Close()
	p, err := profile.Parse(f)
	require.NoError(t, err)
	assert.NoError(t, p.CheckValid())

	images := filepath.Join(dir, "images")
	execute(t, "image", path, "--out", images, "--thumbnail", "--opaque")
	for _, name := range []string{"call-36.png", "call-54.png"} {
		_, err := os.Stat(filepath.Join(images, name))
		assert.NoError(t, err, name)
	}

	assert.Contains(t, execute(t, "version"), "ChronoGL v")
}

func TestOpenTraceLogsOnce(t *testing.T) {
	path := tracetest.File(t, tracetest.Scene(tracetest.DefaultSceneOptions()))
	core, logs := observer.New(zapcore.InfoLevel)
	conf, logger = config.Default(), zap.New(core)
	t.Cleanup(func() { conf, logger = nil, nil })

	tr, err := openTrace(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 73, tr.Len())

	entries := logs.FilterMessage("Parsed trace").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(73), entries[0].ContextMap()["calls"])
}
