package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersionInfo(t *testing.T) {
	old := Version
	Version = "1.2.3"
	t.Cleanup(func() { Version = old })

	info := GetVersionInfo()
	assert.True(t, strings.HasPrefix(info, "ChronoGL v1.2.3 (built: "), info)
	assert.Contains(t, info, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf))
	first, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, GetVersionInfo(), first)
}
