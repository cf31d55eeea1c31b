package browser

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/tracetest"
)

// Default scene layout: a 19 call prologue, then per frame a viewport, two
// marked passes of 8 calls and a swap. Frame 0 is [0,37), the first draws
// are #24 and #25.
func newSceneCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	tr := parse(t, tracetest.Scene(tracetest.DefaultSceneOptions()))
	require.Equal(t, 73, tr.Len())
	var out bytes.Buffer
	return NewCLI(tr, strings.NewReader(""), &out), &out
}

func run(c *CLI, out *bytes.Buffer, lines ...string) string {
	out.Reset()
	for _, l := range lines {
		c.Execute(l)
	}
	return out.String()
}

func TestRunScript(t *testing.T) {
	tr := parse(t, tracetest.Scene(tracetest.DefaultSceneOptions()))
	var out bytes.Buffer
	in := strings.NewReader("bp draw\nc\nc\n\nbp list\nq\nstep\n")

	require.NoError(t, Browse(tr, in, &out, DefaultOptions()))

	got := out.String()
	assert.Contains(t, got, "73 calls, 3 frames, 1 contexts")
	assert.Contains(t, got, "Breakpoint 1 set at draw")
	assert.Contains(t, got, "Breakpoint 1 hit at #24")
	assert.Contains(t, got, "Breakpoint 1 hit at #25")
	assert.Contains(t, got, "1: draw (enabled, 2 hits)")
	assert.Contains(t, got, "Exiting.")
	// Nothing after quit runs.
	assert.Equal(t, 1, strings.Count(got, "#25 [frame 0] ctx 0 glDrawArrays"))
}

func TestRunEndOfInput(t *testing.T) {
	c, out := newSceneCLI(t)
	c.in = strings.NewReader("step\n")
	require.NoError(t, c.Run())
	assert.Contains(t, out.String(), "#0 [frame 0] ctx 0 eglCreateContext")
}

func TestBrowseNilTrace(t *testing.T) {
	assert.ErrorIs(t, Browse(nil, strings.NewReader(""), &bytes.Buffer{}, DefaultOptions()), ErrNoTrace)
}

func TestStepping(t *testing.T) {
	c, out := newSceneCLI(t)

	assert.Contains(t, run(c, out, "back"), "already at the beginning")

	run(c, out, "step 5")
	assert.Equal(t, 4, c.Navigator().CurrentIndex())

	assert.Contains(t, run(c, out, "back 10"), "At start of trace")
	assert.Equal(t, -1, c.Navigator().CurrentIndex())

	run(c, out, "step 1000")
	assert.Equal(t, 72, c.Navigator().CurrentIndex())
	assert.Contains(t, run(c, out, "s"), "already at the end")
	assert.Contains(t, run(c, out, "c"), "already at the end")

	assert.Contains(t, run(c, out, "step x"), "Invalid step count")
}

func TestGotoAndFrame(t *testing.T) {
	c, out := newSceneCLI(t)

	assert.Contains(t, run(c, out, "goto 73"), "call index out of range")
	assert.Contains(t, run(c, out, "goto"), "Usage: goto")

	got := run(c, out, "frame 1")
	assert.Contains(t, got, "#54 [frame 1] ctx 0 eglSwapBuffers")
	assert.Equal(t, 54, c.Navigator().CurrentIndex())

	assert.Contains(t, run(c, out, "frame 3"), "Invalid frame: 3 (trace has 3 frames)")
	assert.Contains(t, run(c, out, "goto -1"), "At start of trace")
}

func TestContinueWithoutBreakpoints(t *testing.T) {
	c, out := newSceneCLI(t)
	got := run(c, out, "continue")
	assert.Contains(t, got, "No breakpoints set")
	assert.Contains(t, got, "Reached end of trace.")
	assert.Equal(t, 72, c.Navigator().CurrentIndex())
}

func TestBreakpointCommands(t *testing.T) {
	c, out := newSceneCLI(t)

	assert.Contains(t, run(c, out, "bp"), "No breakpoints set.")
	assert.Contains(t, run(c, out, "bp glFrobnicate"), "Error setting breakpoint")
	assert.Contains(t, run(c, out, "bp marker:color"), "Breakpoint 1 set")
	assert.Contains(t, run(c, out, "bp frame:2"), "Breakpoint 2 set")

	assert.Contains(t, run(c, out, "c"), "Breakpoint 1 hit at #28")
	assert.Contains(t, run(c, out, "bp disable 1"), "Disabled breakpoint 1")
	assert.Contains(t, run(c, out, "c"), "Breakpoint 2 hit at #55")
	assert.Contains(t, run(c, out, "bp enable 1"), "Enabled breakpoint 1")
	assert.Contains(t, run(c, out, "c"), "Breakpoint 1 hit at #64")

	assert.Contains(t, run(c, out, "bp rm 2"), "Removed breakpoint 2")
	assert.Contains(t, run(c, out, "bp rm 2"), "breakpoint 2 not found")
	assert.Contains(t, run(c, out, "bp rm"), "Usage: bp rm <id>")
	assert.Contains(t, run(c, out, "bp enable one"), "Invalid breakpoint ID")

	got := run(c, out, "bp list")
	assert.Contains(t, got, `1: marker "color" (enabled, 2 hits)`)
	assert.NotContains(t, got, "2: frame")
}

func TestInfo(t *testing.T) {
	c, out := newSceneCLI(t)
	assert.Contains(t, run(c, out, "info"), "At start of trace")

	got := run(c, out, "goto 24", "info")
	assert.Contains(t, got, "#24 [frame 0] ctx 0 glDrawArrays")
	assert.Contains(t, got, "arg 0: enum GL_TRIANGLES")
	assert.Contains(t, got, "arg 2: int 3")
	assert.Contains(t, got, "Vertices: 3")

	got = run(c, out, "goto 1", "info")
	assert.Contains(t, got, "returns int 1")

	got = run(c, out, "goto 36", "i")
	assert.Contains(t, got, "framebuffer 64x48")
}

func TestList(t *testing.T) {
	c, out := newSceneCLI(t)
	got := run(c, out, "goto 10", "list 4")
	lines := strings.Split(strings.TrimSpace(got), "\n")
	// The goto line, then four listed calls.
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[3], "=> #10 "), lines[3])
	assert.True(t, strings.HasPrefix(lines[1], "   #8 "), lines[1])
}

func TestStateMarksChanges(t *testing.T) {
	c, out := newSceneCLI(t)
	got := run(c, out, "goto 19", "state")

	assert.Regexp(t, regexp.MustCompile(`(?m)^\* +VIEWPORT_WIDTH = 64$`), got)
	assert.Regexp(t, regexp.MustCompile(`(?m)^\* +VIEWPORT_HEIGHT = 48$`), got)
	// Untouched leaves are not marked.
	assert.Regexp(t, regexp.MustCompile(`(?m)^  +LINE_WIDTH = `), got)

	// Stepping past the viewport leaves it unmarked.
	got = run(c, out, "step", "state")
	assert.Regexp(t, regexp.MustCompile(`(?m)^  +VIEWPORT_WIDTH = 64$`), got)

	// A backward move marks what it reverted.
	got = run(c, out, "goto 18", "state all")
	assert.Regexp(t, regexp.MustCompile(`(?m)^\* +VIEWPORT_WIDTH = 0$`), got)
}

func TestTree(t *testing.T) {
	c, out := newSceneCLI(t)
	got := run(c, out, "goto 30", "tree")
	assert.Contains(t, got, "Frame 0, calls [0,37)")
	assert.Contains(t, got, `glPushGroupMarkerEXT "shadow pass"`)
	assert.Contains(t, got, `glPushGroupMarkerEXT "color pass"`)
	assert.Regexp(t, regexp.MustCompile(`(?m)^  +24 glDrawArrays$`), got)
}

func TestImage(t *testing.T) {
	tr := parse(t, tracetest.Scene(tracetest.DefaultSceneOptions()))
	var out bytes.Buffer
	opts := DefaultOptions()
	opts.ThumbnailWidth, opts.ThumbnailHeight = 32, 32
	c := NewCLIWithOptions(tr, strings.NewReader(""), &out, opts)

	assert.Contains(t, run(c, &out, "fb"), "No framebuffer captured")

	got := run(c, &out, "goto 40", "image")
	assert.Contains(t, got, "Framebuffer of #36: 64x48, 12 KiB, thumbnail 32x24")
}

func TestUnknownCommand(t *testing.T) {
	c, out := newSceneCLI(t)
	assert.Contains(t, run(c, out, "frobnicate"), "Unknown command: frobnicate")
	assert.Contains(t, run(c, out, "help"), "bp <expr>")
	assert.Empty(t, run(c, out, "   "))
}
