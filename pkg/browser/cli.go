// Package browser implements the interactive command line for stepping
// through a trace and inspecting the reconstructed GL state.
package browser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/hierarchy"
	"github.com/willibrandon/ChronoGL/pkg/replay"
	"github.com/willibrandon/ChronoGL/pkg/state"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

const prompt = "(chronogl) "

// CLI reads commands from in and prints to out.
type CLI struct {
	tr      *trace.Trace
	nav     *replay.Navigator
	bps     *BreakpointManager
	in      io.Reader
	out     io.Writer
	logger  *zap.Logger
	changed replay.ChangeSet

	thumbWidth, thumbHeight int
}

// Options configures a CLI.
type Options struct {
	Logger          *zap.Logger
	ThumbnailWidth  int
	ThumbnailHeight int
}

// DefaultOptions returns the options used by NewCLI.
func DefaultOptions() Options {
	return Options{
		Logger:          zap.NewNop(),
		ThumbnailWidth:  160,
		ThumbnailHeight: 120,
	}
}

// NewCLI creates a CLI over tr, positioned before the first call.
func NewCLI(tr *trace.Trace, in io.Reader, out io.Writer) *CLI {
	return NewCLIWithOptions(tr, in, out, DefaultOptions())
}

// NewCLIWithOptions creates a CLI with the given options.
func NewCLIWithOptions(tr *trace.Trace, in io.Reader, out io.Writer, opts Options) *CLI {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	c := &CLI{
		tr:          tr,
		bps:         NewBreakpointManager(),
		in:          in,
		out:         out,
		logger:      opts.Logger,
		thumbWidth:  opts.ThumbnailWidth,
		thumbHeight: opts.ThumbnailHeight,
	}
	c.nav = replay.NewNavigator(tr,
		replay.WithLogger(opts.Logger),
		replay.OnChange(func(_ int, changed replay.ChangeSet) { c.changed = changed }),
	)
	return c
}

// Breakpoints returns the session's breakpoint manager.
func (c *CLI) Breakpoints() *BreakpointManager {
	return c.bps
}

// Navigator returns the navigator driven by the CLI.
func (c *CLI) Navigator() *replay.Navigator {
	return c.nav
}

// Run processes commands until quit or end of input.
func (c *CLI) Run() error {
	defer c.nav.Close()

	c.printf("ChronoGL trace browser: %d calls, %d frames, %d contexts. Type 'help' for commands.\n",
		c.tr.Len(), len(c.tr.Frames), len(c.tr.Contexts))

	scanner := bufio.NewScanner(c.in)
	for {
		c.printf("%s", prompt)
		if !scanner.Scan() {
			c.printf("\n")
			return scanner.Err()
		}
		if quit := c.Execute(scanner.Text()); quit {
			return nil
		}
	}
}

// Execute runs one command line. It reports whether the session should end.
func (c *CLI) Execute(input string) bool {
	args := strings.Fields(input)
	if len(args) == 0 {
		return false
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "h", "help":
		c.printHelp()
	case "q", "quit", "exit":
		c.printf("Exiting.\n")
		return true
	case "s", "step":
		c.handleStep(args, 1)
	case "bs", "back", "backstep":
		c.handleStep(args, -1)
	case "c", "continue":
		c.handleContinue()
	case "g", "goto":
		c.handleGoto(args)
	case "f", "frame":
		c.handleFrame(args)
	case "i", "info":
		c.handleInfo()
	case "l", "list":
		c.handleList(args)
	case "st", "state":
		c.handleState(args)
	case "t", "tree":
		c.handleTree()
	case "fb", "image":
		c.handleImage()
	case "bp", "break":
		c.handleBreakpointCommand(args)
	default:
		c.printf("Unknown command: %s. Type 'help' for commands.\n", cmd)
	}
	return false
}

func (c *CLI) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *CLI) printHelp() {
	c.printf(`Commands:
  s, step [n]           apply the next n calls
  bs, back [n]          revert the last n calls
  c, continue           run forward to the next breakpoint
  g, goto <index>       move to just after call index (-1 for the start)
  f, frame <n>          move to the end of frame n
  i, info               show the current call
  l, list [n]           list n calls around the current one
  st, state [all]       dump the current context state, '*' marks changes
  t, tree               show the marker hierarchy of the current frame and context
  fb, image             show the framebuffer shown at the current call
  bp <expr>             add a breakpoint (glDrawArrays, #42, frame:3, draw, error, marker:name)
  bp list               list breakpoints
  bp rm|enable|disable <id>
  q, quit               exit
`)
}

func (c *CLI) printCurrent() {
	idx := c.nav.CurrentIndex()
	if idx < 0 {
		c.printf("At start of trace, no calls applied.\n")
		return
	}
	c.printf("%s\n", c.formatCall(c.tr.Calls[idx]))
}

func (c *CLI) formatCall(call *trace.Call) string {
	return fmt.Sprintf("#%d [frame %d] ctx %d %s (%s)",
		call.Index, c.tr.FrameOf(call.Index), call.Context(), call.Function(), call.Duration())
}

func (c *CLI) handleStep(args []string, dir int) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			c.printf("Invalid step count: %s\n", args[0])
			return
		}
		n = v
	}

	cur := c.nav.CurrentIndex()
	switch {
	case dir > 0 && cur+1 >= c.tr.Len():
		c.printf("%v\n", replay.ErrAtEnd)
		return
	case dir < 0 && cur < 0:
		c.printf("%v\n", replay.ErrAtStart)
		return
	}
	// One move covering all n calls, so the change marks span the whole step.
	c.moveTo(min(max(cur+dir*n, -1), c.tr.Len()-1))
}

func (c *CLI) moveTo(idx int) {
	if _, err := c.nav.Goto(idx); err != nil {
		c.printf("%v\n", err)
		return
	}
	c.printCurrent()
}

func (c *CLI) handleContinue() {
	if len(c.bps.List()) == 0 {
		c.printf("No breakpoints set, running to the end.\n")
	}
	if c.nav.CurrentIndex()+1 >= c.tr.Len() {
		c.printf("%v\n", replay.ErrAtEnd)
		return
	}
	var hit *Breakpoint
	idx, ok := c.nav.ReplayUntilBreakpoint(func(call *trace.Call) bool {
		bp, ok := c.bps.Check(c.tr, call)
		if ok {
			hit = bp
		}
		return ok
	})
	if ok {
		c.printf("Breakpoint %d hit at #%d\n", hit.ID, idx)
	} else {
		c.printf("Reached end of trace.\n")
	}
	c.printCurrent()
}

func (c *CLI) handleGoto(args []string) {
	if len(args) < 1 {
		c.printf("Usage: goto <index>\n")
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		c.printf("Invalid call index: %s\n", args[0])
		return
	}
	c.moveTo(idx)
}

func (c *CLI) handleFrame(args []string) {
	if len(args) < 1 {
		c.printf("Usage: frame <n>\n")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 || n >= len(c.tr.Frames) {
		c.printf("Invalid frame: %s (trace has %d frames)\n", args[0], len(c.tr.Frames))
		return
	}
	c.moveTo(c.tr.Frames[n].End - 1)
}

func (c *CLI) handleInfo() {
	if c.tr.Path != "" {
		c.printf("Trace %s (%s, %s)\n", c.tr.Path, humanize.IBytes(uint64(c.tr.Size)), c.tr.Duration())
	}
	idx := c.nav.CurrentIndex()
	if idx < 0 {
		c.printCurrent()
		return
	}
	call := c.tr.Calls[idx]
	c.printf("%s\n", c.formatCall(call))
	c.printf("  offset %d, start %dns, thread %s\n", call.Offset, call.Start, call.ThreadDuration())
	for i := range call.Record.Args {
		c.printf("  arg %d: %s\n", i, formatArg(&call.Record.Args[i]))
	}
	if ret := call.Record.ReturnValue; ret != nil {
		c.printf("  returns %s\n", formatArg(ret))
	}
	for _, p := range call.Properties {
		c.printf("  %s: %s\n", p.Name, p.Value)
	}
	if call.HasFramebuffer() {
		w, h := call.FramebufferSize()
		c.printf("  framebuffer %dx%d\n", w, h)
	}
}

func formatArg(a *glproto.Arg) string {
	var elems []string
	switch {
	case len(a.Chars) > 0:
		for _, ch := range a.Chars {
			s := string(ch)
			if len(s) > 40 {
				s = s[:40] + "..."
			}
			elems = append(elems, strconv.Quote(s))
		}
	case len(a.RawBytes) > 0:
		for _, b := range a.RawBytes {
			elems = append(elems, humanize.IBytes(uint64(len(b))))
		}
	case len(a.Floats) > 0:
		for _, f := range a.Floats {
			elems = append(elems, strconv.FormatFloat(float64(f), 'g', -1, 32))
		}
	case len(a.Bools) > 0:
		for _, b := range a.Bools {
			elems = append(elems, strconv.FormatBool(b))
		}
	case len(a.Int64s) > 0:
		for _, v := range a.Int64s {
			elems = append(elems, strconv.FormatInt(v, 10))
		}
	default:
		for _, v := range a.Ints {
			if a.Type == glproto.TypeEnum {
				elems = append(elems, glproto.Enum(v).String())
			} else {
				elems = append(elems, strconv.Itoa(int(v)))
			}
		}
	}
	s := strings.Join(elems, ", ")
	if a.IsArray {
		s = "[" + s + "]"
	}
	return a.Type.String() + " " + s
}

func (c *CLI) handleList(args []string) {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			c.printf("Invalid count: %s\n", args[0])
			return
		}
		n = v
	}
	cur := c.nav.CurrentIndex()
	start := max(cur-n/2, 0)
	end := min(start+n, c.tr.Len())
	for i := start; i < end; i++ {
		marker := "  "
		if i == cur {
			marker = "=>"
		}
		c.printf("%s %s\n", marker, c.formatCall(c.tr.Calls[i]))
	}
}

func (c *CLI) handleState(args []string) {
	all := len(args) > 0 && args[0] == "all"
	var err error
	c.nav.View(func(tree *state.Tree, current int) {
		id := tree.Root()
		if !all && current >= 0 {
			id, err = tree.Resolve(state.ContextPath(c.tr.Calls[current].Context()))
			if err != nil {
				return
			}
		}
		err = tree.Dump(c.out, id, c.changed.Contains)
	})
	if err != nil {
		c.printf("Error dumping state: %v\n", err)
	}
}

func (c *CLI) handleTree() {
	idx := c.nav.CurrentIndex()
	if idx < 0 {
		idx = 0
	}
	f := c.tr.FrameOf(idx)
	if f < 0 {
		c.printf("Trace has no frames.\n")
		return
	}
	frame := c.tr.Frames[f]
	ctx := c.tr.ContextIndex(c.tr.Calls[idx].Context())
	c.printf("Frame %d, calls [%d,%d)\n", f, frame.Start, frame.End)
	if err := hierarchy.Build(c.tr, frame.Start, frame.End, ctx).Dump(c.out, c.tr); err != nil {
		c.printf("Error: %v\n", err)
	}
}

func (c *CLI) handleImage() {
	idx := c.tr.LastFramebuffer(c.nav.CurrentIndex())
	if idx < 0 {
		c.printf("No framebuffer captured at or before the current call.\n")
		return
	}
	img, err := c.tr.Framebuffer(idx)
	if err != nil {
		c.logger.Warn("Can't decode framebuffer", zap.Int("call", idx), zap.Error(err))
		c.printf("Error decoding framebuffer of #%d: %v\n", idx, err)
		return
	}
	thumb := img.Thumbnail(c.thumbWidth, c.thumbHeight).Bounds()
	c.printf("Framebuffer of #%d: %dx%d, %s, thumbnail %dx%d\n",
		idx, img.Width, img.Height, humanize.IBytes(uint64(len(img.Pixels))), thumb.Dx(), thumb.Dy())
}

func (c *CLI) handleBreakpointCommand(args []string) {
	if len(args) == 0 || args[0] == "list" {
		c.handleListBreakpoints()
		return
	}

	switch args[0] {
	case "rm", "remove", "enable", "disable":
		if len(args) < 2 {
			c.printf("Usage: bp %s <id>\n", args[0])
			return
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			c.printf("Invalid breakpoint ID: %v\n", err)
			return
		}
		var verb string
		switch args[0] {
		case "enable":
			err, verb = c.bps.Enable(id), "Enabled"
		case "disable":
			err, verb = c.bps.Disable(id), "Disabled"
		default:
			err, verb = c.bps.Remove(id), "Removed"
		}
		if err != nil {
			c.printf("Error: %v\n", err)
			return
		}
		c.printf("%s breakpoint %d\n", verb, id)
	default:
		bp, err := c.bps.Add(strings.Join(args, " "))
		if err != nil {
			c.printf("Error setting breakpoint: %v\n", err)
			return
		}
		c.printf("Breakpoint %d set at %s\n", bp.ID, strings.Join(args, " "))
	}
}

func (c *CLI) handleListBreakpoints() {
	bps := c.bps.List()
	if len(bps) == 0 {
		c.printf("No breakpoints set.\n")
		return
	}
	for _, bp := range bps {
		c.printf("%s\n", bp)
	}
}

// ErrNoTrace is returned by Browse for a nil trace.
var ErrNoTrace = errors.New("no trace loaded")

// Browse runs an interactive session over tr.
func Browse(tr *trace.Trace, in io.Reader, out io.Writer, opts Options) error {
	if tr == nil {
		return ErrNoTrace
	}
	return NewCLIWithOptions(tr, in, out, opts).Run()
}
