package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/zap"

	"github.com/willibrandon/ChronoGL/pkg/fbimage"
	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/transform"
)

// progressEvery is the number of records between progress callbacks.
const progressEvery = 256

// ProgressFunc receives the bytes consumed so far and the total, which is -1
// when the source size is unknown.
type ProgressFunc func(read, total int64)

type options struct {
	logger     *zap.Logger
	progress   ProgressFunc
	total      int64
	cacheSize  int
	keepImages bool
}

// Option configures parsing.
type Option func(*options)

// WithLogger sets the logger for skipped transforms and bad captures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithSize sets the total size reported to the progress callback.
func WithSize(total int64) Option {
	return func(o *options) { o.total = total }
}

// WithImageCache sets how many decoded framebuffers the trace keeps.
func WithImageCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

// WithFramebufferContents keeps compressed framebuffers in memory even when
// the trace can re-read them from its file.
func WithFramebufferContents() Option {
	return func(o *options) { o.keepImages = true }
}

// ParseFile parses the trace file at path. Framebuffer payloads are dropped
// after validation and re-read from the file on demand.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat trace: %w", err)
	}

	opts = append([]Option{WithSize(info.Size())}, opts...)
	tr, err := parse(ctx, f, path, opts)
	if err != nil {
		return nil, err
	}
	tr.Size = info.Size()
	tr.ModTime = info.ModTime()
	return tr, nil
}

// Parse reads records from r until end of data. Framebuffer payloads are
// kept in memory since r cannot be re-read.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Trace, error) {
	return parse(ctx, r, "", opts)
}

func parse(ctx context.Context, r io.Reader, path string, opts []Option) (*Trace, error) {
	o := options{logger: zap.NewNop(), total: -1, cacheSize: fbimage.DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	keepImages := o.keepImages || path == ""

	images, err := fbimage.NewCache(o.cacheSize)
	if err != nil {
		return nil, err
	}

	var (
		fr       = framing.NewReader(r)
		calls    []*Call
		contexts = map[int32]struct{}{}
		minStart int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCanceled, err)
		}

		payload, off, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Offset: off, Err: err}
		}

		rec, err := glproto.Unmarshal(payload)
		if err != nil {
			return nil, &ParseError{Offset: off, Err: err}
		}

		call := newCall(rec, off, len(calls), keepImages, o.logger)
		if len(calls) == 0 || rec.StartTime < minStart {
			minStart = rec.StartTime
		}
		contexts[rec.ContextID] = struct{}{}
		calls = append(calls, call)

		if o.progress != nil && len(calls)%progressEvery == 0 {
			o.progress(fr.Offset(), o.total)
		}
	}
	if o.progress != nil {
		o.progress(fr.Offset(), o.total)
	}

	for _, c := range calls {
		c.Start = c.Record.StartTime - minStart
	}

	tr := &Trace{
		Path:     path,
		Size:     fr.Offset(),
		Calls:    calls,
		Contexts: make([]int32, 0, len(contexts)),
		images:   images,
	}
	for id := range contexts {
		tr.Contexts = append(tr.Contexts, id)
	}
	slices.Sort(tr.Contexts)

	// Each context is captured by its own thread, so with several contexts
	// records are only ordered per context.
	if len(tr.Contexts) > 1 {
		slices.SortStableFunc(tr.Calls, func(a, b *Call) int {
			switch {
			case a.Start < b.Start:
				return -1
			case a.Start > b.Start:
				return 1
			}
			return 0
		})
		for i, c := range tr.Calls {
			c.Index = i
		}
	}

	tr.Frames = segment(tr.Calls)

	o.logger.Info("Parsed trace",
		zap.String("path", path),
		zap.Int("calls", len(tr.Calls)),
		zap.Int("frames", len(tr.Frames)),
		zap.Int("contexts", len(tr.Contexts)),
		zap.Int64("bytes", tr.Size))
	return tr, nil
}

func newCall(rec *glproto.Record, off int64, index int, keepImages bool, logger *zap.Logger) *Call {
	c := &Call{
		Index:      index,
		Offset:     off,
		Record:     rec,
		Properties: properties(rec),
	}

	if rec.HasFramebuffer() {
		fb := rec.Framebuffer
		if err := fbimage.ValidateDimensions(int(fb.Width), int(fb.Height)); err != nil {
			logger.Warn("Ignoring framebuffer capture",
				zap.Int64("offset", off),
				zap.Stringer("function", rec.Function),
				zap.Error(err))
		} else {
			c.hasFB, c.fbWidth, c.fbHeight = true, fb.Width, fb.Height
		}
		if !keepImages || !c.hasFB {
			rec.Framebuffer = &glproto.Framebuffer{Width: fb.Width, Height: fb.Height}
		}
	}

	ts, err := transform.For(rec)
	if err != nil {
		logger.Warn("Skipping state transforms",
			zap.Int64("offset", off),
			zap.Stringer("function", rec.Function),
			zap.Error(err))
	}
	c.Transforms = ts
	return c
}

// segment splits calls into frames closed by eglSwapBuffers.
func segment(calls []*Call) []Frame {
	var frames []Frame
	start := 0
	for i, c := range calls {
		if c.Record.Function == glproto.EGLSwapBuffers {
			frames = append(frames, Frame{Index: len(frames), Start: start, End: i + 1})
			start = i + 1
		}
	}
	if start < len(calls) {
		frames = append(frames, Frame{Index: len(frames), Start: start, End: len(calls)})
	}
	return frames
}
