package recorder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/trace"
)

// ErrSessionStopped is returned when using a session after Stop.
var ErrSessionStopped = errors.New("capture session stopped")

// SessionOptions configures a capture session.
type SessionOptions struct {
	// Capture is sent to the tracer as soon as the session starts, unless
	// SkipInitialCommand is set.
	Capture            framing.CaptureOptions
	SkipInitialCommand bool
	// Recorder overrides where frames are stored. When nil, frames go to
	// the output path, or to memory if the path is empty.
	Recorder Recorder
	Logger   *zap.Logger
	// TraceOptions are passed to the parser when the session stops.
	TraceOptions []trace.Option
}

// Session is one running capture. A background goroutine reads frames from
// the tracer channel and records them while the caller sends commands.
type Session struct {
	conn   io.ReadWriteCloser
	rec    Recorder
	logger *zap.Logger
	opts   SessionOptions

	g          *errgroup.Group
	done       chan struct{}
	stopWatch  func() bool
	writeMu    sync.Mutex
	stopping   atomic.Bool
	stopOnce   sync.Once
	lastOffset atomic.Int64
}

// StartSession starts capturing from an established tracer channel into
// outputPath. Canceling ctx aborts the capture by closing the channel.
func StartSession(ctx context.Context, conn io.ReadWriteCloser, outputPath string, opts SessionOptions) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rec := opts.Recorder
	if rec == nil {
		if outputPath == "" {
			rec = NewInMemoryRecorder()
		} else {
			fr, err := NewFileRecorder(outputPath)
			if err != nil {
				return nil, err
			}
			rec = fr
		}
	}

	s := &Session{conn: conn, rec: rec, logger: logger, opts: opts, done: make(chan struct{})}

	if !opts.SkipInitialCommand {
		if err := s.SendCommand(opts.Capture); err != nil {
			rec.Close()
			return nil, err
		}
	}

	s.stopWatch = context.AfterFunc(ctx, func() {
		logger.Info("Capture canceled, closing tracer channel")
		s.closeConn()
	})

	s.g = &errgroup.Group{}
	s.g.Go(s.readLoop)

	logger.Info("Capture session started",
		zap.String("output", outputPath),
		zap.Stringer("capture", opts.Capture))
	return s, nil
}

func (s *Session) readLoop() error {
	defer close(s.done)
	fr := framing.NewReader(bufio.NewReaderSize(s.conn, 64<<10))
	for {
		payload, off, err := fr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Tracer channel reached end of data", zap.Int64("offset", off))
				return nil
			}
			if s.stopping.Load() {
				s.logger.Debug("Tracer channel closed", zap.Error(err))
				return nil
			}
			return fmt.Errorf("capture stopped at offset %d: %w", off, err)
		}

		if err := s.rec.RecordFrame(payload); err != nil {
			return err
		}
		s.lastOffset.Store(fr.Offset())
		s.logger.Debug("Captured frame", zap.Int64("offset", off), zap.Int("bytes", len(payload)))
	}
}

// SendCommand sends new capture options to the tracer. It does not wait for
// the tracer to apply them.
func (s *Session) SendCommand(o framing.CaptureOptions) error {
	if s.stopping.Load() {
		return ErrSessionStopped
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := framing.WriteCommand(s.conn, o); err != nil {
		return err
	}
	s.logger.Debug("Sent capture command", zap.Stringer("capture", o))
	return nil
}

// Done is closed when the reader stops, either because the tracer closed
// the channel, the stream was corrupt, or the session is stopping.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Frames returns how many frames were recorded so far.
func (s *Session) Frames() int {
	return s.rec.Frames()
}

// BytesRead returns how many bytes of the channel were consumed so far.
func (s *Session) BytesRead() int64 {
	return s.lastOffset.Load()
}

func (s *Session) closeConn() {
	s.stopping.Store(true)
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("Ignoring error closing tracer channel", zap.Error(err))
	}
}

// Stop closes the channel, waits for the reader to drain, closes the output
// and parses what was captured. Frames recorded before a channel error are
// still parsed; the channel error is returned alongside the trace.
func (s *Session) Stop(ctx context.Context) (*trace.Trace, error) {
	var readErr error
	stopped := false
	s.stopOnce.Do(func() {
		stopped = true
		s.stopWatch()
		s.closeConn()
		readErr = s.g.Wait()
	})
	if !stopped {
		return nil, ErrSessionStopped
	}

	if err := s.rec.Close(); err != nil {
		return nil, fmt.Errorf("failed to close recording: %w", err)
	}
	s.logger.Info("Capture session stopped",
		zap.Int("frames", s.rec.Frames()),
		zap.Int64("bytes", s.rec.Bytes()))

	opts := append([]trace.Option{trace.WithLogger(s.logger)}, s.opts.TraceOptions...)
	tr, err := s.rec.Load(ctx, opts...)
	if err != nil {
		return nil, errors.Join(readErr, err)
	}
	return tr, readErr
}
