// Package framing implements the length-prefixed framing shared by the
// capture channel and trace files: a 4-byte big-endian payload length
// followed by exactly that many bytes.
package framing

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of the length prefix.
const HeaderSize = 4

// MaxPayloadSize bounds a single frame. A 2560x1600 RGBA framebuffer is
// ~16 MiB before compression; anything past this is treated as corruption.
const MaxPayloadSize = 32 << 20

// CorruptFrameError reports a frame that cannot be read. Offset is the byte
// offset of the frame's length prefix.
type CorruptFrameError struct {
	Offset int64
	Reason string
}

func (e *CorruptFrameError) Error() string {
	return fmt.Sprintf("corrupt frame at offset %d: %s", e.Offset, e.Reason)
}

// Reader reads frames sequentially and tracks the offset of each one.
type Reader struct {
	r      io.Reader
	offset int64
	hdr    [HeaderSize]byte
}

// NewReader returns a Reader that starts counting offsets at zero.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the offset of the next frame.
func (fr *Reader) Offset() int64 {
	return fr.offset
}

// ReadFrame returns the next payload. A short or empty read of the length
// prefix is the normal end of data and yields io.EOF.
func (fr *Reader) ReadFrame() ([]byte, error) {
	payload, _, err := fr.Next()
	return payload, err
}

// Next is ReadFrame that also returns the offset the frame started at.
func (fr *Reader) Next() ([]byte, int64, error) {
	start := fr.offset
	if _, err := io.ReadFull(fr.r, fr.hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, start, io.EOF
		}
		return nil, start, err
	}

	n, err := checkLength(binary.BigEndian.Uint32(fr.hdr[:]), start)
	if err != nil {
		return nil, start, err
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, start, &CorruptFrameError{Offset: start, Reason: fmt.Sprintf("truncated payload, want %d bytes", n)}
		}
		return nil, start, err
	}
	fr.offset += HeaderSize + int64(n)
	return payload, start, nil
}

// ReadFrameAt reads the frame starting at off and returns its payload and the
// offset of the following frame.
func ReadFrameAt(r io.ReaderAt, off int64) ([]byte, int64, error) {
	// A ReaderAt may return io.EOF alongside a full read that ends the data.
	var hdr [HeaderSize]byte
	if n, err := r.ReadAt(hdr[:], off); err != nil && n < HeaderSize {
		if errors.Is(err, io.EOF) {
			return nil, off, io.EOF
		}
		return nil, off, err
	}

	n, err := checkLength(binary.BigEndian.Uint32(hdr[:]), off)
	if err != nil {
		return nil, off, err
	}

	payload := make([]byte, n)
	if n == 0 {
		return payload, off + HeaderSize, nil
	}
	if got, err := r.ReadAt(payload, off+HeaderSize); err != nil && got < len(payload) {
		if errors.Is(err, io.EOF) {
			return nil, off, &CorruptFrameError{Offset: off, Reason: fmt.Sprintf("truncated payload, want %d bytes", n)}
		}
		return nil, off, err
	}
	return payload, off + HeaderSize + int64(n), nil
}

func checkLength(n uint32, off int64) (uint32, error) {
	if n > MaxPayloadSize {
		return 0, &CorruptFrameError{
			Offset: off,
			Reason: fmt.Sprintf("declared length %d exceeds maximum %d", n, MaxPayloadSize),
		}
	}
	return n, nil
}

// Writer appends frames. A Writer from NewWriter flushes every frame before
// WriteFrame returns, so a concurrent reader never observes a torn frame.
type Writer struct {
	bw       *bufio.Writer
	hdr      [HeaderSize]byte
	buffered bool
	frames   int
	bytes    int64
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// NewBufferedWriter wraps w with a buffer of size bytes. Frames reach w only
// when the buffer fills or on Flush.
func NewBufferedWriter(w io.Writer, size int) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, size), buffered: true}
}

// Flush writes any buffered frames to the underlying writer.
func (fw *Writer) Flush() error {
	return fw.bw.Flush()
}

// WriteFrame writes the length prefix and payload, flushing both unless the
// writer is buffered.
func (fw *Writer) WriteFrame(payload []byte) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("frame of %d bytes exceeds maximum %d", len(payload), MaxPayloadSize)
	}

	binary.BigEndian.PutUint32(fw.hdr[:], uint32(len(payload)))
	if _, err := fw.bw.Write(fw.hdr[:]); err != nil {
		return err
	}
	if _, err := fw.bw.Write(payload); err != nil {
		return err
	}
	if !fw.buffered {
		if err := fw.bw.Flush(); err != nil {
			return err
		}
	}

	fw.frames++
	fw.bytes += HeaderSize + int64(len(payload))
	return nil
}

// Frames returns the number of frames written.
func (fw *Writer) Frames() int {
	return fw.frames
}

// Bytes returns the number of bytes written, headers included.
func (fw *Writer) Bytes() int64 {
	return fw.bytes
}
