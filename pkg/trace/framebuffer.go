package trace

import (
	"fmt"
	"os"

	"github.com/willibrandon/ChronoGL/pkg/fbimage"
	"github.com/willibrandon/ChronoGL/pkg/framing"
	"github.com/willibrandon/ChronoGL/pkg/glproto"
)

// ReadRecord re-reads the full record at a frame offset of the trace file,
// including any framebuffer payload.
func (tr *Trace) ReadRecord(offset int64) (*glproto.Record, error) {
	if tr.Path == "" {
		return nil, fmt.Errorf("trace has no backing file")
	}
	f, err := os.Open(tr.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen trace: %w", err)
	}
	defer f.Close()

	payload, _, err := framing.ReadFrameAt(f, offset)
	if err != nil {
		return nil, &ParseError{Offset: offset, Err: err}
	}
	rec, err := glproto.Unmarshal(payload)
	if err != nil {
		return nil, &ParseError{Offset: offset, Err: err}
	}
	return rec, nil
}

// Framebuffer decodes the framebuffer captured with call i. It returns
// (nil, nil) when the call has no capture.
func (tr *Trace) Framebuffer(i int) (*fbimage.Image, error) {
	if i < 0 || i >= len(tr.Calls) {
		return nil, fmt.Errorf("call %d out of range [0,%d)", i, len(tr.Calls))
	}
	c := tr.Calls[i]
	if !c.HasFramebuffer() {
		return nil, nil
	}
	if tr.images != nil {
		if img, ok := tr.images.Get(i); ok {
			return img, nil
		}
	}

	contents := c.Record.Framebuffer.Contents
	if len(contents) == 0 {
		rec, err := tr.ReadRecord(c.Offset)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		if !rec.HasFramebuffer() {
			return nil, fmt.Errorf("call %d: framebuffer missing from record at offset %d", i, c.Offset)
		}
		contents = rec.Framebuffer.Contents
	}

	w, h := c.FramebufferSize()
	img, err := fbimage.Decode(contents, w, h)
	if err != nil {
		return nil, fmt.Errorf("call %d: %w", i, err)
	}
	if tr.images != nil {
		tr.images.Add(i, img)
	}
	return img, nil
}

// LastFramebuffer returns the index of the last call at or before i that has
// a framebuffer capture, or -1.
func (tr *Trace) LastFramebuffer(i int) int {
	for i = min(i, len(tr.Calls)-1); i >= 0; i-- {
		if tr.Calls[i].HasFramebuffer() {
			return i
		}
	}
	return -1
}
