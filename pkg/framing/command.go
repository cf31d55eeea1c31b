package framing

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Capture option bits carried in a control command.
const (
	CmdFramebufferOnSwap uint32 = 1 << iota
	CmdFramebufferOnDraw
	CmdTextureData

	cmdKnownBits = CmdFramebufferOnSwap | CmdFramebufferOnDraw | CmdTextureData
)

// CommandSize is the size of an encoded command frame.
const CommandSize = HeaderSize + 4

// CaptureOptions are the toggles the tracer in the target process honors.
type CaptureOptions struct {
	FramebufferOnSwap bool `yaml:"framebuffer_on_swap"`
	FramebufferOnDraw bool `yaml:"framebuffer_on_draw"`
	TextureData       bool `yaml:"texture_data"`
}

// Bits packs the options into the command bitmask.
func (o CaptureOptions) Bits() uint32 {
	var bits uint32
	if o.FramebufferOnSwap {
		bits |= CmdFramebufferOnSwap
	}
	if o.FramebufferOnDraw {
		bits |= CmdFramebufferOnDraw
	}
	if o.TextureData {
		bits |= CmdTextureData
	}
	return bits
}

func (o CaptureOptions) String() string {
	var on []string
	if o.FramebufferOnSwap {
		on = append(on, "fb-on-swap")
	}
	if o.FramebufferOnDraw {
		on = append(on, "fb-on-draw")
	}
	if o.TextureData {
		on = append(on, "texture-data")
	}
	if len(on) == 0 {
		return "none"
	}
	return strings.Join(on, ",")
}

// EncodeCommand builds the command frame for o.
func EncodeCommand(o CaptureOptions) [CommandSize]byte {
	var b [CommandSize]byte
	binary.BigEndian.PutUint32(b[:HeaderSize], 4)
	binary.BigEndian.PutUint32(b[HeaderSize:], o.Bits())
	return b
}

// DecodeCommand parses a command frame. It is the tracer-side counterpart of
// EncodeCommand and is used by fake devices and tests.
func DecodeCommand(b []byte) (CaptureOptions, error) {
	if len(b) != CommandSize {
		return CaptureOptions{}, fmt.Errorf("command frame is %d bytes, want %d", len(b), CommandSize)
	}
	if n := binary.BigEndian.Uint32(b[:HeaderSize]); n != 4 {
		return CaptureOptions{}, fmt.Errorf("command declares %d payload bytes, want 4", n)
	}
	bits := binary.BigEndian.Uint32(b[HeaderSize:])
	if bits&^cmdKnownBits != 0 {
		return CaptureOptions{}, fmt.Errorf("command sets reserved bits 0x%x", bits&^cmdKnownBits)
	}
	return CaptureOptions{
		FramebufferOnSwap: bits&CmdFramebufferOnSwap != 0,
		FramebufferOnDraw: bits&CmdFramebufferOnDraw != 0,
		TextureData:       bits&CmdTextureData != 0,
	}, nil
}

// WriteCommand sends o on w without waiting for any acknowledgement.
func WriteCommand(w io.Writer, o CaptureOptions) error {
	b := EncodeCommand(o)
	if _, err := w.Write(b[:]); err != nil {
		return fmt.Errorf("failed to send capture command %s: %w", o, err)
	}
	return nil
}
