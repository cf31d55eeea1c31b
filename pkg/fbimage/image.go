// Package fbimage decodes framebuffer snapshots attached to captured calls.
//
// The tracer reads pixels back with glReadPixels, which yields RGBA rows
// bottom-up, and zstd-compresses them. Decode reverses both steps.
package fbimage

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// MaxDimension bounds either side of a framebuffer.
const MaxDimension = 8192

// MaxDecodedSize bounds the decompressed size of a single framebuffer.
const MaxDecodedSize = 64 << 20

var (
	// ErrSizeMismatch is returned when a payload does not decompress to
	// exactly width*height*4 bytes.
	ErrSizeMismatch = errors.New("framebuffer size mismatch")

	// ErrBadDimensions is returned for non-positive or oversized dimensions.
	ErrBadDimensions = errors.New("invalid framebuffer dimensions")
)

// Image is a decoded framebuffer with rows in top-to-bottom order.
type Image struct {
	Width  int
	Height int
	// Pixels holds interleaved RGBA, 4 bytes per pixel.
	Pixels []byte
	// Alpha holds the alpha channel, one byte per pixel.
	Alpha []byte
}

// ValidateDimensions checks that a framebuffer of the given size can be
// decoded.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	if width*height*4 > MaxDecodedSize {
		return fmt.Errorf("%w: %dx%d exceeds %d bytes", ErrBadDimensions, width, height, MaxDecodedSize)
	}
	return nil
}

// Decode decompresses a framebuffer payload. An empty payload means the call
// had no capture and yields (nil, nil).
func Decode(payload []byte, width, height int) (*Image, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if err := ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	want := width * height * 4
	raw, err := decompress(payload, want)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress framebuffer: %w", err)
	}
	if len(raw) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for %dx%d", ErrSizeMismatch, len(raw), want, width, height)
	}

	img := &Image{
		Width:  width,
		Height: height,
		Pixels: make([]byte, want),
		Alpha:  make([]byte, width*height),
	}
	stride := width * 4
	for y := 0; y < height; y++ {
		src := raw[(height-1-y)*stride : (height-y)*stride]
		copy(img.Pixels[y*stride:(y+1)*stride], src)
		for x := 0; x < width; x++ {
			img.Alpha[y*width+x] = src[x*4+3]
		}
	}
	return img, nil
}

// NRGBA returns the image as an image.NRGBA sharing the pixel buffer.
func (img *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pixels,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// Opaque returns a copy of the image with alpha forced to 255, for consumers
// that composite with the separate Alpha buffer instead.
func (img *Image) Opaque() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	copy(out.Pix, img.Pixels)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xFF
	}
	return out
}

// Thumbnail scales the image to fit within maxWidth x maxHeight, keeping the
// aspect ratio. Images that already fit are returned unscaled.
func (img *Image) Thumbnail(maxWidth, maxHeight int) *image.NRGBA {
	src := img.NRGBA()
	if img.Width <= maxWidth && img.Height <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(img.Width), float64(maxHeight)/float64(img.Height))
	w := max(1, int(float64(img.Width)*scale))
	h := max(1, int(float64(img.Height)*scale))

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
