package transform

import (
	"bytes"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/state"
)

// TextureImage is the value of a mipmap level's image leaf. Pixels is nil
// when the capture did not include texture data.
type TextureImage struct {
	Width  int32
	Height int32
	Format glproto.Enum
	Type   glproto.Enum
	Pixels []byte
}

func (img *TextureImage) String() string {
	if img.Pixels == nil {
		return fmt.Sprintf("%dx%d %s/%s", img.Width, img.Height, img.Format, img.Type)
	}
	return fmt.Sprintf("%dx%d %s/%s (%s)", img.Width, img.Height, img.Format, img.Type,
		humanize.Bytes(uint64(len(img.Pixels))))
}

// bytesPerPixel returns the packed pixel size for unsigned byte uploads.
func bytesPerPixel(format, typ glproto.Enum) int {
	if typ != glproto.GL_UNSIGNED_BYTE {
		return 0
	}
	switch format {
	case glproto.GL_RGBA:
		return 4
	case glproto.GL_RGB:
		return 3
	}
	return 0
}

// TexImage stores an uploaded image in a mipmap level. A sub-image upload
// (Sub) patches the region X, Y of the existing pixels when both sides carry
// data in the same byte format, and otherwise leaves the image unchanged.
type TexImage struct {
	Target Accessor
	Image  TextureImage
	Sub    bool
	X, Y   int32

	old     any
	applied bool
}

func (ti *TexImage) next(cur any) (any, error) {
	if !ti.Sub {
		img := ti.Image
		return &img, nil
	}

	base, ok := cur.(*TextureImage)
	if !ok || base == nil {
		return cur, nil
	}
	bpp := bytesPerPixel(base.Format, base.Type)
	if base.Pixels == nil || ti.Image.Pixels == nil || bpp == 0 ||
		base.Format != ti.Image.Format || base.Type != ti.Image.Type {
		return cur, nil
	}
	if ti.X < 0 || ti.Y < 0 || ti.Image.Width < 0 || ti.Image.Height < 0 ||
		int64(ti.X)+int64(ti.Image.Width) > int64(base.Width) ||
		int64(ti.Y)+int64(ti.Image.Height) > int64(base.Height) {
		return nil, fmt.Errorf("sub image %dx%d at (%d,%d) in %dx%d: %w",
			ti.Image.Width, ti.Image.Height, ti.X, ti.Y, base.Width, base.Height, ErrOutOfRange)
	}

	dstStride := int(base.Width) * bpp
	srcStride := int(ti.Image.Width) * bpp
	if len(ti.Image.Pixels) < srcStride*int(ti.Image.Height) || len(base.Pixels) < dstStride*int(base.Height) {
		return cur, nil
	}

	out := *base
	out.Pixels = bytes.Clone(base.Pixels)
	for row := 0; row < int(ti.Image.Height); row++ {
		dst := (int(ti.Y)+row)*dstStride + int(ti.X)*bpp
		copy(out.Pixels[dst:dst+srcStride], ti.Image.Pixels[row*srcStride:(row+1)*srcStride])
	}
	return &out, nil
}

func (ti *TexImage) Apply(t *state.Tree) (state.NodeID, error) {
	id, err := ti.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	cur, err := t.Value(id)
	if err != nil {
		return state.NoNode, err
	}
	v, err := ti.next(cur)
	if err != nil {
		return state.NoNode, err
	}
	if _, err := t.SetValue(id, v); err != nil {
		return state.NoNode, err
	}
	ti.old, ti.applied = cur, true
	return id, nil
}

func (ti *TexImage) Revert(t *state.Tree) (state.NodeID, error) {
	if !ti.applied {
		return state.NoNode, nil
	}
	id, err := ti.Target.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	if _, err := t.SetValue(id, ti.old); err != nil {
		return state.NoNode, err
	}
	ti.applied = false
	return id, nil
}

func (ti *TexImage) String() string {
	if ti.Sub {
		return fmt.Sprintf("%s += %s at (%d,%d)", ti.Target, &ti.Image, ti.X, ti.Y)
	}
	return fmt.Sprintf("%s = %s", ti.Target, &ti.Image)
}
