package fbimage

import (
	"github.com/klauspost/compress/zstd"
)

var (
	// encoder and decoder for zstd are reusable and thread-safe
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
)

// Compress packs raw bottom-up RGBA pixels the way the tracer does before
// attaching them to a record.
func Compress(pixels []byte) []byte {
	return zstdEncoder.EncodeAll(pixels, make([]byte, 0, len(pixels)/4))
}

// decompress inflates a framebuffer payload. want is used as the capacity
// hint so a well-formed payload decodes without reallocation.
func decompress(payload []byte, want int) ([]byte, error) {
	return zstdDecoder.DecodeAll(payload, make([]byte, 0, want))
}
