package glproto

import "fmt"

// Enum is a GLenum value as captured in call arguments.
type Enum uint32

const (
	GL_NONE Enum = 0
	GL_ONE  Enum = 1

	GL_TRIANGLES Enum = 0x0004

	GL_LESS   Enum = 0x0201
	GL_ALWAYS Enum = 0x0207

	GL_FRONT          Enum = 0x0404
	GL_BACK           Enum = 0x0405
	GL_FRONT_AND_BACK Enum = 0x0408

	GL_INVALID_ENUM                  Enum = 0x0500
	GL_INVALID_VALUE                 Enum = 0x0501
	GL_INVALID_OPERATION             Enum = 0x0502
	GL_OUT_OF_MEMORY                 Enum = 0x0505
	GL_INVALID_FRAMEBUFFER_OPERATION Enum = 0x0506

	GL_CW  Enum = 0x0900
	GL_CCW Enum = 0x0901

	GL_CULL_FACE    Enum = 0x0B44
	GL_DEPTH_TEST   Enum = 0x0B71
	GL_STENCIL_TEST Enum = 0x0B90
	GL_DITHER       Enum = 0x0BD0
	GL_BLEND        Enum = 0x0BE2
	GL_SCISSOR_TEST Enum = 0x0C11

	GL_UNPACK_ALIGNMENT Enum = 0x0CF5
	GL_PACK_ALIGNMENT   Enum = 0x0D05

	GL_TEXTURE_2D Enum = 0x0DE1

	GL_UNSIGNED_BYTE  Enum = 0x1401
	GL_UNSIGNED_SHORT Enum = 0x1403
	GL_FLOAT          Enum = 0x1406

	GL_RGB  Enum = 0x1907
	GL_RGBA Enum = 0x1908

	GL_KEEP Enum = 0x1E00

	GL_NEAREST               Enum = 0x2600
	GL_LINEAR                Enum = 0x2601
	GL_NEAREST_MIPMAP_LINEAR Enum = 0x2702
	GL_TEXTURE_MAG_FILTER    Enum = 0x2800
	GL_TEXTURE_MIN_FILTER    Enum = 0x2801
	GL_TEXTURE_WRAP_S        Enum = 0x2802
	GL_TEXTURE_WRAP_T        Enum = 0x2803
	GL_REPEAT                Enum = 0x2901

	GL_FUNC_ADD            Enum = 0x8006
	GL_POLYGON_OFFSET_FILL Enum = 0x8037

	GL_TEXTURE0         Enum = 0x84C0
	GL_TEXTURE_CUBE_MAP Enum = 0x8513

	GL_ARRAY_BUFFER         Enum = 0x8892
	GL_ELEMENT_ARRAY_BUFFER Enum = 0x8893
	GL_STATIC_DRAW          Enum = 0x88E4

	GL_FRAGMENT_SHADER Enum = 0x8B30
	GL_VERTEX_SHADER   Enum = 0x8B31

	GL_FRAMEBUFFER Enum = 0x8D40

	GL_TEXTURE_EXTERNAL_OES Enum = 0x8D65
)

var enumNames = map[Enum]string{
	GL_TRIANGLES:                     "GL_TRIANGLES",
	GL_LESS:                          "GL_LESS",
	GL_ALWAYS:                        "GL_ALWAYS",
	GL_FRONT:                         "GL_FRONT",
	GL_BACK:                          "GL_BACK",
	GL_FRONT_AND_BACK:                "GL_FRONT_AND_BACK",
	GL_INVALID_ENUM:                  "GL_INVALID_ENUM",
	GL_INVALID_VALUE:                 "GL_INVALID_VALUE",
	GL_INVALID_OPERATION:             "GL_INVALID_OPERATION",
	GL_OUT_OF_MEMORY:                 "GL_OUT_OF_MEMORY",
	GL_INVALID_FRAMEBUFFER_OPERATION: "GL_INVALID_FRAMEBUFFER_OPERATION",
	GL_CW:                            "GL_CW",
	GL_CCW:                           "GL_CCW",
	GL_CULL_FACE:                     "GL_CULL_FACE",
	GL_DEPTH_TEST:                    "GL_DEPTH_TEST",
	GL_STENCIL_TEST:                  "GL_STENCIL_TEST",
	GL_DITHER:                        "GL_DITHER",
	GL_BLEND:                         "GL_BLEND",
	GL_SCISSOR_TEST:                  "GL_SCISSOR_TEST",
	GL_UNPACK_ALIGNMENT:              "GL_UNPACK_ALIGNMENT",
	GL_PACK_ALIGNMENT:                "GL_PACK_ALIGNMENT",
	GL_TEXTURE_2D:                    "GL_TEXTURE_2D",
	GL_UNSIGNED_BYTE:                 "GL_UNSIGNED_BYTE",
	GL_UNSIGNED_SHORT:                "GL_UNSIGNED_SHORT",
	GL_FLOAT:                         "GL_FLOAT",
	GL_RGB:                           "GL_RGB",
	GL_RGBA:                          "GL_RGBA",
	GL_KEEP:                          "GL_KEEP",
	GL_NEAREST:                       "GL_NEAREST",
	GL_LINEAR:                        "GL_LINEAR",
	GL_NEAREST_MIPMAP_LINEAR:         "GL_NEAREST_MIPMAP_LINEAR",
	GL_TEXTURE_MAG_FILTER:            "GL_TEXTURE_MAG_FILTER",
	GL_TEXTURE_MIN_FILTER:            "GL_TEXTURE_MIN_FILTER",
	GL_TEXTURE_WRAP_S:                "GL_TEXTURE_WRAP_S",
	GL_TEXTURE_WRAP_T:                "GL_TEXTURE_WRAP_T",
	GL_REPEAT:                        "GL_REPEAT",
	GL_FUNC_ADD:                      "GL_FUNC_ADD",
	GL_POLYGON_OFFSET_FILL:           "GL_POLYGON_OFFSET_FILL",
	GL_TEXTURE0:                      "GL_TEXTURE0",
	GL_TEXTURE_CUBE_MAP:              "GL_TEXTURE_CUBE_MAP",
	GL_ARRAY_BUFFER:                  "GL_ARRAY_BUFFER",
	GL_ELEMENT_ARRAY_BUFFER:          "GL_ELEMENT_ARRAY_BUFFER",
	GL_STATIC_DRAW:                   "GL_STATIC_DRAW",
	GL_FRAGMENT_SHADER:               "GL_FRAGMENT_SHADER",
	GL_VERTEX_SHADER:                 "GL_VERTEX_SHADER",
	GL_FRAMEBUFFER:                   "GL_FRAMEBUFFER",
	GL_TEXTURE_EXTERNAL_OES:          "GL_TEXTURE_EXTERNAL_OES",
}

// String returns the GL symbol for well known values and hex otherwise.
// Zero and one are ambiguous in GL (GL_ZERO/GL_NONE/GL_POINTS, GL_ONE/GL_LINES)
// and print as numbers.
func (e Enum) String() string {
	if name, ok := enumNames[e]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint32(e))
}
