package tracetest

import (
	"fmt"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
)

// SceneOptions describes a synthetic capture.
type SceneOptions struct {
	Frames       int
	Contexts     int
	DrawsPerPass int
	Width        int32
	Height       int32
	// Framebuffers attaches a capture to every eglSwapBuffers.
	Framebuffers bool
}

// DefaultSceneOptions returns a small two-pass, single-context scene.
func DefaultSceneOptions() SceneOptions {
	return SceneOptions{
		Frames:       3,
		Contexts:     1,
		DrawsPerPass: 2,
		Width:        64,
		Height:       48,
		Framebuffers: true,
	}
}

// Scene generates the records a simple renderer would emit: per context a
// setup prologue (shaders, program, texture, buffer), then per frame a
// marked shadow and color pass ending in eglSwapBuffers. Contexts are
// interleaved with equal per-call spacing, so records arrive out of start
// time order whenever Contexts > 1.
func Scene(opts SceneOptions) []*glproto.Record {
	var out []*glproto.Record
	perContext := make([][]*glproto.Record, opts.Contexts)
	for c := range perContext {
		perContext[c] = sceneFor(int32(c), opts)
	}
	// Each context's thread appends its own calls in bursts.
	for len(perContext) > 0 {
		next := perContext[:0]
		for _, recs := range perContext {
			n := min(len(recs), 8)
			out = append(out, recs[:n]...)
			if len(recs) > n {
				next = append(next, recs[n:])
			}
		}
		perContext = next
	}
	return out
}

func sceneFor(ctx int32, opts SceneOptions) []*glproto.Record {
	var (
		recs []*glproto.Record
		now  = int64(1_000_000 + ctx*250)
	)
	emit := func(b *Builder) {
		recs = append(recs, b.Ctx(ctx).At(now).Record())
		now += 1000
	}

	emit(Rec(glproto.EGLCreateContext, Int(2), Int(ctx)))
	emit(Rec(glproto.GLCreateShader, Enum(glproto.GL_VERTEX_SHADER)).Returns(1))
	emit(Rec(glproto.GLShaderSource, Int(1), Int(1), Str("attribute vec4 pos;\nvoid main() { gl_Position = pos; }"), Ints(0)))
	emit(Rec(glproto.GLCreateShader, Enum(glproto.GL_FRAGMENT_SHADER)).Returns(2))
	emit(Rec(glproto.GLShaderSource, Int(2), Int(1), Str("void main() { gl_FragColor = vec4(1.0); }"), Ints(0)))
	emit(Rec(glproto.GLCreateProgram).Returns(3))
	emit(Rec(glproto.GLAttachShader, Int(3), Int(1)))
	emit(Rec(glproto.GLAttachShader, Int(3), Int(2)))
	emit(Rec(glproto.GLGetActiveUniform, Int(3), Int(0), Int(64), Int(5), Int(1), Enum(glproto.GL_FLOAT), Str("alpha"), Int(0)))
	emit(Rec(glproto.GLUseProgram, Int(3)))
	emit(Rec(glproto.GLGenTextures, Int(1), Ints(7)))
	emit(Rec(glproto.GLBindTexture, Enum(glproto.GL_TEXTURE_2D), Int(7)))
	emit(Rec(glproto.GLTexParameteri, Enum(glproto.GL_TEXTURE_2D), Enum(glproto.GL_TEXTURE_MIN_FILTER), Enum(glproto.GL_LINEAR)))
	emit(Rec(glproto.GLTexImage2D, Enum(glproto.GL_TEXTURE_2D), Int(0), Enum(glproto.GL_RGBA), Int(4), Int(4), Int(0),
		Enum(glproto.GL_RGBA), Enum(glproto.GL_UNSIGNED_BYTE), Data(Solid(4, 4, 200, 10, 10, 255))))
	emit(Rec(glproto.GLGenBuffers, Int(1), Ints(9)))
	emit(Rec(glproto.GLBindBuffer, Enum(glproto.GL_ARRAY_BUFFER), Int(9)))
	emit(Rec(glproto.GLBufferData, Enum(glproto.GL_ARRAY_BUFFER), Int(48), NoData(), Enum(glproto.GL_STATIC_DRAW)))
	emit(Rec(glproto.GLVertexAttribPointer, Int(0), Int(3), Enum(glproto.GL_FLOAT), Bool(false), Int(12), Int(0)))
	emit(Rec(glproto.GLEnableVertexAttribArray, Int(0)))

	for f := 0; f < opts.Frames; f++ {
		emit(Rec(glproto.GLViewport, Int(0), Int(0), Int(opts.Width), Int(opts.Height)))
		for _, pass := range []string{"shadow", "color"} {
			emit(Rec(glproto.GLPushGroupMarkerEXT, Int(0), Str(fmt.Sprintf("%s pass", pass))))
			emit(Rec(glproto.GLEnable, Enum(glproto.GL_DEPTH_TEST)))
			emit(Rec(glproto.GLClear, Int(0x4100)))
			emit(Rec(glproto.GLUniform1f, Int(0), Float(float32(f)/float32(max(opts.Frames, 1)))))
			for d := 0; d < opts.DrawsPerPass; d++ {
				emit(Rec(glproto.GLDrawArrays, Enum(glproto.GL_TRIANGLES), Int(0), Int(int32(3*(d+1)))))
			}
			emit(Rec(glproto.GLDisable, Enum(glproto.GL_DEPTH_TEST)))
			emit(Rec(glproto.GLPopGroupMarkerEXT))
		}

		swap := Rec(glproto.EGLSwapBuffers, Int(0), Int(0))
		if opts.Framebuffers && opts.Width > 0 && opts.Height > 0 {
			shade := byte(40 * (f + 1))
			swap.Framebuffer(opts.Width, opts.Height, Solid(int(opts.Width), int(opts.Height), shade, byte(ctx*60), 128, 255))
		}
		emit(swap)
	}
	return recs
}
