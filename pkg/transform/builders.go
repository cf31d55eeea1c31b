package transform

import (
	"fmt"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/state"
)

type builder func(r *glproto.Record, a *args) []Transform

// builders maps each tracked function to the transforms its call implies.
// Functions without an entry do not touch the modeled state.
var builders = map[glproto.Function]builder{
	glproto.EGLCreateContext: buildCreateContext,

	glproto.GLBindFramebuffer: func(r *glproto.Record, a *args) []Transform {
		fb := a.int(1)
		return one(At(r.ContextID, state.Prop(state.FramebufferState), state.Prop(state.FramebufferBinding)), fb)
	},

	glproto.GLVertexAttribPointer:      buildVertexAttribPointer,
	glproto.GLVertexAttrib1f:           buildVertexAttrib(1, false),
	glproto.GLVertexAttrib2f:           buildVertexAttrib(2, false),
	glproto.GLVertexAttrib3f:           buildVertexAttrib(3, false),
	glproto.GLVertexAttrib4f:           buildVertexAttrib(4, false),
	glproto.GLVertexAttrib1fv:          buildVertexAttrib(1, true),
	glproto.GLVertexAttrib2fv:          buildVertexAttrib(2, true),
	glproto.GLVertexAttrib3fv:          buildVertexAttrib(3, true),
	glproto.GLVertexAttrib4fv:          buildVertexAttrib(4, true),
	glproto.GLEnableVertexAttribArray:  buildVertexAttribArrayEnable(true),
	glproto.GLDisableVertexAttribArray: buildVertexAttribArrayEnable(false),

	glproto.GLBindBuffer:    buildBindBuffer,
	glproto.GLGenBuffers:    buildGenObjects(state.Prop(state.VertexArrayData), state.Prop(state.VBOs)),
	glproto.GLDeleteBuffers: buildDeleteObjects(state.Prop(state.VertexArrayData), state.Prop(state.VBOs)),
	glproto.GLBufferData:    buildBufferData,
	glproto.GLBufferSubData: buildBufferSubData,

	glproto.GLViewport: buildRect(state.TransformationState, state.Viewport,
		state.ViewportX, state.ViewportY, state.ViewportWidth, state.ViewportHeight),
	glproto.GLDepthRangef: func(r *glproto.Record, a *args) []Transform {
		near, far := a.float(0), a.float(1)
		return []Transform{
			NewPropertyChange(At(r.ContextID, state.Prop(state.TransformationState), state.Prop(state.DepthRange), state.Prop(state.DepthRangeNear)), near),
			NewPropertyChange(At(r.ContextID, state.Prop(state.TransformationState), state.Prop(state.DepthRange), state.Prop(state.DepthRangeFar)), far),
		}
	},

	glproto.GLLineWidth: func(r *glproto.Record, a *args) []Transform {
		return one(At(r.ContextID, state.Prop(state.RasterizationState), state.Prop(state.LineWidth)), a.float(0))
	},
	glproto.GLCullFace: func(r *glproto.Record, a *args) []Transform {
		return one(At(r.ContextID, state.Prop(state.RasterizationState), state.Prop(state.CullFaceMode)), a.enum(0))
	},
	glproto.GLFrontFace: func(r *glproto.Record, a *args) []Transform {
		return one(At(r.ContextID, state.Prop(state.RasterizationState), state.Prop(state.FrontFace)), a.enum(0))
	},
	glproto.GLPolygonOffset: func(r *glproto.Record, a *args) []Transform {
		factor, units := a.float(0), a.float(1)
		return []Transform{
			NewPropertyChange(At(r.ContextID, state.Prop(state.RasterizationState), state.Prop(state.PolygonOffsetFactor)), factor),
			NewPropertyChange(At(r.ContextID, state.Prop(state.RasterizationState), state.Prop(state.PolygonOffsetUnits)), units),
		}
	},

	glproto.GLScissor: buildRect(state.PixelOperations, state.ScissorBox,
		state.ScissorBoxX, state.ScissorBoxY, state.ScissorBoxWidth, state.ScissorBoxHeight),
	glproto.GLStencilFunc: func(r *glproto.Record, a *args) []Transform {
		return buildStencilFunc(r.ContextID, glproto.GL_FRONT_AND_BACK, a.enum(0), a.int(1), a.int(2))
	},
	glproto.GLStencilFuncSeparate: func(r *glproto.Record, a *args) []Transform {
		return buildStencilFunc(r.ContextID, a.enum(0), a.enum(1), a.int(2), a.int(3))
	},
	glproto.GLStencilOp: func(r *glproto.Record, a *args) []Transform {
		return buildStencilOp(r.ContextID, glproto.GL_FRONT_AND_BACK, a.enum(0), a.enum(1), a.enum(2))
	},
	glproto.GLStencilOpSeparate: func(r *glproto.Record, a *args) []Transform {
		return buildStencilOp(r.ContextID, a.enum(0), a.enum(1), a.enum(2), a.enum(3))
	},
	glproto.GLDepthFunc: func(r *glproto.Record, a *args) []Transform {
		return one(At(r.ContextID, state.Prop(state.PixelOperations), state.Prop(state.DepthFunc)), a.enum(0))
	},
	glproto.GLBlendEquation: func(r *glproto.Record, a *args) []Transform {
		mode := a.enum(0)
		return buildBlend(r.ContextID, state.BlendEquationRGB, mode, state.BlendEquationAlpha, mode)
	},
	glproto.GLBlendEquationSeparate: func(r *glproto.Record, a *args) []Transform {
		return buildBlend(r.ContextID, state.BlendEquationRGB, a.enum(0), state.BlendEquationAlpha, a.enum(1))
	},
	glproto.GLBlendFunc: func(r *glproto.Record, a *args) []Transform {
		src, dst := a.enum(0), a.enum(1)
		return append(
			buildBlend(r.ContextID, state.BlendSrcRGB, src, state.BlendSrcAlpha, src),
			buildBlend(r.ContextID, state.BlendDstRGB, dst, state.BlendDstAlpha, dst)...)
	},
	glproto.GLBlendFuncSeparate: func(r *glproto.Record, a *args) []Transform {
		srcRGB, dstRGB, srcAlpha, dstAlpha := a.enum(0), a.enum(1), a.enum(2), a.enum(3)
		return append(
			buildBlend(r.ContextID, state.BlendSrcRGB, srcRGB, state.BlendSrcAlpha, srcAlpha),
			buildBlend(r.ContextID, state.BlendDstRGB, dstRGB, state.BlendDstAlpha, dstAlpha)...)
	},
	glproto.GLEnable:  buildCapability(true),
	glproto.GLDisable: buildCapability(false),

	glproto.GLPixelStorei: func(r *glproto.Record, a *args) []Transform {
		pname, param := a.enum(0), a.int(1)
		prop := state.UnpackAlignment
		if pname == glproto.GL_PACK_ALIGNMENT {
			prop = state.PackAlignment
		}
		return one(At(r.ContextID, state.Prop(state.PixelPacking), state.Prop(prop)), param)
	},

	glproto.GLGenTextures:    buildGenObjects(state.Prop(state.TextureState), state.Prop(state.Textures)),
	glproto.GLDeleteTextures: buildDeleteTextures,
	glproto.GLActiveTexture:  buildActiveTexture,
	glproto.GLBindTexture: func(r *glproto.Record, a *args) []Transform {
		target, texture := a.enum(0), a.int(1)
		return []Transform{NewPropertyChange(TextureUnitAccessor{Context: r.ContextID, Binding: unitBinding(target)}, texture)}
	},
	glproto.GLTexImage2D:    buildTexImage,
	glproto.GLTexSubImage2D: buildTexSubImage,
	glproto.GLTexParameteri: buildTexParameter,

	glproto.GLCreateProgram: func(r *glproto.Record, a *args) []Transform {
		program := a.ret()
		return []Transform{NewElementAdd(At(r.ContextID, state.Prop(state.ProgramState), state.Prop(state.Programs)), program)}
	},
	glproto.GLUseProgram: func(r *glproto.Record, a *args) []Transform {
		return one(At(r.ContextID, state.Prop(state.ProgramState), state.Prop(state.CurrentProgram)), a.int(0))
	},
	glproto.GLAttachShader: func(r *glproto.Record, a *args) []Transform {
		program, shader := a.int(0), a.int(1)
		return []Transform{NewElementAdd(programAt(r.ContextID, program, state.Prop(state.AttachedShaders)), shader)}
	},
	glproto.GLDetachShader: func(r *glproto.Record, a *args) []Transform {
		program, shader := a.int(0), a.int(1)
		return []Transform{NewElementRemove(programAt(r.ContextID, program, state.Prop(state.AttachedShaders)), shader)}
	},
	glproto.GLGetActiveAttrib:  buildActiveInput(state.ActiveAttributes, state.AttributeName, state.AttributeType, state.AttributeSize),
	glproto.GLGetActiveUniform: buildActiveInput(state.ActiveUniforms, state.UniformName, state.UniformType, state.UniformSize),

	glproto.GLUniform1f:        buildUniform(false),
	glproto.GLUniform2f:        buildUniform(false),
	glproto.GLUniform3f:        buildUniform(false),
	glproto.GLUniform4f:        buildUniform(false),
	glproto.GLUniform1i:        buildUniform(true),
	glproto.GLUniform2i:        buildUniform(true),
	glproto.GLUniform3i:        buildUniform(true),
	glproto.GLUniform4i:        buildUniform(true),
	glproto.GLUniform1fv:       buildUniformv(2, false),
	glproto.GLUniform2fv:       buildUniformv(2, false),
	glproto.GLUniform3fv:       buildUniformv(2, false),
	glproto.GLUniform4fv:       buildUniformv(2, false),
	glproto.GLUniform1iv:       buildUniformv(2, true),
	glproto.GLUniform2iv:       buildUniformv(2, true),
	glproto.GLUniform3iv:       buildUniformv(2, true),
	glproto.GLUniform4iv:       buildUniformv(2, true),
	glproto.GLUniformMatrix2fv: buildUniformv(3, false),
	glproto.GLUniformMatrix3fv: buildUniformv(3, false),
	glproto.GLUniformMatrix4fv: buildUniformv(3, false),

	glproto.GLCreateShader: func(r *glproto.Record, a *args) []Transform {
		typ, shader := a.enum(0), a.ret()
		return []Transform{
			NewElementAdd(At(r.ContextID, state.Prop(state.Shaders)), shader),
			NewPropertyChange(At(r.ContextID, state.Prop(state.Shaders), state.Key(shader), state.Prop(state.ShaderType)), typ),
		}
	},
	glproto.GLDeleteShader: func(r *glproto.Record, a *args) []Transform {
		return []Transform{NewElementRemove(At(r.ContextID, state.Prop(state.Shaders)), a.int(0))}
	},
	glproto.GLShaderSource: func(r *glproto.Record, a *args) []Transform {
		shader, src := a.int(0), a.str(2)
		return one(At(r.ContextID, state.Prop(state.Shaders), state.Key(shader), state.Prop(state.ShaderSource)), src)
	},
}

// For returns the transforms for r in application order. Calls that do not
// affect the modeled state yield no transforms. An error means the record's
// arguments do not have the layout the function requires.
func For(r *glproto.Record) ([]Transform, error) {
	build, ok := builders[r.Function]
	if !ok {
		return nil, nil
	}
	a := &args{r: r}
	ts := build(r, a)
	if a.err != nil {
		return nil, a.err
	}
	return ts, nil
}

// Tracked reports whether calls to f produce transforms.
func Tracked(f glproto.Function) bool {
	_, ok := builders[f]
	return ok
}

func errMissingReturn(f glproto.Function) error {
	return fmt.Errorf("%s: return value: %w", f, glproto.ErrMissingArg)
}

func one(target Accessor, v any) []Transform {
	return []Transform{NewPropertyChange(target, v)}
}

func programAt(ctx, program int32, elems ...state.PathElem) PathAccessor {
	return At(ctx, append([]state.PathElem{state.Prop(state.ProgramState), state.Prop(state.Programs), state.Key(program)}, elems...)...)
}

func buildCreateContext(r *glproto.Record, a *args) []Transform {
	// eglCreateContext(version, context)
	ctx := a.int(1)
	return []Transform{NewElementAdd(PathAccessor{}, ctx)}
}

func vertexAttrib(ctx, index int32, prop string) PathAccessor {
	return At(ctx, state.Prop(state.VertexArrayData), state.Prop(state.VertexAttribArray), state.Key(index), state.Prop(prop))
}

func buildVertexAttribPointer(r *glproto.Record, a *args) []Transform {
	// glVertexAttribPointer(index, size, type, normalized, stride, pointer)
	index, size, typ, normalized, stride, ptr := a.int(0), a.int(1), a.enum(2), a.bool(3), a.int(4), a.int(5)
	return []Transform{
		NewPropertyChange(vertexAttrib(r.ContextID, index, state.VertexAttribSize), size),
		NewPropertyChange(vertexAttrib(r.ContextID, index, state.VertexAttribType), typ),
		NewPropertyChange(vertexAttrib(r.ContextID, index, state.VertexAttribNormalized), normalized),
		NewPropertyChange(vertexAttrib(r.ContextID, index, state.VertexAttribStride), stride),
		NewPropertyChange(vertexAttrib(r.ContextID, index, state.VertexAttribPointer), ptr),
	}
}

func buildVertexAttrib(n int, vector bool) builder {
	return func(r *glproto.Record, a *args) []Transform {
		index := a.int(0)
		v := []float32{0, 0, 0, 1}
		if vector {
			src := a.floats(1)
			if len(src) < n && a.err == nil {
				a.err = fmt.Errorf("%s: %d components, want %d: %w", r.Function, len(src), n, glproto.ErrMissingArg)
			}
			copy(v, src[:min(n, len(src))])
		} else {
			for i := 0; i < n; i++ {
				v[i] = a.float(1 + i)
			}
		}
		return one(At(r.ContextID, state.Prop(state.VertexArrayData), state.Prop(state.GenericVertexAttributes), state.Key(index)), v)
	}
}

func buildVertexAttribArrayEnable(enabled bool) builder {
	return func(r *glproto.Record, a *args) []Transform {
		return one(vertexAttrib(r.ContextID, a.int(0), state.VertexAttribEnabled), enabled)
	}
}

func buildBindBuffer(r *glproto.Record, a *args) []Transform {
	target, buffer := a.enum(0), a.int(1)
	binding := state.ArrayBufferBinding
	if target == glproto.GL_ELEMENT_ARRAY_BUFFER {
		binding = state.ElementArrayBufferBinding
	}
	return one(At(r.ContextID, state.Prop(state.VertexArrayData), state.Prop(binding)), buffer)
}

// buildGenObjects handles glGen*(n, names).
func buildGenObjects(array ...state.PathElem) builder {
	return func(r *glproto.Record, a *args) []Transform {
		var ts []Transform
		for _, name := range a.names(0, 1) {
			ts = append(ts, NewElementAdd(At(r.ContextID, array...), name))
		}
		return ts
	}
}

// buildDeleteObjects handles glDelete*(n, names).
func buildDeleteObjects(array ...state.PathElem) builder {
	return func(r *glproto.Record, a *args) []Transform {
		var ts []Transform
		for _, name := range a.names(0, 1) {
			ts = append(ts, NewElementRemove(At(r.ContextID, array...), name))
		}
		return ts
	}
}

func buildBufferData(r *glproto.Record, a *args) []Transform {
	// glBufferData(target, size, data, usage)
	// Without a captured payload only the size is known; the contents stay nil.
	target, size, data, usage := a.enum(0), a.int(1), a.data(2), a.enum(3)
	vbo := func(prop string) Accessor {
		return CurrentVBOAccessor{Context: r.ContextID, Target: target, Property: prop}
	}
	return []Transform{
		NewPropertyChange(vbo(state.BufferSize), size),
		NewPropertyChange(vbo(state.BufferData), data),
		NewPropertyChange(vbo(state.BufferUsage), usage),
		NewPropertyChange(vbo(state.BufferType), target),
	}
}

func buildBufferSubData(r *glproto.Record, a *args) []Transform {
	// glBufferSubData(target, offset, size, data)
	target, offset, data := a.enum(0), a.int(1), a.data(3)
	if data == nil {
		return nil
	}
	return []Transform{&BufferSubData{
		Target: CurrentVBOAccessor{Context: r.ContextID, Target: target, Property: state.BufferData},
		Offset: int(offset),
		Data:   data,
	}}
}

// buildRect handles (x, y, width, height) setters.
func buildRect(group, rect, x, y, w, h string) builder {
	return func(r *glproto.Record, a *args) []Transform {
		vals := []int32{a.int(0), a.int(1), a.int(2), a.int(3)}
		ts := make([]Transform, 4)
		for i, prop := range []string{x, y, w, h} {
			ts[i] = NewPropertyChange(At(r.ContextID, state.Prop(group), state.Prop(rect), state.Prop(prop)), vals[i])
		}
		return ts
	}
}

func stencilFaces(face glproto.Enum) []string {
	switch face {
	case glproto.GL_FRONT:
		return []string{state.StencilFront}
	case glproto.GL_BACK:
		return []string{state.StencilBack}
	default:
		return []string{state.StencilFront, state.StencilBack}
	}
}

func buildStencilFunc(ctx int32, face, fn glproto.Enum, ref, mask int32) []Transform {
	var ts []Transform
	for _, side := range stencilFaces(face) {
		at := func(prop string) Accessor {
			return At(ctx, state.Prop(state.PixelOperations), state.Prop(side), state.Prop(prop))
		}
		ts = append(ts,
			NewPropertyChange(at(state.StencilFunc), fn),
			NewPropertyChange(at(state.StencilRef), ref),
			NewPropertyChange(at(state.StencilValueMask), mask),
		)
	}
	return ts
}

func buildStencilOp(ctx int32, face, sfail, dpfail, dppass glproto.Enum) []Transform {
	var ts []Transform
	for _, side := range stencilFaces(face) {
		at := func(prop string) Accessor {
			return At(ctx, state.Prop(state.PixelOperations), state.Prop(side), state.Prop(prop))
		}
		ts = append(ts,
			NewPropertyChange(at(state.StencilFail), sfail),
			NewPropertyChange(at(state.StencilPassDepthFail), dpfail),
			NewPropertyChange(at(state.StencilPassDepthPass), dppass),
		)
	}
	return ts
}

func buildBlend(ctx int32, rgbProp string, rgb glproto.Enum, alphaProp string, alpha glproto.Enum) []Transform {
	return []Transform{
		NewPropertyChange(At(ctx, state.Prop(state.PixelOperations), state.Prop(state.Blend), state.Prop(rgbProp)), rgb),
		NewPropertyChange(At(ctx, state.Prop(state.PixelOperations), state.Prop(state.Blend), state.Prop(alphaProp)), alpha),
	}
}

var trackedCaps = func() map[glproto.Enum]bool {
	m := make(map[glproto.Enum]bool, len(state.Capabilities))
	for _, c := range state.Capabilities {
		m[c] = true
	}
	return m
}()

func buildCapability(enabled bool) builder {
	return func(r *glproto.Record, a *args) []Transform {
		c := a.enum(0)
		if !trackedCaps[c] {
			return nil
		}
		return one(At(r.ContextID, state.Prop(state.EnabledCaps), state.Prop(c.String())), enabled)
	}
}

func buildDeleteTextures(r *glproto.Record, a *args) []Transform {
	// glDeleteTextures(n, textures)
	var ts []Transform
	for _, texture := range a.names(0, 1) {
		ts = append(ts, NewElementRemove(At(r.ContextID, state.Prop(state.TextureState), state.Prop(state.Textures)), texture))
		// Deleting a bound texture reverts the binding to texture 0.
		for unit := int32(0); unit < state.TextureUnitCount; unit++ {
			for _, binding := range []string{state.TextureBinding2D, state.TextureBindingCubeMap, state.TextureBindingExt} {
				ts = append(ts, &ConditionalPropertyChange{
					Target: At(r.ContextID, state.Prop(state.TextureState), state.Prop(state.TextureUnits), state.Key(unit), state.Prop(binding)),
					Value:  int32(0),
					Match:  texture,
				})
			}
		}
	}
	return ts
}

func buildActiveTexture(r *glproto.Record, a *args) []Transform {
	unit := int32(a.enum(0) - glproto.GL_TEXTURE0)
	if a.err == nil && (unit < 0 || unit >= state.TextureUnitCount) {
		a.err = fmt.Errorf("%s: texture unit %d out of range", r.Function, unit)
	}
	return one(At(r.ContextID, state.Prop(state.TextureState), state.Prop(state.ActiveTextureUnit)), unit)
}

func unitBinding(target glproto.Enum) string {
	switch target {
	case glproto.GL_TEXTURE_CUBE_MAP:
		return state.TextureBindingCubeMap
	case glproto.GL_TEXTURE_EXTERNAL_OES:
		return state.TextureBindingExt
	default:
		return state.TextureBinding2D
	}
}

func boundTexture(ctx int32, target glproto.Enum, elems ...state.PathElem) BoundTextureAccessor {
	return BoundTextureAccessor{Context: ctx, Binding: unitBinding(target), Path: elems}
}

func buildTexImage(r *glproto.Record, a *args) []Transform {
	// glTexImage2D(target, level, internalformat, width, height, border, format, type, data)
	target, level := a.enum(0), a.int(1)
	width, height := a.int(3), a.int(4)
	format, typ := a.enum(6), a.enum(7)
	pixels := a.data(8)

	lvl := func(prop string) Accessor {
		return boundTexture(r.ContextID, target, state.Prop(state.TextureMipmapLevels), state.Key(level), state.Prop(prop))
	}
	return []Transform{
		NewElementAdd(boundTexture(r.ContextID, target, state.Prop(state.TextureMipmapLevels)), level),
		NewPropertyChange(lvl(state.TextureWidth), width),
		NewPropertyChange(lvl(state.TextureHeight), height),
		NewPropertyChange(lvl(state.TextureFormat), format),
		NewPropertyChange(lvl(state.TextureImageType), typ),
		&TexImage{
			Target: lvl(state.TextureImage),
			Image:  TextureImage{Width: width, Height: height, Format: format, Type: typ, Pixels: pixels},
		},
	}
}

func buildTexSubImage(r *glproto.Record, a *args) []Transform {
	// glTexSubImage2D(target, level, xoffset, yoffset, width, height, format, type, data)
	target, level := a.enum(0), a.int(1)
	x, y := a.int(2), a.int(3)
	width, height := a.int(4), a.int(5)
	format, typ := a.enum(6), a.enum(7)
	pixels := a.data(8)

	return []Transform{&TexImage{
		Target: boundTexture(r.ContextID, target, state.Prop(state.TextureMipmapLevels), state.Key(level), state.Prop(state.TextureImage)),
		Image:  TextureImage{Width: width, Height: height, Format: format, Type: typ, Pixels: pixels},
		Sub:    true,
		X:      x,
		Y:      y,
	}}
}

var texParameters = map[glproto.Enum]string{
	glproto.GL_TEXTURE_MIN_FILTER: state.TextureMinFilter,
	glproto.GL_TEXTURE_MAG_FILTER: state.TextureMagFilter,
	glproto.GL_TEXTURE_WRAP_S:     state.TextureWrapS,
	glproto.GL_TEXTURE_WRAP_T:     state.TextureWrapT,
}

func buildTexParameter(r *glproto.Record, a *args) []Transform {
	// glTexParameteri(target, pname, param)
	target, pname, param := a.enum(0), a.enum(1), a.enum(2)
	prop, ok := texParameters[pname]
	if !ok {
		return nil
	}
	return []Transform{NewPropertyChange(boundTexture(r.ContextID, target, state.Prop(prop)), param)}
}

// buildActiveInput handles glGetActiveAttrib and glGetActiveUniform:
// (program, index, bufsize, length, size, type, name, location). The tracer
// appends the queried location, which is used as the key since index is not
// the location on the device.
func buildActiveInput(array, nameProp, typeProp, sizeProp string) builder {
	return func(r *glproto.Record, a *args) []Transform {
		program, size, typ, name, location := a.int(0), a.int(4), a.enum(5), a.str(6), a.int(7)
		at := func(prop string) Accessor {
			return programAt(r.ContextID, program, state.Prop(array), state.Key(location), state.Prop(prop))
		}
		return []Transform{
			NewElementAdd(programAt(r.ContextID, program, state.Prop(array)), location),
			NewPropertyChange(at(nameProp), name),
			NewPropertyChange(at(typeProp), typ),
			NewPropertyChange(at(sizeProp), size),
		}
	}
}

func uniformAt(ctx, location int32) CurrentProgramAccessor {
	return CurrentProgramAccessor{Context: ctx, Path: state.Path{
		state.Prop(state.ActiveUniforms), state.Key(location), state.Prop(state.UniformValue),
	}}
}

// buildUniform handles glUniform{1,2,3,4}{i,f}(location, v0, ...).
func buildUniform(ints bool) builder {
	return func(r *glproto.Record, a *args) []Transform {
		location := a.int(0)
		if a.err == nil && location < 0 {
			a.err = fmt.Errorf("%s: negative location %d", r.Function, location)
		}
		n := max(len(r.Args)-1, 0)
		if ints {
			v := make([]int32, n)
			for i := range v {
				v[i] = a.int(1 + i)
			}
			return []Transform{NewPropertyChange(uniformAt(r.ContextID, location), v)}
		}
		v := make([]float32, n)
		for i := range v {
			v[i] = a.float(1 + i)
		}
		return []Transform{NewPropertyChange(uniformAt(r.ContextID, location), v)}
	}
}

// buildUniformv handles the vector and matrix forms whose values are in
// argument valueArg.
func buildUniformv(valueArg int, ints bool) builder {
	return func(r *glproto.Record, a *args) []Transform {
		location := a.int(0)
		var v any
		if ints {
			v = a.ints(valueArg)
		} else {
			v = a.floats(valueArg)
		}
		return []Transform{NewPropertyChange(uniformAt(r.ContextID, location), v)}
	}
}
