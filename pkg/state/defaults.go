package state

import (
	"github.com/willibrandon/ChronoGL/pkg/glproto"
)

// Limits of the modeled GL implementation.
const (
	VertexAttribCount = 16
	TextureUnitCount  = 32
)

// Property names. Leaf values are int32, float32, bool, string, glproto.Enum,
// []float32, []int32 or []byte unless noted.
const (
	Contexts = "CONTEXTS"
	Context  = "CONTEXT"

	VertexArrayData           = "VERTEX_ARRAY_DATA"
	VertexAttribArray         = "VERTEX_ATTRIB_ARRAY"
	VertexAttribArrayElement  = "VERTEX_ATTRIB_ARRAY_ELEMENT"
	VertexAttribEnabled       = "VERTEX_ATTRIB_ARRAY_ENABLED"
	VertexAttribSize          = "VERTEX_ATTRIB_ARRAY_SIZE"
	VertexAttribType          = "VERTEX_ATTRIB_ARRAY_TYPE"
	VertexAttribNormalized    = "VERTEX_ATTRIB_ARRAY_NORMALIZED"
	VertexAttribStride        = "VERTEX_ATTRIB_ARRAY_STRIDE"
	VertexAttribPointer       = "VERTEX_ATTRIB_ARRAY_POINTER"
	GenericVertexAttributes   = "GENERIC_VERTEX_ATTRIBUTES"
	GenericVertexAttribValue  = "GENERIC_VERTEX_ATTRIB_VALUE"
	ArrayBufferBinding        = "ARRAY_BUFFER_BINDING"
	ElementArrayBufferBinding = "ELEMENT_ARRAY_BUFFER_BINDING"
	VBOs                      = "VBO"
	VBOElement                = "VBO_ELEMENT"
	BufferSize                = "BUFFER_SIZE"
	BufferUsage               = "BUFFER_USAGE"
	BufferData                = "BUFFER_DATA"
	BufferType                = "BUFFER_TYPE"

	FramebufferState   = "FRAMEBUFFER_STATE"
	FramebufferBinding = "FRAMEBUFFER_BINDING"

	TransformationState = "TRANSFORMATION_STATE"
	Viewport            = "VIEWPORT"
	ViewportX           = "VIEWPORT_X"
	ViewportY           = "VIEWPORT_Y"
	ViewportWidth       = "VIEWPORT_WIDTH"
	ViewportHeight      = "VIEWPORT_HEIGHT"
	DepthRange          = "DEPTH_RANGE"
	DepthRangeNear      = "DEPTH_RANGE_NEAR"
	DepthRangeFar       = "DEPTH_RANGE_FAR"

	RasterizationState  = "RASTERIZATION_STATE"
	LineWidth           = "LINE_WIDTH"
	CullFaceMode        = "CULL_FACE_MODE"
	FrontFace           = "FRONT_FACE"
	PolygonOffsetFactor = "POLYGON_OFFSET_FACTOR"
	PolygonOffsetUnits  = "POLYGON_OFFSET_UNITS"

	PixelOperations      = "PIXEL_OPERATIONS"
	ScissorBox           = "SCISSOR_BOX"
	ScissorBoxX          = "SCISSOR_BOX_X"
	ScissorBoxY          = "SCISSOR_BOX_Y"
	ScissorBoxWidth      = "SCISSOR_BOX_WIDTH"
	ScissorBoxHeight     = "SCISSOR_BOX_HEIGHT"
	StencilFront         = "STENCIL_FRONT"
	StencilBack          = "STENCIL_BACK"
	StencilFunc          = "STENCIL_FUNC"
	StencilRef           = "STENCIL_REF"
	StencilValueMask     = "STENCIL_VALUE_MASK"
	StencilFail          = "STENCIL_FAIL"
	StencilPassDepthFail = "STENCIL_PASS_DEPTH_FAIL"
	StencilPassDepthPass = "STENCIL_PASS_DEPTH_PASS"
	DepthFunc            = "DEPTH_FUNC"
	Blend                = "BLEND"
	BlendSrcRGB          = "BLEND_SRC_RGB"
	BlendSrcAlpha        = "BLEND_SRC_ALPHA"
	BlendDstRGB          = "BLEND_DST_RGB"
	BlendDstAlpha        = "BLEND_DST_ALPHA"
	BlendEquationRGB     = "BLEND_EQUATION_RGB"
	BlendEquationAlpha   = "BLEND_EQUATION_ALPHA"

	PixelPacking    = "PIXEL_PACKING"
	PackAlignment   = "PACK_ALIGNMENT"
	UnpackAlignment = "UNPACK_ALIGNMENT"

	TextureState          = "TEXTURE_STATE"
	ActiveTextureUnit     = "ACTIVE_TEXTURE_UNIT"
	TextureUnits          = "TEXTURE_UNITS"
	TextureUnit           = "TEXTURE_UNIT"
	TextureBinding2D      = "TEXTURE_BINDING_2D"
	TextureBindingCubeMap = "TEXTURE_BINDING_CUBE_MAP"
	TextureBindingExt     = "TEXTURE_BINDING_EXTERNAL"
	Textures              = "TEXTURES"
	TextureElement        = "TEXTURE"
	TextureMinFilter      = "TEXTURE_MIN_FILTER"
	TextureMagFilter      = "TEXTURE_MAG_FILTER"
	TextureWrapS          = "TEXTURE_WRAP_S"
	TextureWrapT          = "TEXTURE_WRAP_T"
	TextureMipmapLevels   = "TEXTURE_MIPMAP_LEVELS"
	TextureLevel          = "TEXTURE_LEVEL"
	TextureWidth          = "TEXTURE_WIDTH"
	TextureHeight         = "TEXTURE_HEIGHT"
	TextureFormat         = "TEXTURE_FORMAT"
	TextureImageType      = "TEXTURE_IMAGE_TYPE"
	TextureImage          = "TEXTURE_IMAGE" // value is a *transform.TextureImage or nil

	ProgramState      = "PROGRAM_STATE"
	CurrentProgram    = "CURRENT_PROGRAM"
	Programs          = "PROGRAMS"
	ProgramElement    = "PROGRAM"
	AttachedShaders   = "ATTACHED_SHADERS"
	AttachedShader    = "ATTACHED_SHADER"
	ActiveAttributes  = "ACTIVE_ATTRIBUTES"
	ActiveAttribute   = "ACTIVE_ATTRIBUTE"
	AttributeName     = "ATTRIBUTE_NAME"
	AttributeType     = "ATTRIBUTE_TYPE"
	AttributeSize     = "ATTRIBUTE_SIZE"
	ActiveUniforms    = "ACTIVE_UNIFORMS"
	ActiveUniform     = "ACTIVE_UNIFORM"
	UniformName       = "UNIFORM_NAME"
	UniformType       = "UNIFORM_TYPE"
	UniformSize       = "UNIFORM_SIZE"
	UniformValue      = "UNIFORM_VALUE"
	Shaders           = "SHADERS"
	ShaderElement     = "SHADER"
	ShaderType        = "SHADER_TYPE"
	ShaderSource      = "SHADER_SOURCE"
	EnabledCaps       = "ENABLE"
)

// Capabilities tracked under EnabledCaps, keyed by their enum name.
var Capabilities = []glproto.Enum{
	glproto.GL_BLEND,
	glproto.GL_CULL_FACE,
	glproto.GL_DEPTH_TEST,
	glproto.GL_DITHER,
	glproto.GL_POLYGON_OFFSET_FILL,
	glproto.GL_SCISSOR_TEST,
	glproto.GL_STENCIL_TEST,
}

// NewDefault builds the initial state: a sparse array of contexts, with one
// default context per id in contexts. Further contexts are added by replaying
// eglCreateContext.
func NewDefault(contexts ...int32) *Tree {
	t := NewTree()
	root := t.NewSparseArray(Contexts, t.newContext())
	t.SetRoot(root)
	for _, ctx := range contexts {
		if !t.HasElement(root, ctx) {
			// Cannot fail: root is a sparse array with a template.
			_, _ = t.AddElement(root, ctx)
		}
	}
	return t
}

func (t *Tree) newContext() NodeID {
	return t.NewComposite(Context,
		t.newVertexArrayData(),
		t.NewComposite(FramebufferState,
			t.NewLeaf(FramebufferBinding, int32(0)),
		),
		t.NewComposite(TransformationState,
			t.NewComposite(Viewport,
				t.NewLeaf(ViewportX, int32(0)),
				t.NewLeaf(ViewportY, int32(0)),
				t.NewLeaf(ViewportWidth, int32(0)),
				t.NewLeaf(ViewportHeight, int32(0)),
			),
			t.NewComposite(DepthRange,
				t.NewLeaf(DepthRangeNear, float32(0)),
				t.NewLeaf(DepthRangeFar, float32(1)),
			),
		),
		t.NewComposite(RasterizationState,
			t.NewLeaf(LineWidth, float32(1)),
			t.NewLeaf(CullFaceMode, glproto.GL_BACK),
			t.NewLeaf(FrontFace, glproto.GL_CCW),
			t.NewLeaf(PolygonOffsetFactor, float32(0)),
			t.NewLeaf(PolygonOffsetUnits, float32(0)),
		),
		t.newPixelOperations(),
		t.NewComposite(PixelPacking,
			t.NewLeaf(PackAlignment, int32(4)),
			t.NewLeaf(UnpackAlignment, int32(4)),
		),
		t.newTextureState(),
		t.newProgramState(),
		t.NewSparseArray(Shaders, t.NewComposite(ShaderElement,
			t.NewLeaf(ShaderType, glproto.GL_NONE),
			t.NewLeaf(ShaderSource, ""),
		)),
		t.newEnabledCaps(),
	)
}

func (t *Tree) newVertexArrayData() NodeID {
	attribs := make([]NodeID, VertexAttribCount)
	generics := make([]NodeID, VertexAttribCount)
	for i := range attribs {
		attribs[i] = t.NewComposite(VertexAttribArrayElement,
			t.NewLeaf(VertexAttribEnabled, false),
			t.NewLeaf(VertexAttribSize, int32(4)),
			t.NewLeaf(VertexAttribType, glproto.GL_FLOAT),
			t.NewLeaf(VertexAttribNormalized, false),
			t.NewLeaf(VertexAttribStride, int32(0)),
			t.NewLeaf(VertexAttribPointer, int32(0)),
		)
		generics[i] = t.NewLeaf(GenericVertexAttribValue, []float32{0, 0, 0, 1})
	}

	return t.NewComposite(VertexArrayData,
		t.NewList(VertexAttribArray, attribs...),
		t.NewList(GenericVertexAttributes, generics...),
		t.NewLeaf(ArrayBufferBinding, int32(0)),
		t.NewLeaf(ElementArrayBufferBinding, int32(0)),
		t.NewSparseArray(VBOs, t.NewComposite(VBOElement,
			t.NewLeaf(BufferSize, int32(0)),
			t.NewLeaf(BufferUsage, glproto.GL_STATIC_DRAW),
			t.NewLeaf(BufferData, []byte(nil)),
			t.NewLeaf(BufferType, glproto.GL_ARRAY_BUFFER),
		)),
	)
}

func (t *Tree) newStencil(name string) NodeID {
	return t.NewComposite(name,
		t.NewLeaf(StencilFunc, glproto.GL_ALWAYS),
		t.NewLeaf(StencilRef, int32(0)),
		t.NewLeaf(StencilValueMask, int32(-1)),
		t.NewLeaf(StencilFail, glproto.GL_KEEP),
		t.NewLeaf(StencilPassDepthFail, glproto.GL_KEEP),
		t.NewLeaf(StencilPassDepthPass, glproto.GL_KEEP),
	)
}

func (t *Tree) newPixelOperations() NodeID {
	return t.NewComposite(PixelOperations,
		t.NewComposite(ScissorBox,
			t.NewLeaf(ScissorBoxX, int32(0)),
			t.NewLeaf(ScissorBoxY, int32(0)),
			t.NewLeaf(ScissorBoxWidth, int32(0)),
			t.NewLeaf(ScissorBoxHeight, int32(0)),
		),
		t.newStencil(StencilFront),
		t.newStencil(StencilBack),
		t.NewLeaf(DepthFunc, glproto.GL_LESS),
		t.NewComposite(Blend,
			t.NewLeaf(BlendSrcRGB, glproto.GL_ONE),
			t.NewLeaf(BlendSrcAlpha, glproto.GL_ONE),
			t.NewLeaf(BlendDstRGB, glproto.GL_NONE),
			t.NewLeaf(BlendDstAlpha, glproto.GL_NONE),
			t.NewLeaf(BlendEquationRGB, glproto.GL_FUNC_ADD),
			t.NewLeaf(BlendEquationAlpha, glproto.GL_FUNC_ADD),
		),
	)
}

func (t *Tree) newTextureState() NodeID {
	units := make([]NodeID, TextureUnitCount)
	for i := range units {
		units[i] = t.NewComposite(TextureUnit,
			t.NewLeaf(TextureBinding2D, int32(0)),
			t.NewLeaf(TextureBindingCubeMap, int32(0)),
			t.NewLeaf(TextureBindingExt, int32(0)),
		)
	}

	level := t.NewComposite(TextureLevel,
		t.NewLeaf(TextureWidth, int32(-1)),
		t.NewLeaf(TextureHeight, int32(-1)),
		t.NewLeaf(TextureFormat, glproto.GL_NONE),
		t.NewLeaf(TextureImageType, glproto.GL_NONE),
		t.NewLeaf(TextureImage, nil),
	)
	texture := t.NewComposite(TextureElement,
		t.NewLeaf(TextureMinFilter, glproto.GL_NEAREST_MIPMAP_LINEAR),
		t.NewLeaf(TextureMagFilter, glproto.GL_LINEAR),
		t.NewLeaf(TextureWrapS, glproto.GL_REPEAT),
		t.NewLeaf(TextureWrapT, glproto.GL_REPEAT),
		t.NewSparseArray(TextureMipmapLevels, level),
	)

	// Texture 0 is the default texture object and always exists.
	textures := t.NewSparseArray(Textures, texture)
	_, _ = t.AddElement(textures, 0)

	return t.NewComposite(TextureState,
		t.NewLeaf(ActiveTextureUnit, int32(0)),
		t.NewList(TextureUnits, units...),
		textures,
	)
}

func (t *Tree) newProgramState() NodeID {
	program := t.NewComposite(ProgramElement,
		t.NewSparseArray(AttachedShaders, t.NewLeaf(AttachedShader, nil)),
		t.NewSparseArray(ActiveAttributes, t.NewComposite(ActiveAttribute,
			t.NewLeaf(AttributeName, ""),
			t.NewLeaf(AttributeType, glproto.GL_NONE),
			t.NewLeaf(AttributeSize, int32(0)),
		)),
		t.NewSparseArray(ActiveUniforms, t.NewComposite(ActiveUniform,
			t.NewLeaf(UniformName, ""),
			t.NewLeaf(UniformType, glproto.GL_NONE),
			t.NewLeaf(UniformSize, int32(0)),
			t.NewLeaf(UniformValue, nil),
		)),
	)

	return t.NewComposite(ProgramState,
		t.NewLeaf(CurrentProgram, int32(0)),
		t.NewSparseArray(Programs, program),
	)
}

func (t *Tree) newEnabledCaps() NodeID {
	caps := make([]NodeID, len(Capabilities))
	for i, c := range Capabilities {
		caps[i] = t.NewLeaf(c.String(), c == glproto.GL_DITHER)
	}
	return t.NewComposite(EnabledCaps, caps...)
}
