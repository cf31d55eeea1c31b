package glproto

import "fmt"

// Function identifies the GL or EGL entry point a Record was captured from.
// The numeric value is what travels on the wire.
type Function uint32

const (
	FunctionUnknown Function = iota

	// EGL
	EGLCreateContext
	EGLMakeCurrent
	EGLSwapBuffers

	// Vertex data and buffers
	GLBindBuffer
	GLBufferData
	GLBufferSubData
	GLDeleteBuffers
	GLDisableVertexAttribArray
	GLEnableVertexAttribArray
	GLGenBuffers
	GLVertexAttrib1f
	GLVertexAttrib2f
	GLVertexAttrib3f
	GLVertexAttrib4f
	GLVertexAttrib1fv
	GLVertexAttrib2fv
	GLVertexAttrib3fv
	GLVertexAttrib4fv
	GLVertexAttribPointer

	// Transformation and rasterization
	GLCullFace
	GLDepthRangef
	GLFrontFace
	GLLineWidth
	GLPolygonOffset
	GLViewport

	// Per-fragment operations
	GLBlendEquation
	GLBlendEquationSeparate
	GLBlendFunc
	GLBlendFuncSeparate
	GLDepthFunc
	GLDisable
	GLEnable
	GLScissor
	GLStencilFunc
	GLStencilFuncSeparate
	GLStencilOp
	GLStencilOpSeparate

	// Pixels, framebuffers and textures
	GLActiveTexture
	GLBindFramebuffer
	GLBindTexture
	GLDeleteTextures
	GLGenTextures
	GLPixelStorei
	GLTexImage2D
	GLTexParameteri
	GLTexSubImage2D

	// Programs and shaders
	GLAttachShader
	GLCreateProgram
	GLCreateShader
	GLDeleteShader
	GLDetachShader
	GLGetActiveAttrib
	GLGetActiveUniform
	GLShaderSource
	GLUseProgram
	GLUniform1f
	GLUniform2f
	GLUniform3f
	GLUniform4f
	GLUniform1fv
	GLUniform2fv
	GLUniform3fv
	GLUniform4fv
	GLUniform1i
	GLUniform2i
	GLUniform3i
	GLUniform4i
	GLUniform1iv
	GLUniform2iv
	GLUniform3iv
	GLUniform4iv
	GLUniformMatrix2fv
	GLUniformMatrix3fv
	GLUniformMatrix4fv

	// Drawing and synchronization
	GLClear
	GLClearColor
	GLDrawArrays
	GLDrawElements
	GLFinish
	GLFlush

	// Debug markers (EXT_debug_marker)
	GLInsertEventMarkerEXT
	GLPopGroupMarkerEXT
	GLPushGroupMarkerEXT

	functionCount
)

var functionNames = [...]string{
	FunctionUnknown:            "unknown",
	EGLCreateContext:           "eglCreateContext",
	EGLMakeCurrent:             "eglMakeCurrent",
	EGLSwapBuffers:             "eglSwapBuffers",
	GLBindBuffer:               "glBindBuffer",
	GLBufferData:               "glBufferData",
	GLBufferSubData:            "glBufferSubData",
	GLDeleteBuffers:            "glDeleteBuffers",
	GLDisableVertexAttribArray: "glDisableVertexAttribArray",
	GLEnableVertexAttribArray:  "glEnableVertexAttribArray",
	GLGenBuffers:               "glGenBuffers",
	GLVertexAttrib1f:           "glVertexAttrib1f",
	GLVertexAttrib2f:           "glVertexAttrib2f",
	GLVertexAttrib3f:           "glVertexAttrib3f",
	GLVertexAttrib4f:           "glVertexAttrib4f",
	GLVertexAttrib1fv:          "glVertexAttrib1fv",
	GLVertexAttrib2fv:          "glVertexAttrib2fv",
	GLVertexAttrib3fv:          "glVertexAttrib3fv",
	GLVertexAttrib4fv:          "glVertexAttrib4fv",
	GLVertexAttribPointer:      "glVertexAttribPointer",
	GLCullFace:                 "glCullFace",
	GLDepthRangef:              "glDepthRangef",
	GLFrontFace:                "glFrontFace",
	GLLineWidth:                "glLineWidth",
	GLPolygonOffset:            "glPolygonOffset",
	GLViewport:                 "glViewport",
	GLBlendEquation:            "glBlendEquation",
	GLBlendEquationSeparate:    "glBlendEquationSeparate",
	GLBlendFunc:                "glBlendFunc",
	GLBlendFuncSeparate:        "glBlendFuncSeparate",
	GLDepthFunc:                "glDepthFunc",
	GLDisable:                  "glDisable",
	GLEnable:                   "glEnable",
	GLScissor:                  "glScissor",
	GLStencilFunc:              "glStencilFunc",
	GLStencilFuncSeparate:      "glStencilFuncSeparate",
	GLStencilOp:                "glStencilOp",
	GLStencilOpSeparate:        "glStencilOpSeparate",
	GLActiveTexture:            "glActiveTexture",
	GLBindFramebuffer:          "glBindFramebuffer",
	GLBindTexture:              "glBindTexture",
	GLDeleteTextures:           "glDeleteTextures",
	GLGenTextures:              "glGenTextures",
	GLPixelStorei:              "glPixelStorei",
	GLTexImage2D:               "glTexImage2D",
	GLTexParameteri:            "glTexParameteri",
	GLTexSubImage2D:            "glTexSubImage2D",
	GLAttachShader:             "glAttachShader",
	GLCreateProgram:            "glCreateProgram",
	GLCreateShader:             "glCreateShader",
	GLDeleteShader:             "glDeleteShader",
	GLDetachShader:             "glDetachShader",
	GLGetActiveAttrib:          "glGetActiveAttrib",
	GLGetActiveUniform:         "glGetActiveUniform",
	GLShaderSource:             "glShaderSource",
	GLUseProgram:               "glUseProgram",
	GLUniform1f:                "glUniform1f",
	GLUniform2f:                "glUniform2f",
	GLUniform3f:                "glUniform3f",
	GLUniform4f:                "glUniform4f",
	GLUniform1fv:               "glUniform1fv",
	GLUniform2fv:               "glUniform2fv",
	GLUniform3fv:               "glUniform3fv",
	GLUniform4fv:               "glUniform4fv",
	GLUniform1i:                "glUniform1i",
	GLUniform2i:                "glUniform2i",
	GLUniform3i:                "glUniform3i",
	GLUniform4i:                "glUniform4i",
	GLUniform1iv:               "glUniform1iv",
	GLUniform2iv:               "glUniform2iv",
	GLUniform3iv:               "glUniform3iv",
	GLUniform4iv:               "glUniform4iv",
	GLUniformMatrix2fv:         "glUniformMatrix2fv",
	GLUniformMatrix3fv:         "glUniformMatrix3fv",
	GLUniformMatrix4fv:         "glUniformMatrix4fv",
	GLClear:                    "glClear",
	GLClearColor:               "glClearColor",
	GLDrawArrays:               "glDrawArrays",
	GLDrawElements:             "glDrawElements",
	GLFinish:                   "glFinish",
	GLFlush:                    "glFlush",
	GLInsertEventMarkerEXT:     "glInsertEventMarkerEXT",
	GLPopGroupMarkerEXT:        "glPopGroupMarkerEXT",
	GLPushGroupMarkerEXT:       "glPushGroupMarkerEXT",
}

var functionsByName = func() map[string]Function {
	m := make(map[string]Function, len(functionNames))
	for i, name := range functionNames {
		m[name] = Function(i)
	}
	return m
}()

// String returns the GL symbol name of the function.
func (f Function) String() string {
	if f < functionCount {
		return functionNames[f]
	}
	return fmt.Sprintf("function(%d)", uint32(f))
}

// Known reports whether f is one of the functions this package names.
func (f Function) Known() bool {
	return f > FunctionUnknown && f < functionCount
}

// FunctionByName looks up a function by its GL symbol name, e.g. "glDrawArrays".
func FunctionByName(name string) (Function, bool) {
	f, ok := functionsByName[name]
	if !ok || f == FunctionUnknown {
		return FunctionUnknown, false
	}
	return f, true
}

// IsDraw reports whether f submits geometry.
func (f Function) IsDraw() bool {
	return f == GLDrawArrays || f == GLDrawElements
}
