package transform

import (
	"fmt"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
	"github.com/willibrandon/ChronoGL/pkg/state"
)

// Accessor locates the node a transform operates on. Indirect accessors
// consult the state itself (current bindings), so they are resolved at
// replay time rather than when transforms are built.
type Accessor interface {
	Resolve(t *state.Tree) (state.NodeID, error)
	String() string
}

// PathAccessor resolves a fixed path from the root.
type PathAccessor struct {
	Path state.Path
}

// At returns an accessor for elems inside the state of context ctx.
func At(ctx int32, elems ...state.PathElem) PathAccessor {
	return PathAccessor{Path: state.ContextPath(ctx, elems...)}
}

func (a PathAccessor) Resolve(t *state.Tree) (state.NodeID, error) {
	return t.Resolve(a.Path)
}

func (a PathAccessor) String() string {
	return a.Path.String()
}

func intAt(t *state.Tree, path state.Path) (int32, error) {
	id, err := t.Resolve(path)
	if err != nil {
		return 0, err
	}
	v, err := t.Value(id)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int32)
	if !ok {
		return 0, fmt.Errorf("%s holds %T, want int32: %w", path, v, state.ErrWrongKind)
	}
	return n, nil
}

// CurrentVBOAccessor resolves a property of the buffer bound to Target.
type CurrentVBOAccessor struct {
	Context  int32
	Target   glproto.Enum
	Property string
}

func (a CurrentVBOAccessor) binding() string {
	if a.Target == glproto.GL_ELEMENT_ARRAY_BUFFER {
		return state.ElementArrayBufferBinding
	}
	return state.ArrayBufferBinding
}

func (a CurrentVBOAccessor) Resolve(t *state.Tree) (state.NodeID, error) {
	buffer, err := intAt(t, state.ContextPath(a.Context, state.Prop(state.VertexArrayData), state.Prop(a.binding())))
	if err != nil {
		return state.NoNode, err
	}
	return t.Resolve(state.ContextPath(a.Context,
		state.Prop(state.VertexArrayData), state.Prop(state.VBOs), state.Key(buffer), state.Prop(a.Property)))
}

func (a CurrentVBOAccessor) String() string {
	return fmt.Sprintf("[%d]VBO(%s).%s", a.Context, a.Target, a.Property)
}

// TextureUnitAccessor resolves a binding of the active texture unit.
type TextureUnitAccessor struct {
	Context int32
	Binding string
}

func (a TextureUnitAccessor) Resolve(t *state.Tree) (state.NodeID, error) {
	unit, err := intAt(t, state.ContextPath(a.Context, state.Prop(state.TextureState), state.Prop(state.ActiveTextureUnit)))
	if err != nil {
		return state.NoNode, err
	}
	return t.Resolve(state.ContextPath(a.Context,
		state.Prop(state.TextureState), state.Prop(state.TextureUnits), state.Key(unit), state.Prop(a.Binding)))
}

func (a TextureUnitAccessor) String() string {
	return fmt.Sprintf("[%d]ACTIVE_UNIT.%s", a.Context, a.Binding)
}

// BoundTextureAccessor resolves Path inside the texture bound to Binding on
// the active texture unit.
type BoundTextureAccessor struct {
	Context int32
	Binding string
	Path    state.Path
}

func (a BoundTextureAccessor) Resolve(t *state.Tree) (state.NodeID, error) {
	unit, err := TextureUnitAccessor{Context: a.Context, Binding: a.Binding}.Resolve(t)
	if err != nil {
		return state.NoNode, err
	}
	v, err := t.Value(unit)
	if err != nil {
		return state.NoNode, err
	}
	texture, _ := v.(int32)
	texPath := state.ContextPath(a.Context, state.Prop(state.TextureState), state.Prop(state.Textures), state.Key(texture))
	return t.Resolve(texPath.Join(a.Path...))
}

func (a BoundTextureAccessor) String() string {
	return fmt.Sprintf("[%d]TEXTURE(%s).%s", a.Context, a.Binding, a.Path)
}

// CurrentProgramAccessor resolves Path inside the program in use.
type CurrentProgramAccessor struct {
	Context int32
	Path    state.Path
}

func (a CurrentProgramAccessor) Resolve(t *state.Tree) (state.NodeID, error) {
	program, err := intAt(t, state.ContextPath(a.Context, state.Prop(state.ProgramState), state.Prop(state.CurrentProgram)))
	if err != nil {
		return state.NoNode, err
	}
	return t.Resolve(state.ContextPath(a.Context,
		state.Prop(state.ProgramState), state.Prop(state.Programs), state.Key(program)).Join(a.Path...))
}

func (a CurrentProgramAccessor) String() string {
	return fmt.Sprintf("[%d]CURRENT_PROGRAM.%s", a.Context, a.Path)
}
