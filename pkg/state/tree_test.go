package state

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
)

func TestNewDefaultContexts(t *testing.T) {
	tree := NewDefault(7, 3)

	root := tree.Root()
	assert.Equal(t, KindSparseArray, tree.Kind(root))
	assert.True(t, tree.HasElement(root, 3))
	assert.True(t, tree.HasElement(root, 7))
	assert.False(t, tree.HasElement(root, 1))

	children := tree.Children(root)
	require.Len(t, children, 2)
	assert.Equal(t, int32(3), tree.Key(children[0]), "elements are ordered by key")
	assert.Equal(t, int32(7), tree.Key(children[1]))
}

func TestResolveDefaults(t *testing.T) {
	tree := NewDefault(0)

	tests := []struct {
		path Path
		want any
	}{
		{ContextPath(0, Prop(RasterizationState), Prop(LineWidth)), float32(1)},
		{ContextPath(0, Prop(RasterizationState), Prop(FrontFace)), glproto.GL_CCW},
		{ContextPath(0, Prop(TransformationState), Prop(DepthRange), Prop(DepthRangeFar)), float32(1)},
		{ContextPath(0, Prop(PixelOperations), Prop(DepthFunc)), glproto.GL_LESS},
		{ContextPath(0, Prop(TextureState), Prop(TextureUnits), Key(31), Prop(TextureBinding2D)), int32(0)},
		{ContextPath(0, Prop(VertexArrayData), Prop(GenericVertexAttributes), Key(15)), []float32{0, 0, 0, 1}},
		{ContextPath(0, Prop(EnabledCaps), Prop(glproto.GL_DITHER.String())), true},
		{ContextPath(0, Prop(EnabledCaps), Prop(glproto.GL_BLEND.String())), false},
	}
	for _, tt := range tests {
		t.Run(tt.path.String(), func(t *testing.T) {
			id, err := tree.Resolve(tt.path)
			require.NoError(t, err)
			v, err := tree.Value(id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
			assert.Equal(t, tt.path, tree.PathOf(id))
		})
	}
}

func TestResolveMissing(t *testing.T) {
	tree := NewDefault(0)

	_, err := tree.Resolve(ContextPath(1, Prop(TextureState)))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = tree.Resolve(ContextPath(0, Prop(TextureState), Prop(TextureUnits), Key(TextureUnitCount)))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = tree.Resolve(ContextPath(0, Prop("NO_SUCH_PROPERTY")))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetValueOnlyOnLeaves(t *testing.T) {
	tree := NewDefault(0)
	id, err := tree.Resolve(ContextPath(0, Prop(RasterizationState), Prop(LineWidth)))
	require.NoError(t, err)

	old, err := tree.SetValue(id, float32(3))
	require.NoError(t, err)
	assert.Equal(t, float32(1), old)

	_, err = tree.SetValue(tree.Parent(id), float32(3))
	require.ErrorIs(t, err, ErrWrongKind)
}

func TestSparseArrayElements(t *testing.T) {
	tree := NewDefault(0)
	textures, err := tree.Resolve(ContextPath(0, Prop(TextureState), Prop(Textures)))
	require.NoError(t, err)

	elem, err := tree.AddElement(textures, 5)
	require.NoError(t, err)
	assert.Equal(t, textures, tree.Parent(elem))
	assert.Equal(t, TextureElement, tree.Name(elem))

	_, err = tree.AddElement(textures, 5)
	require.ErrorIs(t, err, ErrExists)

	// Elements are independent copies of the template.
	other, err := tree.AddElement(textures, 6)
	require.NoError(t, err)
	f1, err := tree.Lookup(elem, Path{Prop(TextureMinFilter)})
	require.NoError(t, err)
	f2, err := tree.Lookup(other, Path{Prop(TextureMinFilter)})
	require.NoError(t, err)
	_, err = tree.SetValue(f1, glproto.GL_LINEAR)
	require.NoError(t, err)
	v, err := tree.Value(f2)
	require.NoError(t, err)
	assert.Equal(t, glproto.GL_NEAREST_MIPMAP_LINEAR, v)

	detached, err := tree.DetachElement(textures, 5)
	require.NoError(t, err)
	assert.Equal(t, elem, detached)
	assert.Equal(t, NoNode, tree.Parent(detached))
	assert.False(t, tree.HasElement(textures, 5))

	_, err = tree.DetachElement(textures, 5)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tree.AttachElement(textures, 5, detached))
	v, err = tree.Value(f1)
	require.NoError(t, err)
	assert.Equal(t, glproto.GL_LINEAR, v, "re-attached element keeps its state")

	require.Error(t, tree.AttachElement(textures, 9, detached), "attached nodes cannot be attached twice")
}

func TestAncestors(t *testing.T) {
	tree := NewDefault(2)
	id, err := tree.Resolve(ContextPath(2, Prop(PixelOperations), Prop(Blend), Prop(BlendSrcRGB)))
	require.NoError(t, err)

	chain := tree.Ancestors(id)
	require.Len(t, chain, 5)
	assert.Equal(t, id, chain[0])
	assert.Equal(t, tree.Root(), chain[len(chain)-1])
	assert.Equal(t, Context, tree.Name(chain[3]))
}

func TestEqualAndClone(t *testing.T) {
	a := NewDefault(0)
	b := a.Clone()
	require.True(t, Equal(a, b))

	id, err := b.Resolve(ContextPath(0, Prop(PixelPacking), Prop(PackAlignment)))
	require.NoError(t, err)
	_, err = b.SetValue(id, int32(1))
	require.NoError(t, err)
	assert.False(t, Equal(a, b))

	_, err = b.SetValue(id, int32(4))
	require.NoError(t, err)
	assert.True(t, Equal(a, b))

	shaders, err := b.Resolve(ContextPath(0, Prop(Shaders)))
	require.NoError(t, err)
	_, err = b.AddElement(shaders, 1)
	require.NoError(t, err)
	assert.False(t, Equal(a, b))

	_, err = b.DetachElement(shaders, 1)
	require.NoError(t, err)
	assert.True(t, Equal(a, b), "detached nodes do not take part in comparison")

	assert.False(t, Equal(NewDefault(0), NewDefault(1)))
}

func TestDump(t *testing.T) {
	tree := NewDefault(0)
	id, err := tree.Resolve(ContextPath(0, Prop(RasterizationState), Prop(LineWidth)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tree.Dump(&buf, tree.Parent(id), func(n NodeID) bool { return n == id }))

	out := buf.String()
	assert.Contains(t, out, "* ")
	assert.Contains(t, out, "LINE_WIDTH = 1")
	assert.Contains(t, out, "FRONT_FACE = GL_CCW")
}

func TestPathString(t *testing.T) {
	p := ContextPath(0, Prop(TextureState), Prop(TextureUnits), Key(3), Prop(TextureBinding2D))
	assert.Equal(t, "[0]TEXTURE_STATE.TEXTURE_UNITS[3].TEXTURE_BINDING_2D", p.String())
}
