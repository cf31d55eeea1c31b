package trace

import (
	"strconv"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
)

// Property names derived by the kind table.
const (
	PropMarker     = "Marker"
	PropIndex      = "Index"
	PropSize       = "Size"
	PropType       = "Type"
	PropNormalized = "Normalized"
	PropStride     = "Stride"
	PropMode       = "Mode"
	PropVertices   = "Vertices"
	PropIndexType  = "Index type"
	PropError      = "GL error"
)

type kind struct {
	properties func(r *glproto.Record) []Property
}

// kinds maps functions to the properties shown for their calls.
var kinds = map[glproto.Function]kind{
	glproto.GLPushGroupMarkerEXT:   {properties: markerProperties},
	glproto.GLInsertEventMarkerEXT: {properties: markerProperties},
	glproto.GLVertexAttribPointer:  {properties: vertexAttribPointerProperties},
	glproto.GLDrawArrays:           {properties: drawArraysProperties},
	glproto.GLDrawElements:         {properties: drawElementsProperties},
}

func properties(r *glproto.Record) []Property {
	var props []Property
	if k, ok := kinds[r.Function]; ok && k.properties != nil {
		props = k.properties(r)
	}
	if r.Error != glproto.GL_NONE {
		props = append(props, Property{Name: PropError, Value: r.Error.String()})
	}
	return props
}

// argInt reads element 0 of argument i; ok is false if absent.
func argInt(r *glproto.Record, i int) (int32, bool) {
	a, err := r.Arg(i)
	if err != nil {
		return 0, false
	}
	v, err := a.Int(0)
	return v, err == nil
}

// markerProperties handles (length, marker).
func markerProperties(r *glproto.Record) []Property {
	a, err := r.Arg(1)
	if err != nil {
		return nil
	}
	s, err := a.String(0)
	if err != nil {
		return nil
	}
	return []Property{{Name: PropMarker, Value: s}}
}

// vertexAttribPointerProperties handles (index, size, type, normalized, stride, pointer).
func vertexAttribPointerProperties(r *glproto.Record) []Property {
	var props []Property
	if v, ok := argInt(r, 0); ok {
		props = append(props, Property{Name: PropIndex, Value: strconv.Itoa(int(v))})
	}
	if v, ok := argInt(r, 1); ok {
		props = append(props, Property{Name: PropSize, Value: strconv.Itoa(int(v))})
	}
	if v, ok := argInt(r, 2); ok {
		props = append(props, Property{Name: PropType, Value: glproto.Enum(uint32(v)).String()})
	}
	if a, err := r.Arg(3); err == nil {
		normalized := len(a.Bools) > 0 && a.Bools[0] || len(a.Ints) > 0 && a.Ints[0] != 0
		props = append(props, Property{Name: PropNormalized, Value: strconv.FormatBool(normalized)})
	}
	if v, ok := argInt(r, 4); ok {
		props = append(props, Property{Name: PropStride, Value: strconv.Itoa(int(v))})
	}
	return props
}

// drawArraysProperties handles (mode, first, count).
func drawArraysProperties(r *glproto.Record) []Property {
	var props []Property
	if v, ok := argInt(r, 0); ok {
		props = append(props, Property{Name: PropMode, Value: glproto.Enum(uint32(v)).String()})
	}
	if v, ok := argInt(r, 2); ok {
		props = append(props, Property{Name: PropVertices, Value: strconv.Itoa(int(v))})
	}
	return props
}

// drawElementsProperties handles (mode, count, type, indices).
func drawElementsProperties(r *glproto.Record) []Property {
	var props []Property
	if v, ok := argInt(r, 0); ok {
		props = append(props, Property{Name: PropMode, Value: glproto.Enum(uint32(v)).String()})
	}
	if v, ok := argInt(r, 1); ok {
		props = append(props, Property{Name: PropVertices, Value: strconv.Itoa(int(v))})
	}
	if v, ok := argInt(r, 2); ok {
		props = append(props, Property{Name: PropIndexType, Value: glproto.Enum(uint32(v)).String()})
	}
	return props
}

// Vertices returns the vertex count of a draw call, or 0.
func (c *Call) Vertices() int {
	v, ok := c.Property(PropVertices)
	if !ok {
		return 0
	}
	n, _ := strconv.Atoi(v)
	return n
}
