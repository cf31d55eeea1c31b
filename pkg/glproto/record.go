package glproto

import (
	"errors"
	"fmt"
)

// DataType is the declared type of a captured argument.
type DataType int32

const (
	TypeVoid DataType = iota + 1
	TypeChar
	TypeByte
	TypeInt
	TypeFloat
	TypeBool
	TypeEnum
	TypeInt64
)

var dataTypeNames = [...]string{
	TypeVoid:  "void",
	TypeChar:  "char",
	TypeByte:  "byte",
	TypeInt:   "int",
	TypeFloat: "float",
	TypeBool:  "bool",
	TypeEnum:  "enum",
	TypeInt64: "int64",
}

func (t DataType) String() string {
	if t > 0 && int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", int32(t))
}

// ErrMissingArg is returned when a call does not carry an argument or
// element a consumer expected at a given position.
var ErrMissingArg = errors.New("argument not present")

// Arg is one captured argument. Scalars are stored as one-element slices;
// array arguments (IsArray) may carry many elements or raw bytes.
type Arg struct {
	Type     DataType
	IsArray  bool
	Ints     []int32
	Floats   []float32
	Chars    [][]byte
	RawBytes [][]byte
	Bools    []bool
	Int64s   []int64
}

// Framebuffer is the framebuffer snapshot attached to a call. Contents are
// compressed; see package fbimage.
type Framebuffer struct {
	Width    int32
	Height   int32
	Contents []byte
}

// Record is one decoded call event.
type Record struct {
	Function       Function
	ContextID      int32
	StartTime      int64 // nanoseconds, capture clock
	Duration       int32 // wall time, nanoseconds
	ThreadDuration int32 // thread time, nanoseconds
	Args           []Arg
	ReturnValue    *Arg
	Framebuffer    *Framebuffer
	Error          Enum // GL error raised by the call, GL_NONE if none
}

// Arg returns the i-th argument.
func (r *Record) Arg(i int) (*Arg, error) {
	if i < 0 || i >= len(r.Args) {
		return nil, fmt.Errorf("%s: arg %d: %w", r.Function, i, ErrMissingArg)
	}
	return &r.Args[i], nil
}

// Int returns the i-th integer element.
func (a *Arg) Int(i int) (int32, error) {
	if i < 0 || i >= len(a.Ints) {
		return 0, fmt.Errorf("int element %d: %w", i, ErrMissingArg)
	}
	return a.Ints[i], nil
}

// Float returns the i-th float element.
func (a *Arg) Float(i int) (float32, error) {
	if i < 0 || i >= len(a.Floats) {
		return 0, fmt.Errorf("float element %d: %w", i, ErrMissingArg)
	}
	return a.Floats[i], nil
}

// Bool returns the i-th bool element.
func (a *Arg) Bool(i int) (bool, error) {
	if i < 0 || i >= len(a.Bools) {
		return false, fmt.Errorf("bool element %d: %w", i, ErrMissingArg)
	}
	return a.Bools[i], nil
}

// String returns the i-th char element as a string.
func (a *Arg) String(i int) (string, error) {
	if i < 0 || i >= len(a.Chars) {
		return "", fmt.Errorf("char element %d: %w", i, ErrMissingArg)
	}
	return string(a.Chars[i]), nil
}

// Bytes returns the i-th raw byte element.
func (a *Arg) Bytes(i int) ([]byte, error) {
	if i < 0 || i >= len(a.RawBytes) {
		return nil, fmt.Errorf("raw bytes element %d: %w", i, ErrMissingArg)
	}
	return a.RawBytes[i], nil
}

// HasFramebuffer reports whether the record carries a framebuffer capture.
func (r *Record) HasFramebuffer() bool {
	return r.Framebuffer != nil && len(r.Framebuffer.Contents) > 0
}
