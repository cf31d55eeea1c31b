package glproto

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the Record message.
const (
	fieldContextID      protowire.Number = 1
	fieldStartTime      protowire.Number = 2
	fieldDuration       protowire.Number = 3
	fieldFunction       protowire.Number = 4
	fieldArgs           protowire.Number = 5
	fieldReturnValue    protowire.Number = 6
	fieldFramebuffer    protowire.Number = 7
	fieldThreadDuration protowire.Number = 8
	fieldError          protowire.Number = 9
)

// Field numbers of the Arg message.
const (
	argFieldType     protowire.Number = 1
	argFieldIsArray  protowire.Number = 2
	argFieldInts     protowire.Number = 3
	argFieldFloats   protowire.Number = 4
	argFieldChars    protowire.Number = 5
	argFieldRawBytes protowire.Number = 6
	argFieldBools    protowire.Number = 7
	argFieldInt64s   protowire.Number = 8
)

// Field numbers of the Framebuffer message.
const (
	fbFieldWidth    protowire.Number = 1
	fbFieldHeight   protowire.Number = 2
	fbFieldContents protowire.Number = 3
)

// ErrMalformed is wrapped by every Unmarshal failure.
var ErrMalformed = errors.New("malformed record")

// Marshal serializes r in protobuf wire format.
func Marshal(r *Record) []byte {
	var b []byte
	b = appendVarintField(b, fieldContextID, uint64(int64(r.ContextID)))
	b = appendVarintField(b, fieldStartTime, uint64(r.StartTime))
	b = appendVarintField(b, fieldDuration, uint64(int64(r.Duration)))
	b = appendVarintField(b, fieldFunction, uint64(r.Function))
	for i := range r.Args {
		b = protowire.AppendTag(b, fieldArgs, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalArg(&r.Args[i]))
	}
	if r.ReturnValue != nil {
		b = protowire.AppendTag(b, fieldReturnValue, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalArg(r.ReturnValue))
	}
	if r.Framebuffer != nil {
		var fb []byte
		fb = appendVarintField(fb, fbFieldWidth, uint64(int64(r.Framebuffer.Width)))
		fb = appendVarintField(fb, fbFieldHeight, uint64(int64(r.Framebuffer.Height)))
		fb = protowire.AppendTag(fb, fbFieldContents, protowire.BytesType)
		fb = protowire.AppendBytes(fb, r.Framebuffer.Contents)
		b = protowire.AppendTag(b, fieldFramebuffer, protowire.BytesType)
		b = protowire.AppendBytes(b, fb)
	}
	b = appendVarintField(b, fieldThreadDuration, uint64(int64(r.ThreadDuration)))
	if r.Error != GL_NONE {
		b = appendVarintField(b, fieldError, uint64(r.Error))
	}
	return b
}

func marshalArg(a *Arg) []byte {
	var b []byte
	b = appendVarintField(b, argFieldType, uint64(a.Type))
	if a.IsArray {
		b = appendVarintField(b, argFieldIsArray, protowire.EncodeBool(true))
	}
	if len(a.Ints) > 0 {
		var packed []byte
		for _, v := range a.Ints {
			packed = protowire.AppendVarint(packed, uint64(int64(v)))
		}
		b = protowire.AppendTag(b, argFieldInts, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	if len(a.Floats) > 0 {
		var packed []byte
		for _, v := range a.Floats {
			packed = protowire.AppendFixed32(packed, math.Float32bits(v))
		}
		b = protowire.AppendTag(b, argFieldFloats, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	for _, c := range a.Chars {
		b = protowire.AppendTag(b, argFieldChars, protowire.BytesType)
		b = protowire.AppendBytes(b, c)
	}
	for _, raw := range a.RawBytes {
		b = protowire.AppendTag(b, argFieldRawBytes, protowire.BytesType)
		b = protowire.AppendBytes(b, raw)
	}
	if len(a.Bools) > 0 {
		var packed []byte
		for _, v := range a.Bools {
			packed = protowire.AppendVarint(packed, protowire.EncodeBool(v))
		}
		b = protowire.AppendTag(b, argFieldBools, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	if len(a.Int64s) > 0 {
		var packed []byte
		for _, v := range a.Int64s {
			packed = protowire.AppendVarint(packed, uint64(v))
		}
		b = protowire.AppendTag(b, argFieldInt64s, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// Unmarshal decodes a record produced by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*Record, error) {
	r := &Record{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError("tag", n)
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && isRecordVarint(num):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireError(fmt.Sprintf("field %d", num), n)
			}
			b = b[n:]
			setRecordVarint(r, num, v)
		case typ == protowire.BytesType && (num == fieldArgs || num == fieldReturnValue || num == fieldFramebuffer):
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireError(fmt.Sprintf("field %d", num), n)
			}
			b = b[n:]
			switch num {
			case fieldArgs:
				a, err := unmarshalArg(v)
				if err != nil {
					return nil, fmt.Errorf("arg %d: %w", len(r.Args), err)
				}
				r.Args = append(r.Args, *a)
			case fieldReturnValue:
				a, err := unmarshalArg(v)
				if err != nil {
					return nil, fmt.Errorf("return value: %w", err)
				}
				r.ReturnValue = a
			case fieldFramebuffer:
				fb, err := unmarshalFramebuffer(v)
				if err != nil {
					return nil, fmt.Errorf("framebuffer: %w", err)
				}
				r.Framebuffer = fb
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, wireError(fmt.Sprintf("field %d", num), n)
			}
			b = b[n:]
		}
	}
	return r, nil
}

func isRecordVarint(num protowire.Number) bool {
	switch num {
	case fieldContextID, fieldStartTime, fieldDuration, fieldFunction, fieldThreadDuration, fieldError:
		return true
	}
	return false
}

func setRecordVarint(r *Record, num protowire.Number, v uint64) {
	switch num {
	case fieldContextID:
		r.ContextID = int32(int64(v))
	case fieldStartTime:
		r.StartTime = int64(v)
	case fieldDuration:
		r.Duration = int32(int64(v))
	case fieldFunction:
		r.Function = Function(v)
	case fieldThreadDuration:
		r.ThreadDuration = int32(int64(v))
	case fieldError:
		r.Error = Enum(v)
	}
}

func unmarshalArg(b []byte) (*Arg, error) {
	a := &Arg{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError("arg tag", n)
		}
		b = b[n:]

		var err error
		switch {
		case num == argFieldType && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			a.Type = DataType(int64(v))
		case num == argFieldIsArray && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			a.IsArray = protowire.DecodeBool(v)
		case num == argFieldChars && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			a.Chars = append(a.Chars, clone(v))
		case num == argFieldRawBytes && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			a.RawBytes = append(a.RawBytes, clone(v))
		case num == argFieldInts, num == argFieldBools, num == argFieldInt64s:
			n, err = consumeRepeatedVarint(b, typ, func(v uint64) {
				switch num {
				case argFieldInts:
					a.Ints = append(a.Ints, int32(int64(v)))
				case argFieldBools:
					a.Bools = append(a.Bools, protowire.DecodeBool(v))
				case argFieldInt64s:
					a.Int64s = append(a.Int64s, int64(v))
				}
			})
		case num == argFieldFloats:
			n, err = consumeRepeatedFixed32(b, typ, func(v uint32) {
				a.Floats = append(a.Floats, math.Float32frombits(v))
			})
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, wireError(fmt.Sprintf("arg field %d", num), n)
		}
		b = b[n:]
	}
	return a, nil
}

// consumeRepeatedVarint accepts both packed and unpacked encodings.
func consumeRepeatedVarint(b []byte, typ protowire.Type, fn func(uint64)) (int, error) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		if n >= 0 {
			fn(v)
		}
		return n, nil
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeVarint(packed)
			if m < 0 {
				return 0, wireError("packed varint", m)
			}
			fn(v)
			packed = packed[m:]
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: unexpected wire type %d for varint field", ErrMalformed, typ)
}

func consumeRepeatedFixed32(b []byte, typ protowire.Type, fn func(uint32)) (int, error) {
	switch typ {
	case protowire.Fixed32Type:
		v, n := protowire.ConsumeFixed32(b)
		if n >= 0 {
			fn(v)
		}
		return n, nil
	case protowire.BytesType:
		packed, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		for len(packed) > 0 {
			v, m := protowire.ConsumeFixed32(packed)
			if m < 0 {
				return 0, wireError("packed fixed32", m)
			}
			fn(v)
			packed = packed[m:]
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: unexpected wire type %d for float field", ErrMalformed, typ)
}

func unmarshalFramebuffer(b []byte) (*Framebuffer, error) {
	fb := &Framebuffer{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError("framebuffer tag", n)
		}
		b = b[n:]
		switch {
		case num == fbFieldWidth && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			fb.Width = int32(int64(v))
		case num == fbFieldHeight && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			fb.Height = int32(int64(v))
		case num == fbFieldContents && typ == protowire.BytesType:
			var v []byte
			v, n = protowire.ConsumeBytes(b)
			fb.Contents = clone(v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, wireError(fmt.Sprintf("framebuffer field %d", num), n)
		}
		b = b[n:]
	}
	return fb, nil
}

func wireError(what string, n int) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, protowire.ParseError(n))
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
