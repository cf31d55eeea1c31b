package transform

import (
	"fmt"
	"strings"

	"github.com/willibrandon/ChronoGL/pkg/glproto"
)

// args reads call arguments and keeps the first error, so builders can read
// every argument they need and check once.
type args struct {
	r   *glproto.Record
	err error
}

func (a *args) arg(i int) *glproto.Arg {
	if a.err != nil {
		return nil
	}
	arg, err := a.r.Arg(i)
	if err != nil {
		a.err = err
		return nil
	}
	return arg
}

func (a *args) fail(err error) {
	if a.err == nil && err != nil {
		a.err = err
	}
}

func (a *args) int(i int) int32 {
	arg := a.arg(i)
	if arg == nil {
		return 0
	}
	v, err := arg.Int(0)
	a.fail(err)
	return v
}

func (a *args) ints(i int) []int32 {
	if arg := a.arg(i); arg != nil {
		return arg.Ints
	}
	return nil
}

// names returns the first n elements of the array argument i, where n is the
// count argument. A count the array cannot satisfy is an error.
func (a *args) names(count, i int) []int32 {
	n := a.int(count)
	names := a.ints(i)
	if a.err != nil {
		return nil
	}
	if n < 0 || int(n) > len(names) {
		a.err = fmt.Errorf("%s: count %d, %d names captured: %w", a.r.Function, n, len(names), glproto.ErrMissingArg)
		return nil
	}
	return names[:n]
}

func (a *args) enum(i int) glproto.Enum {
	return glproto.Enum(uint32(a.int(i)))
}

func (a *args) float(i int) float32 {
	arg := a.arg(i)
	if arg == nil {
		return 0
	}
	v, err := arg.Float(0)
	a.fail(err)
	return v
}

func (a *args) floats(i int) []float32 {
	if arg := a.arg(i); arg != nil {
		return arg.Floats
	}
	return nil
}

// bool accepts GLboolean captured either as a bool or as an integer.
func (a *args) bool(i int) bool {
	arg := a.arg(i)
	if arg == nil {
		return false
	}
	if len(arg.Bools) > 0 {
		return arg.Bools[0]
	}
	v, err := arg.Int(0)
	a.fail(err)
	return v != 0
}

// str joins all char elements, which is how the tracer splits long strings.
func (a *args) str(i int) string {
	arg := a.arg(i)
	if arg == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range arg.Chars {
		b.Write(c)
	}
	return b.String()
}

// data returns the first raw byte element, or nil when the tracer did not
// capture the payload. A missing argument is still an error.
func (a *args) data(i int) []byte {
	arg := a.arg(i)
	if arg == nil || len(arg.RawBytes) == 0 {
		return nil
	}
	return arg.RawBytes[0]
}

func (a *args) ret() int32 {
	if a.err != nil {
		return 0
	}
	if a.r.ReturnValue == nil {
		a.err = errMissingReturn(a.r.Function)
		return 0
	}
	v, err := a.r.ReturnValue.Int(0)
	a.fail(err)
	return v
}
