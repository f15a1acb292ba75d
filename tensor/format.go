package tensor

import (
	"strconv"
	"strings"

	"github.com/UlisseMini/light/core"
)

// String renders t like tensor([0.0000, 0.5000], requires_grad=true).
// Non-float32 tensors are printed through their float32 conversion.
func (t *Tensor) String() string {
	if t == nil {
		return "<nil>"
	}
	src := t
	if t.DType != core.Float32 {
		var err error
		if src, err = t.To(core.Float32); err != nil {
			return "tensor(<" + err.Error() + ">)"
		}
	}
	var sb strings.Builder
	sb.WriteString("tensor(")
	if src.NumElements() > 0 {
		data := src.Float32()
		writeAxis(&sb, data, src.Shape, src.Strides, 0, 0, len("tensor("))
	} else {
		sb.WriteString("[]")
	}
	if t.RequiresGrad {
		sb.WriteString(", requires_grad=true")
	}
	sb.WriteByte(')')
	return sb.String()
}

func writeAxis(sb *strings.Builder, data []float32, shape core.Shape, strides core.Strides, axis, off, indent int) {
	sb.WriteByte('[')
	n := shape[axis]
	step := strides[axis] / 4
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
			if axis == len(shape)-1 {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(strings.Repeat("\n", len(shape)-1-axis))
				sb.WriteString(strings.Repeat(" ", indent+axis+1))
			}
		}
		if axis == len(shape)-1 {
			sb.WriteString(strconv.FormatFloat(float64(data[off+i*step]), 'f', 4, 32))
		} else {
			writeAxis(sb, data, shape, strides, axis+1, off+i*step, indent)
		}
	}
	sb.WriteByte(']')
}
