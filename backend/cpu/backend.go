package cpu

import (
	"fmt"
	"unsafe"

	"github.com/UlisseMini/light/backend"
	"github.com/UlisseMini/light/core"
)

const tileSize = 32

type cpuBackend struct{}

func init() {
	backend.Register(&cpuBackend{})
}

func (b *cpuBackend) Name() string                   { return "cpu" }
func (b *cpuBackend) DeviceType() backend.DeviceType { return backend.CPU }

func (b *cpuBackend) Alloc(byteLen int) (backend.Storage, error) {
	if byteLen < 0 {
		return nil, fmt.Errorf("cpu: negative allocation %d", byteLen)
	}
	return Alloc(byteLen), nil
}

func (b *cpuBackend) Free(s backend.Storage) {
	if cs, ok := s.(*storage); ok {
		cs.Free()
	}
}

func (b *cpuBackend) Copy(dst, src backend.Storage, byteLen int) error {
	db := dst.(*storage).buf
	sb := src.(*storage).buf
	if byteLen > len(db) || byteLen > len(sb) {
		return fmt.Errorf("cpu: copy of %d bytes exceeds storage (%d, %d)", byteLen, len(db), len(sb))
	}
	copy(db[:byteLen], sb[:byteLen])
	return nil
}

func (b *cpuBackend) ToDevice(d backend.Device, src backend.Storage) (backend.Storage, error) {
	if d.Type != backend.CPU {
		return nil, backend.ErrUnsupported
	}
	s := src.(*storage)
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return &storage{buf: out, dev: d}, nil
}

func floatSlice(s backend.Storage, n int) []float32 {
	if n == 0 {
		return nil
	}
	b := s.(*storage).buf
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), n)
}

func (b *cpuBackend) Neg(dst, src backend.Storage, nElems int) error {
	d := floatSlice(dst, nElems)
	x := floatSlice(src, nElems)
	for i := range d {
		d[i] = -x[i]
	}
	return nil
}

func (b *cpuBackend) Scale(dst, src backend.Storage, nElems int, alpha float32) error {
	d := floatSlice(dst, nElems)
	x := floatSlice(src, nElems)
	for i := range d {
		d[i] = alpha * x[i]
	}
	return nil
}

func (b *cpuBackend) Axpy(y, x backend.Storage, nElems int, alpha float32) error {
	py := floatSlice(y, nElems)
	px := floatSlice(x, nElems)
	for i := range py {
		py[i] += alpha * px[i]
	}
	return nil
}

// broadcastIter: for each linear out index, compute linear indices into a and b (NumPy broadcast).
// A broadcast (size 1) axis contributes nothing to the input offset.
func broadcastIter(outShape core.Shape, aShape, bShape core.Shape, aStrides, bStrides core.Strides) (nOut int, getIndices func(outLinear int) (aIdx, bIdx int)) {
	nOut = outShape.NumElements()
	nd := len(outShape)
	aPad := nd - len(aShape)
	bPad := nd - len(bShape)
	idx := make([]int, nd)
	getIndices = func(outLinear int) (aIdx, bIdx int) {
		rem := outLinear
		for i := nd - 1; i >= 0; i-- {
			idx[i] = rem % outShape[i]
			rem /= outShape[i]
		}
		for i := 0; i < nd; i++ {
			if i >= aPad && aShape[i-aPad] != 1 {
				aIdx += idx[i] * (aStrides[i-aPad] / 4)
			}
			if i >= bPad && bShape[i-bPad] != 1 {
				bIdx += idx[i] * (bStrides[i-bPad] / 4)
			}
		}
		return aIdx, bIdx
	}
	return nOut, getIndices
}

func binary(dst, a, b backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape, op func(x, y float32) float32) error {
	n, get := broadcastIter(outShape, aShape, bShape, aStrides, bStrides)
	// Gather inputs first so dst may alias a or b.
	out := make([]float32, n)
	pa := floatSlice(a, aShape.NumElements())
	pb := floatSlice(b, bShape.NumElements())
	for i := 0; i < n; i++ {
		ai, bi := get(i)
		out[i] = op(pa[ai], pb[bi])
	}
	copy(floatSlice(dst, n), out)
	return nil
}

func (b *cpuBackend) Add(dst, x, y backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	return binary(dst, x, y, aShape, bShape, aStrides, bStrides, outShape, func(p, q float32) float32 { return p + q })
}

func (b *cpuBackend) Sub(dst, x, y backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	return binary(dst, x, y, aShape, bShape, aStrides, bStrides, outShape, func(p, q float32) float32 { return p - q })
}

func (b *cpuBackend) Mul(dst, x, y backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	return binary(dst, x, y, aShape, bShape, aStrides, bStrides, outShape, func(p, q float32) float32 { return p * q })
}

// Sum reduces src over one axis, or over every axis when axis < 0.
// keepDim only affects the caller's view of the result; the data layout is the same.
func (b *cpuBackend) Sum(dst, src backend.Storage, srcShape core.Shape, srcStrides core.Strides, axis int, keepDim bool) error {
	srcF := floatSlice(src, srcShape.NumElements())
	if axis < 0 || len(srcShape) == 0 {
		var sum float32
		for _, v := range srcF {
			sum += v
		}
		floatSlice(dst, 1)[0] = sum
		return nil
	}
	if axis >= len(srcShape) {
		return fmt.Errorf("cpu: sum axis %d out of range for shape %v", axis, srcShape)
	}
	before := 1
	for i := 0; i < axis; i++ {
		before *= srcShape[i]
	}
	after := 1
	for i := axis + 1; i < len(srcShape); i++ {
		after *= srcShape[i]
	}
	dimSize := srcShape[axis]
	dstF := floatSlice(dst, before*after)
	for i := 0; i < before; i++ {
		for j := 0; j < after; j++ {
			// Offset of the first element along axis, from the strides.
			off := 0
			ii := i
			for d := axis - 1; d >= 0; d-- {
				off += (ii % srcShape[d]) * (srcStrides[d] / 4)
				ii /= srcShape[d]
			}
			jj := j
			for d := len(srcShape) - 1; d > axis; d-- {
				off += (jj % srcShape[d]) * (srcStrides[d] / 4)
				jj /= srcShape[d]
			}
			var s float32
			for k := 0; k < dimSize; k++ {
				s += srcF[off+k*(srcStrides[axis]/4)]
			}
			dstF[i*after+j] = s
		}
	}
	return nil
}

func (b *cpuBackend) MatMul(dst, a, bm backend.Storage, batchSize, M, N, K int) error {
	d := floatSlice(dst, batchSize*M*N)
	pa := floatSlice(a, batchSize*M*K)
	pb := floatSlice(bm, batchSize*K*N)
	for batch := 0; batch < batchSize; batch++ {
		aBase := batch * M * K
		bBase := batch * K * N
		cBase := batch * M * N
		// Tiled matmul
		for i0 := 0; i0 < M; i0 += tileSize {
			iEnd := min(i0+tileSize, M)
			for k0 := 0; k0 < K; k0 += tileSize {
				kEnd := min(k0+tileSize, K)
				for j0 := 0; j0 < N; j0 += tileSize {
					jEnd := min(j0+tileSize, N)
					for i := i0; i < iEnd; i++ {
						row := d[cBase+i*N : cBase+i*N+N]
						for k := k0; k < kEnd; k++ {
							aik := pa[aBase+i*K+k]
							bRow := pb[bBase+k*N : bBase+k*N+N]
							for j := j0; j < jEnd; j++ {
								row[j] += aik * bRow[j]
							}
						}
					}
				}
			}
		}
	}
	return nil
}

func (b *cpuBackend) Transpose(dst, src backend.Storage, batchSize, rows, cols int) error {
	n := rows * cols
	all := floatSlice(dst, batchSize*n)
	in := floatSlice(src, batchSize*n)
	for batch := 0; batch < batchSize; batch++ {
		d := all[batch*n : (batch+1)*n]
		s := in[batch*n : (batch+1)*n]
		for i0 := 0; i0 < rows; i0 += tileSize {
			iEnd := min(i0+tileSize, rows)
			for j0 := 0; j0 < cols; j0 += tileSize {
				jEnd := min(j0+tileSize, cols)
				for i := i0; i < iEnd; i++ {
					for j := j0; j < jEnd; j++ {
						d[j*rows+i] = s[i*cols+j]
					}
				}
			}
		}
	}
	return nil
}

func (b *cpuBackend) Fill(dst backend.Storage, nElems int, value float32) error {
	d := floatSlice(dst, nElems)
	for i := range d {
		d[i] = value
	}
	return nil
}
