package lsq

import "github.com/UlisseMini/light/tensor"

// Example returns the demo system A = [[1,2],[3,4]], b = [1,2] and its
// solution x* = [0, 0.5].
func Example() (A, b, want *tensor.Tensor, err error) {
	if A, err = tensor.FromFloat32([]float32{1, 2, 3, 4}, 2, 2); err != nil {
		return nil, nil, nil, err
	}
	if b, err = tensor.FromFloat32([]float32{1, 2}, 2); err != nil {
		return nil, nil, nil, err
	}
	if want, err = tensor.FromFloat32([]float32{0, 0.5}, 2); err != nil {
		return nil, nil, nil, err
	}
	return A, b, want, nil
}
