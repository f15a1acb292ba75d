package tensor

import (
	"math/rand"
)

// Rand returns a float32 tensor with elements drawn uniformly from [0, 1).
func Rand(rng *rand.Rand, shape ...int) (*Tensor, error) {
	t, err := Zeros(shape...)
	if err != nil {
		return nil, err
	}
	data := t.Float32()
	for i := range data {
		data[i] = rng.Float32()
	}
	return t, nil
}
