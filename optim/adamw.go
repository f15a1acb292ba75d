package optim

import (
	"errors"
	"math"

	"github.com/UlisseMini/light/tensor"
)

// AdamW implements Adam with decoupled weight decay.
type AdamW struct {
	params      []*tensor.Tensor
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	t           int
	m           []*tensor.Tensor // first moment
	v           []*tensor.Tensor // second moment
}

// NewAdamW creates an AdamW optimizer. params are modified in place; they
// must have Grad set when Step is called.
func NewAdamW(params []*tensor.Tensor, lr, beta1, beta2, eps, weightDecay float64) (*AdamW, error) {
	if len(params) == 0 {
		return nil, errors.New("adamw: no parameters")
	}
	if eps == 0 {
		eps = 1e-8
	}
	m := make([]*tensor.Tensor, len(params))
	v := make([]*tensor.Tensor, len(params))
	for i, p := range params {
		var err error
		if m[i], err = tensor.ZerosLike(p); err != nil {
			return nil, err
		}
		if v[i], err = tensor.ZerosLike(p); err != nil {
			return nil, err
		}
	}
	return &AdamW{
		params:      params,
		lr:          lr,
		beta1:       beta1,
		beta2:       beta2,
		eps:         eps,
		weightDecay: weightDecay,
		m:           m,
		v:           v,
	}, nil
}

// Step performs one parameter update.
func (a *AdamW) Step() error {
	a.t++
	bias1 := 1 - math.Pow(a.beta1, float64(a.t))
	bias2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, p := range a.params {
		if p.Grad == nil {
			continue
		}
		grad := p.Grad.Float32()
		param := p.Float32()
		mF := a.m[i].Float32()
		vF := a.v[i].Float32()
		for j := range param {
			g := float64(grad[j])
			// Decoupled weight decay, then the Adam moment update.
			w := float64(param[j]) * (1 - a.lr*a.weightDecay)
			mF[j] = float32(a.beta1*float64(mF[j]) + (1-a.beta1)*g)
			vF[j] = float32(a.beta2*float64(vF[j]) + (1-a.beta2)*g*g)
			mHat := float64(mF[j]) / bias1
			vHat := float64(vF[j]) / bias2
			param[j] = float32(w - a.lr*mHat/(math.Sqrt(vHat)+a.eps))
		}
	}
	return nil
}
