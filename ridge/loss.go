// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ridge

import (
	"gonum.org/v1/gonum/mat"
)

// EvalLoss evaluates the held-out loss ‖𝐗𝐰 - 𝐲‖²/(2nd) of a solution on the
// given partition. The regularizer is deliberately absent: the outer
// objective measures pure prediction error.
func EvalLoss(eval Dataset, w *mat.VecDense) (float64, error) {
	if err := eval.validate(); err != nil {
		return 0, err
	}
	n, d := eval.Dims()
	if w == nil || w.Len() != d {
		return 0, solvef(ErrDimensionMismatch, "weights have %d entries but eval has %d features", vecLen(w), d)
	}

	r := mat.NewVecDense(n, nil)
	r.MulVec(eval.X, w)
	r.SubVec(r, eval.Y)
	return mat.Dot(r, r) / (2 * float64(n) * float64(d)), nil
}

// LossGrad composes the solution sensitivity with the held-out loss gradient
// by the chain rule:
//
//	d(𝚕𝚘𝚜𝚜)/d𝛂 = 1/(nd) · ∑ᵢ (𝐗ᵢ·∂𝐰/∂𝛂)·𝐫ᵢ  where 𝐫 = 𝐗𝐰 - 𝐲
//
// A pure function: the only failure mode is inconsistent shapes, which wraps
// ErrDimensionMismatch and indicates a caller bug.
func LossGrad(eval Dataset, w, sens *mat.VecDense) (float64, error) {
	if err := eval.validate(); err != nil {
		return 0, err
	}
	n, d := eval.Dims()
	switch {
	case w == nil || w.Len() != d:
		return 0, solvef(ErrDimensionMismatch, "weights have %d entries but eval has %d features", vecLen(w), d)
	case sens == nil || sens.Len() != d:
		return 0, solvef(ErrDimensionMismatch, "sensitivity has %d entries but eval has %d features", vecLen(sens), d)
	}

	r := mat.NewVecDense(n, nil)
	r.MulVec(eval.X, w)
	r.SubVec(r, eval.Y)

	t := mat.NewVecDense(n, nil)
	t.MulVec(eval.X, sens)

	return mat.Dot(t, r) / (float64(n) * float64(d)), nil
}

func vecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}
