// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package numdiff estimates derivatives of vector-valued curves of a scalar
// parameter by finite differences.
//
// It serves as the numerical oracle for analytically computed sensitivities:
// a curve 𝐲(𝑡) : ℝ → ℝᵐ whose evaluation may itself be expensive (such as
// the solution of an optimization problem as a function of a hyperparameter)
// is probed at perturbed parameter values and the derivative d𝐲/d𝑡 is
// approximated with first order (forward) or second order (central)
// accuracy.
//
// # Reference
//
//   - https://en.wikipedia.org/wiki/Finite_difference
package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference,
	// falling back to a one-sided scheme near the domain boundary.
	Central
)

// Bound limits the parameter values at which the curve may be evaluated.
type Bound [2]float64

// CurveSpec describes a differentiation task for one curve.
type CurveSpec struct {
	// Dimension of the curve value.
	M int
	// Curve evaluates 𝐲(𝑡) into the m-vector y.
	// A returned error aborts the differentiation.
	Curve func(t float64, y []float64) error
	// Finite difference method to use.
	Method Method
	// Lower and upper bounds on the parameter.
	// Use it to limit the range of curve evaluation.
	// The zero value means unbounded.
	Bound Bound
	// Absolute step size to use.
	// When zero the step is computed as h = eps^(1/2 or 1/3) · max(1, |𝑡₀|)
	// with the sign chosen away from the nearest boundary.
	AbsStep float64
}

// Diff approximates d𝐲/d𝑡 at t0 into the m-vector df.
func (cs *CurveSpec) Diff(t0 float64, df []float64) error {

	lo, hi := cs.Bound[0], cs.Bound[1]
	if lo == 0 && hi == 0 {
		lo, hi = math.Inf(-1), math.Inf(1)
	}

	switch {
	case cs.M <= 0:
		return errors.New("negative dimensions")
	case cs.Method != Forward && cs.Method != Central:
		return errors.New("unknown method")
	case cs.Curve == nil:
		return errors.New("curve function is required")
	case cs.M != len(df):
		return errors.New("invalid diff dimensions")
	case lo > hi || t0 < lo || t0 > hi:
		return errors.New("t0 violates bound constraints")
	}

	h := cs.step(t0, lo, hi)
	if cs.Method == Forward {
		return cs.approxForward(t0, h, df)
	}
	return cs.approxCentral(t0, h, lo, hi, df)
}

// step selects the absolute step, flipping its sign when the forward probe
// would leave the domain.
func (cs *CurveSpec) step(t0, lo, hi float64) float64 {
	eps := sqrtEps
	if cs.Method == Central {
		eps = cubeEps
	}

	h := cs.AbsStep
	if h == 0 || (t0+h)-t0 == 0 {
		h = math.Copysign(eps, t0) * math.Max(1, math.Abs(t0))
	}

	if t0+h > hi || t0+h < lo {
		h = -h
	}
	return h
}

func (cs *CurveSpec) approxForward(t0, h float64, df []float64) error {
	f0 := make([]float64, cs.M)
	fx := make([]float64, cs.M)

	if err := cs.Curve(t0, f0); err != nil {
		return err
	}
	if err := cs.Curve(t0+h, fx); err != nil {
		return err
	}

	d := 1 / h
	for i := range df {
		df[i] = (fx[i] - f0[i]) * d
	}
	return nil
}

func (cs *CurveSpec) approxCentral(t0, h, lo, hi float64, df []float64) error {
	h = math.Abs(h)
	f1 := make([]float64, cs.M)
	f2 := make([]float64, cs.M)

	if t0-h >= lo && t0+h <= hi {
		if err := cs.Curve(t0-h, f1); err != nil {
			return err
		}
		if err := cs.Curve(t0+h, f2); err != nil {
			return err
		}
		d := 1 / (2 * h)
		for i := range df {
			df[i] = (f2[i] - f1[i]) * d
		}
		return nil
	}

	// One-sided second order scheme near the boundary:
	// d𝐲/d𝑡 ≈ (-3𝐲(𝑡) + 4𝐲(𝑡+h) - 𝐲(𝑡+2h)) / 2h
	if t0+h > hi {
		h = -h
	}
	f0 := make([]float64, cs.M)
	if err := cs.Curve(t0, f0); err != nil {
		return err
	}
	if err := cs.Curve(t0+h, f1); err != nil {
		return err
	}
	if err := cs.Curve(t0+2*h, f2); err != nil {
		return err
	}
	d := 1 / (2 * h)
	for i := range df {
		df[i] = (-3*f0[i] + 4*f1[i] - f2[i]) * d
	}
	return nil
}
