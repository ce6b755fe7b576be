// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qpdiff solves strictly convex quadratic programs and differentiates
// their optimal solution with respect to problem parameters.
//
// A program instance is given in the standard form
//
//	minimize ½ 𝐱ᵀ𝐏𝐱 + 𝐪ᵀ𝐱
//
// with 𝐏 symmetric positive definite, whose unique minimizer satisfies the
// KKT stationarity condition
//
//	𝐏𝐱* + 𝐪 = 0
//
// When the program depends on a scalar parameter 𝛂, differentiating the
// stationarity condition implicitly gives a linear system for the response
// of 𝐱* to a perturbation of the parameter:
//
//	𝐏·∂𝐱*/∂𝛂 = -𝐛  where  𝐛 = (∂𝐏/∂𝛂)𝐱* + ∂𝐪/∂𝛂
//
// The caller evaluates the perturbation direction 𝐛 at the current optimum
// and obtains ∂𝐱*/∂𝛂 from a forward pass, which reuses the factorization
// retained from the preceding solve. The forward pass must therefore be
// requested again after every re-solve: the linearization is only valid at
// the optimum it was factorized for.
package qpdiff

import (
	"gonum.org/v1/gonum/mat"
)

// Status reports how a solve terminated.
type Status int

const (
	// Optimal the unique minimizer was found to working precision.
	Optimal Status = iota
	// Infeasible no point satisfies the constraints.
	Infeasible
	// Unbounded the objective decreases without bound.
	Unbounded
	// NumericalError factorization or iteration broke down.
	NumericalError
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case NumericalError:
		return "NumericalError"
	}
	return "Unknown"
}

// Spec defines one program instance minimize ½ 𝐱ᵀ𝐏𝐱 + 𝐪ᵀ𝐱.
// The backend reads but never mutates the spec.
type Spec struct {
	P *mat.SymDense // quadratic term, n×n positive definite
	Q *mat.VecDense // linear term, length n
}

// Solution is the outcome of one solve.
// X is only meaningful when Status is Optimal.
type Solution struct {
	X      *mat.VecDense
	Status Status
}

// Backend is the capability contract of a differentiable QP solver.
//
// A backend is stateful: Solve retains whatever it needs (typically a
// factorization) so that Forward can answer sensitivity queries about the
// most recent optimum. A backend instance is exclusively owned by one
// sequential caller; concurrent runs each need their own instance.
type Backend interface {
	// Solve computes the minimizer of the given program.
	// A non-Optimal status is reported through Solution.Status, not err;
	// err is reserved for misuse such as dimension mismatch.
	Solve(spec *Spec) (*Solution, error)

	// Forward solves the linearized KKT system 𝐏𝐲 = -𝐝𝐢𝐫 for the response
	// of the primal solution to the parametric perturbation dir, reusing
	// the state of the last Solve. It requires that the last Solve on this
	// backend terminated Optimal. Repeated calls without an intervening
	// Solve return identical responses.
	Forward(dir *mat.VecDense) (*mat.VecDense, error)
}
