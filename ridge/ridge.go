// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ridge formulates regularized least-squares as a parameterized
// convex quadratic program and differentiates its solution with respect to
// the regularization weight.
//
// For n training samples, d features and regularization weight 𝛂 ≥ 0 the
// inner problem is
//
//	minimize 𝒇(𝐰;𝛂) = 1/(2nd)·‖𝐗𝐰 - 𝐲‖² + 𝛂/(2d)·‖𝐰‖²
//
// which is the standard-form program ½𝐰ᵀ𝐏𝐰 + 𝐪ᵀ𝐰 with
//
//	𝐏 = 𝐗ᵀ𝐗/nd + (𝛂/d)𝐈   𝐪 = -𝐗ᵀ𝐲/nd
//
// The quadratic-program formulation is deliberate: the closed-form normal
// equations would pin the machinery to this one objective, while routing the
// solve through a qpdiff.Backend lets the same sensitivity mechanism serve
// any convex program the backend can differentiate.
//
// At the optimum the stationarity condition 𝜵𝒇(𝐰*,𝛂) = 0 holds, and since 𝛂
// enters the gradient only through the regularizer,
//
//	∂/∂𝛂 [𝜵𝒇(𝐰,𝛂)] = 𝐰/d  (𝐰 fixed)
//
// is the perturbation direction handed to the backend's forward pass, whose
// response is ∂𝐰*/∂𝛂.
package ridge

import (
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/bilevel/qpdiff"
)

// Solver builds and solves the inner program for varying 𝛂 against a fixed
// training set. The scaled Gram matrix 𝐗ᵀ𝐗/nd and the linear term are
// computed once at construction; each solve only rewrites the 𝛂-dependent
// diagonal, and the backend instance is reused across solves as warm-start
// scratch. A Solver is owned by one sequential run and must not be shared.
type Solver struct {
	backend qpdiff.Backend
	n, d    int

	gram *mat.SymDense // 𝐗ᵀ𝐗/nd, fixed
	spec qpdiff.Spec   // spec.P rebuilt per solve, spec.Q fixed
	w    *mat.VecDense // last optimum, stable across the iteration
	dir  *mat.VecDense // perturbation scratch

	solved bool
}

// NewSolver validates the training data and precomputes the 𝛂-independent
// parts of the program. A nil backend defaults to qpdiff.NewDense.
func NewSolver(train Dataset, backend qpdiff.Backend) (*Solver, error) {
	if err := train.validate(); err != nil {
		return nil, err
	}
	n, d := train.Dims()
	if backend == nil {
		backend = qpdiff.NewDense(d)
	}

	scale := 1 / (float64(n) * float64(d))

	gram := mat.NewSymDense(d, nil)
	gram.SymOuterK(scale, train.X.T())

	lin := mat.NewVecDense(d, nil)
	lin.MulVec(train.X.T(), train.Y)
	lin.ScaleVec(-scale, lin)

	return &Solver{
		backend: backend,
		n:       n, d: d,
		gram: gram,
		spec: qpdiff.Spec{P: mat.NewSymDense(d, nil), Q: lin},
		w:    mat.NewVecDense(d, nil),
		dir:  mat.NewVecDense(d, nil),
	}, nil
}

// Dims returns the training sample count n and the feature count d.
func (s *Solver) Dims() (n, d int) { return s.n, s.d }

// Solve computes the unique minimizer for the given 𝛂.
// The returned vector stays valid until the next Solve on this Solver.
// A backend that terminates non-Optimal fails the call with
// ErrInnerSolveDivergence carrying the reported status; the caller must
// abort the enclosing iteration rather than reuse a stale solution.
func (s *Solver) Solve(alpha float64) (*mat.VecDense, error) {
	s.solved = false

	s.spec.P.CopySym(s.gram)
	reg := alpha / float64(s.d)
	for i := 0; i < s.d; i++ {
		s.spec.P.SetSym(i, i, s.gram.At(i, i)+reg)
	}

	sol, err := s.backend.Solve(&s.spec)
	if err != nil {
		return nil, solvef(ErrInnerSolveDivergence, "backend: %v", err)
	}
	if sol.Status != qpdiff.Optimal {
		return nil, solvef(ErrInnerSolveDivergence, "backend status %s at alpha=%g", sol.Status, alpha)
	}

	s.w.CopyVec(sol.X)
	s.solved = true
	return s.w, nil
}

// Sensitivity computes ∂𝐰*/∂𝛂 at the optimum of the last Solve by requesting
// a forward pass along the direction 𝐰*/d. It must be called again after
// every re-solve: the backend's KKT linearization is evaluated at the
// current optimum, which moves with 𝛂. Repeated calls without an
// intervening Solve yield identical vectors.
func (s *Solver) Sensitivity() (*mat.VecDense, error) {
	if !s.solved {
		return nil, solvef(ErrSensitivityUnavailable, "no optimal solve to differentiate")
	}
	s.dir.ScaleVec(1/float64(s.d), s.w)
	resp, err := s.backend.Forward(s.dir)
	if err != nil {
		return nil, solvef(ErrSensitivityUnavailable, "forward pass: %v", err)
	}
	return resp, nil
}
