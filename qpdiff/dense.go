// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qpdiff

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrBadDimension the spec or direction shape does not match the backend.
	ErrBadDimension = errors.New("qpdiff: dimension mismatch")
	// ErrNotSolved forward pass requested without a preceding optimal solve.
	ErrNotSolved = errors.New("qpdiff: no optimal solve to differentiate")
)

// Dense is a direct backend for unconstrained strictly convex programs.
//
// Solve factorizes 𝐏 = 𝐋𝐋ᵀ (Cholesky) and obtains 𝐱* from 𝐏𝐱* = -𝐪.
// The factorization is retained so that Forward answers each sensitivity
// query with two triangular substitutions instead of a fresh factorization.
//
// Since breakdown of the Cholesky factorization is the only way a dense
// unconstrained solve can fail, Dense never reports Infeasible or Unbounded;
// an indefinite or ill-conditioned 𝐏 surfaces as NumericalError.
//
// A Dense instance owns its scratch buffers and is not safe for concurrent
// use. Reusing one instance across sequential solves avoids reallocation.
type Dense struct {
	n      int
	chol   mat.Cholesky
	solved bool
	x      *mat.VecDense
	neg    *mat.VecDense
}

// NewDense creates a backend for programs of dimension n.
func NewDense(n int) *Dense {
	return &Dense{
		n:   n,
		x:   mat.NewVecDense(n, nil),
		neg: mat.NewVecDense(n, nil),
	}
}

// Solve implements Backend.
func (d *Dense) Solve(spec *Spec) (*Solution, error) {
	d.solved = false

	if spec == nil || spec.P == nil || spec.Q == nil {
		return nil, ErrBadDimension
	}
	if n := spec.P.SymmetricDim(); n != d.n || spec.Q.Len() != d.n {
		return nil, ErrBadDimension
	}

	if ok := d.chol.Factorize(spec.P); !ok {
		return &Solution{Status: NumericalError}, nil
	}

	d.neg.ScaleVec(-1, spec.Q)
	if err := d.chol.SolveVecTo(d.x, d.neg); err != nil {
		return &Solution{Status: NumericalError}, nil
	}

	d.solved = true
	return &Solution{X: d.x, Status: Optimal}, nil
}

// Forward implements Backend.
// The response is written to a fresh vector, so successive calls with the
// same direction are bit-identical and never alias each other.
func (d *Dense) Forward(dir *mat.VecDense) (*mat.VecDense, error) {
	if !d.solved {
		return nil, ErrNotSolved
	}
	if dir == nil || dir.Len() != d.n {
		return nil, ErrBadDimension
	}

	rhs := mat.NewVecDense(d.n, nil)
	rhs.ScaleVec(-1, dir)

	resp := mat.NewVecDense(d.n, nil)
	if err := d.chol.SolveVecTo(resp, rhs); err != nil {
		return nil, err
	}
	return resp, nil
}
