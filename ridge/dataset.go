// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ridge

import (
	"gonum.org/v1/gonum/mat"
)

// Dataset pairs a feature matrix (n samples × d features) with a target
// vector of length n. Datasets are treated as immutable once constructed:
// the solver caches derived quantities (the scaled Gram matrix) across
// iterations under that assumption.
type Dataset struct {
	X *mat.Dense
	Y *mat.VecDense
}

// Dims returns the sample count n and the feature count d.
func (ds Dataset) Dims() (n, d int) {
	if ds.X == nil {
		return 0, 0
	}
	return ds.X.Dims()
}

func (ds Dataset) validate() error {
	if ds.X == nil || ds.Y == nil {
		return solvef(ErrDimensionMismatch, "dataset requires both X and y")
	}
	n, d := ds.X.Dims()
	switch {
	case n <= 0 || d <= 0:
		return solvef(ErrDimensionMismatch, "empty dataset %d×%d", n, d)
	case ds.Y.Len() != n:
		return solvef(ErrDimensionMismatch, "X has %d rows but y has %d", n, ds.Y.Len())
	}
	return nil
}

// Split holds disjoint training and evaluation partitions of one dataset.
// Both partitions must agree on the feature count; the row sets must not
// overlap, which is the caller's responsibility since the core never sees
// the unsplit data.
type Split struct {
	Train, Eval Dataset
}

// Validate checks both partitions and their feature-count agreement.
// All shape errors wrap ErrDimensionMismatch.
func (s Split) Validate() error {
	if err := s.Train.validate(); err != nil {
		return err
	}
	if err := s.Eval.validate(); err != nil {
		return err
	}
	_, dt := s.Train.Dims()
	_, de := s.Eval.Dims()
	if dt != de {
		return solvef(ErrDimensionMismatch, "train has %d features but eval has %d", dt, de)
	}
	return nil
}
