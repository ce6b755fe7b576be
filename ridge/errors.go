// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ridge

import (
	"errors"
	"fmt"
)

var (
	// ErrInnerSolveDivergence the backend failed to reach optimality.
	// Not recoverable for the current iteration: the solve is deterministic,
	// so retrying with identical inputs is futile.
	ErrInnerSolveDivergence = errors.New("inner solve divergence")
	// ErrSensitivityUnavailable the linearized KKT system could not be solved
	// at the current optimum.
	ErrSensitivityUnavailable = errors.New("sensitivity unavailable")
	// ErrDimensionMismatch caller-supplied data shapes are inconsistent.
	// Indicates misuse; checked up front rather than mid-loop.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// SolveError wraps one of the sentinel kinds with the failing detail.
type SolveError struct {
	Kind error
	Msg  string
}

func (e *SolveError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *SolveError) Unwrap() error { return e.Kind }

func solvef(kind error, format string, args ...any) error {
	return &SolveError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
