// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tune

// Policy maps the composed outer gradient to the next hyperparameter value.
// iter is the 1-based index of the iteration that just completed.
type Policy interface {
	Next(iter int, alpha, grad float64) float64
}

// FixedStep descends with a constant step size: 𝛂 ← 𝛂 - η·𝒈.
type FixedStep float64

// Next implements Policy.
func (s FixedStep) Next(_ int, alpha, grad float64) float64 {
	return alpha - float64(s)*grad
}
