// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package numdiff

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func curve3(t float64, y []float64) error {
	y[0] = math.Sin(t)
	y[1] = t * t
	y[2] = math.Exp(t)
	return nil
}

func grad3(t float64) []float64 {
	return []float64{math.Cos(t), 2 * t, math.Exp(t)}
}

func TestForward(t *testing.T) {

	cs := CurveSpec{M: 3, Curve: curve3, Method: Forward}

	for _, t0 := range []float64{-1.5, 0, 0.3, 2} {
		df := make([]float64, 3)
		if err := cs.Diff(t0, df); err != nil {
			t.Fatal(err)
		}
		if !almostEqual(df, grad3(t0), 1e-6) {
			t.Fatalf("bad forward approx at %g: %v", t0, df)
		}
	}
}

func TestCentral(t *testing.T) {

	cs := CurveSpec{M: 3, Curve: curve3, Method: Central}

	for _, t0 := range []float64{-1.5, 0, 0.3, 2} {
		df := make([]float64, 3)
		if err := cs.Diff(t0, df); err != nil {
			t.Fatal(err)
		}
		if !almostEqual(df, grad3(t0), 1e-8) {
			t.Fatalf("bad central approx at %g: %v", t0, df)
		}
	}
}

// The curve rejects negative parameters, so the bound must keep every probe
// non-negative even when t0 sits on the boundary.
func TestBoundedProbe(t *testing.T) {

	curve := func(t float64, y []float64) error {
		if t < 0 {
			return errors.New("negative parameter")
		}
		y[0] = t * math.Sqrt(t)
		return nil
	}

	for _, method := range []Method{Forward, Central} {
		cs := CurveSpec{
			M:      1,
			Curve:  curve,
			Method: method,
			Bound:  Bound{0, math.Inf(1)},
		}

		df := make([]float64, 1)
		if err := cs.Diff(0.25, df); err != nil {
			t.Fatal(err)
		}
		if !almostEqual(df[0], 1.5*math.Sqrt(0.25), 1e-6) {
			t.Fatalf("bad bounded approx: %v", df)
		}

		// Boundary point forces the one-sided scheme.
		if err := cs.Diff(0, df); err != nil {
			t.Fatal("boundary probe left the domain:", err)
		}
	}
}

func TestCurveError(t *testing.T) {

	boom := errors.New("solve failed")
	cs := CurveSpec{
		M:      1,
		Method: Central,
		Curve: func(t float64, y []float64) error {
			return boom
		},
	}

	df := make([]float64, 1)
	if err := cs.Diff(1, df); !errors.Is(err, boom) {
		t.Fatal("curve error not propagated")
	}
}

func TestBadSpec(t *testing.T) {

	df := make([]float64, 1)

	for _, cs := range []CurveSpec{
		{M: 0, Curve: curve3},
		{M: 1, Curve: nil},
		{M: 1, Curve: curve3, Method: Method(7)},
		{M: 2, Curve: curve3},
		{M: 1, Curve: curve3, Bound: Bound{1, -1}},
	} {
		if err := cs.Diff(0.5, df); err == nil {
			t.Fatalf("invalid spec accepted: %+v", cs)
		}
	}
}

func almostEqual[T float64 | []float64](a, b T, tol float64) bool {
	equalWithinAbs := func(a, b float64) bool {
		return a == b || math.Abs(a-b) <= tol
	}
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float64:
		return equalWithinAbs(any(a).(float64), any(b).(float64))
	case reflect.Slice:
		a, b := any(a).([]float64), any(b).([]float64)
		if len(a) != len(b) {
			return false
		}
		for i, a := range a {
			if !equalWithinAbs(a, b[i]) {
				return false
			}
		}
		return true
	}
	return false
}
