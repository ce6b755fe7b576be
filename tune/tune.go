// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tune drives bilevel hyperparameter learning by gradient descent.
//
// Each outer iteration solves the inner regularized least-squares problem at
// the current regularization weight 𝛂, evaluates the held-out loss, obtains
// d(𝚕𝚘𝚜𝚜)/d𝛂 analytically through the solver's forward sensitivity, and
// steps 𝛂 against the gradient. The run terminates Converged when the
// gradient magnitude falls below tolerance, BudgetExhausted when the
// iteration limit is reached, or Diverged when an inner solve or sensitivity
// computation fails; in every case the recorded (𝛂, loss) trajectory is
// returned to the caller.
//
// The algorithm is strictly sequential within one run: each iteration reads
// the 𝛂 written by the previous one and reuses the solver's warm-start
// scratch. Independent runs are isolated through separate workspaces and may
// execute concurrently with no coordination.
package tune

import (
	"errors"
	"log/slog"
	"math"

	"github.com/curioloop/bilevel/qpdiff"
	"github.com/curioloop/bilevel/ridge"
)

// State of the outer tuning run.
type State int

const (
	// Running the run is still iterating; never reported to callers.
	Running State = iota
	// Converged the gradient magnitude fell below tolerance.
	Converged
	// BudgetExhausted the iteration limit was reached before convergence.
	BudgetExhausted
	// Diverged an inner solve or sensitivity computation failed.
	Diverged
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Converged:
		return "Converged"
	case BudgetExhausted:
		return "BudgetExhausted"
	case Diverged:
		return "Diverged"
	}
	return "Unknown"
}

// Point is one recorded outer iteration.
type Point struct {
	Alpha, Loss float64
}

// Problem specifies one bilevel tuning problem.
type Problem struct {
	// Disjoint training and evaluation partitions.
	Data ridge.Split
	// The gradient-magnitude tolerance ε: |𝒈| ≤ ε terminates the run.
	GradTol float64
	// The iteration limit K.
	MaxIterations int
	// Step size η for the default fixed-step policy.
	// Ignored when Policy is set.
	Step float64
	// Optional update policy; nil selects FixedStep(Step).
	Policy Policy
	// Updated 𝛂 values are clamped from below to keep the inner problem
	// convex. The zero value clamps at 0; set math.Inf(-1) to disable.
	AlphaFloor float64
	// Optional factory for the inner QP backend of each workspace;
	// nil selects qpdiff.NewDense.
	Backend func(d int) qpdiff.Backend
	// Optional logger for per-iteration records. The tuner never logs
	// through a nil logger.
	Logger *slog.Logger
}

// New validates the problem and creates a tuner.
// All data shapes are checked here, once, so shape errors surface before the
// first solve rather than mid-loop.
func (p *Problem) New() (*Tuner, error) {

	if err := p.Data.Validate(); err != nil {
		return nil, err
	}

	policy := p.Policy
	if policy == nil {
		policy = FixedStep(p.Step)
	}

	switch {
	case p.MaxIterations <= 0:
		return nil, errors.New("max iteration must greater than 0")
	case p.GradTol <= 0 || math.IsNaN(p.GradTol):
		return nil, errors.New("gradient tolerance must greater than 0")
	case p.Policy == nil && (p.Step <= 0 || math.IsNaN(p.Step)):
		return nil, errors.New("step size must greater than 0")
	case math.IsNaN(p.AlphaFloor):
		return nil, errors.New("alpha floor must not be NaN")
	}

	t := &Tuner{Problem: *p}
	t.Policy = policy
	return t, nil
}

// Tuner runs gradient descent over the regularization weight.
// One Tuner may be shared by multiple goroutines as long as each uses its
// own Workspace.
type Tuner struct {
	Problem
}

// Workspace owns the mutable per-run state: the inner solver with its warm
// started backend scratch. Workspaces must not be shared between concurrent
// runs; the solver's internal state is exclusively owned by one run at a
// time.
type Workspace struct {
	solver *ridge.Solver
}

// Init allocates a workspace for one tuning run.
// To avoid race conditions, separate workspaces need to be created for each
// goroutine, but multiple workspaces could share one tuner.
func (t *Tuner) Init() *Workspace {
	_, d := t.Data.Train.Dims()
	var backend qpdiff.Backend
	if t.Backend != nil {
		backend = t.Backend(d)
	}
	solver, err := ridge.NewSolver(t.Data.Train, backend)
	if err != nil {
		// Data was validated in New; reaching here means the workspace
		// was initialized from a hand-built Tuner.
		panic(err)
	}
	return &Workspace{solver: solver}
}

// Result of one tuning run.
type Result struct {
	OK         bool    // Whether the run terminated without failure.
	Alpha      float64 // Final hyperparameter after the last update.
	Loss       float64 // Held-out loss of the last recorded point.
	Trajectory []Point // Recorded (𝛂, loss) per iteration, append-only.
	Err        error   // Originating failure when State is Diverged.
	Summary            // Run summary.
}

// Summary of the tuning run.
type Summary struct {
	State   State // Terminal state of the run.
	NumIter int   // Number of outer iterations performed.
}

// Fit runs the descent from the starting hyperparameter alpha using
// workspace w.
//
// Every iteration that reaches a solved inner problem records exactly one
// trajectory point before anything else can fail, so a Converged or
// BudgetExhausted trajectory has between 1 and MaxIterations points and a
// first iteration that already satisfies the tolerance still records one.
// On Diverged the partial trajectory recorded so far is returned for
// diagnostics together with the originating error.
func (t *Tuner) Fit(alpha float64, w *Workspace) *Result {

	if _, d := t.Data.Train.Dims(); w == nil || w.solver == nil {
		panic("workspace not initialized")
	} else if _, wd := w.solver.Dims(); wd != d {
		panic("workspace dimension not match problem")
	}

	traj := make([]Point, 0, t.MaxIterations)

	res := &Result{Alpha: alpha}
	fail := func(err error) *Result {
		res.Trajectory = traj
		res.Err = err
		res.Summary.State = Diverged
		return res
	}

	for iter := 1; iter <= t.MaxIterations; iter++ {
		res.NumIter = iter

		if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
			return fail(errors.New("hyperparameter is not finite"))
		}

		wv, err := w.solver.Solve(alpha)
		if err != nil {
			return fail(err)
		}
		loss, err := ridge.EvalLoss(t.Data.Eval, wv)
		if err != nil {
			return fail(err)
		}
		traj = append(traj, Point{Alpha: alpha, Loss: loss})
		res.Loss = loss

		sens, err := w.solver.Sensitivity()
		if err != nil {
			return fail(err)
		}
		grad, err := ridge.LossGrad(t.Data.Eval, wv, sens)
		if err != nil {
			return fail(err)
		}

		alpha = t.Policy.Next(iter, alpha, grad)
		if alpha < t.AlphaFloor {
			alpha = t.AlphaFloor
		}
		res.Alpha = alpha

		if t.Logger != nil {
			t.Logger.Debug("outer iteration",
				"iter", iter, "alpha", traj[iter-1].Alpha, "loss", loss, "grad", grad)
		}

		if math.Abs(grad) <= t.GradTol {
			res.OK = true
			res.Trajectory = traj
			res.Summary.State = Converged
			return res
		}
	}

	res.OK = true
	res.Trajectory = traj
	res.Summary.State = BudgetExhausted
	return res
}
