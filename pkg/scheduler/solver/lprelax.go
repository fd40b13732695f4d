package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/paiban/fca/pkg/scheduler/mip"
)

// 稠密矩阵元素上限，超过时跳过松弛求解
const defaultMaxDense = 4_000_000

// LPRelaxation 去掉整数性后的线性松弛
// 松弛问题不可行时原整数问题必然不可行，用于诊断的快速预筛
type LPRelaxation struct {
	maxDense int
}

// NewLPRelaxation 创建线性松弛求解器
func NewLPRelaxation() *LPRelaxation {
	return &LPRelaxation{maxDense: defaultMaxDense}
}

// Name 返回求解器名称
func (s *LPRelaxation) Name() string { return "lp-relaxation" }

type lpResult struct {
	x   []float64
	err error
}

// Solve 求解线性松弛
//
// 返回 StatusOptimal 只说明松弛可行，不代表整数问题可行；
// 规模过大或超时返回 StatusNotSolved。
func (s *LPRelaxation) Solve(ctx context.Context, m *mip.Model, opts Options) (*Solution, error) {
	start := time.Now()
	n := m.NumVars()
	if n == 0 {
		return finish(m, solveTrivial(s.Name(), m), start), nil
	}

	c, g, h := s.generalForm(m)
	ineq := len(h)
	if ineq == 0 {
		return finish(m, &Solution{Solver: s.Name(), Status: StatusUnbounded}, start), nil
	}
	if ineq*(2*n+ineq) > s.maxDense {
		return finish(m, &Solution{Solver: s.Name(), Status: StatusNotSolved, Message: "模型过大，跳过线性松弛"}, start), nil
	}

	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	done := make(chan lpResult, 1)
	go func() {
		cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
		_, x, err := lp.Simplex(cStd, aStd, bStd, 1e-10, nil)
		done <- lpResult{x: x, err: err}
	}()

	var res lpResult
	select {
	case <-ctx.Done():
		return finish(m, &Solution{Solver: s.Name(), Status: StatusNotSolved, Message: ctx.Err().Error()}, start), nil
	case res = <-done:
	}

	sol := &Solution{Solver: s.Name()}
	switch {
	case res.err == nil:
		sol.Status = StatusOptimal
		sol.Values = make([]float64, n)
		for i := range sol.Values {
			sol.Values[i] = res.x[i] - res.x[n+i]
		}
	case errors.Is(res.err, lp.ErrInfeasible):
		sol.Status = StatusInfeasible
	case errors.Is(res.err, lp.ErrUnbounded):
		sol.Status = StatusUnbounded
	default:
		sol.Status = StatusError
		sol.Message = res.err.Error()
	}
	return finish(m, sol, start), nil
}

// generalForm 转为 min cᵀx, Gx ≤ h；等式拆成两条不等式，变量界写成行
func (s *LPRelaxation) generalForm(m *mip.Model) ([]float64, *mat.Dense, []float64) {
	n := m.NumVars()
	sense, obj := m.Objective()
	c := make([]float64, n)
	for _, t := range obj.Compact().Terms {
		if sense == mip.Maximize {
			c[t.Var] = -t.Coef
		} else {
			c[t.Var] = t.Coef
		}
	}

	var (
		rows [][]float64
		h    []float64
	)
	add := func(e mip.Expr, scale, rhs float64) {
		row := make([]float64, n)
		for _, t := range e.Terms {
			row[t.Var] += scale * t.Coef
		}
		rows = append(rows, row)
		h = append(h, scale*rhs)
	}
	for _, r := range m.Rows() {
		switch r.Sense {
		case mip.LE:
			add(r.Expr, 1, r.RHS)
		case mip.GE:
			add(r.Expr, -1, r.RHS)
		default:
			add(r.Expr, 1, r.RHS)
			add(r.Expr, -1, r.RHS)
		}
	}
	for i, v := range m.Vars() {
		e := mip.Sum(mip.Var(i))
		if !math.IsInf(v.Upper, 1) {
			add(e, 1, v.Upper)
		}
		if !math.IsInf(v.Lower, -1) {
			add(e, -1, v.Lower)
		}
	}

	if len(rows) == 0 {
		return c, nil, nil
	}
	g := mat.NewDense(len(rows), n, nil)
	for i, row := range rows {
		g.SetRow(i, row)
	}
	return c, g, h
}
