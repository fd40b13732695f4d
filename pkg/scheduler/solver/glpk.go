//go:build glpk

package solver

import (
	"context"
	"time"

	"github.com/lukpank/go-glpk/glpk"

	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

func init() {
	Register("glpk", func(Config) Solver { return NewGLPKSolver() })
}

// GLPKSolver 通过 cgo 调用 GLPK
type GLPKSolver struct{}

// NewGLPKSolver 创建 GLPK 求解器
func NewGLPKSolver() *GLPKSolver { return &GLPKSolver{} }

// Name 返回求解器名称
func (s *GLPKSolver) Name() string { return "glpk" }

// Solve 单纯形求根节点后分支定界
func (s *GLPKSolver) Solve(ctx context.Context, m *mip.Model, opts Options) (*Solution, error) {
	start := time.Now()
	if m.NumVars() == 0 {
		return finish(m, solveTrivial(s.Name(), m), start), nil
	}
	if opts.TimeLimit > 0 {
		logger.Warn().Dur("time_limit", opts.TimeLimit).Msg("glpk 绑定不支持时间上限，将运行至结束")
	}

	lp := glpk.New()
	defer lp.Delete()
	lp.SetProbName(m.Name)
	sense, obj := m.Objective()
	if sense == mip.Minimize {
		lp.SetObjDir(glpk.ObjDir(glpk.MIN))
	} else {
		lp.SetObjDir(glpk.ObjDir(glpk.MAX))
	}

	vars := m.Vars()
	lp.AddCols(len(vars))
	for i, v := range vars {
		col := i + 1
		lp.SetColName(col, v.Name)
		switch v.Kind {
		case mip.Binary:
			lp.SetColKind(col, glpk.VarType(glpk.BV))
		case mip.Integer:
			lp.SetColKind(col, glpk.VarType(glpk.IV))
			lp.SetColBnds(col, glpk.BndsType(glpk.DB), v.Lower, v.Upper)
		default:
			lp.SetColKind(col, glpk.VarType(glpk.CV))
			lp.SetColBnds(col, glpk.BndsType(glpk.DB), v.Lower, v.Upper)
		}
	}
	for _, t := range obj.Compact().Terms {
		lp.SetObjCoef(int(t.Var)+1, t.Coef)
	}

	rows := m.Rows()
	lp.AddRows(len(rows))
	for i, r := range rows {
		row := i + 1
		lp.SetRowName(row, r.Name)
		switch r.Sense {
		case mip.LE:
			lp.SetRowBnds(row, glpk.BndsType(glpk.UP), 0, r.RHS)
		case mip.GE:
			lp.SetRowBnds(row, glpk.BndsType(glpk.LO), r.RHS, 0)
		default:
			lp.SetRowBnds(row, glpk.BndsType(glpk.FX), r.RHS, r.RHS)
		}
		// 下标从 1 开始，ind[0]/val[0] 不使用
		ind := []int32{0}
		val := []float64{0}
		for _, t := range r.Expr.Terms {
			ind = append(ind, int32(t.Var)+1)
			val = append(val, t.Coef)
		}
		lp.SetMatRow(row, ind, val)
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeTimeout, "求解前已取消")
	}

	param := glpk.NewSmcp()
	param.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	if err := lp.Simplex(param); err != nil {
		return nil, apperrors.SolverError(s.Name(), err)
	}

	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))
	// 预处理开启时松弛问题无可行解会以错误返回
	if err := lp.Intopt(iocp); err != nil {
		return finish(m, &Solution{Solver: s.Name(), Status: StatusInfeasible, Message: err.Error()}, start), nil
	}

	sol := &Solution{Solver: s.Name()}
	switch lp.MipStatus() {
	case glpk.OPT:
		sol.Status = StatusOptimal
	case glpk.FEAS:
		sol.Status = StatusFeasible
	case glpk.NOFEAS:
		sol.Status = StatusInfeasible
		return finish(m, sol, start), nil
	default:
		sol.Status = StatusNotSolved
		return finish(m, sol, start), nil
	}
	sol.Values = make([]float64, len(vars))
	for i := range vars {
		sol.Values[i] = lp.MipColVal(i + 1)
	}
	return finish(m, sol, start), nil
}
