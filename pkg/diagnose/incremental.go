package diagnose

import (
	"context"
	"fmt"

	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/constraint/builtin"
	"github.com/paiban/fca/pkg/scheduler/solver"
)

// groupLabels 增量搜索中约束组的显示名称
var groupLabels = map[constraint.Type]string{
	constraint.TypeCoverage:    "Coverage (all pairings assigned once)",
	constraint.TypeDayBounds:   "Min/max days per crew",
	constraint.TypeOnePerDay:   "One duty per day",
	constraint.TypeWindows:     "Work window limits (7-in-8, etc.)",
	constraint.TypeRest:        "Minimum rest between duties",
	constraint.TypeVacation:    "Vacation and restriction days",
	constraint.TypeDutyOverage: "Heavy duty overage cap",
}

// GroupLabel 约束组显示名称
func GroupLabel(t constraint.Type) string {
	if l, ok := groupLabels[t]; ok {
		return l
	}
	return string(t)
}

// stepOutcome 单步可行性结论
type stepOutcome int

const (
	stepFeasible stepOutcome = iota
	stepInfeasible
	stepInconclusive
)

// step 单步可行性求解记录
type step struct {
	group   constraint.Type
	rows    int
	outcome stepOutcome
	status  solver.Status
	by      string
	message string
}

// incremental 依次加入约束组并求解可行性问题
//
// 每一步先做线性松弛预筛：松弛不可行则整数问题必然不可行，不再调用整数求解器。
// 第一个使问题不可行的约束组即为可能的根因。
func (e *Engine) incremental(ctx context.Context, d *data) []DiagnosticReport {
	if len(d.Crew) == 0 || len(d.Pairings) == 0 {
		return []DiagnosticReport{fail(CheckFeasibilityTest, "无法测试可行性：没有机组或没有任务", nil)}
	}

	order := append([]constraint.Type{}, builtin.DiagnosticOrder...)
	if e.extended {
		order = append(order, builtin.ExtendedDiagnosticOrder...)
	}

	mctx := constraint.NewContext(d.Base, d.Seat, d.Horizon, d.Crew, d.Pairings, d.Rules)
	var (
		lastFeasible constraint.Type
		steps        []step
	)
	for _, t := range order {
		c, err := builtin.New(t)
		if err != nil {
			return []DiagnosticReport{fail(CheckFeasibilityTest, err.Error(), nil)}
		}
		rows, err := c.Build(mctx)
		if err != nil {
			return []DiagnosticReport{fail(CheckFeasibilityTest,
				fmt.Sprintf("构建约束组 %s 失败: %v", GroupLabel(t), err), nil)}
		}

		st := e.solveStep(ctx, mctx, t, rows)
		steps = append(steps, st)
		e.log.Debug().
			Str("group", string(t)).
			Int("rows", rows).
			Str("status", string(st.status)).
			Str("by", st.by).
			Msg("增量可行性步骤")

		details := map[string]interface{}{
			"failed_group":  string(t),
			"last_feasible": lastFeasibleValue(lastFeasible),
			"status":        string(st.status),
			"solver":        st.by,
		}
		switch st.outcome {
		case stepInfeasible:
			return []DiagnosticReport{fail(CheckFeasibilityPrefix+GroupLabel(t),
				fmt.Sprintf("加入约束组 '%s' 后问题不可行，上一个可行状态: %s", GroupLabel(t), lastFeasibleLabel(lastFeasible)),
				details)}
		case stepInconclusive:
			return []DiagnosticReport{warn(CheckFeasibilityPrefix+GroupLabel(t),
				fmt.Sprintf("约束组 '%s' 的可行性无法确定: %s", GroupLabel(t), st.message),
				details)}
		}
		lastFeasible = t
	}

	details := map[string]interface{}{"groups": len(steps), "last_feasible": string(lastFeasible)}
	if e.solver == nil {
		return []DiagnosticReport{warn(CheckFeasibilityTest,
			"核心约束的线性松弛可行，但没有可用的整数求解器确认", details)}
	}
	return []DiagnosticReport{pass(CheckFeasibilityTest,
		"核心约束下问题可行。如果完整优化仍然失败，请检查偏好相关约束", details)}
}

// solveStep 对当前约束集合做一次零目标求解
func (e *Engine) solveStep(ctx context.Context, mctx *constraint.Context, t constraint.Type, rows int) step {
	st := step{group: t, rows: rows}
	m := mctx.Model.FeasibilityCopy()

	if e.prescreen != nil {
		sol, err := e.prescreen.Solve(ctx, m, e.stepOptions)
		if err == nil && (sol.Status == solver.StatusInfeasible || sol.Status == solver.StatusUnbounded) {
			st.outcome, st.status, st.by = stepInfeasible, sol.Status, e.prescreen.Name()
			return st
		}
		if e.solver == nil {
			if err == nil && sol.Status.HasSolution() {
				st.outcome, st.status, st.by = stepFeasible, sol.Status, e.prescreen.Name()
				return st
			}
			st.outcome, st.status, st.by = stepInconclusive, solver.StatusNotSolved, e.prescreen.Name()
			st.message = "线性松弛未得出结论，且没有可用的整数求解器"
			return st
		}
	}
	if e.solver == nil {
		st.outcome, st.status = stepInconclusive, solver.StatusNotSolved
		st.message = "没有可用的求解器"
		return st
	}

	st.by = e.solver.Name()
	sol, err := e.solver.Solve(ctx, m, e.stepOptions)
	if err != nil {
		st.outcome, st.status, st.message = stepInconclusive, solver.StatusError, err.Error()
		return st
	}
	st.status = sol.Status
	switch {
	case sol.Status.HasSolution():
		st.outcome = stepFeasible
	case sol.Status == solver.StatusInfeasible || sol.Status == solver.StatusUnbounded:
		st.outcome = stepInfeasible
	default:
		st.outcome = stepInconclusive
		st.message = fmt.Sprintf("求解器状态 %s", sol.Status)
		if sol.Message != "" {
			st.message += ": " + sol.Message
		}
	}
	return st
}

func lastFeasibleValue(t constraint.Type) interface{} {
	if t == "" {
		return nil
	}
	return string(t)
}

func lastFeasibleLabel(t constraint.Type) string {
	if t == "" {
		return "none"
	}
	return string(t)
}
