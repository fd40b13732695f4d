package builtin

import (
	"fmt"
	"math"

	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// ChunksConstraint 工作段数与连续休息日
//
// 工作段 = Σ_d max(0, day_d − day_{d+1})，排班期末尾视为休息，
// 因此段数即连续工作块的个数。TDY 机组只允许一个工作块。
// 连续休息日 cdo_d ∈ {0,1}，cdo_d ≤ (2 − day_d − day_{d+1}) / 2。
type ChunksConstraint struct {
	*BaseConstraint
}

// NewChunksConstraint 创建工作段约束
func NewChunksConstraint() *ChunksConstraint {
	return &ChunksConstraint{
		BaseConstraint: NewBaseConstraint("工作段与连续休息", constraint.TypeChunks, constraint.CategorySoft),
	}
}

// Build 为每名机组建立工作段与连续休息变量，写入 ctx.Chunks 与 ctx.CDO
func (c *ChunksConstraint) Build(ctx *constraint.Context) (int, error) {
	m := ctx.Model
	n := ctx.Index.Len()
	ctx.Chunks = make([]mip.Expr, len(ctx.Crew))
	ctx.CDO = make([]mip.Expr, len(ctx.Crew))
	if n == 0 {
		return 0, nil
	}

	rows := 0
	for i, crew := range ctx.Crew {
		var total mip.Expr
		for d := 0; d < n; d++ {
			diff := ctx.DayLoad(i, d)
			if diff.IsEmpty() {
				continue
			}
			if d+1 < n {
				diff = diff.Plus(ctx.DayLoad(i, d+1), -1)
			}
			ub := math.Max(1, m.UpperBound(diff))
			step := m.NewContinuous(fmt.Sprintf("chunk_%d_%d", i, d), 0, ub)
			c.addRow(ctx, diff.Add(step, -1), mip.LE, 0, "step_%d_%d", i, d)
			total.Push(step, 1)
			rows++
		}

		chnk := m.AddVar(fmt.Sprintf("chnk_%d", i), mip.Integer, 0, float64(n))
		c.addRow(ctx, total.Add(chnk, -1), mip.LE, 0, "count_%d", i)
		rows++
		if crew.TDY {
			c.addRow(ctx, total, mip.LE, 1, "tdy_%d", i)
			rows++
		}
		ctx.Chunks[i] = mip.Sum(chnk)

		var cdo mip.Expr
		for d := 0; d+1 < n; d++ {
			pair := ctx.DayLoad(i, d).Plus(ctx.DayLoad(i, d+1), 1)
			v := m.NewBinary(fmt.Sprintf("cdo_%d_%d", i, d))
			c.addRow(ctx, pair.Add(v, 2), mip.LE, 2, "cdo_%d_%d", i, d)
			cdo.Push(v, 1)
			rows++
		}
		ctx.CDO[i] = cdo
	}
	return rows, nil
}
