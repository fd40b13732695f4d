package builtin

import (
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// CoverageConstraint 每个任务恰好分配给一名机组
type CoverageConstraint struct {
	*BaseConstraint
}

// NewCoverageConstraint 创建任务覆盖约束
func NewCoverageConstraint() *CoverageConstraint {
	return &CoverageConstraint{
		BaseConstraint: NewBaseConstraint("任务覆盖", constraint.TypeCoverage, constraint.CategoryHard),
	}
}

// Build 对每个任务写入 Σ_c x[c][p] = 1
func (c *CoverageConstraint) Build(ctx *constraint.Context) (int, error) {
	rows := 0
	for p := range ctx.Pairings {
		var e mip.Expr
		for crew := range ctx.Crew {
			e.Push(ctx.X[crew][p], 1)
		}
		c.addRow(ctx, e, mip.EQ, 1, "%d", p)
		rows++
	}
	return rows, nil
}

// DayBoundsConstraint 每名机组的工作天数恰好等于定额
type DayBoundsConstraint struct {
	*BaseConstraint
}

// NewDayBoundsConstraint 创建工作天数约束
func NewDayBoundsConstraint() *DayBoundsConstraint {
	return &DayBoundsConstraint{
		BaseConstraint: NewBaseConstraint("工作天数定额", constraint.TypeDayBounds, constraint.CategoryHard),
	}
}

// Build 对每名机组写入 Σ mult·x ≤ 定额 与 Σ mult·x ≥ 定额
func (c *DayBoundsConstraint) Build(ctx *constraint.Context) (int, error) {
	rows := 0
	for i, crew := range ctx.Crew {
		var e mip.Expr
		for p, pr := range ctx.Pairings {
			e.Push(ctx.X[i][p], float64(pr.Mult))
		}
		c.addRow(ctx, e, mip.LE, float64(crew.MaxDays()), "max_%d", i)
		c.addRow(ctx, e, mip.GE, float64(crew.MinDays()), "min_%d", i)
		rows += 2
	}
	return rows, nil
}

// OnePerDayConstraint 每名机组每天最多一个任务
type OnePerDayConstraint struct {
	*BaseConstraint
}

// NewOnePerDayConstraint 创建每日单任务约束
func NewOnePerDayConstraint() *OnePerDayConstraint {
	return &OnePerDayConstraint{
		BaseConstraint: NewBaseConstraint("每日单任务", constraint.TypeOnePerDay, constraint.CategoryHard),
	}
}

// Build 对每名机组、每天写入 Σ_{p 占用该天} x ≤ 1；单任务天省略
func (c *OnePerDayConstraint) Build(ctx *constraint.Context) (int, error) {
	rows := 0
	for i := range ctx.Crew {
		for d := 0; d < ctx.Index.Len(); d++ {
			if len(ctx.Index.Touching(d)) < 2 {
				continue
			}
			c.addRow(ctx, ctx.DayLoad(i, d), mip.LE, 1, "%d_%d", i, d)
			rows++
		}
	}
	return rows, nil
}
