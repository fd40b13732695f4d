package builtin

import (
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/fatigue"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// MinRestConstraint 连续两天任务间的最小休息时间
type MinRestConstraint struct {
	*BaseConstraint
}

// NewMinRestConstraint 创建最小休息约束
func NewMinRestConstraint() *MinRestConstraint {
	return &MinRestConstraint{
		BaseConstraint: NewBaseConstraint("任务间最小休息", constraint.TypeRest, constraint.CategoryHard),
	}
}

// Build 每个休息冲突组在同一机组上至多选一个
func (c *MinRestConstraint) Build(ctx *constraint.Context) (int, error) {
	groups := fatigue.RestConflictGroups(ctx.Pairings, ctx.Rules.Location, ctx.Rules.MinRest)
	return c.buildGroups(ctx, groups), nil
}

// IntensityConstraint 高强度任务之间至少间隔一天
type IntensityConstraint struct {
	*BaseConstraint
}

// NewIntensityConstraint 创建高强度间隔约束
func NewIntensityConstraint() *IntensityConstraint {
	return &IntensityConstraint{
		BaseConstraint: NewBaseConstraint("高强度任务间隔", constraint.TypeIntensity, constraint.CategoryHard),
	}
}

// Build 相邻两天开始的高强度任务在同一机组上至多选一个
func (c *IntensityConstraint) Build(ctx *constraint.Context) (int, error) {
	r := ctx.Rules
	groups := fatigue.IntensityGroups(ctx.Pairings, func(p *model.Pairing) bool {
		return r.IsIntense(p.DutySeconds, p.Legs)
	})
	return c.buildGroups(ctx, groups), nil
}

// buildGroups 互斥组 × 机组 写入 Σ x ≤ 1，单元素组省略
func (c *BaseConstraint) buildGroups(ctx *constraint.Context, groups []fatigue.Group) int {
	rows := 0
	for g, group := range groups {
		if len(group.Pairings) < 2 {
			continue
		}
		for i := range ctx.Crew {
			c.addRow(ctx, ctx.Select(i, group.Pairings), mip.LE, 1, "%d_%d", i, g)
			rows++
		}
	}
	return rows
}
