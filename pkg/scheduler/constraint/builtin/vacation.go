package builtin

import (
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// VacationConstraint 休假/冻结日期不得分配任务
type VacationConstraint struct {
	*BaseConstraint
}

// NewVacationConstraint 创建休假约束
func NewVacationConstraint() *VacationConstraint {
	return &VacationConstraint{
		BaseConstraint: NewBaseConstraint("休假日期", constraint.TypeVacation, constraint.CategoryHard),
	}
}

// Build 对有冻结日期的机组写入 Σ_{p 触及冻结日} x = 0
func (c *VacationConstraint) Build(ctx *constraint.Context) (int, error) {
	rows := 0
	for i, crew := range ctx.Crew {
		touching := ctx.Index.TouchingSet(crew.Blocked)
		if len(touching) == 0 {
			continue
		}
		c.addRow(ctx, ctx.Select(i, touching), mip.EQ, 0, "%d", i)
		rows++
	}
	return rows, nil
}
