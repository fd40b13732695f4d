package builtin

import (
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// DutyOverageConstraint 长执勤/多航段任务数量上限
type DutyOverageConstraint struct {
	*BaseConstraint
}

// NewDutyOverageConstraint 创建执勤超额约束
func NewDutyOverageConstraint() *DutyOverageConstraint {
	return &DutyOverageConstraint{
		BaseConstraint: NewBaseConstraint("执勤超额上限", constraint.TypeDutyOverage, constraint.CategoryHard),
	}
}

// Build 每名机组的重任务数不超过基地上限
func (c *DutyOverageConstraint) Build(ctx *constraint.Context) (int, error) {
	r := ctx.Rules
	heavy := func(p *model.Pairing) bool { return r.IsHeavy(p.DutySeconds, p.Legs) }
	rows := 0
	for i := range ctx.Crew {
		e := ctx.SelectWhere(i, heavy)
		if ctx.Model.UpperBound(e) <= float64(r.OverageCap) {
			continue
		}
		c.addRow(ctx, e, mip.LE, float64(r.OverageCap), "%d", i)
		rows++
	}
	return rows, nil
}
