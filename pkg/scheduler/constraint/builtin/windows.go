package builtin

import (
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// RollingWindowConstraint 滚动窗口工作天数上限
// 任意连续 Length 天内工作天数不超过 Limit
type RollingWindowConstraint struct {
	*BaseConstraint
	windows []rules.Window
}

// NewRollingWindowConstraint 创建滚动窗口约束；windows 为空时使用基地规则
func NewRollingWindowConstraint(windows ...rules.Window) *RollingWindowConstraint {
	return &RollingWindowConstraint{
		BaseConstraint: NewBaseConstraint("滚动窗口上限", constraint.TypeWindows, constraint.CategoryHard),
		windows:        windows,
	}
}

// Build 对每名机组、每个窗口起点写入 Σ 日占用 ≤ Limit
//
// 共 n−L+1 个起点；排班期短于窗口时整段作为一个窗口。
// 变量上界已不超过 Limit 的行不写入。
func (c *RollingWindowConstraint) Build(ctx *constraint.Context) (int, error) {
	windows := c.windows
	if len(windows) == 0 {
		windows = ctx.Rules.Windows
	}
	n := ctx.Index.Len()
	rows := 0
	for i := range ctx.Crew {
		for _, w := range windows {
			length := w.Length
			if length > n {
				length = n
			}
			for start := 0; start+length <= n; start++ {
				var e mip.Expr
				for d := start; d < start+length; d++ {
					e = e.Plus(ctx.DayLoad(i, d), 1)
				}
				if ctx.Model.UpperBound(e) <= float64(w.Limit) {
					continue
				}
				c.addRow(ctx, e, mip.LE, float64(w.Limit), "%d_%din%d_%d", i, w.Limit, w.Length, start)
				rows++
			}
		}
	}
	return rows, nil
}
