package builtin

import (
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/preference"
)

// PreferenceConstraint 偏好得分及其联动约束
// 写入 ctx.Scores，本身不限制可行域以外的分配（备份上限除外）
type PreferenceConstraint struct {
	*BaseConstraint
}

// NewPreferenceConstraint 创建偏好约束组
func NewPreferenceConstraint() *PreferenceConstraint {
	return &PreferenceConstraint{
		BaseConstraint: NewBaseConstraint("机组偏好", constraint.TypePreference, constraint.CategorySoft),
	}
}

// Build 为每名机组生成得分表达式
func (c *PreferenceConstraint) Build(ctx *constraint.Context) (int, error) {
	scorer := preference.NewScorer(ctx)
	rows := 0
	for i := range ctx.Crew {
		scores, n := scorer.Link(i)
		ctx.Scores[i] = scores
		rows += n
	}
	return rows, nil
}
