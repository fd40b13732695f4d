package preference

import (
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// Objective 资历加权的目标函数（最大化）
//
//	Σ_c w_c·(Wd·daysoff + Wo·overnight + Wt·time + Wr·reserve) + Wc·Σ charter + Wcdo·Σ cdo − Wch·Σ chunks
//
// w_c = (row+1)/n，行号越大资历越深。
func Objective(ctx *constraint.Context) mip.Expr {
	w := ctx.Rules.Weights
	n := len(ctx.Crew)
	var obj mip.Expr
	for c, crew := range ctx.Crew {
		sc := ctx.Scores[c]
		sen := crew.SeniorityWeight(n)
		obj = obj.Plus(sc.DaysOff, w.DaysOff*sen)
		obj = obj.Plus(sc.Overnight, w.Overnight*sen)
		obj = obj.Plus(sc.Time, w.Time*sen)
		obj = obj.Plus(sc.Reserve, w.Reserve*sen)
		obj = obj.Plus(sc.Charter, w.Charter)
	}
	for _, e := range ctx.CDO {
		obj = obj.Plus(e, w.CDO)
	}
	for _, e := range ctx.Chunks {
		obj = obj.Plus(e, -w.Chunks)
	}
	return obj
}

// Satisfaction 单个机组的偏好满足度
type Satisfaction struct {
	Crew      string  `json:"crew"`
	DaysOff   float64 `json:"days_off"`
	Overnight float64 `json:"overnight"`
	Time      float64 `json:"time"`
	Reserve   float64 `json:"reserve"`
	Charter   float64 `json:"charter"`
}

// Total 加总
func (s Satisfaction) Total() float64 {
	return s.DaysOff + s.Overnight + s.Time + s.Reserve + s.Charter
}

// Evaluate 在解上计算每个机组的得分
func Evaluate(ctx *constraint.Context, values []float64) []Satisfaction {
	out := make([]Satisfaction, len(ctx.Crew))
	for c, crew := range ctx.Crew {
		sc := ctx.Scores[c]
		out[c] = Satisfaction{
			Crew:      crew.Name,
			DaysOff:   sc.DaysOff.Value(values),
			Overnight: sc.Overnight.Value(values),
			Time:      sc.Time.Value(values),
			Reserve:   sc.Reserve.Value(values),
			Charter:   sc.Charter.Value(values),
		}
	}
	return out
}
