// Package preference 将机组偏好转换为分配矩阵上的得分表达式
package preference

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// Group 偏好联动约束所在的分组标签
const Group = string(constraint.TypePreference)

// Scorer 偏好评分器
type Scorer struct {
	ctx      *constraint.Context
	singles  []int
	multis   []int
	reserves []int
	charters []int
	hours    []float64
}

// NewScorer 创建评分器
func NewScorer(ctx *constraint.Context) *Scorer {
	s := &Scorer{ctx: ctx, hours: make([]float64, len(ctx.Pairings))}
	for p, pr := range ctx.Pairings {
		if pr.IsMulti() {
			s.multis = append(s.multis, p)
		} else {
			s.singles = append(s.singles, p)
		}
		if pr.IsReserve() {
			s.reserves = append(s.reserves, p)
		}
		if pr.IsCharter() {
			s.charters = append(s.charters, p)
		}
		s.hours[p] = pr.LocalStartHour(ctx.Rules.Location)
	}
	return s
}

// Link 为第 c 个机组写入得分表达式及其联动约束，返回新增行数
func (s *Scorer) Link(c int) (constraint.CrewScores, int) {
	before := s.ctx.Model.NumRows()
	crew := s.ctx.Crew[c]
	scores := constraint.CrewScores{
		DaysOff:   s.daysOff(c, crew),
		Overnight: s.overnight(c, crew),
		Time:      s.timeOfDay(c, crew),
		Reserve:   s.reserve(c, crew),
		Charter:   s.charter(c, crew),
	}
	return scores, s.ctx.Model.NumRows() - before
}

// daysOff 定额天数减去触及偏好休息日的分配数
func (s *Scorer) daysOff(c int, crew *model.CrewMember) mip.Expr {
	touching := s.ctx.Index.TouchingAny(crew.PreferredOff)
	score := mip.Constant(float64(crew.MaxDays()))
	if len(touching) == 0 {
		return score
	}
	return score.Plus(s.ctx.Select(c, touching), -1)
}

func (s *Scorer) overnight(c int, crew *model.CrewMember) mip.Expr {
	switch crew.Overnight {
	case model.OvernightNone:
		return s.ctx.Select(c, s.singles)
	case model.OvernightMany:
		return s.ctx.Select(c, s.multis)
	case model.OvernightSome:
		return s.someOvernights(c, crew)
	}
	return mip.Expr{}
}

// someOvernights 过夜任务最多计 cap 个，其余额度由单日任务补足
//
// score = min(multi, cap) + eff，0 ≤ eff ≤ single，eff ≤ 定额 − (multi − min(multi, cap))
func (s *Scorer) someOvernights(c int, crew *model.CrewMember) mip.Expr {
	m := s.ctx.Model
	multi := s.ctx.Select(c, s.multis)
	single := s.ctx.Select(c, s.singles)

	capped, _ := m.ClampedCount(Group, fmt.Sprintf("ovn_%d", c), multi, s.ctx.Rules.OvernightClamp)
	eff := m.NewContinuous(fmt.Sprintf("ovn_eff_%d", c), 0, math.Max(float64(crew.MaxDays()), 0))

	m.AddRow(Group, fmt.Sprintf("ovn_single_%d", c), mip.Sum(eff).Plus(single, -1), mip.LE, 0)
	excess := multi.Plus(capped, -1)
	m.AddRow(Group, fmt.Sprintf("ovn_excess_%d", c), mip.Sum(eff).Plus(excess, 1), mip.LE, float64(crew.MaxDays()))

	return capped.Add(eff, 1)
}

func (s *Scorer) timeOfDay(c int, crew *model.CrewMember) mip.Expr {
	bonuses := s.TimeBonuses(crew)
	if bonuses == nil {
		return mip.Expr{}
	}
	coefs := lo.Map(bonuses, func(b int, _ int) float64 { return float64(b) })
	return mip.Weighted(s.ctx.X[c], coefs)
}

// TimeBonuses 每个任务的时段奖励；未填写时段偏好返回 nil
func (s *Scorer) TimeBonuses(crew *model.CrewMember) []int {
	if crew.TimePeriod == model.TimeUnset {
		return nil
	}
	r := s.ctx.Rules
	ref := r.ReferenceHours[crew.TimePeriod.Tier()-1]

	bonuses := make([]int, len(s.ctx.Pairings))
	for p, pr := range s.ctx.Pairings {
		b := TimeBonus(s.hours[p], ref, r.TimeDecayHours, r.TimeBonusMax)
		if pr.IsReserve() && crew.Reserve == model.ReservePrefer {
			b = r.PreferredReserveBonus
		}
		if pr.Mult > 1 {
			switch crew.Overnight {
			case model.OvernightMany:
				b = lo.Min([]int{int(float64(b) * r.OvernightMultipliers.Many), r.TimeBonusMax})
			case model.OvernightSome:
				b = lo.Min([]int{int(float64(b) * r.OvernightMultipliers.Some), r.TimeBonusMax})
			case model.OvernightNone:
				b = int(float64(b) * r.OvernightMultipliers.None)
			}
		}
		bonuses[p] = b
	}
	return bonuses
}

// TimeBonus round(max·(1 − |hour − ref| / decay))，截断到 [0, max]
func TimeBonus(hour, ref, decay float64, max int) int {
	if decay <= 0 {
		return 0
	}
	b := int(math.Round(float64(max) * (1 - math.Abs(hour-ref)/decay)))
	if b < 0 {
		return 0
	}
	if b > max {
		return max
	}
	return b
}

func (s *Scorer) reserve(c int, crew *model.CrewMember) mip.Expr {
	if len(s.reserves) == 0 {
		return mip.Expr{}
	}
	r := s.ctx.Rules
	m := s.ctx.Model
	count := s.ctx.Select(c, s.reserves)

	switch crew.Reserve {
	case model.ReserveAvoid, model.ReservePrefer:
		m.AddRow(Group, fmt.Sprintf("res_mag_%d", c), count, mip.LE, float64(r.ReserveMaxMagnitude))
		m.AddRow(Group, fmt.Sprintf("res_cap_%d", c), count, mip.LE, float64(r.ReserveCap(crew.MaxDays())))
		if crew.Reserve == model.ReserveAvoid {
			return count.Scale(-1)
		}
		return count
	}
	m.AddRow(Group, fmt.Sprintf("res_nopref_%d", c), count, mip.LE, float64(r.ReserveNoPrefCap))
	return mip.Constant(r.ReserveNoPrefScore)
}

// charter 只有最资浅的若干名机组计入包机得分
func (s *Scorer) charter(c int, crew *model.CrewMember) mip.Expr {
	if len(s.charters) == 0 || crew.Row >= s.ctx.Rules.JuniorCharterCount {
		return mip.Expr{}
	}
	return s.ctx.Select(c, s.charters)
}
