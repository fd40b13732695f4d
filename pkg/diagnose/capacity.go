package diagnose

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
)

// capacityReport 需求与容量比较：超出为 FAIL，接近上限为 WARNING
func capacityReport(name, what string, demand, capacity int, ratio float64, details map[string]interface{}) DiagnosticReport {
	details["demand"] = demand
	details["capacity"] = capacity
	switch {
	case demand > capacity:
		return fail(name,
			fmt.Sprintf("不可行：%s %d 个，超过容量 %d", what, demand, capacity),
			details)
	case demand > 0 && float64(demand) >= ratio*float64(capacity):
		return warn(name,
			fmt.Sprintf("%s %d 个，接近容量 %d", what, demand, capacity),
			details)
	}
	return pass(name, fmt.Sprintf("%s %d 个，容量 %d", what, demand, capacity), details)
}

// checkLongDutyCapacity 重执勤任务数与每人超额上限之和
func checkLongDutyCapacity(d *data) DiagnosticReport {
	r := d.Rules
	heavy := lo.CountBy(d.Pairings, func(p *model.Pairing) bool { return r.IsHeavy(p.DutySeconds, p.Legs) })
	capacity := len(d.Crew) * r.LongDutyCapacityPerCrew
	return capacityReport(CheckLongDutyCapacity, "重执勤任务", heavy, capacity, r.NearCapacityRatio,
		map[string]interface{}{
			"heavy_duty_hours":  r.HeavyDutyHours,
			"heavy_legs":        r.HeavyLegs,
			"per_crew_capacity": r.LongDutyCapacityPerCrew,
		})
}

// crewReserveCap 单个机组在模型中最多承担的备份任务数
func crewReserveCap(c *model.CrewMember, r rules.BaseRules) int {
	limit := r.ReserveNoPrefCap
	if c.Reserve == model.ReserveAvoid || c.Reserve == model.ReservePrefer {
		limit = min(r.ReserveMaxMagnitude, r.ReserveCap(c.MaxDays()))
	}
	return min(limit, r.ReserveCapacityPerCrew, c.MaxDays())
}

// checkReserveCapacity 备份任务数与机组可承担的备份数之和
func checkReserveCapacity(d *data) DiagnosticReport {
	r := d.Rules
	reserves := lo.CountBy(d.Pairings, func(p *model.Pairing) bool { return p.IsReserve() })
	capacity := lo.SumBy(d.Crew, func(c *model.CrewMember) int { return crewReserveCap(c, r) })
	prefer := lo.CountBy(d.Crew, func(c *model.CrewMember) bool { return c.Reserve == model.ReservePrefer })
	return capacityReport(CheckReserveCapacity, "备份任务", reserves, capacity, r.NearCapacityRatio,
		map[string]interface{}{
			"per_crew_capacity": r.ReserveCapacityPerCrew,
			"prefer_reserve":    prefer,
		})
}

// checkThreePlusDay 3 天及以上任务的总天数与能承担它们的机组定额
func checkThreePlusDay(d *data) DiagnosticReport {
	long := lo.Filter(d.Pairings, func(p *model.Pairing, _ int) bool { return p.Mult >= 3 })
	longDays := lo.SumBy(long, func(p *model.Pairing) int { return p.Mult })
	capable := lo.Filter(d.Crew, func(c *model.CrewMember, _ int) bool { return c.RequiredDays >= 3 })
	capableDays := lo.SumBy(capable, func(c *model.CrewMember) int { return c.RequiredDays })
	many := lo.CountBy(d.Crew, func(c *model.CrewMember) bool { return c.Overnight == model.OvernightMany })
	details := map[string]interface{}{
		"long_pairings":       len(long),
		"long_pairing_days":   longDays,
		"capable_crew":        len(capable),
		"capable_crew_days":   capableDays,
		"many_overnight_crew": many,
	}
	if longDays > capableDays {
		return warn(CheckThreePlusDay,
			fmt.Sprintf("%d 个 3 天以上任务共 %d 天，定额不少于 3 天的 %d 名机组只能承担 %d 天",
				len(long), longDays, len(capable), capableDays),
			details)
	}
	return pass(CheckThreePlusDay,
		fmt.Sprintf("%d 个 3 天以上任务可以分给 %d 名机组", len(long), len(capable)),
		details)
}

// estimateRows 完整模型核心约束行数的估计
func estimateRows(nCrew, nPairings, nDays int, windows []rules.Window) int {
	rows := nPairings + 2*nCrew + nDays*nCrew + nCrew
	for _, w := range windows {
		rows += nCrew * max(1, nDays-w.Length+1)
	}
	return rows
}

// checkProblemSize 变量与约束规模
func checkProblemSize(d *data) DiagnosticReport {
	nVars := len(d.Crew) * len(d.Pairings)
	est := estimateRows(len(d.Crew), len(d.Pairings), d.Horizon.Len(), d.Rules.Windows)
	details := map[string]interface{}{
		"n_vars":          nVars,
		"est_constraints": est,
		"n_crew":          len(d.Crew),
		"n_pairings":      len(d.Pairings),
		"n_days":          d.Horizon.Len(),
	}
	msg := fmt.Sprintf("问题规模: %d 个变量（%d 名机组 × %d 个任务），约 %d 条约束",
		nVars, len(d.Crew), len(d.Pairings), est)
	if nVars > largeProblemVars {
		return warn(CheckProblemSize, msg+"，求解可能较慢", details)
	}
	return pass(CheckProblemSize, msg, details)
}
