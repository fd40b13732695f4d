package diagnose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/paiban/fca/pkg/model"
)

// tightSlack 可用天数余量不超过该值视为紧张
const tightSlack = 2

// largeProblemVars 变量数超过该值给出规模警告
const largeProblemVars = 50_000

// check 单项分析检查
type check func(d *data) DiagnosticReport

// analyticChecks 不求解的检查，按输出顺序排列
var analyticChecks = []check{
	checkSupplyDemand,
	checkDailyCoverage,
	checkVacationAnalysis,
	checkIndividualCrew,
	checkPairingVacation,
	checkTDYContiguity,
	checkLongDutyCapacity,
	checkReserveCapacity,
	checkThreePlusDay,
	checkProblemSize,
}

// checkDataLoading 名册与任务是否非空
func checkDataLoading(d *data) DiagnosticReport {
	details := map[string]interface{}{
		"num_crew":     len(d.Crew),
		"num_pairings": len(d.Pairings),
		"num_problems": len(d.Problems),
	}
	switch {
	case len(d.Crew) == 0 || len(d.Pairings) == 0:
		return fail(CheckDataLoading,
			fmt.Sprintf("基地 %s 座位 %s 没有可用数据：机组 %d 名，任务 %d 个", d.Base, d.Seat, len(d.Crew), len(d.Pairings)),
			details)
	case len(d.Problems) > 0:
		fatal := lo.CountBy(d.Problems, func(p model.RosterProblem) bool { return p.Fatal })
		details["rejected_crew"] = fatal
		return warn(CheckDataLoading,
			fmt.Sprintf("数据已加载，但有 %d 条记录问题（%d 名机组被拒绝）", len(d.Problems), fatal),
			details)
	}
	return pass(CheckDataLoading,
		fmt.Sprintf("已加载 %d 名机组和 %d 个任务", len(d.Crew), len(d.Pairings)),
		details)
}

// checkSupplyDemand 定额天数总和与任务天数总和
//
// 定额是精确值，任何差额都不可行。
func checkSupplyDemand(d *data) DiagnosticReport {
	crewDays := d.crewDays()
	pairingDays := d.pairingDays()
	gap := crewDays - pairingDays
	details := map[string]interface{}{
		"total_crew_days":    crewDays,
		"total_pairing_days": pairingDays,
		"gap":                gap,
		"num_crew":           len(d.Crew),
		"num_pairings":       len(d.Pairings),
	}
	switch {
	case gap < 0:
		return fail(CheckSupplyDemand,
			fmt.Sprintf("不可行：任务需要 %d 个机组日，定额只有 %d，缺口 %d", pairingDays, crewDays, -gap),
			details)
	case gap > 0:
		return fail(CheckSupplyDemand,
			fmt.Sprintf("不可行：定额共 %d 天，任务只有 %d 天，%d 个定额日无法填满", crewDays, pairingDays, gap),
			details)
	}
	return pass(CheckSupplyDemand,
		fmt.Sprintf("定额与任务天数恰好平衡（%d 天）", crewDays),
		details)
}

// DayDeficit 某天的覆盖缺口
type DayDeficit struct {
	Date          string `json:"date"`
	WorkNeeded    int    `json:"work_needed"`
	CrewAvailable int    `json:"crew_available"`
	Deficit       int    `json:"deficit"`
}

// checkDailyCoverage 每天占用该天的任务数不能超过可用机组数
func checkDailyCoverage(d *data) DiagnosticReport {
	var problems []DayDeficit
	for day := 0; day < d.index.Len(); day++ {
		work := len(d.index.Touching(day))
		available := len(d.Crew) - d.blockedOn(day)
		if work > available {
			date, _ := d.index.Day(day)
			problems = append(problems, DayDeficit{
				Date:          model.FormatDate(date),
				WorkNeeded:    work,
				CrewAvailable: available,
				Deficit:       work - available,
			})
		}
	}
	if len(problems) == 0 {
		return pass(CheckDailyCoverage, "每天都有足够的机组覆盖任务", nil)
	}

	sort.SliceStable(problems, func(i, j int) bool { return problems[i].Deficit > problems[j].Deficit })
	worst := lo.Map(lo.Slice(problems, 0, 5), func(p DayDeficit, _ int) string {
		return fmt.Sprintf("%s(缺 %d)", p.Date, p.Deficit)
	})
	return fail(CheckDailyCoverage,
		fmt.Sprintf("不可行：%d 天的任务多于可用机组，最严重: %s", len(problems), strings.Join(worst, ", ")),
		map[string]interface{}{"problem_days": problems})
}

// checkVacationAnalysis 休假汇总，只做统计
func checkVacationAnalysis(d *data) DiagnosticReport {
	withVacation, total := 0, 0
	for _, c := range d.Crew {
		n := c.BlockedIn(d.Horizon)
		if n > 0 {
			withVacation++
			total += n
		}
	}
	avg := 0.0
	if len(d.Crew) > 0 {
		avg = float64(total) / float64(len(d.Crew))
	}
	return pass(CheckVacationAnalysis,
		fmt.Sprintf("%d 名机组的休假/限制共占用 %d 天", withVacation, total),
		map[string]interface{}{
			"crew_with_vacation":  withVacation,
			"total_vacation_days": total,
			"avg_per_crew":        avg,
		})
}

// CrewSlack 单个机组的可用天数余量
type CrewSlack struct {
	Name           string `json:"name"`
	RequiredDays   int    `json:"required_days"`
	RestrictedDays int    `json:"restricted_days"`
	AvailableDays  int    `json:"available_days"`
	Slack          int    `json:"slack"`
	PeriodDays     int    `json:"period_days"`
}

// checkIndividualCrew 每名机组扣除占用日后是否还能完成定额
func checkIndividualCrew(d *data) DiagnosticReport {
	impossible := []CrewSlack{}
	tight := []CrewSlack{}
	for _, c := range d.Crew {
		restricted := c.BlockedIn(d.Horizon)
		available := d.Horizon.Len() - restricted
		s := CrewSlack{
			Name:           c.Name,
			RequiredDays:   c.RequiredDays,
			RestrictedDays: restricted,
			AvailableDays:  available,
			Slack:          available - c.RequiredDays,
			PeriodDays:     d.Horizon.Len(),
		}
		switch {
		case s.Slack < 0:
			impossible = append(impossible, s)
		case s.Slack <= tightSlack:
			tight = append(tight, s)
		}
	}
	details := map[string]interface{}{"impossible_crew": impossible, "tight_crew": tight}

	switch {
	case len(impossible) > 0:
		first := impossible[0]
		return fail(CheckIndividualCrew,
			fmt.Sprintf("不可行：%d 名机组的占用日过多，首个: %s 需要 %d 天，只有 %d 天可用",
				len(impossible), first.Name, first.RequiredDays, first.AvailableDays),
			details)
	case len(tight) > 0:
		return warn(CheckIndividualCrew,
			fmt.Sprintf("%d 名机组的可用天数余量不超过 %d 天，排班空间很小", len(tight), tightSlack),
			details)
	}
	return pass(CheckIndividualCrew, "所有机组都有足够的可用天数完成定额", details)
}

// PairingEligibility 任务的可用机组数
type PairingEligibility struct {
	Pairing  string `json:"pairing"`
	Date     string `json:"date"`
	Eligible int    `json:"eligible"`
}

// checkPairingVacation 每个任务至少要有一名在其占用日都未被占用的机组
func checkPairingVacation(d *data) DiagnosticReport {
	uncoverable := []PairingEligibility{}
	limited := []PairingEligibility{}
	for p, pr := range d.Pairings {
		e := PairingEligibility{Pairing: pr.ID, Date: model.FormatDate(pr.D1), Eligible: d.eligible(p)}
		switch {
		case e.Eligible == 0:
			uncoverable = append(uncoverable, e)
		case e.Eligible <= tightSlack:
			limited = append(limited, e)
		}
	}
	details := map[string]interface{}{"uncoverable": uncoverable, "limited": limited}

	switch {
	case len(uncoverable) > 0:
		first := uncoverable[0]
		return fail(CheckPairingVacation,
			fmt.Sprintf("不可行：%d 个任务没有可用机组，首个: %s (%s)", len(uncoverable), first.Pairing, first.Date),
			details)
	case len(limited) > 0:
		return warn(CheckPairingVacation,
			fmt.Sprintf("%d 个任务只有 1-%d 名可用机组", len(limited), tightSlack),
			details)
	}
	return pass(CheckPairingVacation, "每个任务都有多名可用机组", details)
}

// TDYRun 外派机组的最长连续可用天数
type TDYRun struct {
	Name         string `json:"name"`
	RequiredDays int    `json:"required_days"`
	LongestRun   int    `json:"longest_run"`
}

// checkTDYContiguity 外派机组需要一段不短于定额的连续可用日期
func checkTDYContiguity(d *data) DiagnosticReport {
	tdy := lo.Filter(d.Crew, func(c *model.CrewMember, _ int) bool { return c.TDY })
	if len(tdy) == 0 {
		return pass(CheckTDYContiguity, "没有外派机组", map[string]interface{}{"tdy_crew": 0})
	}
	blocked := []TDYRun{}
	for _, c := range tdy {
		run := c.LongestOpenRun(d.Horizon)
		if run < c.RequiredDays {
			blocked = append(blocked, TDYRun{Name: c.Name, RequiredDays: c.RequiredDays, LongestRun: run})
		}
	}
	details := map[string]interface{}{"tdy_crew": len(tdy), "blocked_tdy": blocked}
	if len(blocked) > 0 {
		first := blocked[0]
		return fail(CheckTDYContiguity,
			fmt.Sprintf("不可行：%d 名外派机组没有足够长的连续可用日期，首个: %s 需要连续 %d 天，最长只有 %d 天",
				len(blocked), first.Name, first.RequiredDays, first.LongestRun),
			details)
	}
	return pass(CheckTDYContiguity, fmt.Sprintf("%d 名外派机组都有足够的连续可用日期", len(tdy)), details)
}
