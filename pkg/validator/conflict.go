// Package validator 独立复核求解器返回的分配矩阵
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/fatigue"
	"github.com/paiban/fca/pkg/timeindex"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictCoverage  ConflictType = "coverage"  // 任务未分配或重复分配
	ConflictQuota     ConflictType = "quota"     // 工作天数不等于定额
	ConflictOverlap   ConflictType = "overlap"   // 同一天多个任务
	ConflictWindow    ConflictType = "window"    // 滚动窗口超限
	ConflictRestTime  ConflictType = "rest_time" // 休息时间不足
	ConflictIntensity ConflictType = "intensity" // 长执勤/多航段间隔不足
	ConflictVacation  ConflictType = "vacation"  // 占用日被分配任务
	ConflictOverage   ConflictType = "overage"   // 重执勤超额
	ConflictTDYBlock  ConflictType = "tdy_block" // 外派工作日不连续
	ConflictShape     ConflictType = "shape"     // 矩阵尺寸不符
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	Crew     string       `json:"crew,omitempty"`
	Date     string       `json:"date,omitempty"`
	Message  string       `json:"message"`
	Pairings []string     `json:"pairings,omitempty"`
}

// Plan 待复核的排班
type Plan struct {
	Horizon    model.DateRange
	Crew       []*model.CrewMember
	Pairings   []*model.Pairing
	Assignment [][]bool
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	rules rules.BaseRules
}

// NewConflictDetector 创建冲突检测器，规则与建模使用同一份
func NewConflictDetector(r rules.BaseRules) *ConflictDetector {
	return &ConflictDetector{rules: r}
}

// DetectAll 检测所有冲突
func (d *ConflictDetector) DetectAll(p *Plan) []Conflict {
	if c, ok := checkShape(p); !ok {
		return []Conflict{c}
	}
	ix := timeindex.Build(p.Horizon, p.Pairings)

	conflicts := d.detectCoverage(p)
	groups := append(
		fatigue.RestConflictGroups(p.Pairings, d.rules.Location, d.rules.MinRest),
		fatigue.IntensityGroups(p.Pairings, func(pr *model.Pairing) bool {
			return d.rules.IsIntense(pr.DutySeconds, pr.Legs)
		})...,
	)
	for i, crew := range p.Crew {
		assigned := assignedTo(p, i)
		days := workedDays(ix, assigned)

		conflicts = append(conflicts, d.detectQuota(p, crew, assigned)...)
		conflicts = append(conflicts, d.detectOverlaps(p, ix, crew, assigned)...)
		conflicts = append(conflicts, d.detectWindows(ix, crew, days)...)
		conflicts = append(conflicts, d.detectGroups(p, crew, assigned, groups)...)
		conflicts = append(conflicts, d.detectVacation(p, ix, crew, assigned)...)
		conflicts = append(conflicts, d.detectOverage(p, crew, assigned)...)
		conflicts = append(conflicts, d.detectTDYBlock(ix, crew, days)...)
	}
	return conflicts
}

// CountByType 按类型统计冲突
func CountByType(conflicts []Conflict) map[ConflictType]int {
	return lo.CountValuesBy(conflicts, func(c Conflict) ConflictType { return c.Type })
}

func checkShape(p *Plan) (Conflict, bool) {
	if len(p.Assignment) != len(p.Crew) {
		return Conflict{Type: ConflictShape, Severity: "error",
			Message: fmt.Sprintf("分配矩阵有 %d 行，机组有 %d 名", len(p.Assignment), len(p.Crew))}, false
	}
	for i, row := range p.Assignment {
		if len(row) != len(p.Pairings) {
			return Conflict{Type: ConflictShape, Severity: "error", Crew: p.Crew[i].Name,
				Message: fmt.Sprintf("第 %d 行有 %d 列，任务有 %d 个", i, len(row), len(p.Pairings))}, false
		}
	}
	return Conflict{}, true
}

// detectCoverage 每个任务恰好分配一次
func (d *ConflictDetector) detectCoverage(p *Plan) []Conflict {
	var conflicts []Conflict
	for j, pr := range p.Pairings {
		var holders []string
		for i, crew := range p.Crew {
			if p.Assignment[i][j] {
				holders = append(holders, crew.Name)
			}
		}
		if len(holders) == 1 {
			continue
		}
		msg := fmt.Sprintf("任务 %s 未分配", pr.ID)
		if len(holders) > 1 {
			msg = fmt.Sprintf("任务 %s 分配给了 %d 名机组: %s", pr.ID, len(holders), strings.Join(holders, ", "))
		}
		conflicts = append(conflicts, Conflict{
			Type:     ConflictCoverage,
			Severity: "error",
			Date:     model.FormatDate(pr.D1),
			Message:  msg,
			Pairings: []string{pr.ID},
		})
	}
	return conflicts
}

// detectQuota 工作天数等于定额
func (d *ConflictDetector) detectQuota(p *Plan, crew *model.CrewMember, assigned []int) []Conflict {
	worked := lo.SumBy(assigned, func(j int) int { return p.Pairings[j].Mult })
	if worked == crew.RequiredDays {
		return nil
	}
	return []Conflict{{
		Type:     ConflictQuota,
		Severity: "error",
		Crew:     crew.Name,
		Message:  fmt.Sprintf("机组 %s 工作 %d 天，定额 %d 天", crew.Name, worked, crew.RequiredDays),
	}}
}

// detectOverlaps 同一天最多一个任务
func (d *ConflictDetector) detectOverlaps(p *Plan, ix *timeindex.Index, crew *model.CrewMember, assigned []int) []Conflict {
	byDay := make(map[int][]int)
	for _, j := range assigned {
		for _, day := range ix.DaysOf(j) {
			byDay[day] = append(byDay[day], j)
		}
	}
	days := lo.Keys(byDay)
	sort.Ints(days)

	var conflicts []Conflict
	for _, day := range days {
		if len(byDay[day]) < 2 {
			continue
		}
		date, _ := ix.Day(day)
		conflicts = append(conflicts, Conflict{
			Type:     ConflictOverlap,
			Severity: "error",
			Crew:     crew.Name,
			Date:     model.FormatDate(date),
			Message:  fmt.Sprintf("机组 %s 在 %s 有 %d 个任务", crew.Name, model.FormatDate(date), len(byDay[day])),
			Pairings: pairingIDs(p, byDay[day]),
		})
	}
	return conflicts
}

// detectWindows 任意窗口内的工作天数不超过上限
func (d *ConflictDetector) detectWindows(ix *timeindex.Index, crew *model.CrewMember, days []int) []Conflict {
	var conflicts []Conflict
	n := ix.Len()
	for _, w := range d.rules.Windows {
		length := min(w.Length, n)
		for start := 0; start+length <= n; start++ {
			worked := 0
			for day := start; day < start+length; day++ {
				worked += days[day]
			}
			if worked <= w.Limit {
				continue
			}
			date, _ := ix.Day(start)
			conflicts = append(conflicts, Conflict{
				Type:     ConflictWindow,
				Severity: "error",
				Crew:     crew.Name,
				Date:     model.FormatDate(date),
				Message: fmt.Sprintf("机组 %s 自 %s 起 %d 天内工作 %d 天，上限 %d 天",
					crew.Name, model.FormatDate(date), w.Length, worked, w.Limit),
			})
		}
	}
	return conflicts
}

// detectGroups 每个互斥组至多分配一个
func (d *ConflictDetector) detectGroups(p *Plan, crew *model.CrewMember, assigned []int, groups []fatigue.Group) []Conflict {
	mine := lo.SliceToMap(assigned, func(j int) (int, bool) { return j, true })
	var conflicts []Conflict
	for _, g := range groups {
		hit := lo.Filter(g.Pairings, func(j, _ int) bool { return mine[j] })
		if len(hit) < 2 {
			continue
		}
		typ, what := ConflictRestTime, "休息时间不足"
		if g.Kind == "intensity" {
			typ, what = ConflictIntensity, "长执勤/多航段间隔不足"
		}
		conflicts = append(conflicts, Conflict{
			Type:     typ,
			Severity: "error",
			Crew:     crew.Name,
			Date:     model.FormatDate(p.Pairings[hit[0]].D1),
			Message:  fmt.Sprintf("机组 %s %s: %s", crew.Name, what, strings.Join(pairingIDs(p, hit), ", ")),
			Pairings: pairingIDs(p, hit),
		})
	}
	return conflicts
}

// detectVacation 占用日不分配任务
func (d *ConflictDetector) detectVacation(p *Plan, ix *timeindex.Index, crew *model.CrewMember, assigned []int) []Conflict {
	var conflicts []Conflict
	for _, j := range assigned {
		for _, day := range ix.DaysOf(j) {
			date, _ := ix.Day(day)
			if !crew.IsBlocked(date) {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictVacation,
				Severity: "error",
				Crew:     crew.Name,
				Date:     model.FormatDate(date),
				Message:  fmt.Sprintf("机组 %s 在占用日 %s 被分配任务 %s", crew.Name, model.FormatDate(date), p.Pairings[j].ID),
				Pairings: []string{p.Pairings[j].ID},
			})
			break
		}
	}
	return conflicts
}

// detectOverage 重执勤任务数不超过基地上限
func (d *ConflictDetector) detectOverage(p *Plan, crew *model.CrewMember, assigned []int) []Conflict {
	heavy := lo.Filter(assigned, func(j, _ int) bool {
		return d.rules.IsHeavy(p.Pairings[j].DutySeconds, p.Pairings[j].Legs)
	})
	if len(heavy) <= d.rules.OverageCap {
		return nil
	}
	return []Conflict{{
		Type:     ConflictOverage,
		Severity: "error",
		Crew:     crew.Name,
		Message:  fmt.Sprintf("机组 %s 有 %d 个重执勤任务，上限 %d", crew.Name, len(heavy), d.rules.OverageCap),
		Pairings: pairingIDs(p, heavy),
	}}
}

// detectTDYBlock 外派机组的工作日必须连成一段
func (d *ConflictDetector) detectTDYBlock(ix *timeindex.Index, crew *model.CrewMember, days []int) []Conflict {
	if !crew.TDY {
		return nil
	}
	blocks := 0
	for day, v := range days {
		if v > 0 && (day == 0 || days[day-1] == 0) {
			blocks++
		}
	}
	if blocks <= 1 {
		return nil
	}
	return []Conflict{{
		Type:     ConflictTDYBlock,
		Severity: "error",
		Crew:     crew.Name,
		Message:  fmt.Sprintf("外派机组 %s 的工作日分成了 %d 段", crew.Name, blocks),
	}}
}

func assignedTo(p *Plan, crew int) []int {
	var out []int
	for j, on := range p.Assignment[crew] {
		if on {
			out = append(out, j)
		}
	}
	return out
}

// workedDays 每天被占用的任务数
func workedDays(ix *timeindex.Index, assigned []int) []int {
	days := make([]int, ix.Len())
	for _, j := range assigned {
		for _, day := range ix.DaysOf(j) {
			days[day]++
		}
	}
	return days
}

func pairingIDs(p *Plan, idx []int) []string {
	return lo.Map(idx, func(j, _ int) string { return p.Pairings[j].ID })
}
