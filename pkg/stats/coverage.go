// Package stats 提供排班结果的统计分析
package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/timeindex"
)

// 任务类别
const (
	KindReserve = "reserve"
	KindCharter = "charter"
	KindMulti   = "multi_day"
	KindRegular = "regular"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 整体覆盖率
	TotalPairings    int     `json:"total_pairings"`    // 总任务数
	AssignedPairings int     `json:"assigned_pairings"` // 已分配任务数
	OverallCoverage  float64 `json:"overall_coverage"`  // 整体覆盖率 (%)

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按任务类别统计
	KindCoverage map[string]float64 `json:"kind_coverage"`

	// 机组利用率：工作天数 / 可用天数 (%)
	Utilization float64 `json:"utilization"`

	// 问题识别
	UncoveredPairings []UncoveredPairing `json:"uncovered_pairings"`
	BusiestDays       []string           `json:"busiest_days"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	Pairings     int     `json:"pairings"`      // 占用该天的任务数
	Assigned     int     `json:"assigned"`      // 其中已分配的
	Working      int     `json:"working"`       // 当天工作的机组数
	Blocked      int     `json:"blocked"`       // 当天被占用的机组数
	Idle         int     `json:"idle"`          // 可用但未工作的机组数
	CoverageRate float64 `json:"coverage_rate"` // 已分配 / 任务数 (%)
}

// UncoveredPairing 未覆盖任务
type UncoveredPairing struct {
	PairingID string `json:"pairing_id"`
	Date      string `json:"date"`
	Mult      int    `json:"mult"`
	Kind      string `json:"kind"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct {
	busiestDays int // 输出最忙的天数
}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{busiestDays: 5}
}

// PairingKind 任务类别
func PairingKind(p *model.Pairing) string {
	switch {
	case p.IsReserve():
		return KindReserve
	case p.IsCharter():
		return KindCharter
	case p.Mult > 1:
		return KindMulti
	}
	return KindRegular
}

// Analyze 分析覆盖率；assignment 为机组 × 任务的分配矩阵
func (c *CoverageAnalyzer) Analyze(horizon model.DateRange, crew []*model.CrewMember, pairings []*model.Pairing, assignment [][]bool) *CoverageMetrics {
	if len(pairings) == 0 {
		return &CoverageMetrics{
			DailyCoverage:   make(map[string]DayCoverage),
			KindCoverage:    make(map[string]float64),
			OverallCoverage: 100,
		}
	}

	ix := timeindex.Build(horizon, pairings)

	// 每个任务的承担者
	holder := make([]int, len(pairings))
	for j := range holder {
		holder[j] = -1
		for i := range assignment {
			if j < len(assignment[i]) && assignment[i][j] {
				holder[j] = i
				break
			}
		}
	}

	assigned := 0
	var uncovered []UncoveredPairing
	kindTotals := make(map[string]int)
	kindAssigned := make(map[string]int)
	for j, p := range pairings {
		kind := PairingKind(p)
		kindTotals[kind]++
		if holder[j] >= 0 {
			assigned++
			kindAssigned[kind]++
			continue
		}
		uncovered = append(uncovered, UncoveredPairing{
			PairingID: p.ID,
			Date:      model.FormatDate(p.D1),
			Mult:      p.Mult,
			Kind:      kind,
		})
	}

	daily := make(map[string]DayCoverage, ix.Len())
	workedDays, availableDays := 0, 0
	for day, date := range ix.Days() {
		dc := DayCoverage{Date: model.FormatDate(date)}
		working := make(map[int]bool)
		for _, j := range ix.Touching(day) {
			dc.Pairings++
			if holder[j] >= 0 {
				dc.Assigned++
				working[holder[j]] = true
			}
		}
		for i, m := range crew {
			switch {
			case m.IsBlocked(date):
				dc.Blocked++
			case !working[i]:
				dc.Idle++
			}
		}
		dc.Working = len(working)
		dc.CoverageRate = 100
		if dc.Pairings > 0 {
			dc.CoverageRate = float64(dc.Assigned) / float64(dc.Pairings) * 100
		}
		workedDays += dc.Working
		availableDays += len(crew) - dc.Blocked
		daily[dc.Date] = dc
	}

	kindCoverage := make(map[string]float64, len(kindTotals))
	for kind, total := range kindTotals {
		kindCoverage[kind] = float64(kindAssigned[kind]) / float64(total) * 100
	}

	utilization := 0.0
	if availableDays > 0 {
		utilization = float64(workedDays) / float64(availableDays) * 100
	}

	return &CoverageMetrics{
		TotalPairings:     len(pairings),
		AssignedPairings:  assigned,
		OverallCoverage:   float64(assigned) / float64(len(pairings)) * 100,
		DailyCoverage:     daily,
		KindCoverage:      kindCoverage,
		Utilization:       utilization,
		UncoveredPairings: uncovered,
		BusiestDays:       c.busiest(daily),
	}
}

// busiest 工作机组最多的若干天，按日期先后打破平局
func (c *CoverageAnalyzer) busiest(daily map[string]DayCoverage) []string {
	days := lo.Values(daily)
	sort.Slice(days, func(i, j int) bool {
		if days[i].Working != days[j].Working {
			return days[i].Working > days[j].Working
		}
		return days[i].Date < days[j].Date
	})
	days = lo.Filter(days, func(d DayCoverage, _ int) bool { return d.Working > 0 })
	return lo.Map(lo.Slice(days, 0, c.busiestDays), func(d DayCoverage, _ int) string { return d.Date })
}
