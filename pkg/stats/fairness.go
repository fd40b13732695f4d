package stats

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/scheduler/preference"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 满意度公平性
	SatisfactionGini   float64 `json:"satisfaction_gini"`    // 总满意度基尼系数 (0=完全公平, 1=完全不公平)
	SatisfactionStdDev float64 `json:"satisfaction_std_dev"` // 总满意度标准差
	AvgSatisfaction    float64 `json:"avg_satisfaction"`     // 人均满意度
	MaxSatisfaction    float64 `json:"max_satisfaction"`
	MinSatisfaction    float64 `json:"min_satisfaction"`

	// 各偏好项的基尼系数
	ComponentGini map[string]float64 `json:"component_gini"`

	// 周末工作分配
	WeekendGini float64 `json:"weekend_gini"`

	// 机组级别统计
	CrewStats []CrewStat `json:"crew_stats"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// CrewStat 机组统计
type CrewStat struct {
	Crew         string  `json:"crew"`
	Row          int     `json:"row"`
	Satisfaction float64 `json:"satisfaction"`
	WorkDays     int     `json:"work_days"`
	WeekendDays  int     `json:"weekend_days"`
	Deviation    float64 `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析满意度与工作日分配的公平性
//
// 满意度得分可能为负（如无偏好备份的固定扣分），基尼系数在平移到非负后计算。
func (f *FairnessAnalyzer) Analyze(crew []*model.CrewMember, pairings []*model.Pairing, assignment [][]bool, sat []preference.Satisfaction) *FairnessMetrics {
	if len(crew) == 0 || len(sat) == 0 {
		return &FairnessMetrics{
			ComponentGini:        make(map[string]float64),
			OverallFairnessScore: 100,
		}
	}

	n := min(len(crew), len(sat))
	totals := make([]float64, n)
	weekends := make([]float64, n)
	components := map[string][]float64{
		"days_off":  make([]float64, n),
		"overnight": make([]float64, n),
		"time":      make([]float64, n),
		"reserve":   make([]float64, n),
		"charter":   make([]float64, n),
	}
	stats := make([]CrewStat, n)
	for i := 0; i < n; i++ {
		s := sat[i]
		totals[i] = s.Total()
		components["days_off"][i] = s.DaysOff
		components["overnight"][i] = s.Overnight
		components["time"][i] = s.Time
		components["reserve"][i] = s.Reserve
		components["charter"][i] = s.Charter

		work, weekend := f.workDays(pairings, row(assignment, i))
		weekends[i] = float64(weekend)
		stats[i] = CrewStat{
			Crew:         crew[i].Name,
			Row:          crew[i].Row,
			Satisfaction: totals[i],
			WorkDays:     work,
			WeekendDays:  weekend,
		}
	}

	mean, variance := stat.PopMeanVariance(totals, nil)
	for i := range stats {
		if mean != 0 {
			stats[i].Deviation = (stats[i].Satisfaction - mean) / math.Abs(mean) * 100
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Satisfaction > stats[j].Satisfaction })

	componentGini := make(map[string]float64, len(components))
	for name, values := range components {
		componentGini[name] = calculateGini(values)
	}

	satGini := calculateGini(totals)
	weekendGini := calculateGini(weekends)
	return &FairnessMetrics{
		SatisfactionGini:     satGini,
		SatisfactionStdDev:   math.Sqrt(variance),
		AvgSatisfaction:      mean,
		MaxSatisfaction:      floats.Max(totals),
		MinSatisfaction:      floats.Min(totals),
		ComponentGini:        componentGini,
		WeekendGini:          weekendGini,
		CrewStats:            stats,
		OverallFairnessScore: calculateOverallScore(satGini, weekendGini),
	}
}

// workDays 工作天数与其中的周末天数（按任务日历跨度计）
func (f *FairnessAnalyzer) workDays(pairings []*model.Pairing, assigned []bool) (work, weekend int) {
	for j, on := range assigned {
		if !on || j >= len(pairings) {
			continue
		}
		p := pairings[j]
		work += p.Mult
		for d := 0; d < p.Span(); d++ {
			if isWeekend(p.D1.AddDate(0, 0, d)) {
				weekend++
			}
		}
	}
	return work, weekend
}

func row(assignment [][]bool, i int) []bool {
	if i < len(assignment) {
		return assignment[i]
	}
	return nil
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// calculateGini 计算基尼系数；存在负值时整体平移到最小值为 0
func calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if sorted[0] < 0 {
		floats.AddConst(-sorted[0], sorted)
	}

	sum := floats.Sum(sorted)
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// calculateOverallScore 计算综合公平性评分
func calculateOverallScore(satGini, weekendGini float64) float64 {
	const (
		satWeight     = 0.7
		weekendWeight = 0.3
	)
	score := satWeight*(1-satGini)*100 + weekendWeight*(1-weekendGini)*100
	return math.Max(0, math.Min(100, score))
}
