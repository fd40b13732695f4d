// Package timeindex 构建日期与任务之间的占用映射
package timeindex

import (
	"time"

	"github.com/paiban/fca/pkg/model"
)

// Index 日期 -> 占用该日的任务下标
//
// 任务占用 d1 与 d2 两天；时长 ≥3 且 d2-d1 与时长一致时，中间日也视为占用。
// 所有按下标的查询在地平线之外返回空结果，不会越界。
type Index struct {
	horizon model.DateRange
	days    []time.Time
	touch   [][]int
	starts  [][]int
	byPair  [][]int
}

// Build 构建索引
func Build(horizon model.DateRange, pairings []*model.Pairing) *Index {
	days := horizon.Days()
	ix := &Index{
		horizon: horizon,
		days:    days,
		touch:   make([][]int, len(days)),
		starts:  make([][]int, len(days)),
		byPair:  make([][]int, len(pairings)),
	}

	for p, pr := range pairings {
		for _, d := range touchedDates(pr) {
			off, ok := ix.Offset(d)
			if !ok {
				continue
			}
			ix.touch[off] = append(ix.touch[off], p)
			ix.byPair[p] = append(ix.byPair[p], off)
		}
		if off, ok := ix.Offset(pr.D1); ok {
			ix.starts[off] = append(ix.starts[off], p)
		}
	}
	return ix
}

func touchedDates(p *model.Pairing) []time.Time {
	first := model.Truncate(p.D1)
	if p.D2.IsZero() {
		return []time.Time{first}
	}
	last := model.Truncate(p.D2)
	span := model.DaysBetween(first, last)
	if span <= 0 {
		return []time.Time{first}
	}

	dates := []time.Time{first}
	if p.Mult >= 3 && span == p.Mult-1 {
		for i := 1; i < span; i++ {
			dates = append(dates, first.AddDate(0, 0, i))
		}
	}
	return append(dates, last)
}

// Horizon 返回地平线
func (ix *Index) Horizon() model.DateRange {
	return ix.horizon
}

// Len 地平线天数
func (ix *Index) Len() int {
	return len(ix.days)
}

// Days 地平线内所有日期
func (ix *Index) Days() []time.Time {
	return ix.days
}

// Day 返回第 i 天；越界返回 false
func (ix *Index) Day(i int) (time.Time, bool) {
	if i < 0 || i >= len(ix.days) {
		return time.Time{}, false
	}
	return ix.days[i], true
}

// Offset 日期在地平线中的下标
func (ix *Index) Offset(d time.Time) (int, bool) {
	if len(ix.days) == 0 {
		return 0, false
	}
	off := model.DaysBetween(ix.days[0], d)
	if off < 0 || off >= len(ix.days) {
		return 0, false
	}
	return off, true
}

// Touching 占用第 i 天的任务
func (ix *Index) Touching(i int) []int {
	if i < 0 || i >= len(ix.touch) {
		return nil
	}
	return ix.touch[i]
}

// TouchingDate 占用某日期的任务
func (ix *Index) TouchingDate(d time.Time) []int {
	off, ok := ix.Offset(d)
	if !ok {
		return nil
	}
	return ix.touch[off]
}

// Neighbor 第 i+delta 天的占用任务；越过地平线返回空
func (ix *Index) Neighbor(i, delta int) []int {
	return ix.Touching(i + delta)
}

// StartingOn 第 i 天开始的任务
func (ix *Index) StartingOn(i int) []int {
	if i < 0 || i >= len(ix.starts) {
		return nil
	}
	return ix.starts[i]
}

// DaysOf 任务占用的地平线下标
func (ix *Index) DaysOf(p int) []int {
	if p < 0 || p >= len(ix.byPair) {
		return nil
	}
	return ix.byPair[p]
}

// TouchingAny 占用任一给定日期的任务（去重，按首次出现排序）
func (ix *Index) TouchingAny(dates []time.Time) []int {
	seen := make(map[int]bool)
	var out []int
	for _, d := range dates {
		for _, p := range ix.TouchingDate(d) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// TouchingSet 占用集合中任一日期的任务
func (ix *Index) TouchingSet(set model.DateSet) []int {
	var dates []time.Time
	for _, d := range ix.days {
		if set.Has(d) {
			dates = append(dates, d)
		}
	}
	return ix.TouchingAny(dates)
}

// PairingDays 每个任务按日期计的工作天数之和
func (ix *Index) PairingDays() int {
	n := 0
	for _, t := range ix.touch {
		n += len(t)
	}
	return n
}
