// Package fatigue 根据执勤时间生成"同一机组至多选一"的互斥任务组
package fatigue

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/paiban/fca/pkg/model"
)

// 特殊任务（编号含 M）没有可靠的起止时间，按当地 07:00 开始、末日 23:00 结束处理
const (
	specialStartHour = 7
	specialEndHour   = 23
)

// Group 互斥任务组
type Group struct {
	Kind     string `json:"kind"` // rest/intensity
	Pairings []int  `json:"pairings"`
}

// DutySpan 任务的绝对起止时间
func DutySpan(p *model.Pairing, loc *time.Location) model.TimeRange {
	if !p.IsSpecial() {
		return p.Duty()
	}
	first := p.D1
	last := p.LastDay()
	return model.TimeRange{
		Start: time.Date(first.Year(), first.Month(), first.Day(), specialStartHour, 0, 0, 0, loc),
		End:   time.Date(last.Year(), last.Month(), last.Day(), specialEndHour, 0, 0, 0, loc),
	}
}

// RestConflictGroups 休息时间冲突组
//
// 对每个非备份任务 A，找出在 A 最后一天的次日开始、且与 A 结束间隔不足 minRest 的任务集合 S(A)。
// S(A) 相同的前序任务合并，组 = S ∪ {所有 S(A)=S 的 A}。每组在同一机组上至多分配一个。
func RestConflictGroups(pairings []*model.Pairing, loc *time.Location, minRest time.Duration) []Group {
	candidates := lo.Filter(lo.Range(len(pairings)), func(i, _ int) bool {
		return !pairings[i].IsReserve()
	})
	spans := make(map[int]model.TimeRange, len(candidates))
	for _, i := range candidates {
		spans[i] = DutySpan(pairings[i], loc)
	}
	byStart := lo.GroupBy(candidates, func(i int) string {
		return model.FormatDate(pairings[i].D1)
	})

	var (
		order []string
		sets  = make(map[string][]int)
		preds = make(map[string][]int)
	)
	for _, a := range candidates {
		next := model.FormatDate(pairings[a].LastDay().AddDate(0, 0, 1))
		succ := lo.Filter(byStart[next], func(b, _ int) bool {
			return spans[a].GapTo(spans[b]) < minRest
		})
		if len(succ) == 0 {
			continue
		}
		sort.Ints(succ)
		key := joinInts(succ)
		if _, ok := sets[key]; !ok {
			order = append(order, key)
			sets[key] = succ
		}
		preds[key] = append(preds[key], a)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		members := lo.Uniq(append(append([]int{}, sets[key]...), preds[key]...))
		sort.Ints(members)
		groups = append(groups, Group{Kind: "rest", Pairings: members})
	}
	return groups
}

func joinInts(xs []int) string {
	parts := lo.Map(xs, func(x, _ int) string { return strconv.Itoa(x) })
	return strings.Join(parts, ",")
}
