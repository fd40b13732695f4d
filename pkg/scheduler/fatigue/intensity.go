package fatigue

import (
	"sort"

	"github.com/samber/lo"

	"github.com/paiban/fca/pkg/model"
)

// IntensityGroups 高强度任务间隔组
//
// 高强度任务（长执勤或多航段）在开始日期相差不超过一天时互斥。
// 对每对相邻日期 (d, d+1) 取开始于这两天的高强度任务为一组，
// 组内任意两个任务相差不超过一天，任意相差不超过一天的两个任务都同在某一组中。
func IntensityGroups(pairings []*model.Pairing, intense func(*model.Pairing) bool) []Group {
	byDay := lo.GroupBy(
		lo.Filter(lo.Range(len(pairings)), func(i, _ int) bool { return intense(pairings[i]) }),
		func(i int) string { return model.FormatDate(pairings[i].D1) },
	)
	days := lo.Keys(byDay)
	sort.Strings(days)

	var (
		groups []Group
		seen   = make(map[string]bool)
	)
	for _, day := range days {
		d, err := model.ParseDate(day)
		if err != nil {
			continue
		}
		members := append(append([]int{}, byDay[day]...), byDay[model.FormatDate(d.AddDate(0, 0, 1))]...)
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		key := joinInts(members)
		if seen[key] {
			continue
		}
		seen[key] = true
		groups = append(groups, Group{Kind: "intensity", Pairings: members})
	}
	return dropSubsets(groups)
}

// dropSubsets 去掉被其它组包含的组
func dropSubsets(groups []Group) []Group {
	return lo.Filter(groups, func(g Group, i int) bool {
		for j, other := range groups {
			if i == j || len(other.Pairings) <= len(g.Pairings) {
				continue
			}
			if lo.Every(other.Pairings, g.Pairings) {
				return false
			}
		}
		return true
	})
}
