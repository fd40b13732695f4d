// Package model 定义机组排班的核心数据模型
package model

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// ParseDate 解析日期（YYYY-MM-DD），结果归一到 UTC 零点
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate 格式化日期
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Truncate 将时间截断到所在日历日（UTC）
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween 返回 b - a 的天数
func DaysBetween(a, b time.Time) int {
	return int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// GapTo 返回从本段结束到 next 开始的间隔
func (tr TimeRange) GapTo(next TimeRange) time.Duration {
	return next.Start.Sub(tr.End)
}

// DateRange 日期范围（闭区间）
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// NewDateRange 从字符串创建日期范围
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("开始日期无效: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("结束日期无效: %w", err)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("结束日期 %s 早于开始日期 %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Len 返回天数
func (r DateRange) Len() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return DaysBetween(r.Start, r.End) + 1
}

// Days 返回范围内每一天
func (r DateRange) Days() []time.Time {
	n := r.Len()
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = r.Start.AddDate(0, 0, i)
	}
	return days
}

// Contains 检查日期是否在范围内
func (r DateRange) Contains(d time.Time) bool {
	d = Truncate(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// String 返回范围描述
func (r DateRange) String() string {
	return FormatDate(r.Start) + ".." + FormatDate(r.End)
}

// DateSet 日期集合
type DateSet map[string]struct{}

// NewDateSet 创建日期集合
func NewDateSet(dates ...time.Time) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

// Add 添加日期
func (s DateSet) Add(d time.Time) {
	s[FormatDate(d)] = struct{}{}
}

// Has 检查日期是否存在
func (s DateSet) Has(d time.Time) bool {
	_, ok := s[FormatDate(d)]
	return ok
}

// Union 合并另一个集合
func (s DateSet) Union(other DateSet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// CountIn 统计落在范围内的日期数
func (s DateSet) CountIn(r DateRange) int {
	n := 0
	for _, d := range r.Days() {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Sorted 返回排序后的日期字符串
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
