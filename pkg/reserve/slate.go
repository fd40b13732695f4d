// Package reserve 根据每周备份需求生成备份任务（R 前缀）
package reserve

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/teambition/rrule-go"

	"github.com/paiban/fca/pkg/model"
)

// 备份任务的固定属性
const (
	StartOffset = 13 * time.Hour
	EndOffset   = 17 * time.Hour
	DutySeconds = 10000
	Legs        = 1
)

// weekdays 与 Counts 下标对应，周一为 0
var weekdays = [7]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// Slate 单个基地的每周备份需求
type Slate struct {
	Base string `koanf:"base" json:"base" validate:"required"`

	// Counts 周一到周日每天的备份任务数
	Counts [7]int `koanf:"counts" json:"counts"`

	// Until 该基地最后一个生成备份的日期（可选）
	Until string `koanf:"until" json:"until,omitempty"`

	// Skip 命中的日期不生成备份，RRULE 语法（可选），例如 FREQ=MONTHLY;BYMONTHDAY=1
	Skip string `koanf:"skip" json:"skip,omitempty"`
}

// Validate 检查计数与规则语法
func (s Slate) Validate() error {
	for i, n := range s.Counts {
		if n < 0 {
			return fmt.Errorf("基地 %s 第 %d 天的备份数为负: %d", s.Base, i, n)
		}
	}
	if s.Until != "" {
		if _, err := model.ParseDate(s.Until); err != nil {
			return fmt.Errorf("基地 %s 的截止日期无效: %w", s.Base, err)
		}
	}
	if s.Skip != "" {
		if _, err := rrule.StrToRRule(s.Skip); err != nil {
			return fmt.Errorf("基地 %s 的跳过规则无效: %w", s.Base, err)
		}
	}
	return nil
}

// ParseCounts 解析 "1,1,1,1,1,1,1" 形式的周计数
func ParseCounts(s string) ([7]int, error) {
	var out [7]int
	parts := strings.Split(s, ",")
	if len(parts) != 7 {
		return out, fmt.Errorf("需要 7 个以逗号分隔的计数，得到 %d 个", len(parts))
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return out, fmt.Errorf("第 %d 个计数无效: %q", i+1, p)
		}
		out[i] = n
	}
	return out, nil
}

// Generator 备份任务生成器，编号在多次调用间连续
type Generator struct {
	next int
}

// NewGenerator 从 R{start} 开始编号
func NewGenerator(start int) *Generator {
	return &Generator{next: start}
}

// Generate 为每个基地按日期顺序生成备份任务
func (g *Generator) Generate(horizon model.DateRange, slates []Slate) ([]*model.Pairing, error) {
	var out []*model.Pairing
	for _, s := range slates {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		dates, err := occurrences(horizon, s)
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			for n := 0; n < s.Counts[mondayIndex(d)]; n++ {
				out = append(out, g.pairing(s.Base, d))
			}
		}
	}
	return out, nil
}

func (g *Generator) pairing(base string, day time.Time) *model.Pairing {
	id := fmt.Sprintf("R%d", g.next)
	g.next++
	return &model.Pairing{
		ID:          id,
		D1:          day,
		D2:          day,
		Mult:        1,
		DutySeconds: DutySeconds,
		Legs:        Legs,
		BaseStart:   base,
		Start:       day.Add(StartOffset),
		End:         day.Add(EndOffset),
		StartHour:   -1,
	}
}

// occurrences 地平线内有备份需求的日期
func occurrences(horizon model.DateRange, s Slate) ([]time.Time, error) {
	var days []rrule.Weekday
	for i, n := range s.Counts {
		if n > 0 {
			days = append(days, weekdays[i])
		}
	}
	if len(days) == 0 || horizon.Len() == 0 {
		return nil, nil
	}

	start := model.Truncate(horizon.Start)
	until := model.Truncate(horizon.End)
	if s.Until != "" {
		u, _ := model.ParseDate(s.Until)
		if u.Before(until) {
			until = u
		}
	}
	if until.Before(start) {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Until:     until,
		Byweekday: days,
	})
	if err != nil {
		return nil, fmt.Errorf("基地 %s 的备份规则无效: %w", s.Base, err)
	}
	dates := rule.All()

	if s.Skip != "" {
		skip, err := rrule.StrToRRule(s.Skip)
		if err != nil {
			return nil, fmt.Errorf("基地 %s 的跳过规则无效: %w", s.Base, err)
		}
		skip.DTStart(start)
		skipped := model.NewDateSet(skip.Between(start, until, true)...)
		dates = lo.Reject(dates, func(d time.Time, _ int) bool { return skipped.Has(d) })
	}
	return dates, nil
}

func mondayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// DaysByBase 按出发基地汇总任务天数
func DaysByBase(pairings []*model.Pairing) map[string]int {
	out := make(map[string]int)
	for _, p := range pairings {
		out[p.BaseStart] += p.Mult
	}
	return out
}

// Bases 汇总中的基地，按名称排序
func Bases(days map[string]int) []string {
	keys := lo.Keys(days)
	sort.Strings(keys)
	return keys
}
