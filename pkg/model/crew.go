package model

import (
	"fmt"
	"strings"
	"time"
)

// OvernightPreference 过夜偏好
type OvernightPreference int

const (
	OvernightUnset OvernightPreference = iota
	OvernightNone                      // No Overnights
	OvernightSome                      // Some
	OvernightMany                      // Many
)

var overnightTable = map[string]OvernightPreference{
	"no overnights": OvernightNone,
	"some":          OvernightSome,
	"many":          OvernightMany,
}

// ParseOvernightPreference 解析过夜偏好，空值表示未填写
func ParseOvernightPreference(s string) (OvernightPreference, error) {
	key := normalizeCategory(s)
	if key == "" {
		return OvernightUnset, nil
	}
	if v, ok := overnightTable[key]; ok {
		return v, nil
	}
	return OvernightUnset, fmt.Errorf("未知的过夜偏好 %q", s)
}

// Tier 数值档位：No=1, Some=2, Many=3
func (p OvernightPreference) Tier() int {
	return int(p)
}

func (p OvernightPreference) String() string {
	switch p {
	case OvernightNone:
		return "No Overnights"
	case OvernightSome:
		return "Some"
	case OvernightMany:
		return "Many"
	}
	return ""
}

// TimePeriodPreference 时段偏好
type TimePeriodPreference int

const (
	TimeUnset  TimePeriodPreference = iota
	TimeAM                          // AM
	TimeMidday                      // Midday
	TimePM                          // PM
)

var timePeriodTable = map[string]TimePeriodPreference{
	"am":     TimeAM,
	"midday": TimeMidday,
	"pm":     TimePM,
}

// ParseTimePeriodPreference 解析时段偏好
func ParseTimePeriodPreference(s string) (TimePeriodPreference, error) {
	key := normalizeCategory(s)
	if key == "" {
		return TimeUnset, nil
	}
	if v, ok := timePeriodTable[key]; ok {
		return v, nil
	}
	return TimeUnset, fmt.Errorf("未知的时段偏好 %q", s)
}

// Tier 数值档位：AM=1, Midday=2, PM=3
func (p TimePeriodPreference) Tier() int {
	return int(p)
}

func (p TimePeriodPreference) String() string {
	switch p {
	case TimeAM:
		return "AM"
	case TimeMidday:
		return "Midday"
	case TimePM:
		return "PM"
	}
	return ""
}

// ReservePreference 备份偏好
type ReservePreference int

const (
	ReserveAvoid       ReservePreference = 0 // No
	ReservePrefer      ReservePreference = 1 // Yes
	ReserveIndifferent ReservePreference = 2 // 其它取值
)

// ParseReservePreference 解析备份偏好；Yes/No 之外的取值都视为无偏好
func ParseReservePreference(s string) ReservePreference {
	switch normalizeCategory(s) {
	case "yes":
		return ReservePrefer
	case "no":
		return ReserveAvoid
	}
	return ReserveIndifferent
}

// Tier 数值档位：No=0, Yes=1, 其它=2
func (p ReservePreference) Tier() int {
	return int(p)
}

func (p ReservePreference) String() string {
	switch p {
	case ReservePrefer:
		return "Yes"
	case ReserveAvoid:
		return "No"
	}
	return "Indifferent"
}

func normalizeCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "nan" || s == "none" || s == "null" {
		return ""
	}
	return s
}

// CrewMember 机组成员，在一次运行中不可变
type CrewMember struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	HomeBase  string `json:"base"`
	Seat      string `json:"seat"`
	Seniority int    `json:"user_seniority"`

	// Row 在分配矩阵中的行号；0 为最资浅
	Row int `json:"row"`

	TDY          bool `json:"is_tdy"`
	RequiredDays int  `json:"required_days"`

	Overnight  OvernightPreference  `json:"overnight_preference"`
	TimePeriod TimePeriodPreference `json:"time_period_preference"`
	Reserve    ReservePreference    `json:"reserve_preference"`

	PreferredOff []time.Time `json:"preferred_days_off"`
	Blocked      DateSet     `json:"blocked"`
}

// MinDays 最少工作天数（与 MaxDays 相同，定额而非区间）
func (c *CrewMember) MinDays() int { return c.RequiredDays }

// MaxDays 最多工作天数
func (c *CrewMember) MaxDays() int { return c.RequiredDays }

// IsBlocked 某天是否被休假/培训/限制占用
func (c *CrewMember) IsBlocked(d time.Time) bool {
	return c.Blocked != nil && c.Blocked.Has(d)
}

// BlockedIn 范围内被占用的天数
func (c *CrewMember) BlockedIn(r DateRange) int {
	if c.Blocked == nil {
		return 0
	}
	return c.Blocked.CountIn(r)
}

// AvailableDays 范围内可工作天数
func (c *CrewMember) AvailableDays(r DateRange) int {
	return r.Len() - c.BlockedIn(r)
}

// LongestOpenRun 范围内最长连续可用天数
func (c *CrewMember) LongestOpenRun(r DateRange) int {
	best, cur := 0, 0
	for _, d := range r.Days() {
		if c.IsBlocked(d) {
			cur = 0
			continue
		}
		cur++
		if cur > best {
			best = cur
		}
	}
	return best
}

// SeniorityWeight 资历权重 (row+1)/n
func (c *CrewMember) SeniorityWeight(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(c.Row+1) / float64(n)
}
