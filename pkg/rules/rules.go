// Package rules 定义按基地区分的排班业务规则，建模与诊断共用同一份
package rules

import (
	"time"
)

// 默认业务常量
const (
	DefaultMinRestHours          = 12
	DefaultLongDutyHours         = 11
	DefaultManyLegs              = 5
	DefaultHeavyDutyHours        = 9
	DefaultHeavyLegs             = 5
	DefaultOverageCap            = 5
	DefaultOvernightClamp        = 3
	DefaultReserveMaxMagnitude   = 10
	DefaultReserveNoPrefCap      = 7
	DefaultReserveNoPrefScore    = -10
	DefaultReserveDaysDivisor    = 1.5
	DefaultPreferredReserveBonus = 4
	DefaultTimeBonusMax          = 10
	DefaultTimeDecayHours        = 10
	DefaultJuniorCharterCount    = 5
	DefaultReserveCapacity       = 10
	DefaultNearCapacityRatio     = 0.9
	DefaultTimeZone              = "America/Los_Angeles"
)

// Window 滚动窗口上限：任意 Length 天内最多工作 Limit 天
type Window struct {
	Length int `json:"length" validate:"gt=0"`
	Limit  int `json:"limit" validate:"gt=0"`
}

// DefaultWindows 7-in-8、8-in-10、10-in-14
func DefaultWindows() []Window {
	return []Window{{Length: 8, Limit: 7}, {Length: 10, Limit: 8}, {Length: 14, Limit: 10}}
}

// Weights 目标函数各项权重
type Weights struct {
	DaysOff   float64 `json:"days_off"`
	Overnight float64 `json:"overnight"`
	Time      float64 `json:"time"`
	Reserve   float64 `json:"reserve"`
	Charter   float64 `json:"charter"`
	CDO       float64 `json:"cdo"`
	Chunks    float64 `json:"chunks"`
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{DaysOff: 3, Overnight: 1.2, Time: 0.2, Reserve: 1.5, Charter: 1, CDO: 0.3, Chunks: 0.3}
}

// OvernightMultipliers 过夜任务对时段奖励的修正
type OvernightMultipliers struct {
	Many float64 `json:"many"`
	Some float64 `json:"some"`
	None float64 `json:"none"`
}

// BaseRules 单个基地生效的全部规则
type BaseRules struct {
	Base     string         `json:"base"`
	Aliases  []string       `json:"aliases"`
	Location *time.Location `json:"-"`

	MinRest        time.Duration `json:"min_rest"`
	LongDutyHours  float64       `json:"long_duty_hours"`
	ManyLegs       int           `json:"many_legs"`
	HeavyDutyHours float64       `json:"heavy_duty_hours"`
	HeavyLegs      int           `json:"heavy_legs"`
	OverageCap     int           `json:"overage_cap"`
	Windows        []Window      `json:"windows"`

	// ReferenceHours 早/中/晚参考小时
	ReferenceHours [3]float64 `json:"reference_hours"`

	OvernightClamp        int                  `json:"overnight_clamp"`
	OvernightMultipliers  OvernightMultipliers `json:"overnight_multipliers"`
	TimeBonusMax          int                  `json:"time_bonus_max"`
	TimeDecayHours        float64              `json:"time_decay_hours"`
	PreferredReserveBonus int                  `json:"preferred_reserve_bonus"`

	ReserveMaxMagnitude int     `json:"reserve_max_magnitude"`
	ReserveNoPrefCap    int     `json:"reserve_no_pref_cap"`
	ReserveNoPrefScore  float64 `json:"reserve_no_pref_score"`
	ReserveDaysDivisor  float64 `json:"reserve_days_divisor"`
	JuniorCharterCount  int     `json:"junior_charter_count"`

	// 诊断容量
	ReserveCapacityPerCrew  int     `json:"reserve_capacity_per_crew"`
	LongDutyCapacityPerCrew int     `json:"long_duty_capacity_per_crew"`
	NearCapacityRatio       float64 `json:"near_capacity_ratio"`

	Weights Weights `json:"weights"`
}

var referenceHours = map[string][3]float64{
	"DAL": {6, 11, 17},
	"BUR": {6, 12, 15},
	"LAS": {6, 10, 14},
	"OAK": {7, 9, 11},
	"OPF": {9, 10, 11},
	"SCF": {6, 10, 16},
	"SNA": {7, 9, 11},
}

var defaultReferenceHours = [3]float64{7, 11, 15}

var overageCaps = map[string]int{
	"OAK": 8,
	"SCF": 8,
	"SNA": 8,
}

var timeZones = map[string]string{
	"DAL": "America/Chicago",
	"OPF": "America/New_York",
	"SCF": "America/Phoenix",
}

var aliases = map[string][]string{
	"OPF": {"BCT"},
}

// Default 返回某基地的默认规则
func Default(base string) BaseRules {
	ref, ok := referenceHours[base]
	if !ok {
		ref = defaultReferenceHours
	}
	capN, ok := overageCaps[base]
	if !ok {
		capN = DefaultOverageCap
	}
	tz, ok := timeZones[base]
	if !ok {
		tz = DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	return BaseRules{
		Base:                    base,
		Aliases:                 aliases[base],
		Location:                loc,
		MinRest:                 DefaultMinRestHours * time.Hour,
		LongDutyHours:           DefaultLongDutyHours,
		ManyLegs:                DefaultManyLegs,
		HeavyDutyHours:          DefaultHeavyDutyHours,
		HeavyLegs:               DefaultHeavyLegs,
		OverageCap:              capN,
		Windows:                 DefaultWindows(),
		ReferenceHours:          ref,
		OvernightClamp:          DefaultOvernightClamp,
		OvernightMultipliers:    OvernightMultipliers{Many: 1.5, Some: 1.2, None: 0.8},
		TimeBonusMax:            DefaultTimeBonusMax,
		TimeDecayHours:          DefaultTimeDecayHours,
		PreferredReserveBonus:   DefaultPreferredReserveBonus,
		ReserveMaxMagnitude:     DefaultReserveMaxMagnitude,
		ReserveNoPrefCap:        DefaultReserveNoPrefCap,
		ReserveNoPrefScore:      DefaultReserveNoPrefScore,
		ReserveDaysDivisor:      DefaultReserveDaysDivisor,
		JuniorCharterCount:      DefaultJuniorCharterCount,
		ReserveCapacityPerCrew:  DefaultReserveCapacity,
		LongDutyCapacityPerCrew: capN,
		NearCapacityRatio:       DefaultNearCapacityRatio,
		Weights:                 DefaultWeights(),
	}
}

// IsHeavy 计入执勤超额上限的任务
func (r BaseRules) IsHeavy(dutySeconds, legs int) bool {
	return float64(dutySeconds)/3600 >= r.HeavyDutyHours || legs >= r.HeavyLegs
}

// IsIntense 需要间隔安排的长执勤/多航段任务
func (r BaseRules) IsIntense(dutySeconds, legs int) bool {
	return float64(dutySeconds)/3600 >= r.LongDutyHours || legs >= r.ManyLegs
}

// ReserveCap 偏好备份的机组最多承担的备份任务数
func (r BaseRules) ReserveCap(requiredDays int) int {
	if r.ReserveDaysDivisor <= 0 {
		return requiredDays
	}
	return int(float64(requiredDays) / r.ReserveDaysDivisor)
}
