package config

import (
	"fmt"
	"time"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
)

// RulesConfig 业务规则，建模与诊断共用
type RulesConfig struct {
	MinRestHours          float64        `json:"min_rest_hours" validate:"gt=0"`
	LongDutyHours         float64        `json:"long_duty_hours" validate:"gt=0"`
	ManyLegs              int            `json:"many_legs" validate:"gt=0"`
	HeavyDutyHours        float64        `json:"heavy_duty_hours" validate:"gt=0"`
	HeavyLegs             int            `json:"heavy_legs" validate:"gt=0"`
	Windows               []rules.Window `json:"windows" validate:"dive"`
	OvernightClamp        int            `json:"overnight_clamp" validate:"gte=0"`
	TimeBonusMax          int            `json:"time_bonus_max" validate:"gte=0"`
	PreferredReserveBonus int            `json:"preferred_reserve_bonus"`
	ReserveMaxMagnitude   int            `json:"reserve_max_magnitude" validate:"gte=0"`
	ReserveNoPrefCap      int            `json:"reserve_no_pref_cap" validate:"gte=0"`
	ReserveNoPrefScore    float64        `json:"reserve_no_pref_score"`
	JuniorCharterCount    int            `json:"junior_charter_count" validate:"gte=0"`
	ReserveCapacity       int            `json:"reserve_capacity_per_crew" validate:"gte=0"`
	NearCapacityRatio     float64        `json:"near_capacity_ratio" validate:"gt=0,lte=1"`
	TDYFiveDays           int            `json:"tdy_five_days" validate:"gt=0"`
	TDYSixDays            int            `json:"tdy_six_days" validate:"gt=0"`
	Weights               rules.Weights  `json:"weights"`

	// Bases 按基地覆盖
	Bases map[string]BaseOverride `json:"bases" validate:"dive"`
}

// BaseOverride 单个基地的覆盖项；零值表示沿用默认
type BaseOverride struct {
	TimeZone       string    `json:"time_zone"`
	ReferenceHours []float64 `json:"reference_hours" validate:"omitempty,len=3"`
	OverageCap     int       `json:"overage_cap" validate:"gte=0"`
	Aliases        []string  `json:"aliases"`
}

// DefaultRules 默认业务规则
func DefaultRules() RulesConfig {
	return RulesConfig{
		MinRestHours:          rules.DefaultMinRestHours,
		LongDutyHours:         rules.DefaultLongDutyHours,
		ManyLegs:              rules.DefaultManyLegs,
		HeavyDutyHours:        rules.DefaultHeavyDutyHours,
		HeavyLegs:             rules.DefaultHeavyLegs,
		Windows:               rules.DefaultWindows(),
		OvernightClamp:        rules.DefaultOvernightClamp,
		TimeBonusMax:          rules.DefaultTimeBonusMax,
		PreferredReserveBonus: rules.DefaultPreferredReserveBonus,
		ReserveMaxMagnitude:   rules.DefaultReserveMaxMagnitude,
		ReserveNoPrefCap:      rules.DefaultReserveNoPrefCap,
		ReserveNoPrefScore:    rules.DefaultReserveNoPrefScore,
		JuniorCharterCount:    rules.DefaultJuniorCharterCount,
		ReserveCapacity:       rules.DefaultReserveCapacity,
		NearCapacityRatio:     rules.DefaultNearCapacityRatio,
		TDYFiveDays:           model.DefaultTDYRule().FiveDays,
		TDYSixDays:            model.DefaultTDYRule().SixDays,
		Weights:               rules.DefaultWeights(),
	}
}

// ForBase 合成某基地生效的规则
func (c RulesConfig) ForBase(base string) rules.BaseRules {
	r := rules.Default(base)
	r.MinRest = time.Duration(c.MinRestHours * float64(time.Hour))
	r.LongDutyHours = c.LongDutyHours
	r.ManyLegs = c.ManyLegs
	r.HeavyDutyHours = c.HeavyDutyHours
	r.HeavyLegs = c.HeavyLegs
	if len(c.Windows) > 0 {
		r.Windows = append([]rules.Window(nil), c.Windows...)
	}
	r.OvernightClamp = c.OvernightClamp
	r.TimeBonusMax = c.TimeBonusMax
	r.PreferredReserveBonus = c.PreferredReserveBonus
	r.ReserveMaxMagnitude = c.ReserveMaxMagnitude
	r.ReserveNoPrefCap = c.ReserveNoPrefCap
	r.ReserveNoPrefScore = c.ReserveNoPrefScore
	r.JuniorCharterCount = c.JuniorCharterCount
	r.ReserveCapacityPerCrew = c.ReserveCapacity
	r.NearCapacityRatio = c.NearCapacityRatio
	r.Weights = c.Weights

	if o, ok := c.Bases[base]; ok {
		if o.TimeZone != "" {
			if loc, err := time.LoadLocation(o.TimeZone); err == nil {
				r.Location = loc
			}
		}
		if len(o.ReferenceHours) == 3 {
			copy(r.ReferenceHours[:], o.ReferenceHours)
		}
		if o.OverageCap > 0 {
			r.OverageCap = o.OverageCap
		}
		if len(o.Aliases) > 0 {
			r.Aliases = append([]string(nil), o.Aliases...)
		}
	}
	r.LongDutyCapacityPerCrew = r.OverageCap
	return r
}

// TDYRule 外派定额
func (c RulesConfig) TDYRule() model.TDYRule {
	return model.TDYRule{FiveDays: c.TDYFiveDays, SixDays: c.TDYSixDays}
}

func (c RulesConfig) validateBases() error {
	for base, o := range c.Bases {
		if o.TimeZone == "" {
			continue
		}
		if _, err := time.LoadLocation(o.TimeZone); err != nil {
			return fmt.Errorf("基地 %s 的时区 %q 无效: %w", base, o.TimeZone, err)
		}
	}
	return nil
}
