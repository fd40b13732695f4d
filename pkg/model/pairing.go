package model

import (
	"strings"
	"time"
)

// Pairing 候选任务（可跨多日）
type Pairing struct {
	ID          string    `json:"idx" db:"idx" csv:"idx"`
	D1          time.Time `json:"d1" db:"d1"`
	D2          time.Time `json:"d2" db:"d2"`
	Mult        int       `json:"mult" db:"mult"`
	DutySeconds int       `json:"dtime" db:"dtime"`
	Legs        int       `json:"mlegs" db:"mlegs"`
	Layovers    int       `json:"nlayovers" db:"nlayovers"`
	BaseStart   string    `json:"base_start" db:"base_start"`
	Charter     bool      `json:"charter" db:"charter"`
	Start       time.Time `json:"pstart" db:"pstart"`
	End         time.Time `json:"pend" db:"pend"`

	// StartHour 本地开始小时（表中 shour 列）；缺失时为 -1，由 pstart 按基地时区推算
	StartHour float64 `json:"shour" db:"shour"`
}

// IsReserve 备份任务（R 前缀）
func (p *Pairing) IsReserve() bool {
	return strings.HasPrefix(p.ID, "R")
}

// IsCharter 包机任务
func (p *Pairing) IsCharter() bool {
	return p.Charter
}

// IsSpecial 特殊处理任务（编号含 M），起止时间需要合成
func (p *Pairing) IsSpecial() bool {
	return strings.Contains(p.ID, "M")
}

// IsMulti 含过夜
func (p *Pairing) IsMulti() bool {
	return p.Layovers >= 1
}

// DutyHours 执勤小时
func (p *Pairing) DutyHours() float64 {
	return float64(p.DutySeconds) / 3600
}

// LastDay 最后一天（d2 缺失时回退到 d1）
func (p *Pairing) LastDay() time.Time {
	if p.D2.IsZero() || p.D2.Before(p.D1) {
		return p.D1
	}
	return p.D2
}

// Span 任务日历跨度（天）
func (p *Pairing) Span() int {
	return DaysBetween(p.D1, p.LastDay()) + 1
}

// Duty 执勤时间段
func (p *Pairing) Duty() TimeRange {
	return TimeRange{Start: p.Start, End: p.End}
}

// LocalStartHour 开始小时，优先使用 shour 列
func (p *Pairing) LocalStartHour(loc *time.Location) float64 {
	if p.StartHour >= 0 {
		return p.StartHour
	}
	if p.Start.IsZero() {
		return 0
	}
	t := p.Start.In(loc)
	return float64(t.Hour()) + float64(t.Minute())/60
}

// IsLongDuty 长执勤
func (p *Pairing) IsLongDuty(hours float64) bool {
	return p.DutyHours() >= hours
}

// IsManyLegs 多航段
func (p *Pairing) IsManyLegs(legs int) bool {
	return p.Legs >= legs
}

// Touches 任务是否占用某天
func (p *Pairing) Touches(d time.Time) bool {
	d = Truncate(d)
	return !d.Before(p.D1) && !d.After(p.LastDay())
}
