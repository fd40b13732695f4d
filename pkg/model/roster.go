package model

import (
	"fmt"
	"sort"
	"time"
)

// CrewRecord 机组记录表行
type CrewRecord struct {
	Name             string `json:"name" db:"name"`
	Base             string `json:"base" db:"base"`
	ToBase           string `json:"to_base" db:"to_base"`
	NonTDYDaysWorked int    `json:"non_tdy_days_worked" db:"non_tdy_days_worked"`
	FiveDayTDY       bool   `json:"five_day_tdy" db:"five_day_tdy"`
	SixDayTDY        bool   `json:"six_day_tdy" db:"six_day_tdy"`
}

// PreferenceRecord 偏好表行
type PreferenceRecord struct {
	UserName             string `json:"user_name" db:"user_name"`
	UserEmail            string `json:"user_email,omitempty" db:"user_email"`
	UserBase             string `json:"user_base" db:"user_base"`
	UserRole             string `json:"user_role" db:"user_role"`
	UserSeniority        int    `json:"user_seniority" db:"user_seniority"`
	OvernightPreference  string `json:"overnight_preference" db:"overnight_preference"`
	TimePeriodPreference string `json:"time_period_preference" db:"time_period_preference"`
	ReservePreference    string `json:"reserve_preference" db:"reserve_preference"`
	PreferredDaysOff     string `json:"preferred_days_off" db:"preferred_days_off"`
	VacationDays         string `json:"vacation_days" db:"vacation_days"`
	WorkRestrictionDays  string `json:"work_restriction_days" db:"work_restriction_days"`
	TrainingDays         string `json:"training_days" db:"training_days"`
}

// TDYRule 外派定额规则
type TDYRule struct {
	FiveDays int
	SixDays  int
}

// DefaultTDYRule 默认外派定额
func DefaultTDYRule() TDYRule {
	return TDYRule{FiveDays: 5, SixDays: 6}
}

// RequiredDaysFor 根据机组记录计算定额天数和是否外派
func RequiredDaysFor(rec CrewRecord, base string, rule TDYRule) (int, bool) {
	away := rec.Base != base
	switch {
	case rec.FiveDayTDY && away:
		return rule.FiveDays, true
	case rec.SixDayTDY && away:
		return rule.SixDays, true
	}
	return rec.NonTDYDaysWorked, false
}

// RosterProblem 组装名册时跳过的问题（记录级）
type RosterProblem struct {
	Crew   string
	Field  string
	Reason string
	Fatal  bool
}

func (p RosterProblem) Error() string {
	return fmt.Sprintf("机组 %s 字段 %s: %s", p.Crew, p.Field, p.Reason)
}

// BuildRoster 合并机组记录与偏好，按资历倒序排成分配矩阵的行
//
// 记录按 base == 基地 或 to_base == 基地 过滤。偏好表只保留在记录中的人员。
// 日期条目无效时只丢弃该条目；分类偏好取值无法识别时整行拒绝（Fatal）。
func BuildRoster(records []CrewRecord, prefs []PreferenceRecord, base, seat string, rule TDYRule) ([]*CrewMember, []RosterProblem) {
	inBase := make(map[string]CrewRecord)
	for _, r := range records {
		if r.Base == base || r.ToBase == base {
			inBase[r.Name] = r
		}
	}

	selected := make([]PreferenceRecord, 0, len(prefs))
	for _, p := range prefs {
		if _, ok := inBase[p.UserName]; ok {
			selected = append(selected, p)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].UserSeniority > selected[j].UserSeniority
	})

	var (
		crew     []*CrewMember
		problems []RosterProblem
	)
	for _, p := range selected {
		rec := inBase[p.UserName]
		member, probs := buildMember(rec, p, base, seat, rule)
		problems = append(problems, probs...)
		if member == nil {
			continue
		}
		member.Row = len(crew)
		crew = append(crew, member)
	}
	return crew, problems
}

func buildMember(rec CrewRecord, p PreferenceRecord, base, seat string, rule TDYRule) (*CrewMember, []RosterProblem) {
	var problems []RosterProblem

	overnight, err := ParseOvernightPreference(p.OvernightPreference)
	if err != nil {
		return nil, []RosterProblem{{Crew: p.UserName, Field: "overnight_preference", Reason: err.Error(), Fatal: true}}
	}
	period, err := ParseTimePeriodPreference(p.TimePeriodPreference)
	if err != nil {
		return nil, []RosterProblem{{Crew: p.UserName, Field: "time_period_preference", Reason: err.Error(), Fatal: true}}
	}

	days, tdy := RequiredDaysFor(rec, base, rule)
	member := &CrewMember{
		Name:         p.UserName,
		Email:        p.UserEmail,
		HomeBase:     rec.Base,
		Seat:         seat,
		Seniority:    p.UserSeniority,
		TDY:          tdy,
		RequiredDays: days,
		Overnight:    overnight,
		TimePeriod:   period,
		Reserve:      ParseReservePreference(p.ReservePreference),
		Blocked:      make(DateSet),
	}

	parse := func(field, raw string) []time.Time {
		dates, errs := ParseDateList(raw)
		for _, e := range errs {
			problems = append(problems, RosterProblem{Crew: p.UserName, Field: field, Reason: e.Error()})
		}
		return dates
	}

	member.PreferredOff = parse("preferred_days_off", p.PreferredDaysOff)
	for _, field := range []struct{ name, raw string }{
		{"vacation_days", p.VacationDays},
		{"work_restriction_days", p.WorkRestrictionDays},
		{"training_days", p.TrainingDays},
	} {
		member.Blocked.Union(NewDateSet(parse(field.name, field.raw)...))
	}
	return member, problems
}

// FilterPairings 保留从基地（或其别名）出发的任务
func FilterPairings(pairings []*Pairing, base string, aliases []string) []*Pairing {
	allowed := map[string]bool{base: true}
	for _, a := range aliases {
		allowed[a] = true
	}
	out := make([]*Pairing, 0, len(pairings))
	for _, p := range pairings {
		if allowed[p.BaseStart] {
			out = append(out, p)
		}
	}
	return out
}
