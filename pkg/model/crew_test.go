package model

import (
	"testing"
)

func TestParseOvernightPreference(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected OvernightPreference
		wantErr  bool
	}{
		{name: "不过夜", input: "No Overnights", expected: OvernightNone},
		{name: "部分过夜", input: "Some", expected: OvernightSome},
		{name: "大小写与空格", input: "  many ", expected: OvernightMany},
		{name: "未填写", input: "", expected: OvernightUnset},
		{name: "未知取值", input: "Lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOvernightPreference(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("got %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestPreferenceTiers(t *testing.T) {
	if OvernightNone.Tier() != 1 || OvernightSome.Tier() != 2 || OvernightMany.Tier() != 3 {
		t.Error("overnight tiers should be No=1 Some=2 Many=3")
	}
	if TimeAM.Tier() != 1 || TimeMidday.Tier() != 2 || TimePM.Tier() != 3 {
		t.Error("time tiers should be AM=1 Midday=2 PM=3")
	}
	if ParseReservePreference("Yes") != ReservePrefer ||
		ParseReservePreference("No") != ReserveAvoid ||
		ParseReservePreference("Either") != ReserveIndifferent {
		t.Error("reserve tiers should be Yes=1 No=0 other=2")
	}
	if _, err := ParseTimePeriodPreference("Night"); err == nil {
		t.Error("unknown time period should fail")
	}
}

func TestCrewMember_Availability(t *testing.T) {
	r, _ := NewDateRange("2024-05-01", "2024-05-10")
	dates, _ := ParseDateList("['2024-05-03', '2024-05-04', '2024-05-08']")
	c := &CrewMember{Name: "a", Blocked: NewDateSet(dates...)}

	if got := c.AvailableDays(r); got != 7 {
		t.Errorf("AvailableDays() = %d, expected 7", got)
	}
	// 9、10 号以及 5-7 号，最长为 5-7 号
	if got := c.LongestOpenRun(r); got != 3 {
		t.Errorf("LongestOpenRun() = %d, expected 3", got)
	}
}

func TestCrewMember_SeniorityWeight(t *testing.T) {
	junior := &CrewMember{Row: 0}
	senior := &CrewMember{Row: 3}
	if junior.SeniorityWeight(4) != 0.25 {
		t.Errorf("junior weight = %v", junior.SeniorityWeight(4))
	}
	if senior.SeniorityWeight(4) != 1 {
		t.Errorf("senior weight = %v", senior.SeniorityWeight(4))
	}
}
