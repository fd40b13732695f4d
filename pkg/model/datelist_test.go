package model

import (
	"testing"
)

func TestParseDateList(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantDates []string
		wantErrs  int
	}{
		{name: "空串", raw: "", wantDates: nil},
		{name: "空列表", raw: "[]", wantDates: nil},
		{name: "缺失值", raw: "nan", wantDates: nil},
		{
			name:      "列表字面量",
			raw:       "['2024-05-01', '2024-05-03']",
			wantDates: []string{"2024-05-01", "2024-05-03"},
		},
		{
			name:      "带时间的时间戳",
			raw:       `["2024-05-01 00:00:00", "2024-05-02T06:30:00"]`,
			wantDates: []string{"2024-05-01", "2024-05-02"},
		},
		{
			name:      "Timestamp 包装",
			raw:       "[Timestamp('2024-05-04 00:00:00')]",
			wantDates: []string{"2024-05-04"},
		},
		{
			name:      "重复日期去重",
			raw:       "['2024-05-01', '2024-05-01 00:00:00']",
			wantDates: []string{"2024-05-01"},
		},
		{
			name:      "非法条目被拒绝，其余保留",
			raw:       "['2024-05-01', 'tomorrow', '2024-13-01']",
			wantDates: []string{"2024-05-01"},
			wantErrs:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates, errs := ParseDateList(tt.raw)
			if len(errs) != tt.wantErrs {
				t.Errorf("got %d errors, expected %d: %v", len(errs), tt.wantErrs, errs)
			}
			if len(dates) != len(tt.wantDates) {
				t.Fatalf("got %d dates, expected %d", len(dates), len(tt.wantDates))
			}
			for i, d := range dates {
				if FormatDate(d) != tt.wantDates[i] {
					t.Errorf("dates[%d] = %s, expected %s", i, FormatDate(d), tt.wantDates[i])
				}
			}
		})
	}
}
