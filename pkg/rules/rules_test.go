package rules

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		ref     [3]float64
		overage int
		aliases int
	}{
		{name: "达拉斯", base: "DAL", ref: [3]float64{6, 11, 17}, overage: 5},
		{name: "奥克兰上限更高", base: "OAK", ref: [3]float64{7, 9, 11}, overage: 8},
		{name: "OPF 包含 BCT", base: "OPF", ref: [3]float64{9, 10, 11}, overage: 5, aliases: 1},
		{name: "未知基地", base: "XYZ", ref: [3]float64{7, 11, 15}, overage: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default(tt.base)
			if r.ReferenceHours != tt.ref {
				t.Errorf("ReferenceHours = %v, expected %v", r.ReferenceHours, tt.ref)
			}
			if r.OverageCap != tt.overage {
				t.Errorf("OverageCap = %d, expected %d", r.OverageCap, tt.overage)
			}
			if len(r.Aliases) != tt.aliases {
				t.Errorf("Aliases = %v", r.Aliases)
			}
			if r.MinRest != 12*time.Hour {
				t.Errorf("MinRest = %v", r.MinRest)
			}
			if r.Location == nil {
				t.Error("Location should not be nil")
			}
		})
	}
}

func TestBaseRules_Classification(t *testing.T) {
	r := Default("DAL")
	if !r.IsHeavy(9*3600, 1) || !r.IsHeavy(3600, 5) || r.IsHeavy(8*3600, 4) {
		t.Error("heavy duty should be >=9h or >=5 legs")
	}
	if !r.IsIntense(11*3600, 1) || r.IsIntense(10*3600, 4) {
		t.Error("intense duty should be >=11h or >=5 legs")
	}
	if r.ReserveCap(16) != 10 || r.ReserveCap(5) != 3 {
		t.Errorf("ReserveCap(16)=%d ReserveCap(5)=%d", r.ReserveCap(16), r.ReserveCap(5))
	}
}
