package stats

import (
	"math"
	"testing"
	"time"

	"github.com/paiban/fca/pkg/model"
)

// 2024-06-01 为周六
var day0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testPairing(id string, day, mult int) *model.Pairing {
	d1 := day0.AddDate(0, 0, day)
	return &model.Pairing{ID: id, D1: d1, D2: d1.AddDate(0, 0, mult-1), Mult: mult}
}

func testHorizon(days int) model.DateRange {
	return model.DateRange{Start: day0, End: day0.AddDate(0, 0, days-1)}
}

func TestCoverageAnalyzer_Analyze(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	crew := []*model.CrewMember{
		{Name: "A", Blocked: model.NewDateSet()},
		{Name: "B", Blocked: model.NewDateSet(day0)},
	}
	pairings := []*model.Pairing{
		testPairing("P1", 0, 1),
		testPairing("R2", 1, 1),
		testPairing("P3", 1, 2),
	}
	assignment := [][]bool{
		{true, true, false},
		{false, false, false},
	}

	metrics := analyzer.Analyze(testHorizon(3), crew, pairings, assignment)

	if metrics == nil {
		t.Fatal("Metrics should not be nil")
	}

	if metrics.AssignedPairings != 2 || metrics.TotalPairings != 3 {
		t.Errorf("Expected 2/3 assigned, got %d/%d", metrics.AssignedPairings, metrics.TotalPairings)
	}

	if len(metrics.UncoveredPairings) != 1 || metrics.UncoveredPairings[0].PairingID != "P3" {
		t.Errorf("Expected P3 uncovered, got %v", metrics.UncoveredPairings)
	}
	if metrics.UncoveredPairings[0].Kind != KindMulti {
		t.Errorf("Expected kind %s, got %s", KindMulti, metrics.UncoveredPairings[0].Kind)
	}

	d := metrics.DailyCoverage["2024-06-01"]
	if d.Pairings != 1 || d.Working != 1 || d.Blocked != 1 || d.Idle != 0 {
		t.Errorf("第一天统计错误: %+v", d)
	}
	d = metrics.DailyCoverage["2024-06-02"]
	if d.Pairings != 2 || d.Assigned != 1 || d.CoverageRate != 50 || d.Idle != 1 {
		t.Errorf("第二天统计错误: %+v", d)
	}

	if metrics.KindCoverage[KindReserve] != 100 {
		t.Errorf("Expected reserve coverage 100, got %.1f", metrics.KindCoverage[KindReserve])
	}

	// 可用机组日 1+2+2=5，工作 2 天
	if math.Abs(metrics.Utilization-40) > 1e-9 {
		t.Errorf("Expected utilization 40%%, got %.1f%%", metrics.Utilization)
	}

	if len(metrics.BusiestDays) != 2 || metrics.BusiestDays[0] != "2024-06-01" {
		t.Errorf("Expected busiest days [2024-06-01 2024-06-02], got %v", metrics.BusiestDays)
	}
}

func TestCoverageAnalyzer_EmptyInput(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	metrics := analyzer.Analyze(testHorizon(3), nil, nil, nil)

	if metrics.OverallCoverage != 100 {
		t.Errorf("Empty input should have 100%% coverage, got %.1f%%", metrics.OverallCoverage)
	}
}

func TestPairingKind(t *testing.T) {
	charter := testPairing("C1", 0, 1)
	charter.Charter = true

	tests := []struct {
		name string
		p    *model.Pairing
		want string
	}{
		{"备份", testPairing("R1", 0, 1), KindReserve},
		{"包机", charter, KindCharter},
		{"多日", testPairing("P1", 0, 3), KindMulti},
		{"普通", testPairing("P2", 0, 1), KindRegular},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PairingKind(tt.p); got != tt.want {
				t.Errorf("PairingKind() = %s, want %s", got, tt.want)
			}
		})
	}
}
