package diagnose

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/mip"
	"github.com/paiban/fca/pkg/scheduler/solver"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testPairing(id string, day, mult int) *model.Pairing {
	d1 := day0.AddDate(0, 0, day)
	d2 := d1.AddDate(0, 0, mult-1)
	return &model.Pairing{
		ID:          id,
		D1:          d1,
		D2:          d2,
		Mult:        mult,
		DutySeconds: 6 * 3600,
		Legs:        2,
		BaseStart:   "BUR",
		Start:       d1.Add(8 * time.Hour),
		End:         d2.Add(14 * time.Hour),
		StartHour:   8,
	}
}

func testCrew(name string, required int, blocked ...int) *model.CrewMember {
	set := model.NewDateSet()
	for _, off := range blocked {
		set.Add(day0.AddDate(0, 0, off))
	}
	return &model.CrewMember{Name: name, RequiredDays: required, Blocked: set}
}

func testInput(days int, crew []*model.CrewMember, pairings []*model.Pairing) *Input {
	for i, c := range crew {
		c.Row = i
	}
	r := rules.Default("BUR")
	r.Location = time.UTC
	return &Input{
		Base:     "BUR",
		Seat:     "CA",
		Horizon:  model.DateRange{Start: day0, End: day0.AddDate(0, 0, days-1)},
		Crew:     crew,
		Pairings: pairings,
		Rules:    r,
	}
}

// bruteForce 枚举全部 0/1 取值判断可行性
type bruteForce struct{}

func (bruteForce) Name() string { return "brute-force" }

func (bruteForce) Solve(_ context.Context, m *mip.Model, _ solver.Options) (*solver.Solution, error) {
	n := m.NumVars()
	if n > 20 {
		return nil, fmt.Errorf("模型过大: %d", n)
	}
	values := make([]float64, n)
	for mask := 0; mask < 1<<n; mask++ {
		for v := 0; v < n; v++ {
			values[v] = float64((mask >> v) & 1)
		}
		if len(m.Violations(values, 1e-9)) == 0 {
			return &solver.Solution{Solver: "brute-force", Status: solver.StatusOptimal, Values: values}, nil
		}
	}
	return &solver.Solution{Solver: "brute-force", Status: solver.StatusInfeasible}, nil
}

// fixedSolver 返回固定状态并记录调用次数
type fixedSolver struct {
	name   string
	status solver.Status
	calls  int
}

func (s *fixedSolver) Name() string { return s.name }

func (s *fixedSolver) Solve(_ context.Context, m *mip.Model, _ solver.Options) (*solver.Solution, error) {
	s.calls++
	sol := &solver.Solution{Solver: s.name, Status: s.status}
	if s.status.HasSolution() {
		sol.Values = make([]float64, m.NumVars())
	}
	return sol, nil
}

func runChecks(in *Input) []DiagnosticReport {
	d := newData(in)
	out := []DiagnosticReport{checkDataLoading(d)}
	for _, c := range analyticChecks {
		out = append(out, c(d))
	}
	return out
}

func mustFind(t *testing.T, reports []DiagnosticReport, name string) DiagnosticReport {
	t.Helper()
	r, ok := Find(reports, name)
	require.True(t, ok, "缺少检查 %s", name)
	return r
}

func TestPairingVacationCoverage_BlockedOnOnlyDate(t *testing.T) {
	in := testInput(3, []*model.CrewMember{testCrew("A", 1, 1)}, []*model.Pairing{testPairing("P100", 1, 1)})

	r := mustFind(t, runChecks(in), CheckPairingVacation)

	assert.Equal(t, ResultFail, r.Result)
	assert.Contains(t, r.Message, "P100")
	uncoverable := r.Details["uncoverable"].([]PairingEligibility)
	require.Len(t, uncoverable, 1)
	assert.Equal(t, "P100", uncoverable[0].Pairing)
	assert.Equal(t, 0, uncoverable[0].Eligible)
}

func TestPairingVacationCoverage_LimitedWarning(t *testing.T) {
	crew := []*model.CrewMember{testCrew("A", 1), testCrew("B", 1, 0), testCrew("C", 1, 0)}
	in := testInput(2, crew, []*model.Pairing{testPairing("P1", 0, 1), testPairing("P2", 1, 1)})

	r := mustFind(t, runChecks(in), CheckPairingVacation)

	assert.Equal(t, ResultWarning, r.Result)
	limited := r.Details["limited"].([]PairingEligibility)
	require.Len(t, limited, 1)
	assert.Equal(t, "P1", limited[0].Pairing)
	assert.Equal(t, 1, limited[0].Eligible)
}

func TestIndividualCrew_NegativeSlack(t *testing.T) {
	blocked := make([]int, 15)
	for i := range blocked {
		blocked[i] = i
	}
	in := testInput(30, []*model.CrewMember{testCrew("A", 20, blocked...)}, []*model.Pairing{testPairing("P1", 20, 1)})

	r := mustFind(t, runChecks(in), CheckIndividualCrew)

	assert.Equal(t, ResultFail, r.Result)
	impossible := r.Details["impossible_crew"].([]CrewSlack)
	require.Len(t, impossible, 1)
	assert.Equal(t, "A", impossible[0].Name)
	assert.Equal(t, -5, impossible[0].Slack)
	assert.Equal(t, 15, impossible[0].AvailableDays)
	assert.Equal(t, 30, impossible[0].PeriodDays)
}

func TestIndividualCrew_TightWarning(t *testing.T) {
	in := testInput(10, []*model.CrewMember{testCrew("A", 6, 0, 1), testCrew("B", 2)}, []*model.Pairing{testPairing("P1", 5, 1)})

	r := mustFind(t, runChecks(in), CheckIndividualCrew)

	assert.Equal(t, ResultWarning, r.Result)
	tight := r.Details["tight_crew"].([]CrewSlack)
	require.Len(t, tight, 1)
	assert.Equal(t, 2, tight[0].Slack)
}

func TestSupplyDemand(t *testing.T) {
	crew := []*model.CrewMember{testCrew("A", 15), testCrew("B", 15), testCrew("C", 15)}
	var pairings []*model.Pairing
	for i := 0; i < 10; i++ {
		pairings = append(pairings, testPairing(fmt.Sprintf("P%d", i), i, 5))
	}
	in := testInput(30, crew, pairings)

	r := mustFind(t, runChecks(in), CheckSupplyDemand)

	assert.Equal(t, ResultFail, r.Result)
	assert.Equal(t, -5, r.Details["gap"])
	assert.Equal(t, 45, r.Details["total_crew_days"])
	assert.Equal(t, 50, r.Details["total_pairing_days"])

	crew[0].RequiredDays = 20
	r = mustFind(t, runChecks(in), CheckSupplyDemand)
	assert.Equal(t, ResultPass, r.Result)
	assert.Equal(t, 0, r.Details["gap"])

	crew[0].RequiredDays = 22
	r = mustFind(t, runChecks(in), CheckSupplyDemand)
	assert.Equal(t, ResultFail, r.Result)
	assert.Equal(t, 2, r.Details["gap"])
}

func TestDailyCoverage(t *testing.T) {
	crew := []*model.CrewMember{testCrew("A", 1), testCrew("B", 1, 1)}
	pairings := []*model.Pairing{testPairing("P1", 1, 1), testPairing("P2", 1, 1), testPairing("P3", 0, 1)}
	in := testInput(2, crew, pairings)

	r := mustFind(t, runChecks(in), CheckDailyCoverage)

	assert.Equal(t, ResultFail, r.Result)
	days := r.Details["problem_days"].([]DayDeficit)
	require.Len(t, days, 1)
	assert.Equal(t, DayDeficit{Date: "2024-01-02", WorkNeeded: 2, CrewAvailable: 1, Deficit: 1}, days[0])
}

func TestVacationAnalysis(t *testing.T) {
	crew := []*model.CrewMember{testCrew("A", 1, 0, 1), testCrew("B", 1), testCrew("C", 1, 2, 40)}
	in := testInput(5, crew, []*model.Pairing{testPairing("P1", 3, 1)})

	r := mustFind(t, runChecks(in), CheckVacationAnalysis)

	assert.Equal(t, ResultPass, r.Result)
	assert.Equal(t, 2, r.Details["crew_with_vacation"])
	assert.Equal(t, 3, r.Details["total_vacation_days"])
	assert.InDelta(t, 1.0, r.Details["avg_per_crew"].(float64), 1e-9)
}

func TestTDYContiguity(t *testing.T) {
	tdy := testCrew("T", 5, 3)
	tdy.TDY = true
	in := testInput(7, []*model.CrewMember{tdy, testCrew("A", 2)}, []*model.Pairing{testPairing("P1", 0, 1)})

	r := mustFind(t, runChecks(in), CheckTDYContiguity)
	assert.Equal(t, ResultFail, r.Result)
	blocked := r.Details["blocked_tdy"].([]TDYRun)
	require.Len(t, blocked, 1)
	assert.Equal(t, TDYRun{Name: "T", RequiredDays: 5, LongestRun: 3}, blocked[0])

	tdy.Blocked = model.NewDateSet(day0)
	r = mustFind(t, runChecks(in), CheckTDYContiguity)
	assert.Equal(t, ResultPass, r.Result)
}

func TestLongDutyCapacity(t *testing.T) {
	heavy := func(id string, day int) *model.Pairing {
		p := testPairing(id, day, 1)
		p.DutySeconds = 10 * 3600
		return p
	}
	tests := []struct {
		name     string
		pairings []*model.Pairing
		want     Result
	}{
		{"容量内", []*model.Pairing{heavy("P1", 0), testPairing("P2", 1, 1)}, ResultPass},
		{"接近上限", []*model.Pairing{heavy("P1", 0), heavy("P2", 1)}, ResultWarning},
		{"超出容量", []*model.Pairing{heavy("P1", 0), heavy("P2", 1), heavy("P3", 2)}, ResultFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInput(5, []*model.CrewMember{testCrew("A", 3)}, tt.pairings)
			in.Rules.LongDutyCapacityPerCrew = 2

			r := mustFind(t, runChecks(in), CheckLongDutyCapacity)
			assert.Equal(t, tt.want, r.Result)
			assert.Equal(t, 2, r.Details["capacity"])
		})
	}
}

func TestReserveCapacity(t *testing.T) {
	prefer := testCrew("A", 6)
	prefer.Reserve = model.ReservePrefer
	avoid := testCrew("B", 3)
	avoid.Reserve = model.ReserveAvoid
	indifferent := testCrew("C", 20)
	indifferent.Reserve = model.ReserveIndifferent

	r := rules.Default("BUR")
	assert.Equal(t, 4, crewReserveCap(prefer, r))
	assert.Equal(t, 2, crewReserveCap(avoid, r))
	assert.Equal(t, 7, crewReserveCap(indifferent, r))

	var pairings []*model.Pairing
	for i := 0; i < 14; i++ {
		pairings = append(pairings, testPairing(fmt.Sprintf("R%d", i), i, 1))
	}
	in := testInput(20, []*model.CrewMember{prefer, avoid, indifferent}, pairings)
	rep := mustFind(t, runChecks(in), CheckReserveCapacity)
	assert.Equal(t, ResultFail, rep.Result)
	assert.Equal(t, 13, rep.Details["capacity"])
	assert.Equal(t, 14, rep.Details["demand"])
}

func TestThreePlusDay(t *testing.T) {
	crew := []*model.CrewMember{testCrew("A", 3), testCrew("B", 2)}
	in := testInput(10, crew, []*model.Pairing{testPairing("P1", 0, 3), testPairing("P2", 4, 4)})

	r := mustFind(t, runChecks(in), CheckThreePlusDay)
	assert.Equal(t, ResultWarning, r.Result)
	assert.Equal(t, 7, r.Details["long_pairing_days"])
	assert.Equal(t, 3, r.Details["capable_crew_days"])

	crew[1].RequiredDays = 4
	r = mustFind(t, runChecks(in), CheckThreePlusDay)
	assert.Equal(t, ResultPass, r.Result)
}

func TestProblemSize(t *testing.T) {
	assert.Equal(t, 10+4+60+2+2*(23+21+17), estimateRows(2, 10, 30, rules.DefaultWindows()))
	assert.Equal(t, 1+2+5+1+3, estimateRows(1, 1, 5, rules.DefaultWindows()))

	in := testInput(30, []*model.CrewMember{testCrew("A", 1)}, []*model.Pairing{testPairing("P1", 0, 1)})
	r := mustFind(t, runChecks(in), CheckProblemSize)
	assert.Equal(t, ResultPass, r.Result)
	assert.Equal(t, 1, r.Details["n_vars"])
}

func TestEngine_DataLoadingStopsEarly(t *testing.T) {
	in := testInput(3, nil, []*model.Pairing{testPairing("P1", 0, 1)})

	reports := NewEngine(bruteForce{}).Run(context.Background(), in)

	require.Len(t, reports, 1)
	assert.Equal(t, CheckDataLoading, reports[0].CheckName)
	assert.Equal(t, ResultFail, reports[0].Result)
}

func TestEngine_DataLoadingWarnsOnProblems(t *testing.T) {
	in := testInput(2, []*model.CrewMember{testCrew("A", 1)}, []*model.Pairing{testPairing("P1", 0, 1)})
	in.Problems = []model.RosterProblem{
		{Crew: "X", Field: "overnight_preference", Reason: "未知", Fatal: true},
		{Crew: "A", Field: "vacation_days", Reason: "无效日期"},
	}

	r := checkDataLoading(newData(in))

	assert.Equal(t, ResultWarning, r.Result)
	assert.Equal(t, 1, r.Details["rejected_crew"])
}

func TestEngine_FeasibleRun(t *testing.T) {
	crew := []*model.CrewMember{testCrew("A", 1), testCrew("B", 1)}
	in := testInput(3, crew, []*model.Pairing{testPairing("P1", 0, 1), testPairing("P2", 0, 1)})

	reports := NewEngine(bruteForce{}, WithPrescreen(nil)).Run(context.Background(), in)

	last := reports[len(reports)-1]
	assert.Equal(t, CheckFeasibilityTest, last.CheckName)
	assert.Equal(t, ResultPass, last.Result)
	assert.Equal(t, "windows", last.Details["last_feasible"])
	assert.False(t, HasFailure(reports))
	assert.Equal(t, []string{
		CheckDataLoading, CheckSupplyDemand, CheckDailyCoverage, CheckVacationAnalysis,
		CheckIndividualCrew, CheckPairingVacation, CheckTDYContiguity, CheckLongDutyCapacity,
		CheckReserveCapacity, CheckThreePlusDay, CheckProblemSize, CheckFeasibilityTest,
	}, checkNames(reports))
}

func checkNames(reports []DiagnosticReport) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.CheckName
	}
	return out
}

// 一名机组定额 1 天，同一天有两个任务：覆盖可行，加入定额后不可行
func infeasibleAtDayBounds() *Input {
	return testInput(3, []*model.CrewMember{testCrew("A", 1)}, []*model.Pairing{testPairing("P1", 0, 1), testPairing("P2", 0, 1)})
}

func TestIncremental_ReportsFirstInfeasibleGroup(t *testing.T) {
	for _, tt := range []struct {
		name string
		opts []Option
	}{
		{"仅整数求解", []Option{WithPrescreen(nil)}},
		{"线性松弛预筛", nil},
	} {
		t.Run(tt.name, func(t *testing.T) {
			reports := NewEngine(bruteForce{}, tt.opts...).incremental(context.Background(), newData(infeasibleAtDayBounds()))

			require.Len(t, reports, 1)
			r := reports[0]
			assert.Equal(t, ResultFail, r.Result)
			assert.Equal(t, "Feasibility: Min/max days per crew", r.CheckName)
			assert.Equal(t, "day_bounds", r.Details["failed_group"])
			assert.Equal(t, "coverage", r.Details["last_feasible"])
			assert.Equal(t, "infeasible", r.Details["status"])
		})
	}
}

func TestIncremental_PrescreenSkipsSolver(t *testing.T) {
	lp := &fixedSolver{name: "lp", status: solver.StatusInfeasible}
	mipSolver := &fixedSolver{name: "mip", status: solver.StatusOptimal}

	reports := NewEngine(mipSolver, WithPrescreen(lp)).incremental(context.Background(), newData(infeasibleAtDayBounds()))

	require.Len(t, reports, 1)
	assert.Equal(t, ResultFail, reports[0].Result)
	assert.Equal(t, "coverage", reports[0].Details["failed_group"])
	assert.Nil(t, reports[0].Details["last_feasible"])
	assert.Equal(t, "lp", reports[0].Details["solver"])
	assert.Equal(t, 1, lp.calls)
	assert.Equal(t, 0, mipSolver.calls)
}

func TestIncremental_Inconclusive(t *testing.T) {
	s := &fixedSolver{name: "cbc", status: solver.StatusNotSolved}

	reports := NewEngine(s, WithPrescreen(nil)).incremental(context.Background(), newData(infeasibleAtDayBounds()))

	require.Len(t, reports, 1)
	assert.Equal(t, ResultWarning, reports[0].Result)
	assert.Equal(t, "Feasibility: Coverage (all pairings assigned once)", reports[0].CheckName)
	assert.Equal(t, 1, s.calls)
}

func TestIncremental_PrescreenOnly(t *testing.T) {
	lp := &fixedSolver{name: "lp", status: solver.StatusOptimal}
	in := testInput(3, []*model.CrewMember{testCrew("A", 1)}, []*model.Pairing{testPairing("P1", 0, 1)})

	reports := NewEngine(nil, WithPrescreen(lp)).incremental(context.Background(), newData(in))

	require.Len(t, reports, 1)
	assert.Equal(t, CheckFeasibilityTest, reports[0].CheckName)
	assert.Equal(t, ResultWarning, reports[0].Result)
	assert.Equal(t, 4, lp.calls)
}

func TestIncremental_ExtendedVacation(t *testing.T) {
	in := testInput(3, []*model.CrewMember{testCrew("A", 1, 0)}, []*model.Pairing{testPairing("P1", 0, 1)})

	basic := NewEngine(bruteForce{}, WithPrescreen(nil)).incremental(context.Background(), newData(in))
	require.Len(t, basic, 1)
	assert.Equal(t, ResultPass, basic[0].Result)

	extended := NewEngine(bruteForce{}, WithPrescreen(nil), WithExtended(true)).incremental(context.Background(), newData(in))
	require.Len(t, extended, 1)
	assert.Equal(t, ResultFail, extended[0].Result)
	assert.Equal(t, "vacation", extended[0].Details["failed_group"])
	assert.Equal(t, "rest", extended[0].Details["last_feasible"])
}

func TestIncremental_NoCrew(t *testing.T) {
	reports := NewEngine(bruteForce{}).incremental(context.Background(), newData(testInput(3, nil, nil)))

	require.Len(t, reports, 1)
	assert.Equal(t, CheckFeasibilityTest, reports[0].CheckName)
	assert.Equal(t, ResultFail, reports[0].Result)
}

func TestSummarize(t *testing.T) {
	reports := []DiagnosticReport{
		pass(CheckDataLoading, "ok", nil),
		warn(CheckIndividualCrew, "tight", nil),
		fail(CheckSupplyDemand, "gap", nil),
		fail("Feasibility: One duty per day", "infeasible", nil),
	}

	s := Summarize(reports)
	assert.Len(t, s.Failures, 2)
	assert.Len(t, s.Warnings, 1)
	assert.Len(t, s.Passes, 1)
	assert.True(t, s.HasFailure())
	assert.Equal(t, recommendations[CheckSupplyDemand], s.Recommendation)

	s = Summarize(reports[3:])
	assert.Contains(t, s.Recommendation, "One duty per day")

	s = Summarize(reports[:2])
	assert.False(t, s.HasFailure())
	assert.Contains(t, s.Recommendation, "WARNING")

	var buf bytes.Buffer
	require.NoError(t, Summarize(reports).Write(&buf, "BUR CA"))
	out := buf.String()
	assert.Contains(t, out, "诊断摘要 BUR CA")
	assert.Contains(t, out, "   - Supply/Demand Balance: gap")
	assert.Contains(t, out, "   - Individual Crew Feasibility: tight")
	assert.Contains(t, out, "PASS: 1 项检查")
}
