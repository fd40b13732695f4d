package builtin

import (
	"strings"
	"testing"
	"time"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/constraint"
)

// 测试用任务：day 为 2024-01-01 起的偏移，起止为 UTC 小时
func testPairing(id string, day, mult int, startHour, endHour int) *model.Pairing {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := base.AddDate(0, 0, day)
	d2 := d1.AddDate(0, 0, mult-1)
	return &model.Pairing{
		ID:          id,
		D1:          d1,
		D2:          d2,
		Mult:        mult,
		DutySeconds: (endHour - startHour) * 3600,
		Legs:        2,
		BaseStart:   "BUR",
		Start:       d1.Add(time.Duration(startHour) * time.Hour),
		End:         d2.Add(time.Duration(endHour) * time.Hour),
		StartHour:   float64(startHour),
	}
}

func testCrew(name string, row, required int, blocked ...string) *model.CrewMember {
	set := model.NewDateSet()
	for _, s := range blocked {
		d, _ := model.ParseDate(s)
		set.Add(d)
	}
	return &model.CrewMember{Name: name, Row: row, RequiredDays: required, Blocked: set}
}

func testContext(t *testing.T, days int, crew []*model.CrewMember, pairings []*model.Pairing) *constraint.Context {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	horizon := model.DateRange{Start: start, End: start.AddDate(0, 0, days-1)}
	r := rules.Default("BUR")
	r.Location = time.UTC
	return constraint.NewContext("BUR", "CA", horizon, crew, pairings, r)
}

// countFeasible 枚举所有分配矩阵，统计满足模型全部约束的个数（模型只含分配变量）
func countFeasible(t *testing.T, ctx *constraint.Context) int {
	t.Helper()
	n := ctx.Model.NumVars()
	if n > 20 {
		t.Fatalf("模型过大，无法枚举: %d", n)
	}
	feasible := 0
	values := make([]float64, n)
	for mask := 0; mask < 1<<n; mask++ {
		for v := 0; v < n; v++ {
			values[v] = float64((mask >> v) & 1)
		}
		if len(ctx.Model.Violations(values, 1e-9)) == 0 {
			feasible++
		}
	}
	return feasible
}

func buildGroups(t *testing.T, ctx *constraint.Context, order ...constraint.Type) {
	t.Helper()
	m := constraint.NewManager()
	if err := Register(m, order); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := m.Build(ctx); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestHardGroups_BruteForce(t *testing.T) {
	tests := []struct {
		name     string
		order    []constraint.Type
		blocked  []string
		expected int
	}{
		{
			name:     "只有覆盖约束",
			order:    []constraint.Type{constraint.TypeCoverage},
			expected: 8,
		},
		{
			name:     "覆盖+定额",
			order:    []constraint.Type{constraint.TypeCoverage, constraint.TypeDayBounds},
			expected: 3,
		},
		{
			name:     "覆盖+定额+每日单任务",
			order:    DiagnosticOrder,
			expected: 2,
		},
		{
			name:     "加入最小休息",
			order:    append(append([]constraint.Type{}, DiagnosticOrder...), constraint.TypeRest),
			expected: 1,
		},
		{
			name:     "休假使问题不可行",
			order:    append(append([]constraint.Type{}, DiagnosticOrder...), constraint.TypeVacation),
			blocked:  []string{"2024-01-02"},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// P0 当天 20:00 结束，P2 次日 06:00 开始，间隔 10 小时
			pairings := []*model.Pairing{
				testPairing("P0", 0, 1, 10, 20),
				testPairing("P1", 0, 1, 6, 10),
				testPairing("P2", 1, 1, 6, 14),
			}
			crew := []*model.CrewMember{
				testCrew("A", 0, 2, tt.blocked...),
				testCrew("B", 1, 1),
			}
			ctx := testContext(t, 3, crew, pairings)
			buildGroups(t, ctx, tt.order...)

			if got := countFeasible(t, ctx); got != tt.expected {
				t.Errorf("可行分配数 = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestRollingWindowConstraint_Rows(t *testing.T) {
	var pairings []*model.Pairing
	for d := 0; d < 9; d++ {
		pairings = append(pairings, testPairing("P"+string(rune('0'+d)), d, 1, 8, 16))
	}
	ctx := testContext(t, 9, []*model.CrewMember{testCrew("A", 0, 7)}, pairings)

	rows, err := NewRollingWindowConstraint().Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// 7-in-8 两个起点；8-in-10 截断为整段一个；10-in-14 上界 9 不超限
	if rows != 3 {
		t.Errorf("rows = %d, expected 3", rows)
	}
	for _, r := range ctx.Model.Rows() {
		if r.Group != string(constraint.TypeWindows) {
			t.Errorf("row %s group = %s", r.Name, r.Group)
		}
	}
}

func TestRollingWindowConstraint_ShortHorizon(t *testing.T) {
	pairings := []*model.Pairing{
		testPairing("P0", 0, 1, 8, 16),
		testPairing("P1", 1, 1, 8, 16),
	}
	ctx := testContext(t, 2, []*model.CrewMember{testCrew("A", 0, 2)}, pairings)

	rows, err := NewRollingWindowConstraint(rules.Window{Length: 8, Limit: 1}).Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, expected 1", rows)
	}
	if got := countFeasible(t, ctx); got != 3 {
		t.Errorf("可行分配数 = %d, expected 3", got)
	}
}

func TestDutyOverageConstraint(t *testing.T) {
	var pairings []*model.Pairing
	for d := 0; d < 6; d++ {
		// 10 小时执勤计为重任务
		pairings = append(pairings, testPairing("P"+string(rune('0'+d)), d, 1, 6, 16))
	}
	ctx := testContext(t, 6, []*model.CrewMember{testCrew("A", 0, 6)}, pairings)

	rows, err := NewDutyOverageConstraint().Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, expected 1", rows)
	}
	row := ctx.Model.Rows()[0]
	if row.RHS != float64(ctx.Rules.OverageCap) || len(row.Expr.Terms) != 6 {
		t.Errorf("row = %+v", row)
	}
}

func TestIntensityConstraint(t *testing.T) {
	pairings := []*model.Pairing{
		testPairing("P0", 0, 1, 6, 18),
		testPairing("P1", 1, 1, 6, 18),
		testPairing("P2", 3, 1, 6, 18),
		testPairing("P3", 1, 1, 8, 12),
	}
	ctx := testContext(t, 4, []*model.CrewMember{testCrew("A", 0, 2), testCrew("B", 1, 2)}, pairings)

	rows, err := NewIntensityConstraint().Build(ctx)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// 只有 {P0, P1} 一组，两名机组各一行
	if rows != 2 {
		t.Errorf("rows = %d, expected 2", rows)
	}
}

func TestChunksConstraint_TDYSingleBlock(t *testing.T) {
	var pairings []*model.Pairing
	for d := 0; d < 4; d++ {
		pairings = append(pairings, testPairing("P"+string(rune('0'+d)), d, 1, 8, 16))
	}
	crew := testCrew("A", 0, 2)
	crew.TDY = true

	tests := []struct {
		name     string
		days     []int
		wantTDY  bool
		chunks   float64
		cdoPairs float64
	}{
		{name: "连续工作块", days: []int{1, 2}, chunks: 1, cdoPairs: 0},
		{name: "首尾两块", days: []int{0, 3}, wantTDY: true, chunks: 2, cdoPairs: 1},
		{name: "末尾块也计为一段", days: []int{2, 3}, chunks: 1, cdoPairs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t, 4, []*model.CrewMember{crew}, pairings)
			if _, err := NewChunksConstraint().Build(ctx); err != nil {
				t.Fatalf("Build() error = %v", err)
			}

			work := make([]float64, 5)
			for _, d := range tt.days {
				work[d] = 1
			}
			values := make([]float64, ctx.Model.NumVars())
			for _, d := range tt.days {
				values[ctx.X[0][d]] = 1
			}
			for v, info := range ctx.Model.Vars() {
				var i, d int
				switch {
				case strings.HasPrefix(info.Name, "chunk_"):
					parseIDs(info.Name, "chunk_", &i, &d)
					if diff := work[d] - work[d+1]; diff > 0 {
						values[v] = diff
					}
				case strings.HasPrefix(info.Name, "chnk_"):
					values[v] = tt.chunks
				case strings.HasPrefix(info.Name, "cdo_"):
					parseIDs(info.Name, "cdo_", &i, &d)
					if work[d] == 0 && work[d+1] == 0 {
						values[v] = 1
					}
				}
			}

			tdyViolated := false
			for _, v := range ctx.Model.Violations(values, 1e-9) {
				if v.Name == "chunks_tdy_0" {
					tdyViolated = true
					continue
				}
				t.Errorf("unexpected violation: %s", v)
			}
			if tdyViolated != tt.wantTDY {
				t.Errorf("TDY 违反 = %v, expected %v", tdyViolated, tt.wantTDY)
			}
			if got := ctx.Chunks[0].Value(values); got != tt.chunks {
				t.Errorf("chunks = %v, expected %v", got, tt.chunks)
			}
			if got := ctx.CDO[0].Value(values); got != tt.cdoPairs {
				t.Errorf("cdo = %v, expected %v", got, tt.cdoPairs)
			}
		})
	}
}

func parseIDs(name, prefix string, i, d *int) {
	parts := strings.Split(strings.TrimPrefix(name, prefix), "_")
	*i = atoi(parts[0])
	*d = atoi(parts[1])
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func TestNew_UnknownType(t *testing.T) {
	if _, err := New(constraint.Type("nope")); err == nil {
		t.Error("未知类型应返回错误")
	}
	for _, typ := range FullOrder {
		c, err := New(typ)
		if err != nil {
			t.Fatalf("New(%s) error = %v", typ, err)
		}
		if c.Type() != typ {
			t.Errorf("New(%s).Type() = %s", typ, c.Type())
		}
	}
}
