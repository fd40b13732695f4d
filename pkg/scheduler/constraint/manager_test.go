package constraint

import (
	"testing"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

func TestManager_Register(t *testing.T) {
	manager := NewManager()

	manager.Register(&MockConstraint{name: "a", typ: TypeCoverage, category: CategoryHard})
	manager.Register(&MockConstraint{name: "b", typ: TypeWindows, category: CategoryHard})
	// 同类型替换但保持位置
	manager.Register(&MockConstraint{name: "a2", typ: TypeCoverage, category: CategoryHard})

	constraints := manager.GetAll()
	if len(constraints) != 2 {
		t.Fatalf("Expected 2 constraints, got %d", len(constraints))
	}
	if constraints[0].Name() != "a2" || constraints[1].Name() != "b" {
		t.Errorf("Unexpected order: %s, %s", constraints[0].Name(), constraints[1].Name())
	}
}

func TestManager_Prefix(t *testing.T) {
	manager := NewManager()
	manager.Register(&MockConstraint{name: "a", typ: TypeCoverage, category: CategoryHard})
	manager.Register(&MockConstraint{name: "b", typ: TypeDayBounds, category: CategoryHard})
	manager.Register(&MockConstraint{name: "c", typ: TypeOnePerDay, category: CategoryHard})

	sub := manager.Prefix(2)
	if sub.Count() != 2 {
		t.Errorf("Expected 2 constraints in prefix, got %d", sub.Count())
	}
	if manager.Count() != 3 {
		t.Errorf("Prefix 不应修改原管理器")
	}
	if got := manager.Prefix(10).Count(); got != 3 {
		t.Errorf("Prefix beyond length = %d", got)
	}
}

func TestManager_GetByCategory(t *testing.T) {
	manager := NewManager()

	manager.Register(&MockConstraint{name: "hard1", typ: TypeCoverage, category: CategoryHard})
	manager.Register(&MockConstraint{name: "soft1", typ: TypePreference, category: CategorySoft})

	if len(manager.GetByCategory(CategoryHard)) != 1 {
		t.Errorf("Expected 1 hard constraint")
	}
	if len(manager.GetByCategory(CategorySoft)) != 1 {
		t.Errorf("Expected 1 soft constraint")
	}
}

func TestManager_BuildAndEvaluate(t *testing.T) {
	horizon, _ := model.NewDateRange("2024-05-01", "2024-05-01")
	d, _ := model.ParseDate("2024-05-01")
	crew := []*model.CrewMember{{Name: "a"}, {Name: "b"}}
	pairings := []*model.Pairing{{ID: "P1", D1: d, D2: d, Mult: 1}}
	ctx := NewContext("DAL", "FO", horizon, crew, pairings, rules.Default("DAL"))

	manager := NewManager()
	manager.Register(&MockConstraint{name: "cover", typ: TypeCoverage, category: CategoryHard})
	if err := manager.Build(ctx); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if ctx.Model.NumRows() != 1 {
		t.Fatalf("Expected 1 row, got %d", ctx.Model.NumRows())
	}

	result := manager.Evaluate(ctx, []float64{1, 0})
	if !result.IsValid {
		t.Errorf("Expected valid result, got %v", result.HardViolations)
	}

	result = manager.Evaluate(ctx, []float64{1, 1})
	if result.IsValid || result.ByType[TypeCoverage] != 1 {
		t.Errorf("Expected one coverage violation, got %+v", result)
	}
}

func TestManager_Count(t *testing.T) {
	manager := NewManager()

	if manager.Count() != 0 {
		t.Error("Expected 0 count for empty manager")
	}

	manager.Register(&MockConstraint{name: "c1", typ: TypeCoverage, category: CategoryHard})
	manager.Register(&MockConstraint{name: "c2", typ: TypePreference, category: CategorySoft})

	if manager.Count() != 2 {
		t.Errorf("Expected 2 count, got %d", manager.Count())
	}
	manager.Clear()
	if manager.Count() != 0 {
		t.Error("Expected 0 constraints after clear")
	}
}

// MockConstraint 用于测试的模拟约束：每个任务恰好分配一次
type MockConstraint struct {
	name     string
	typ      Type
	category Category
}

func (m *MockConstraint) Name() string       { return m.name }
func (m *MockConstraint) Type() Type         { return m.typ }
func (m *MockConstraint) Category() Category { return m.category }

func (m *MockConstraint) Build(ctx *Context) (int, error) {
	for p := range ctx.Pairings {
		var e mip.Expr
		for c := range ctx.Crew {
			e.Push(ctx.X[c][p], 1)
		}
		ctx.Model.AddRow(string(m.typ), "p", e, mip.EQ, 1)
	}
	return len(ctx.Pairings), nil
}
