package mip

import (
	"fmt"
	"math"
)

// Kind 变量类型
type Kind int

const (
	Binary Kind = iota
	Integer
	Continuous
)

// Sense 约束方向
type Sense int

const (
	LE Sense = iota // ≤
	GE              // ≥
	EQ              // =
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	}
	return "="
}

// ObjSense 目标方向
type ObjSense int

const (
	Maximize ObjSense = iota
	Minimize
)

// VarInfo 变量定义
type VarInfo struct {
	Name  string
	Kind  Kind
	Lower float64
	Upper float64
}

// Row 约束行，常数项已移到右端
type Row struct {
	Name  string
	Group string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Model 线性模型
type Model struct {
	Name      string
	vars      []VarInfo
	rows      []Row
	objective Expr
	objSense  ObjSense
}

// NewModel 创建模型
func NewModel(name string) *Model {
	return &Model{Name: name, objSense: Maximize}
}

// AddVar 添加变量
func (m *Model) AddVar(name string, kind Kind, lower, upper float64) Var {
	if kind == Binary {
		lower, upper = 0, 1
	}
	m.vars = append(m.vars, VarInfo{Name: name, Kind: kind, Lower: lower, Upper: upper})
	return Var(len(m.vars) - 1)
}

// NewBinary 添加 0/1 变量
func (m *Model) NewBinary(name string) Var {
	return m.AddVar(name, Binary, 0, 1)
}

// NewContinuous 添加连续变量
func (m *Model) NewContinuous(name string, lower, upper float64) Var {
	return m.AddVar(name, Continuous, lower, upper)
}

// AddRow 添加约束 expr (sense) rhs；表达式常数移到右端
func (m *Model) AddRow(group, name string, expr Expr, sense Sense, rhs float64) {
	expr = expr.Compact()
	rhs -= expr.Const
	expr.Const = 0
	m.rows = append(m.rows, Row{Name: name, Group: group, Expr: expr, Sense: sense, RHS: rhs})
}

// Define 添加 v = expr
func (m *Model) Define(group, name string, v Var, expr Expr) {
	m.AddRow(group, name, expr.Add(v, -1), EQ, 0)
}

// SetObjective 设置目标
func (m *Model) SetObjective(sense ObjSense, expr Expr) {
	m.objSense = sense
	m.objective = expr.Compact()
}

// Objective 返回目标
func (m *Model) Objective() (ObjSense, Expr) {
	return m.objSense, m.objective
}

// NumVars 变量数
func (m *Model) NumVars() int { return len(m.vars) }

// NumRows 约束行数
func (m *Model) NumRows() int { return len(m.rows) }

// Vars 变量定义
func (m *Model) Vars() []VarInfo { return m.vars }

// Rows 约束行
func (m *Model) Rows() []Row { return m.rows }

// VarInfo 单个变量定义
func (m *Model) VarInfo(v Var) VarInfo { return m.vars[v] }

// Groups 按首次出现顺序返回约束组名
func (m *Model) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.rows {
		if !seen[r.Group] {
			seen[r.Group] = true
			out = append(out, r.Group)
		}
	}
	return out
}

// RowsInGroup 组内行数
func (m *Model) RowsInGroup(group string) int {
	n := 0
	for _, r := range m.rows {
		if r.Group == group {
			n++
		}
	}
	return n
}

// UpperBound 表达式在变量界内的上界
func (m *Model) UpperBound(e Expr) float64 {
	ub := e.Const
	for _, t := range e.Terms {
		info := m.vars[t.Var]
		if t.Coef > 0 {
			ub += t.Coef * info.Upper
		} else {
			ub += t.Coef * info.Lower
		}
	}
	return ub
}

// Stats 模型规模摘要
func (m *Model) Stats() map[string]interface{} {
	kinds := map[Kind]int{}
	nonzeros := 0
	for _, v := range m.vars {
		kinds[v.Kind]++
	}
	for _, r := range m.rows {
		nonzeros += len(r.Expr.Terms)
	}
	return map[string]interface{}{
		"vars":       len(m.vars),
		"binary":     kinds[Binary],
		"integer":    kinds[Integer],
		"continuous": kinds[Continuous],
		"rows":       len(m.rows),
		"nonzeros":   nonzeros,
	}
}

// Violation 约束违反
type Violation struct {
	Row      int
	Name     string
	Group    string
	Activity float64
	RHS      float64
	Sense    Sense
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%s]: %.4g %s %.4g", v.Group, v.Name, v.Activity, v.Sense, v.RHS)
}

// Violations 检查取值违反的约束、变量界和整数性
func (m *Model) Violations(values []float64, tol float64) []Violation {
	var out []Violation
	for i, v := range m.vars {
		x := values[i]
		if x < v.Lower-tol || x > v.Upper+tol {
			out = append(out, Violation{Row: -1, Name: v.Name, Group: "bounds", Activity: x, RHS: v.Upper, Sense: LE})
			continue
		}
		if v.Kind != Continuous && math.Abs(x-math.Round(x)) > tol {
			out = append(out, Violation{Row: -1, Name: v.Name, Group: "integrality", Activity: x, RHS: math.Round(x), Sense: EQ})
		}
	}
	for i, r := range m.rows {
		act := r.Expr.Value(values)
		ok := true
		switch r.Sense {
		case LE:
			ok = act <= r.RHS+tol
		case GE:
			ok = act >= r.RHS-tol
		case EQ:
			ok = math.Abs(act-r.RHS) <= tol
		}
		if !ok {
			out = append(out, Violation{Row: i, Name: r.Name, Group: r.Group, Activity: act, RHS: r.RHS, Sense: r.Sense})
		}
	}
	return out
}

// ObjectiveValue 目标值
func (m *Model) ObjectiveValue(values []float64) float64 {
	return m.objective.Value(values)
}

// FeasibilityCopy 共享变量与约束、目标为 0 的副本
func (m *Model) FeasibilityCopy() *Model {
	return &Model{
		Name:     m.Name + "_feas",
		vars:     m.vars,
		rows:     m.rows,
		objSense: Minimize,
	}
}
