// Package constraint 定义约束组接口和管理器
package constraint

import (
	"fmt"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/mip"
	"github.com/paiban/fca/pkg/timeindex"
)

// Type 约束组标识，同时作为模型行的分组标签
type Type string

const (
	TypeCoverage    Type = "coverage"
	TypeDayBounds   Type = "day_bounds"
	TypeOnePerDay   Type = "one_per_day"
	TypeWindows     Type = "windows"
	TypeRest        Type = "rest"
	TypeIntensity   Type = "intensity"
	TypeVacation    Type = "vacation"
	TypePreference  Type = "preference"
	TypeDutyOverage Type = "duty_overage"
	TypeChunks      Type = "chunks"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 目标相关的联动约束
)

// Constraint 约束组接口
type Constraint interface {
	// Name 返回约束组名称
	Name() string

	// Type 返回约束组类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Build 向模型中写入本组的行，返回新增行数
	Build(ctx *Context) (int, error)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type    `json:"constraint_type"`
	ConstraintName string  `json:"constraint_name"`
	Row            string  `json:"row"`
	Activity       float64 `json:"activity"`
	Bound          float64 `json:"bound"`
	Message        string  `json:"message"`
	Severity       string  `json:"severity"` // error/warning
}

// CrewScores 单个机组成员的偏好得分表达式
type CrewScores struct {
	DaysOff   mip.Expr
	Overnight mip.Expr
	Time      mip.Expr
	Reserve   mip.Expr
	Charter   mip.Expr
}

// Context 建模上下文
type Context struct {
	Base     string
	Seat     string
	Horizon  model.DateRange
	Crew     []*model.CrewMember
	Pairings []*model.Pairing
	Index    *timeindex.Index
	Rules    rules.BaseRules

	Model *mip.Model

	// X[c][p] = 1 表示任务 p 分配给机组 c
	X [][]mip.Var

	// 偏好与辅助项，由对应约束组写入，供目标函数使用
	Scores []CrewScores
	Chunks []mip.Expr
	CDO    []mip.Expr

	dayLoad map[[2]int]mip.Expr
}

// NewContext 创建上下文并为每个 (机组, 任务) 建立 0/1 变量
func NewContext(base, seat string, horizon model.DateRange, crew []*model.CrewMember, pairings []*model.Pairing, r rules.BaseRules) *Context {
	ctx := &Context{
		Base:     base,
		Seat:     seat,
		Horizon:  horizon,
		Crew:     crew,
		Pairings: pairings,
		Index:    timeindex.Build(horizon, pairings),
		Rules:    r,
		Model:    mip.NewModel(fmt.Sprintf("fca_%s_%s", base, seat)),
		Scores:   make([]CrewScores, len(crew)),
		dayLoad:  make(map[[2]int]mip.Expr),
	}
	ctx.X = make([][]mip.Var, len(crew))
	for c := range crew {
		ctx.X[c] = make([]mip.Var, len(pairings))
		for p := range pairings {
			ctx.X[c][p] = ctx.Model.NewBinary(VarName(c, p))
		}
	}
	return ctx
}

// VarName 分配变量名
func VarName(c, p int) string {
	return fmt.Sprintf("x_%d_%d", c, p)
}

// NumCrew 机组人数
func (c *Context) NumCrew() int { return len(c.Crew) }

// NumPairings 任务数
func (c *Context) NumPairings() int { return len(c.Pairings) }

// DayLoad 机组 crew 在第 day 天被占用的任务数表达式
func (c *Context) DayLoad(crew, day int) mip.Expr {
	key := [2]int{crew, day}
	if e, ok := c.dayLoad[key]; ok {
		return e
	}
	e := c.Select(crew, c.Index.Touching(day))
	c.dayLoad[key] = e
	return e
}

// Select 机组 crew 在给定任务上的分配之和
func (c *Context) Select(crew int, pairings []int) mip.Expr {
	vars := make([]mip.Var, len(pairings))
	for i, p := range pairings {
		vars[i] = c.X[crew][p]
	}
	return mip.Sum(vars...)
}

// SelectWhere 机组 crew 在满足条件的任务上的分配之和
func (c *Context) SelectWhere(crew int, pred func(*model.Pairing) bool) mip.Expr {
	var e mip.Expr
	for p, pr := range c.Pairings {
		if pred(pr) {
			e.Push(c.X[crew][p], 1)
		}
	}
	return e
}

// Assignment 从变量取值中读出分配矩阵
func (c *Context) Assignment(values []float64) [][]bool {
	out := make([][]bool, len(c.Crew))
	for i := range c.Crew {
		out[i] = make([]bool, len(c.Pairings))
		for p := range c.Pairings {
			out[i][p] = values[c.X[i][p]] > 0.5
		}
	}
	return out
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	ByType         map[Type]int      `json:"by_type"`
}
