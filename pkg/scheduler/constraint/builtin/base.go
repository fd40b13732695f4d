// Package builtin 提供内置约束组实现
package builtin

import (
	"fmt"

	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// BaseConstraint 约束组基类
type BaseConstraint struct {
	name     string
	typ      constraint.Type
	category constraint.Category
}

// NewBaseConstraint 创建基础约束组
func NewBaseConstraint(name string, typ constraint.Type, cat constraint.Category) *BaseConstraint {
	return &BaseConstraint{
		name:     name,
		typ:      typ,
		category: cat,
	}
}

// Name 返回约束组名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回约束组类型
func (c *BaseConstraint) Type() constraint.Type { return c.typ }

// Category 返回约束类别
func (c *BaseConstraint) Category() constraint.Category { return c.category }

// Build 默认实现不写入任何行（子类需覆盖）
func (c *BaseConstraint) Build(ctx *constraint.Context) (int, error) {
	return 0, nil
}

// addRow 以本组类型为分组写入一行，行名形如 <type>_<suffix>
func (c *BaseConstraint) addRow(ctx *constraint.Context, expr mip.Expr, sense mip.Sense, rhs float64, format string, args ...interface{}) {
	name := string(c.typ) + "_" + fmt.Sprintf(format, args...)
	ctx.Model.AddRow(string(c.typ), name, expr, sense, rhs)
}
