// Package mip 提供与求解器无关的混合整数线性模型
package mip

import (
	"sort"
)

// Var 变量（列下标）
type Var int

// Term 线性项
type Term struct {
	Var  Var
	Coef float64
}

// Expr 线性表达式 Σ coef·var + const
type Expr struct {
	Terms []Term
	Const float64
}

// Sum 变量求和
func Sum(vars ...Var) Expr {
	e := Expr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.Terms = append(e.Terms, Term{Var: v, Coef: 1})
	}
	return e
}

// Weighted 带权求和，权重为 0 的项被跳过
func Weighted(vars []Var, coefs []float64) Expr {
	e := Expr{Terms: make([]Term, 0, len(vars))}
	for i, v := range vars {
		if coefs[i] != 0 {
			e.Terms = append(e.Terms, Term{Var: v, Coef: coefs[i]})
		}
	}
	return e
}

// Constant 常数表达式
func Constant(c float64) Expr {
	return Expr{Const: c}
}

// Add 返回追加一项后的新表达式，不修改 e
func (e Expr) Add(v Var, coef float64) Expr {
	terms := make([]Term, len(e.Terms), len(e.Terms)+1)
	copy(terms, e.Terms)
	return Expr{Terms: append(terms, Term{Var: v, Coef: coef}), Const: e.Const}
}

// Push 原地追加一项
func (e *Expr) Push(v Var, coef float64) {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddConst 追加常数
func (e Expr) AddConst(c float64) Expr {
	e.Const += c
	return e
}

// Plus 返回 e + scale·o
func (e Expr) Plus(o Expr, scale float64) Expr {
	out := Expr{
		Terms: make([]Term, 0, len(e.Terms)+len(o.Terms)),
		Const: e.Const + scale*o.Const,
	}
	out.Terms = append(out.Terms, e.Terms...)
	for _, t := range o.Terms {
		out.Terms = append(out.Terms, Term{Var: t.Var, Coef: scale * t.Coef})
	}
	return out
}

// Scale 返回 scale·e
func (e Expr) Scale(scale float64) Expr {
	return Expr{}.Plus(e, scale)
}

// Compact 合并同类项并去掉零系数，结果按变量排序
func (e Expr) Compact() Expr {
	coefs := make(map[Var]float64, len(e.Terms))
	for _, t := range e.Terms {
		coefs[t.Var] += t.Coef
	}
	out := Expr{Const: e.Const, Terms: make([]Term, 0, len(coefs))}
	for v, c := range coefs {
		if c != 0 {
			out.Terms = append(out.Terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out.Terms, func(i, j int) bool { return out.Terms[i].Var < out.Terms[j].Var })
	return out
}

// IsEmpty 没有变量项
func (e Expr) IsEmpty() bool {
	return len(e.Terms) == 0
}

// Value 在给定取值下求值
func (e Expr) Value(values []float64) float64 {
	v := e.Const
	for _, t := range e.Terms {
		v += t.Coef * values[t.Var]
	}
	return v
}
