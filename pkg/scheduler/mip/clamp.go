package mip

import (
	"fmt"
)

// ClampedCount 用有序 0/1 指示变量表示 min(count, cap)
//
// 对 i = 1..cap 引入 y_i，约束：
//
//	y_i ≥ y_{i+1}
//	count − i·y_i ≥ 0          (y_i = 1 ⇒ count ≥ i)
//	count − M·y_i ≤ i − 1      (count ≥ i ⇒ y_i = 1)
//
// 其中 M 为 count 的上界。于是 y_i = [count ≥ i]，Σ y_i = min(count, cap)。
// count 必须只取非负整数值。
func (m *Model) ClampedCount(group, prefix string, count Expr, cap int) (Expr, []Var) {
	if cap <= 0 {
		return Expr{}, nil
	}
	bigM := m.UpperBound(count)
	if bigM < float64(cap) {
		bigM = float64(cap)
	}

	ys := make([]Var, cap)
	for i := range ys {
		ys[i] = m.NewBinary(fmt.Sprintf("%s_y%d", prefix, i+1))
	}
	for i := 0; i < cap; i++ {
		k := float64(i + 1)
		if i+1 < cap {
			m.AddRow(group, fmt.Sprintf("%s_order%d", prefix, i+1), Sum(ys[i+1]).Add(ys[i], -1), LE, 0)
		}
		m.AddRow(group, fmt.Sprintf("%s_lo%d", prefix, i+1), count.Add(ys[i], -k), GE, 0)
		m.AddRow(group, fmt.Sprintf("%s_hi%d", prefix, i+1), count.Add(ys[i], -bigM), LE, k-1)
	}
	return Sum(ys...), ys
}
