// Package constraint 定义约束组接口和管理器
package constraint

import (
	"fmt"
	"sync"

	"github.com/paiban/fca/pkg/logger"
)

// Manager 约束管理器，按注册顺序构建
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
	logger      *logger.SchedulerLogger
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
		logger:      logger.NewSchedulerLogger(),
	}
}

// SetLogger 替换日志器（通常带运行上下文）
func (m *Manager) SetLogger(l *logger.SchedulerLogger) {
	m.logger = l
}

// Register 注册约束组；同类型已存在时原位替换
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}
	m.constraints = append(m.constraints, c)
}

// Unregister 注销约束组
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取约束组
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 按顺序获取所有约束组
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// GetByCategory 按类别获取约束组
func (m *Manager) GetByCategory(cat Category) []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Constraint
	for _, c := range m.constraints {
		if c.Category() == cat {
			result = append(result, c)
		}
	}
	return result
}

// Prefix 前 n 个约束组组成的新管理器
func (m *Manager) Prefix(n int) *Manager {
	all := m.GetAll()
	if n > len(all) {
		n = len(all)
	}
	sub := &Manager{constraints: all[:n:n], logger: m.logger}
	return sub
}

// Build 依次构建所有约束组
func (m *Manager) Build(ctx *Context) error {
	for _, c := range m.GetAll() {
		rows, err := c.Build(ctx)
		if err != nil {
			return fmt.Errorf("构建约束组 %s 失败: %w", c.Name(), err)
		}
		m.logger.GroupAdded(string(c.Type()), rows)
	}
	return nil
}

// Evaluate 检查一组变量取值违反了哪些约束组
func (m *Manager) Evaluate(ctx *Context, values []float64) *Result {
	result := &Result{
		IsValid:        true,
		HardViolations: make([]ViolationDetail, 0),
		SoftViolations: make([]ViolationDetail, 0),
		ByType:         make(map[Type]int),
	}

	categories := make(map[string]Constraint)
	for _, c := range m.GetAll() {
		categories[string(c.Type())] = c
	}

	for _, v := range ctx.Model.Violations(values, 1e-6) {
		c, ok := categories[v.Group]
		if !ok {
			continue
		}
		d := ViolationDetail{
			ConstraintType: c.Type(),
			ConstraintName: c.Name(),
			Row:            v.Name,
			Activity:       v.Activity,
			Bound:          v.RHS,
			Message:        v.String(),
		}
		result.ByType[c.Type()]++
		if c.Category() == CategoryHard {
			d.Severity = "error"
			result.IsValid = false
			result.HardViolations = append(result.HardViolations, d)
			m.logger.ConstraintViolation(c.Name(), d.Message)
		} else {
			d.Severity = "warning"
			result.SoftViolations = append(result.SoftViolations, d)
		}
	}
	return result
}

// Clear 清除所有约束组
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make([]Constraint, 0)
}

// Count 返回约束组数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// Types 按顺序返回约束组类型
func (m *Manager) Types() []Type {
	all := m.GetAll()
	out := make([]Type, len(all))
	for i, c := range all {
		out[i] = c.Type()
	}
	return out
}

// Summary 返回约束摘要
func (m *Manager) Summary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hard := 0
	soft := 0
	for _, c := range m.constraints {
		if c.Category() == CategoryHard {
			hard++
		} else {
			soft++
		}
	}

	return map[string]interface{}{
		"total": len(m.constraints),
		"hard":  hard,
		"soft":  soft,
	}
}
