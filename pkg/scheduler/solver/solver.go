// Package solver 提供整数规划求解后端
package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paiban/fca/pkg/scheduler/mip"
)

// Solver 求解器接口
type Solver interface {
	// Solve 求解模型，阻塞直到完成或超时
	Solve(ctx context.Context, m *mip.Model, opts Options) (*Solution, error)

	// Name 返回求解器名称
	Name() string
}

// Status 求解状态
type Status string

const (
	StatusOptimal    Status = "optimal"    // 已证明最优
	StatusFeasible   Status = "feasible"   // 超时，接受当前最好可行解
	StatusInfeasible Status = "infeasible" // 无可行解
	StatusUnbounded  Status = "unbounded"  // 目标无界
	StatusNotSolved  Status = "not_solved" // 超时且没有可行解
	StatusError      Status = "error"      // 求解器异常
)

// HasSolution 是否带有可用的变量取值
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Options 求解参数
type Options struct {
	TimeLimit time.Duration `json:"time_limit"`
	Gap       float64       `json:"gap"`
	Threads   int           `json:"threads"`
	WorkDir   string        `json:"work_dir"`
	KeepFiles bool          `json:"keep_files"`
}

// DefaultOptions 默认求解参数
func DefaultOptions() Options {
	return Options{
		TimeLimit: 10 * time.Minute,
		Gap:       0.01,
		Threads:   4,
	}
}

// Solution 求解结果
type Solution struct {
	Solver    string        `json:"solver"`
	Status    Status        `json:"status"`
	Objective float64       `json:"objective"`
	Values    []float64     `json:"-"`
	Duration  time.Duration `json:"duration"`
	Message   string        `json:"message,omitempty"`
}

// Factory 求解器构造函数
type Factory func(cfg Config) Solver

// Config 求解器构造参数
type Config struct {
	Binary string `json:"binary"`
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register 注册求解后端
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New 按名称创建求解器
func New(name string, cfg Config) (Solver, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("未知求解后端 %q，可用: %v", name, Backends())
	}
	return f(cfg), nil
}

// Backends 已注册的后端名称
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// solveTrivial 没有变量的模型直接判定
func solveTrivial(name string, m *mip.Model) *Solution {
	sol := &Solution{Solver: name, Status: StatusOptimal, Values: []float64{}}
	if len(m.Violations(sol.Values, 1e-9)) > 0 {
		sol.Status = StatusInfeasible
		sol.Values = nil
	}
	return sol
}

// finish 补全目标值与耗时
func finish(m *mip.Model, sol *Solution, start time.Time) *Solution {
	sol.Duration = time.Since(start)
	if sol.Status.HasSolution() && sol.Values != nil {
		sol.Objective = m.ObjectiveValue(sol.Values)
	}
	return sol
}
