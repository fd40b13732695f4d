// Package builder 组装完整的排班模型并调用求解器
package builder

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/constraint/builtin"
	"github.com/paiban/fca/pkg/scheduler/mip"
	"github.com/paiban/fca/pkg/scheduler/preference"
	"github.com/paiban/fca/pkg/scheduler/solver"
)

// State 构建器状态
type State string

const (
	StateNew        State = "new"
	StateBuilt      State = "built"
	StateSolving    State = "solving"
	StateOptimal    State = "optimal"
	StateSuboptimal State = "suboptimal-timeout"
	StateInfeasible State = "infeasible"
	StateError      State = "error"
)

var transitions = map[State][]State{
	StateNew:     {StateBuilt, StateError},
	StateBuilt:   {StateSolving, StateError},
	StateSolving: {StateOptimal, StateSuboptimal, StateInfeasible, StateError},
}

// Input 一次运行的输入
type Input struct {
	Base     string
	Seat     string
	Horizon  model.DateRange
	Crew     []*model.CrewMember
	Pairings []*model.Pairing
	Rules    rules.BaseRules
}

// Builder 模型构建器
type Builder struct {
	mu      sync.Mutex
	input   Input
	runID   string
	state   State
	order   []constraint.Type
	ctx     *constraint.Context
	manager *constraint.Manager
	log     *logger.SchedulerLogger
}

// Option 构建器选项
type Option func(*Builder)

// WithRunID 指定运行标识
func WithRunID(id string) Option {
	return func(b *Builder) { b.runID = id }
}

// WithOrder 指定约束组顺序
func WithOrder(order []constraint.Type) Option {
	return func(b *Builder) { b.order = order }
}

// New 创建构建器
func New(in Input, opts ...Option) *Builder {
	b := &Builder{
		input: in,
		runID: uuid.New().String(),
		state: StateNew,
		order: builtin.FullOrder,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = logger.NewSchedulerLogger().ForRun(b.runID, in.Base, in.Seat)
	return b
}

// RunID 运行标识
func (b *Builder) RunID() string { return b.runID }

// State 当前状态
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Context 建模上下文（Build 之后可用）
func (b *Builder) Context() *constraint.Context { return b.ctx }

// Model 构建好的模型
func (b *Builder) Model() *mip.Model {
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Model
}

func (b *Builder) transition(to State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range transitions[b.state] {
		if s == to {
			b.state = to
			return nil
		}
	}
	return apperrors.InvalidState(string(b.state), string(to))
}

// Build 创建变量、按顺序加入约束组并设置目标函数
func (b *Builder) Build() error {
	in := b.input
	if len(in.Crew) == 0 {
		b.fail()
		return apperrors.InvalidInput("crew", "没有机组成员")
	}
	if in.Horizon.Len() == 0 {
		b.fail()
		return apperrors.New(apperrors.CodeInvalidTimeRange, "排班期为空")
	}
	b.log.StartRun(len(in.Crew), len(in.Pairings), in.Horizon.Len())

	b.ctx = constraint.NewContext(in.Base, in.Seat, in.Horizon, in.Crew, in.Pairings, in.Rules)
	b.manager = constraint.NewManager()
	b.manager.SetLogger(b.log)
	if err := builtin.Register(b.manager, b.order); err != nil {
		b.fail()
		return apperrors.Wrap(err, apperrors.CodeInternal, "注册约束组失败")
	}
	if err := b.manager.Build(b.ctx); err != nil {
		b.fail()
		return apperrors.Wrap(err, apperrors.CodeInternal, "构建模型失败")
	}
	b.ctx.Model.SetObjective(mip.Maximize, preference.Objective(b.ctx))

	b.log.Logger().Info().Fields(b.ctx.Model.Stats()).Msg("模型构建完成")
	return b.transition(StateBuilt)
}

func (b *Builder) fail() {
	b.mu.Lock()
	b.state = StateError
	b.mu.Unlock()
}

// Solve 调用求解器；不可行/无界时返回 NoFeasibleSolution 错误
func (b *Builder) Solve(ctx context.Context, s solver.Solver, opts solver.Options) (*Result, error) {
	if err := b.transition(StateSolving); err != nil {
		return nil, err
	}

	sol, err := s.Solve(ctx, b.ctx.Model, opts)
	if err != nil {
		b.fail()
		return nil, err
	}
	b.log.SolveComplete(string(sol.Status), sol.Duration, sol.Objective)

	switch sol.Status {
	case solver.StatusOptimal:
		err = b.transition(StateOptimal)
	case solver.StatusFeasible:
		b.log.Logger().Warn().Float64("gap", opts.Gap).Msg("求解超时，接受当前可行解")
		err = b.transition(StateSuboptimal)
	case solver.StatusNotSolved:
		b.fail()
		return nil, apperrors.New(apperrors.CodeTimeout, "求解超时且没有可行解").
			WithField("status", string(sol.Status))
	case solver.StatusInfeasible, solver.StatusUnbounded:
		_ = b.transition(StateInfeasible)
		return nil, apperrors.NoFeasibleSolution(fmt.Sprintf("求解状态 %s: %s", sol.Status, sol.Message)).
			WithField("status", string(sol.Status))
	default:
		b.fail()
		return nil, apperrors.SolverError(s.Name(), fmt.Errorf("%s", sol.Message))
	}
	if err != nil {
		return nil, err
	}
	return b.result(sol), nil
}

func (b *Builder) result(sol *solver.Solution) *Result {
	check := b.manager.Evaluate(b.ctx, sol.Values)
	if !check.IsValid {
		b.log.Logger().Error().Int("violations", len(check.HardViolations)).Msg("求解结果违反硬约束")
	}
	return &Result{
		RunID:        b.runID,
		Base:         b.input.Base,
		Seat:         b.input.Seat,
		State:        b.State(),
		Status:       sol.Status,
		Objective:    sol.Objective,
		Duration:     sol.Duration,
		Vars:         b.ctx.Model.NumVars(),
		Rows:         b.ctx.Model.NumRows(),
		Horizon:      b.input.Horizon,
		Crew:         b.input.Crew,
		Pairings:     b.input.Pairings,
		Assignment:   b.ctx.Assignment(sol.Values),
		Satisfaction: preference.Evaluate(b.ctx, sol.Values),
		Check:        check,
	}
}

// Sink 运行产物的持久化
type Sink interface {
	// WriteStatus 写出状态文件（求解前写入 running）
	WriteStatus(base, seat, status string) error

	// WriteResult 写出分配矩阵与满意度
	WriteResult(res *Result) error
}

// Run 完整运行一次：构建、求解、写出产物
//
// 任何失败（包括 panic）都只记录日志并返回 nil 结果，状态文件总会写出。
func Run(ctx context.Context, in Input, s solver.Solver, opts solver.Options, sink Sink, options ...Option) (res *Result, err error) {
	b := New(in, options...)
	log := b.log.Logger()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.CodeInternal, fmt.Sprintf("运行异常: %v", r))
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("运行异常终止")
			res = nil
			b.fail()
		}
		status := string(b.State())
		var appErr *apperrors.AppError
		if res != nil {
			status = string(res.Status)
		} else if errors.As(err, &appErr) {
			if st, ok := appErr.Fields["status"].(string); ok {
				status = st
			}
		}
		if sink != nil {
			if werr := sink.WriteStatus(in.Base, in.Seat, status); werr != nil {
				log.Error().Err(werr).Msg("写出状态文件失败")
			}
		}
		log.Info().Str("state", string(b.State())).Dur("elapsed", time.Since(start)).Msg("运行结束")
	}()

	if err = b.Build(); err != nil {
		log.Error().Err(err).Msg("模型构建失败")
		return nil, err
	}
	if sink != nil {
		if werr := sink.WriteStatus(in.Base, in.Seat, "running"); werr != nil {
			log.Warn().Err(werr).Msg("写出运行状态失败")
		}
	}

	res, err = b.Solve(ctx, s, opts)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNoFeasibleSolution) {
			log.Warn().Err(err).Msg("模型不可行，请运行诊断")
		} else {
			log.Error().Err(err).Msg("求解失败")
		}
		return nil, err
	}

	if sink != nil {
		if werr := sink.WriteResult(res); werr != nil {
			log.Error().Err(werr).Msg("写出结果失败")
			return nil, apperrors.Wrap(werr, apperrors.CodeInternal, "写出结果失败")
		}
	}
	return res, nil
}
