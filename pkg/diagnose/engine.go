package diagnose

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/scheduler/solver"
)

// DefaultStepTimeLimit 增量搜索每一步的求解时间上限
const DefaultStepTimeLimit = 30 * time.Second

// Engine 可行性诊断引擎
type Engine struct {
	solver      solver.Solver
	prescreen   solver.Solver
	stepOptions solver.Options
	extended    bool
	log         *zerolog.Logger
}

// Option 引擎选项
type Option func(*Engine)

// WithExtended 滚动窗口之后继续测试休息、休假与超额约束组
func WithExtended(extended bool) Option {
	return func(e *Engine) { e.extended = extended }
}

// WithStepOptions 增量搜索每一步的求解参数
func WithStepOptions(opts solver.Options) Option {
	return func(e *Engine) { e.stepOptions = opts }
}

// WithPrescreen 替换线性松弛预筛；nil 表示不预筛
func WithPrescreen(s solver.Solver) Option {
	return func(e *Engine) { e.prescreen = s }
}

// WithLogger 使用指定日志器
func WithLogger(l *zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine 创建诊断引擎；s 为 nil 时只做线性松弛预筛
func NewEngine(s solver.Solver, opts ...Option) *Engine {
	stepOpts := solver.DefaultOptions()
	stepOpts.TimeLimit = DefaultStepTimeLimit
	stepOpts.Gap = 0

	l := logger.Get().With().Str("component", "diagnose").Logger()
	e := &Engine{
		solver:      s,
		prescreen:   solver.NewLPRelaxation(),
		stepOptions: stepOpts,
		log:         &l,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run 执行全部检查，按顺序返回报告
//
// 数据加载失败时不再继续其余检查。
func (e *Engine) Run(ctx context.Context, in *Input) []DiagnosticReport {
	d := newData(in)
	log := e.log.With().Str("base", in.Base).Str("seat", in.Seat).Logger()
	log.Info().
		Int("crew", len(in.Crew)).
		Int("pairings", len(in.Pairings)).
		Str("horizon", in.Horizon.String()).
		Msg("开始可行性诊断")

	var reports []DiagnosticReport
	add := func(rs ...DiagnosticReport) {
		for _, r := range rs {
			logReport(&log, r)
			reports = append(reports, r)
		}
	}

	add(checkDataLoading(d))
	if reports[0].Result == ResultFail {
		return reports
	}
	for _, c := range analyticChecks {
		add(c(d))
	}
	add(e.incremental(ctx, d)...)

	log.Info().
		Int("fail", len(ByResult(reports, ResultFail))).
		Int("warning", len(ByResult(reports, ResultWarning))).
		Int("pass", len(ByResult(reports, ResultPass))).
		Msg("可行性诊断完成")
	return reports
}

func logReport(l *zerolog.Logger, r DiagnosticReport) {
	var ev *zerolog.Event
	switch r.Result {
	case ResultFail:
		ev = l.Error()
	case ResultWarning:
		ev = l.Warn()
	default:
		ev = l.Info()
	}
	ev.Str("check", r.CheckName).
		Str("result", string(r.Result)).
		Msg(r.Message)
}
