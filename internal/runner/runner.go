// Package runner 串起一次排班运行：加载输入、建模求解、写出产物、复核结果
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/paiban/fca/internal/config"
	"github.com/paiban/fca/internal/database"
	"github.com/paiban/fca/internal/loader"
	"github.com/paiban/fca/internal/metrics"
	"github.com/paiban/fca/internal/output"
	"github.com/paiban/fca/internal/repository"
	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/scheduler/builder"
	"github.com/paiban/fca/pkg/scheduler/solver"
	"github.com/paiban/fca/pkg/stats"
	"github.com/paiban/fca/pkg/validator"
)

// Job 一个基地/岗位的排班任务
type Job struct {
	Base    string
	Seat    string
	Horizon model.DateRange

	// TimeLimit 覆盖配置中的求解时限，0 表示使用配置
	TimeLimit time.Duration
}

// Key 同一 Key 的任务必须串行执行
func (j Job) Key() string {
	return j.Base + "/" + j.Seat
}

func (j Job) String() string {
	return fmt.Sprintf("%s %s", j.Key(), j.Horizon)
}

// Outcome 一次运行的完整产物
type Outcome struct {
	Job       Job
	Dataset   *loader.Dataset
	Result    *builder.Result
	Conflicts []validator.Conflict
	Coverage  *stats.CoverageMetrics
	Fairness  *stats.FairnessMetrics
}

// Runner 组合配置、数据源、求解器与输出
type Runner struct {
	cfg     *config.Config
	solver  solver.Solver
	source  loader.Source
	db      *database.DB
	files   *output.FileSink
	sinks   []builder.Sink
	metrics *metrics.Recorder
}

// Option 可选项
type Option func(*Runner)

// WithSolver 指定求解器（默认按配置创建）
func WithSolver(s solver.Solver) Option {
	return func(r *Runner) { r.solver = s }
}

// WithSource 固定数据源（默认按配置选择 CSV 或数据库）
func WithSource(src loader.Source) Option {
	return func(r *Runner) { r.source = src }
}

// WithDatabase 从数据库读取输入，并把运行状态与分配写回数据库
func WithDatabase(db *database.DB) Option {
	return func(r *Runner) {
		r.db = db
		r.sinks = append(r.sinks, repository.NewRunRepository(db))
	}
}

// WithSink 追加输出
func WithSink(s builder.Sink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, s) }
}

// WithMetrics 记录监控指标
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

// New 创建运行器
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:   cfg,
		files: output.NewFileSink(cfg.Output.Dir),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.solver == nil {
		s, err := cfg.Solver.New()
		if err != nil {
			return nil, err
		}
		r.solver = s
	}
	return r, nil
}

// Files 文件输出
func (r *Runner) Files() *output.FileSink {
	return r.files
}

// Metrics 监控指标（未启用时为 nil）
func (r *Runner) Metrics() *metrics.Recorder {
	return r.metrics
}

func (r *Runner) sourceFor(job Job, br rules.BaseRules) loader.Source {
	if r.source != nil {
		return r.source
	}
	if r.db != nil {
		filter := repository.ListFilter{}.
			WithBases(append([]string{job.Base}, br.Aliases...)...).
			WithDateRange(model.FormatDate(job.Horizon.Start), model.FormatDate(job.Horizon.End))
		return loader.NewPostgresSource(r.db, filter)
	}
	return loader.NewCSVSource(r.cfg.Data, br.Location)
}

// load 读取并组装输入
func (r *Runner) load(ctx context.Context, job Job) (*loader.Dataset, rules.BaseRules, error) {
	br := r.cfg.Rules.ForBase(job.Base)
	ds, err := loader.Load(ctx, r.sourceFor(job, br), loader.Request{
		Base:    job.Base,
		Seat:    job.Seat,
		Horizon: job.Horizon,
		Rules:   br,
		TDY:     r.cfg.Rules.TDYRule(),
		Reserve: r.cfg.Reserve,
	})
	return ds, br, err
}

// Run 完整运行一次；模型不可行或求解失败时返回错误，状态文件总会写出
func (r *Runner) Run(ctx context.Context, job Job) (*Outcome, error) {
	log := logger.WithRun(job.Base, job.Seat)
	out := &Outcome{Job: job}

	ds, br, err := r.load(ctx, job)
	if err != nil {
		r.metrics.RunFinished(job.Base, job.Seat, string(solver.StatusError), r.solver.Name(), 0)
		r.writeStatus(log, job, string(solver.StatusError))
		return out, err
	}
	out.Dataset = ds

	opts := r.cfg.Solver.Options()
	if job.TimeLimit > 0 {
		opts.TimeLimit = job.TimeLimit
	}
	sinks := append([]builder.Sink{r.files}, r.sinks...)
	res, err := builder.Run(ctx, builder.Input{
		Base:     job.Base,
		Seat:     job.Seat,
		Horizon:  job.Horizon,
		Crew:     ds.Crew,
		Pairings: ds.Pairings,
		Rules:    br,
	}, r.solver, opts, output.Tee(sinks...))
	if err != nil {
		r.metrics.RunFinished(job.Base, job.Seat, statusOf(err), r.solver.Name(), 0)
		return out, err
	}
	out.Result = res

	r.metrics.RunFinished(job.Base, job.Seat, string(res.Status), r.solver.Name(), res.Duration)
	r.metrics.ModelSize(job.Base, job.Seat, res.Vars, res.Rows)
	r.metrics.Objective(job.Base, job.Seat, res.Objective)
	r.review(log, out, br)
	return out, nil
}

// writeStatus 加载失败时 builder 不会运行，由这里补写状态文件
func (r *Runner) writeStatus(log *zerolog.Logger, job Job, status string) {
	if err := output.Tee(append([]builder.Sink{r.files}, r.sinks...)...).WriteStatus(job.Base, job.Seat, status); err != nil {
		log.Error().Err(err).Msg("写出状态文件失败")
	}
}

// review 独立复核分配并统计覆盖率与公平性
func (r *Runner) review(log *zerolog.Logger, out *Outcome, br rules.BaseRules) {
	res := out.Result
	out.Conflicts = validator.NewConflictDetector(br).DetectAll(&validator.Plan{
		Horizon:    res.Horizon,
		Crew:       res.Crew,
		Pairings:   res.Pairings,
		Assignment: res.Assignment,
	})
	for _, c := range out.Conflicts {
		ev := log.Warn()
		if c.Severity == "error" {
			ev = log.Error()
		}
		ev.Str("type", string(c.Type)).Str("crew", c.Crew).Str("date", c.Date).Strs("pairings", c.Pairings).Msg(c.Message)
	}

	out.Coverage = stats.NewCoverageAnalyzer().Analyze(res.Horizon, res.Crew, res.Pairings, res.Assignment)
	out.Fairness = stats.NewFairnessAnalyzer().Analyze(res.Crew, res.Pairings, res.Assignment, res.Satisfaction)
	log.Info().
		Int("conflicts", len(out.Conflicts)).
		Float64("coverage", out.Coverage.OverallCoverage).
		Float64("utilization", out.Coverage.Utilization).
		Float64("satisfaction_gini", out.Fairness.SatisfactionGini).
		Float64("weekend_gini", out.Fairness.WeekendGini).
		Msg("结果复核完成")

	r.metrics.Conflicts(res.Base, res.Seat, out.Conflicts)
	r.metrics.Coverage(res.Base, res.Seat, out.Coverage.OverallCoverage)
	r.metrics.Fairness(res.Base, res.Seat, out.Fairness.SatisfactionGini, out.Fairness.WeekendGini)
}

// statusOf 失败运行写入状态文件的状态
func statusOf(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if st, ok := appErr.Fields["status"].(string); ok {
			return st
		}
	}
	return string(solver.StatusError)
}
