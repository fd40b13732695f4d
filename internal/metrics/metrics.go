// Package metrics 提供Prometheus监控指标，批处理结束时写出为 textfile
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/paiban/fca/pkg/diagnose"
	"github.com/paiban/fca/pkg/validator"
)

// Recorder 运行指标；nil 接收者上的调用不做任何事
type Recorder struct {
	registry *prometheus.Registry

	runs          *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	modelSize     *prometheus.GaugeVec
	objective     *prometheus.GaugeVec
	checks        *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	coverage      *prometheus.GaugeVec
	fairness      *prometheus.GaugeVec
}

// New 在独立注册表上创建全部指标
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fca_runs_total",
			Help: "排班运行次数",
		}, []string{"base", "seat", "status"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fca_solve_duration_seconds",
			Help:    "求解耗时",
			Buckets: prometheus.ExponentialBuckets(1, 2, 13),
		}, []string{"base", "seat", "solver"}),
		modelSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fca_model_size",
			Help: "模型规模",
		}, []string{"base", "seat", "kind"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fca_objective_value",
			Help: "目标函数值",
		}, []string{"base", "seat"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fca_diagnostic_checks_total",
			Help: "诊断检查结果",
		}, []string{"check", "result"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fca_validation_conflicts_total",
			Help: "结果复核发现的冲突",
		}, []string{"base", "seat", "type"}),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fca_coverage_rate",
			Help: "任务覆盖率（百分比）",
		}, []string{"base", "seat"}),
		fairness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fca_fairness_gini",
			Help: "公平性基尼系数",
		}, []string{"base", "seat", "metric"}),
	}
	r.registry.MustRegister(
		r.runs, r.solveDuration, r.modelSize, r.objective,
		r.checks, r.conflicts, r.coverage, r.fairness,
	)
	return r
}

// Registry 底层注册表
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RunFinished 记录一次运行的终态与求解耗时
func (r *Recorder) RunFinished(base, seat, status, solver string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(base, seat, status).Inc()
	if d > 0 {
		r.solveDuration.WithLabelValues(base, seat, solver).Observe(d.Seconds())
	}
}

// ModelSize 记录变量数与约束行数
func (r *Recorder) ModelSize(base, seat string, vars, rows int) {
	if r == nil {
		return
	}
	r.modelSize.WithLabelValues(base, seat, "vars").Set(float64(vars))
	r.modelSize.WithLabelValues(base, seat, "rows").Set(float64(rows))
}

// Objective 记录目标函数值
func (r *Recorder) Objective(base, seat string, value float64) {
	if r == nil {
		return
	}
	r.objective.WithLabelValues(base, seat).Set(value)
}

// Diagnostics 记录诊断报告
func (r *Recorder) Diagnostics(reports []diagnose.DiagnosticReport) {
	if r == nil {
		return
	}
	for _, rep := range reports {
		r.checks.WithLabelValues(rep.CheckName, string(rep.Result)).Inc()
	}
}

// Conflicts 记录复核冲突
func (r *Recorder) Conflicts(base, seat string, conflicts []validator.Conflict) {
	if r == nil {
		return
	}
	for typ, n := range validator.CountByType(conflicts) {
		r.conflicts.WithLabelValues(base, seat, string(typ)).Add(float64(n))
	}
}

// Coverage 记录覆盖率
func (r *Recorder) Coverage(base, seat string, rate float64) {
	if r == nil {
		return
	}
	r.coverage.WithLabelValues(base, seat).Set(rate)
}

// Fairness 记录满意度与周末工作的基尼系数
func (r *Recorder) Fairness(base, seat string, satisfaction, weekend float64) {
	if r == nil {
		return
	}
	r.fairness.WithLabelValues(base, seat, "satisfaction").Set(satisfaction)
	r.fairness.WithLabelValues(base, seat, "weekend").Set(weekend)
}

// WriteTextfile 写出 node_exporter textfile 格式
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
