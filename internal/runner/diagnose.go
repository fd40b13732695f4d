package runner

import (
	"context"

	"github.com/paiban/fca/pkg/diagnose"
	"github.com/paiban/fca/pkg/logger"
)

// Diagnose 对一个任务做可行性诊断；输入无法加载时报告 Data Loading 失败
func (r *Runner) Diagnose(ctx context.Context, job Job, extended bool) []diagnose.DiagnosticReport {
	log := logger.WithRun(job.Base, job.Seat)

	ds, br, err := r.load(ctx, job)
	if err != nil {
		log.Error().Err(err).Msg("诊断输入加载失败")
		reports := []diagnose.DiagnosticReport{{
			CheckName: diagnose.CheckDataLoading,
			Result:    diagnose.ResultFail,
			Message:   "数据加载失败: " + err.Error(),
		}}
		r.metrics.Diagnostics(reports)
		return reports
	}

	engine := diagnose.NewEngine(r.solver,
		diagnose.WithExtended(extended),
		diagnose.WithStepOptions(r.cfg.Solver.StepOptions()),
		diagnose.WithLogger(log),
	)
	reports := engine.Run(ctx, &diagnose.Input{
		Base:     job.Base,
		Seat:     job.Seat,
		Horizon:  job.Horizon,
		Crew:     ds.Crew,
		Pairings: ds.Pairings,
		Rules:    br,
		Problems: ds.Problems,
	})
	r.metrics.Diagnostics(reports)
	return reports
}
