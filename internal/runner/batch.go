package runner

import (
	"context"
	"sync"
	"time"

	"github.com/paiban/fca/pkg/logger"
)

// BatchResult 批量运行中单个任务的结果
type BatchResult struct {
	Index    int
	Job      Job
	Outcome  *Outcome
	Err      error
	Duration time.Duration
}

// Batch 并行运行多个任务
//
// 相同 Key 的任务按提交顺序串行执行，不同 Key 的任务最多 workers 个同时运行；
// 单个任务失败不影响其他任务。结果按提交顺序返回。
func (r *Runner) Batch(ctx context.Context, jobs []Job, workers int) []BatchResult {
	return runGrouped(ctx, jobs, workers, r.Run)
}

type batchJob struct {
	index int
	job   Job
}

func runGrouped(ctx context.Context, jobs []Job, workers int, fn func(context.Context, Job) (*Outcome, error)) []BatchResult {
	if len(jobs) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 4
	}

	// 按 Key 分组，组内保持提交顺序
	var order []string
	groups := make(map[string][]batchJob)
	for i, j := range jobs {
		k := j.Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], batchJob{index: i, job: j})
	}
	if workers > len(order) {
		workers = len(order)
	}

	groupChan := make(chan []batchJob, len(order))
	resultChan := make(chan BatchResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range groupChan {
				for _, bj := range group {
					resultChan <- runOne(ctx, bj, fn)
				}
			}
		}()
	}

	for _, k := range order {
		groupChan <- groups[k]
	}
	close(groupChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]BatchResult, len(jobs))
	for res := range resultChan {
		results[res.Index] = res
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.Info().Int("jobs", len(jobs)).Int("failed", failed).Int("workers", workers).Msg("批量运行完成")
	return results
}

func runOne(ctx context.Context, bj batchJob, fn func(context.Context, Job) (*Outcome, error)) BatchResult {
	start := time.Now()
	res := BatchResult{Index: bj.index, Job: bj.job}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	res.Outcome, res.Err = fn(ctx, bj.job)
	res.Duration = time.Since(start)
	if res.Err != nil {
		logger.WithRun(bj.job.Base, bj.job.Seat).Error().Err(res.Err).Msg("批量任务失败")
	}
	return res
}
