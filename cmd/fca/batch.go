package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/paiban/fca/internal/runner"
	"github.com/paiban/fca/pkg/model"
)

var (
	batchJobs    []string
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "并行运行多个基地/岗位，同一基地/岗位串行",
	Example: `  fca batch --jobs BUR/CA,BUR/FO,OAK/CA --start 2024-03-01 --end 2024-03-31 --workers 2`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringSliceVar(&batchJobs, "jobs", nil, "BASE/SEAT 列表")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "同时运行的任务数")
	batchCmd.Flags().StringVar(&startDate, "start", "", "排班期首日 YYYY-MM-DD")
	batchCmd.Flags().StringVar(&endDate, "end", "", "排班期末日 YYYY-MM-DD")
	addTimeLimitFlag(batchCmd)
	_ = batchCmd.MarkFlagRequired("jobs")
	_ = batchCmd.MarkFlagRequired("start")
	_ = batchCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(batchCmd)
}

// parseJobs 解析 BASE/SEAT 列表
func parseJobs(entries []string, horizon model.DateRange) ([]runner.Job, error) {
	jobs := make([]runner.Job, 0, len(entries))
	for _, entry := range entries {
		b, s, ok := strings.Cut(strings.TrimSpace(entry), "/")
		if !ok || b == "" || s == "" {
			return nil, fmt.Errorf("任务格式应为 BASE/SEAT: %q", entry)
		}
		jobs = append(jobs, runner.Job{Base: strings.ToUpper(b), Seat: strings.ToUpper(s), Horizon: horizon})
	}
	return jobs, nil
}

func runBatch(cmd *cobra.Command, _ []string) error {
	horizon, err := model.NewDateRange(startDate, endDate)
	if err != nil {
		return err
	}
	jobs, err := parseJobs(batchJobs, horizon)
	if err != nil {
		return err
	}
	if timeLimit > 0 {
		for i := range jobs {
			jobs[i].TimeLimit = time.Duration(timeLimit) * time.Second
		}
	}

	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	results := s.runner.Batch(cmd.Context(), jobs, batchWorkers)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "任务\t状态\t目标值\t耗时\t冲突")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%s\t失败: %v\t-\t%s\t-\n", r.Job.Key(), r.Err, r.Duration.Round(time.Second))
			continue
		}
		res := r.Outcome.Result
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\t%d\n", r.Job.Key(), res.Status, res.Objective, r.Duration.Round(time.Second), len(r.Outcome.Conflicts))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return &exitError{code: 1, msg: fmt.Sprintf("%d/%d 个任务失败", failed, len(results))}
	}
	return nil
}
