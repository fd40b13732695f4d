package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paiban/fca/pkg/validator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "为一个基地/岗位求解任务分配并写出结果",
	Example: `  fca run --base BUR --seat CA --start 2024-03-01 --end 2024-03-31 --time-limit 600
  fca run -c fca.yaml -b OAK -s FO --start 2024-03-01 --end 2024-03-31`,
	RunE: runAssign,
}

func init() {
	addJobFlags(runCmd)
	addTimeLimitFlag(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runAssign(cmd *cobra.Command, _ []string) error {
	job, err := jobFromFlags()
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := s.runner.Run(cmd.Context(), job)
	if err != nil {
		return fmt.Errorf("%s 运行失败: %w", job.Key(), err)
	}

	res := out.Result
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s 目标值 %.4f 耗时 %s\n", job.Key(), res.Status, res.Objective, res.Duration)
	fmt.Fprintf(cmd.OutOrStdout(), "覆盖率 %.1f%%  满意度基尼 %.3f  周末基尼 %.3f\n",
		out.Coverage.OverallCoverage, out.Fairness.SatisfactionGini, out.Fairness.WeekendGini)
	if n := len(out.Conflicts); n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "复核发现 %d 个冲突: %v\n", n, validator.CountByType(out.Conflicts))
	}
	return nil
}
