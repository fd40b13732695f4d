package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "读回已写出的分配矩阵并重新复核，存在错误级冲突时以非零状态退出",
	Example: `  fca verify --base BUR --seat CA --start 2024-03-01 --end 2024-03-31`,
	RunE: runVerify,
}

func init() {
	addJobFlags(verifyCmd)
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	job, err := jobFromFlags()
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := s.runner.Verify(cmd.Context(), job)
	if err != nil {
		return err
	}

	errs := 0
	for _, c := range out.Conflicts {
		if c.Severity == "error" {
			errs++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s %s %s\n", c.Severity, c.Type, c.Crew, c.Message)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d 个冲突（错误 %d），覆盖率 %.1f%%，满意度基尼 %.3f\n",
		job.Key(), len(out.Conflicts), errs, out.Coverage.OverallCoverage, out.Fairness.SatisfactionGini)
	if errs > 0 {
		return &exitError{code: 1, msg: "复核未通过"}
	}
	return nil
}
