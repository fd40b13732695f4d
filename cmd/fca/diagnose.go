package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/paiban/fca/pkg/diagnose"
)

var (
	extended   bool
	reportJSON bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "定位排班问题不可行的原因，存在 FAIL 时以非零状态退出",
	Example: `  fca diagnose --base BUR --seat CA --start 2024-03-01 --end 2024-03-31
  fca diagnose -b BUR -s CA --start 2024-03-01 --end 2024-03-31 --extended --json`,
	RunE: runDiagnose,
}

func init() {
	addJobFlags(diagnoseCmd)
	diagnoseCmd.Flags().BoolVar(&extended, "extended", false, "滚动窗口之后继续测试休息、休假与超额约束组")
	diagnoseCmd.Flags().BoolVar(&reportJSON, "json", false, "以 JSON 输出全部报告")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, _ []string) error {
	job, err := jobFromFlags()
	if err != nil {
		return err
	}
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	reports := s.runner.Diagnose(cmd.Context(), job, extended)
	if reportJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	}
	summary := diagnose.Summarize(reports)
	if err := summary.Write(cmd.OutOrStdout(), job.String()); err != nil {
		return err
	}
	if summary.HasFailure() {
		return &exitError{code: 1, msg: "诊断发现 FAIL 项"}
	}
	return nil
}
