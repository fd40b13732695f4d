package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/paiban/fca/internal/config"
	"github.com/paiban/fca/internal/output"
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/reserve"
)

var (
	slateCounts string
	slateFirst  int
	slateOut    string
	slateHeader bool
)

var slateCmd = &cobra.Command{
	Use:   "slate",
	Short: "按每周备份需求生成备份任务（R 前缀），输出为任务表格式",
	Example: `  fca slate --base BUR --counts 2,2,2,2,3,1,1 --start 2024-03-01 --end 2024-03-31 --first 100
  fca slate -c fca.yaml --start 2024-03-01 --end 2024-03-31 --out reserve.csv`,
	RunE: runSlate,
}

func init() {
	slateCmd.Flags().StringVarP(&base, "base", "b", "", "基地代码；与 --counts 一起使用，不指定时使用配置中的全部备份需求")
	slateCmd.Flags().StringVar(&slateCounts, "counts", "", "周一到周日每天的备份数，如 1,1,1,1,1,1,1")
	slateCmd.Flags().StringVar(&startDate, "start", "", "排班期首日 YYYY-MM-DD")
	slateCmd.Flags().StringVar(&endDate, "end", "", "排班期末日 YYYY-MM-DD")
	slateCmd.Flags().IntVar(&slateFirst, "first", 1, "第一个备份任务的编号")
	slateCmd.Flags().StringVarP(&slateOut, "out", "o", "", "输出文件，默认标准输出")
	slateCmd.Flags().BoolVar(&slateHeader, "header", true, "写出表头")
	_ = slateCmd.MarkFlagRequired("start")
	_ = slateCmd.MarkFlagRequired("end")
	slateCmd.MarkFlagsRequiredTogether("base", "counts")
	rootCmd.AddCommand(slateCmd)
}

func runSlate(cmd *cobra.Command, _ []string) error {
	horizon, err := model.NewDateRange(startDate, endDate)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	slates := cfg.Reserve
	if slateCounts != "" {
		counts, err := reserve.ParseCounts(slateCounts)
		if err != nil {
			return err
		}
		slates = []reserve.Slate{{Base: base, Counts: counts}}
	}
	if len(slates) == 0 {
		return fmt.Errorf("没有备份需求：请指定 --base 与 --counts，或在配置中设置 reserve")
	}

	pairings, err := reserve.NewGenerator(slateFirst).Generate(horizon, slates)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if slateOut != "" {
		f, err := os.Create(slateOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := output.WritePairings(w, pairings, slateHeader); err != nil {
		return err
	}

	days := reserve.DaysByBase(pairings)
	for _, b := range reserve.Bases(days) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d 个备份任务\n", b, days[b])
	}
	return nil
}
