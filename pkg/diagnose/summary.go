package diagnose

import (
	"fmt"
	"io"
	"strings"
)

// recommendations 按首个失败检查给出的建议
var recommendations = map[string]string{
	CheckDataLoading:      "检查输入文件、基地与座位过滤条件，确认机组和任务都已加载。",
	CheckSupplyDemand:     "调整机组定额天数或任务集合，使定额总和与任务天数总和相等。",
	CheckDailyCoverage:    "减少问题日期上的休假/限制，或把当天的任务移到其他日期。",
	CheckIndividualCrew:   "降低相关机组的定额，或减少其休假/培训天数。",
	CheckPairingVacation:  "为没有可用机组的任务调整休假安排或重新分配基地。",
	CheckTDYContiguity:    "为外派机组留出一段不短于定额的连续可用日期。",
	CheckLongDutyCapacity: "减少重执勤任务或提高该基地的超额上限。",
	CheckReserveCapacity:  "减少备份任务数量或调整机组的备份偏好。",
}

// Summary 按结论分组的诊断摘要
type Summary struct {
	Failures       []DiagnosticReport
	Warnings       []DiagnosticReport
	Passes         []DiagnosticReport
	Recommendation string
}

// Summarize 汇总报告并给出建议
func Summarize(reports []DiagnosticReport) Summary {
	s := Summary{
		Failures: ByResult(reports, ResultFail),
		Warnings: ByResult(reports, ResultWarning),
		Passes:   ByResult(reports, ResultPass),
	}
	switch {
	case len(s.Failures) > 0:
		s.Recommendation = recommend(s.Failures[0])
	case len(s.Warnings) > 0:
		s.Recommendation = "检查上面的 WARNING 项。问题可能可解，但较紧。"
	default:
		s.Recommendation = "核心检查均已通过。如果优化仍然失败，请加长求解时间或查看求解器日志。"
	}
	return s
}

func recommend(first DiagnosticReport) string {
	if r, ok := recommendations[first.CheckName]; ok {
		return r
	}
	if strings.HasPrefix(first.CheckName, CheckFeasibilityPrefix) {
		group := strings.TrimPrefix(first.CheckName, CheckFeasibilityPrefix)
		return fmt.Sprintf("放宽或检查 '%s' 约束组的输入数据，再运行优化。", group)
	}
	return "先修复上面的 FAIL 项，再运行优化。"
}

// HasFailure 是否存在失败
func (s Summary) HasFailure() bool {
	return len(s.Failures) > 0
}

// Write 输出文本摘要
func (s Summary) Write(w io.Writer, title string) error {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n诊断摘要 %s\n%s\n\n", rule, title, rule)
	if len(s.Failures) > 0 {
		b.WriteString("FAIL（可能的不可行原因）:\n")
		for _, r := range s.Failures {
			fmt.Fprintf(&b, "   - %s: %s\n", r.CheckName, r.Message)
		}
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\nWARNING（潜在问题）:\n")
		for _, r := range s.Warnings {
			fmt.Fprintf(&b, "   - %s: %s\n", r.CheckName, r.Message)
		}
	}
	fmt.Fprintf(&b, "\nPASS: %d 项检查\n", len(s.Passes))
	fmt.Fprintf(&b, "\n%s\n建议: %s\n%s\n", rule, s.Recommendation, rule)
	_, err := io.WriteString(w, b.String())
	return err
}
