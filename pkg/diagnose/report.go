// Package diagnose 在求解前定位排班问题不可行的原因
package diagnose

import (
	"github.com/samber/lo"
)

// Result 检查结论
type Result string

const (
	ResultPass    Result = "PASS"
	ResultWarning Result = "WARNING"
	ResultFail    Result = "FAIL"
)

// 检查名称
const (
	CheckDataLoading        = "Data Loading"
	CheckSupplyDemand       = "Supply/Demand Balance"
	CheckDailyCoverage      = "Daily Coverage"
	CheckVacationAnalysis   = "Vacation Analysis"
	CheckIndividualCrew     = "Individual Crew Feasibility"
	CheckPairingVacation    = "Pairing Vacation Coverage"
	CheckTDYContiguity      = "TDY Contiguity"
	CheckLongDutyCapacity   = "Long-Duty Capacity"
	CheckReserveCapacity    = "Reserve Capacity"
	CheckThreePlusDay       = "3+ Day Pairing Assignment"
	CheckProblemSize        = "Problem Size"
	CheckFeasibilityTest    = "Feasibility Test"
	CheckFeasibilityPrefix  = "Feasibility: "
	CheckConstraintAnalysis = "Constraint Analysis"
)

// DiagnosticReport 单项检查报告
type DiagnosticReport struct {
	CheckName string                 `json:"check_name"`
	Result    Result                 `json:"result"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

func pass(name, msg string, details map[string]interface{}) DiagnosticReport {
	return DiagnosticReport{CheckName: name, Result: ResultPass, Message: msg, Details: details}
}

func warn(name, msg string, details map[string]interface{}) DiagnosticReport {
	return DiagnosticReport{CheckName: name, Result: ResultWarning, Message: msg, Details: details}
}

func fail(name, msg string, details map[string]interface{}) DiagnosticReport {
	return DiagnosticReport{CheckName: name, Result: ResultFail, Message: msg, Details: details}
}

// ByResult 按结论筛选
func ByResult(reports []DiagnosticReport, r Result) []DiagnosticReport {
	return lo.Filter(reports, func(rep DiagnosticReport, _ int) bool { return rep.Result == r })
}

// HasFailure 是否存在 FAIL
func HasFailure(reports []DiagnosticReport) bool {
	return lo.ContainsBy(reports, func(rep DiagnosticReport) bool { return rep.Result == ResultFail })
}

// Find 按名称查找报告
func Find(reports []DiagnosticReport, name string) (DiagnosticReport, bool) {
	return lo.Find(reports, func(rep DiagnosticReport) bool { return rep.CheckName == name })
}
