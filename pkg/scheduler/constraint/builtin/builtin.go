package builtin

import (
	"fmt"

	"github.com/paiban/fca/pkg/scheduler/constraint"
)

// DiagnosticOrder 增量可行性搜索的约束组顺序
var DiagnosticOrder = []constraint.Type{
	constraint.TypeCoverage,
	constraint.TypeDayBounds,
	constraint.TypeOnePerDay,
	constraint.TypeWindows,
}

// ExtendedDiagnosticOrder 扩展模式在滚动窗口之后继续加入的约束组
var ExtendedDiagnosticOrder = []constraint.Type{
	constraint.TypeRest,
	constraint.TypeVacation,
	constraint.TypeDutyOverage,
}

// FullOrder 完整模型的约束组顺序；偏好与工作段必须在硬约束之后
var FullOrder = []constraint.Type{
	constraint.TypeCoverage,
	constraint.TypeDayBounds,
	constraint.TypeOnePerDay,
	constraint.TypeWindows,
	constraint.TypeRest,
	constraint.TypeIntensity,
	constraint.TypeVacation,
	constraint.TypeDutyOverage,
	constraint.TypePreference,
	constraint.TypeChunks,
}

// New 按类型创建约束组
func New(t constraint.Type) (constraint.Constraint, error) {
	switch t {
	case constraint.TypeCoverage:
		return NewCoverageConstraint(), nil
	case constraint.TypeDayBounds:
		return NewDayBoundsConstraint(), nil
	case constraint.TypeOnePerDay:
		return NewOnePerDayConstraint(), nil
	case constraint.TypeWindows:
		return NewRollingWindowConstraint(), nil
	case constraint.TypeRest:
		return NewMinRestConstraint(), nil
	case constraint.TypeIntensity:
		return NewIntensityConstraint(), nil
	case constraint.TypeVacation:
		return NewVacationConstraint(), nil
	case constraint.TypeDutyOverage:
		return NewDutyOverageConstraint(), nil
	case constraint.TypePreference:
		return NewPreferenceConstraint(), nil
	case constraint.TypeChunks:
		return NewChunksConstraint(), nil
	}
	return nil, fmt.Errorf("未知约束组类型: %s", t)
}

// Register 按给定顺序注册约束组
func Register(manager *constraint.Manager, order []constraint.Type) error {
	for _, t := range order {
		c, err := New(t)
		if err != nil {
			return err
		}
		manager.Register(c)
	}
	return nil
}

// RegisterFullModel 注册完整模型的全部约束组
func RegisterFullModel(manager *constraint.Manager) {
	// FullOrder 中的类型均已知，不会出错
	_ = Register(manager, FullOrder)
}

// RegisterDiagnostic 注册增量诊断使用的约束组
func RegisterDiagnostic(manager *constraint.Manager, extended bool) {
	_ = Register(manager, DiagnosticOrder)
	if extended {
		_ = Register(manager, ExtendedDiagnosticOrder)
	}
}
