package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/paiban/fca/pkg/model"
)

// CrewRepository 机组记录与偏好仓储
type CrewRepository struct {
	db DB
}

// NewCrewRepository 创建机组仓储
func NewCrewRepository(db DB) *CrewRepository {
	return &CrewRepository{db: db}
}

// ListRecords 列出岗位下常驻或外派到指定基地的机组记录
func (r *CrewRepository) ListRecords(ctx context.Context, filter ListFilter) ([]model.CrewRecord, error) {
	var w whereBuilder
	if filter.Seat != "" {
		w.add("seat = $%d", filter.Seat)
	}
	if len(filter.Bases) > 0 {
		bases := pq.Array(filter.Bases)
		w.args = append(w.args, bases)
		n := len(w.args)
		w.conditions = append(w.conditions, fmt.Sprintf("(base = ANY($%d) OR to_base = ANY($%d))", n, n))
	}

	query := `SELECT name, base, to_base, non_tdy_days_worked, five_day_tdy, six_day_tdy FROM crew_records` +
		w.clause() + " ORDER BY name"
	var out []model.CrewRecord
	if err := r.db.SelectContext(ctx, &out, query, w.args...); err != nil {
		return nil, fmt.Errorf("查询机组记录失败: %w", err)
	}
	return out, nil
}

// ListPreferences 列出全部投标偏好；与记录的合并由名册组装完成
func (r *CrewRepository) ListPreferences(ctx context.Context) ([]model.PreferenceRecord, error) {
	const query = `SELECT user_name, COALESCE(user_email, '') AS user_email, user_base, user_role, user_seniority,
		overnight_preference, time_period_preference, reserve_preference,
		COALESCE(preferred_days_off, '') AS preferred_days_off,
		COALESCE(vacation_days, '') AS vacation_days,
		COALESCE(work_restriction_days, '') AS work_restriction_days,
		COALESCE(training_days, '') AS training_days
		FROM bid_preferences ORDER BY user_seniority DESC`
	var out []model.PreferenceRecord
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("查询投标偏好失败: %w", err)
	}
	return out, nil
}
