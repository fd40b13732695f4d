package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/paiban/fca/pkg/scheduler/builder"
)

// RunRecord 每个基地/岗位最近一次运行的状态
type RunRecord struct {
	Base      string    `json:"base" db:"base"`
	Seat      string    `json:"seat" db:"seat"`
	RunID     string    `json:"run_id" db:"run_id"`
	Status    string    `json:"status" db:"status"`
	Objective float64   `json:"objective" db:"objective"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RunRepository 运行状态与分配结果仓储，实现 builder.Sink
type RunRepository struct {
	db      DB
	timeout time.Duration
	now     func() time.Time
}

// NewRunRepository 创建运行仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db, timeout: 30 * time.Second, now: time.Now}
}

// WriteStatus 写入运行状态
func (r *RunRepository) WriteStatus(base, seat, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	const query = `
		INSERT INTO fca_runs (base, seat, run_id, status, objective, updated_at)
		VALUES ($1, $2, '', $3, 0, $4)
		ON CONFLICT (base, seat) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, base, seat, status, r.now().UTC()); err != nil {
		return fmt.Errorf("写入运行状态失败: %w", err)
	}
	return nil
}

// WriteResult 在一个事务中替换该基地/岗位的分配结果
func (r *RunRepository) WriteResult(res *builder.Result) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fca_assignments WHERE base = $1 AND seat = $2`, res.Base, res.Seat); err != nil {
			return fmt.Errorf("清除旧分配失败: %w", err)
		}
		for c, crew := range res.Crew {
			for _, p := range res.PairingsOf(c) {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO fca_assignments (run_id, base, seat, crew_name, pairing_idx) VALUES ($1, $2, $3, $4, $5)`,
					res.RunID, res.Base, res.Seat, crew.Name, p.ID,
				); err != nil {
					return fmt.Errorf("写入分配失败: %w", err)
				}
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE fca_runs SET run_id = $3, objective = $4, updated_at = $5 WHERE base = $1 AND seat = $2`,
			res.Base, res.Seat, res.RunID, res.Objective, r.now().UTC(),
		); err != nil {
			return fmt.Errorf("更新运行记录失败: %w", err)
		}
		return nil
	})
}

// Latest 最近一次运行
func (r *RunRepository) Latest(ctx context.Context, base, seat string) (*RunRecord, error) {
	const query = `SELECT base, seat, run_id, status, objective, updated_at FROM fca_runs WHERE base = $1 AND seat = $2`
	var rec RunRecord
	if err := r.db.GetContext(ctx, &rec, query, base, seat); err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return &rec, nil
}
