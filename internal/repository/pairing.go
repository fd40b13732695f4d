package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/paiban/fca/pkg/model"
)

const pairingColumns = `idx, d1, d2, mult, dtime, mlegs, nlayovers, base_start, charter, pstart, pend, shour`

// pairingRow 任务表行；d2、起止时间与 shour 可能为空
type pairingRow struct {
	ID          string          `db:"idx"`
	D1          time.Time       `db:"d1"`
	D2          sql.NullTime    `db:"d2"`
	Mult        int             `db:"mult"`
	DutySeconds int             `db:"dtime"`
	Legs        int             `db:"mlegs"`
	Layovers    int             `db:"nlayovers"`
	BaseStart   string          `db:"base_start"`
	Charter     bool            `db:"charter"`
	Start       sql.NullTime    `db:"pstart"`
	End         sql.NullTime    `db:"pend"`
	StartHour   sql.NullFloat64 `db:"shour"`
}

func (r pairingRow) toModel() *model.Pairing {
	p := &model.Pairing{
		ID:          r.ID,
		D1:          model.Truncate(r.D1),
		Mult:        r.Mult,
		DutySeconds: r.DutySeconds,
		Legs:        r.Legs,
		Layovers:    r.Layovers,
		BaseStart:   r.BaseStart,
		Charter:     r.Charter,
		StartHour:   -1,
	}
	if r.D2.Valid {
		p.D2 = model.Truncate(r.D2.Time)
	}
	if r.Start.Valid {
		p.Start = r.Start.Time
	}
	if r.End.Valid {
		p.End = r.End.Time
	}
	if r.StartHour.Valid {
		p.StartHour = r.StartHour.Float64
	}
	return p
}

// PairingRepository 候选任务仓储
type PairingRepository struct {
	db DB
}

// NewPairingRepository 创建任务仓储
func NewPairingRepository(db DB) *PairingRepository {
	return &PairingRepository{db: db}
}

// List 按岗位、出发基地与首日范围列出任务
func (r *PairingRepository) List(ctx context.Context, filter ListFilter) ([]*model.Pairing, error) {
	var w whereBuilder
	if filter.Seat != "" {
		w.add("seat = $%d", filter.Seat)
	}
	if len(filter.Bases) > 0 {
		w.add("base_start = ANY($%d)", pq.Array(filter.Bases))
	}
	if filter.StartDate != "" {
		w.add("d1 >= $%d", filter.StartDate)
	}
	if filter.EndDate != "" {
		w.add("d1 <= $%d", filter.EndDate)
	}

	query := "SELECT " + pairingColumns + " FROM pairings" + w.clause() + " ORDER BY d1, idx"
	var rows []pairingRow
	if err := r.db.SelectContext(ctx, &rows, query, w.args...); err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}

	out := make([]*model.Pairing, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}
