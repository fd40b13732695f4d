package builder

import (
	"time"

	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/scheduler/constraint"
	"github.com/paiban/fca/pkg/scheduler/preference"
	"github.com/paiban/fca/pkg/scheduler/solver"
)

// Result 一次成功运行的结果
type Result struct {
	RunID     string        `json:"run_id"`
	Base      string        `json:"base"`
	Seat      string        `json:"seat"`
	State     State         `json:"state"`
	Status    solver.Status `json:"status"`
	Objective float64       `json:"objective"`
	Duration  time.Duration `json:"duration"`
	Vars      int           `json:"vars"`
	Rows      int           `json:"rows"`

	Horizon      model.DateRange           `json:"-"`
	Crew         []*model.CrewMember       `json:"-"`
	Pairings     []*model.Pairing          `json:"-"`
	Assignment   [][]bool                  `json:"-"`
	Satisfaction []preference.Satisfaction `json:"satisfaction"`
	Check        *constraint.Result        `json:"check"`
}

// PairingsOf 分配给第 c 名机组的任务
func (r *Result) PairingsOf(c int) []*model.Pairing {
	var out []*model.Pairing
	for p, ok := range r.Assignment[c] {
		if ok {
			out = append(out, r.Pairings[p])
		}
	}
	return out
}

// AssignedTo 任务 p 的机组下标，未分配返回 -1
func (r *Result) AssignedTo(p int) int {
	for c := range r.Assignment {
		if r.Assignment[c][p] {
			return c
		}
	}
	return -1
}
