package diagnose

import (
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/rules"
	"github.com/paiban/fca/pkg/timeindex"
)

// Input 诊断输入，与建模使用同一份名册、任务和规则
type Input struct {
	Base     string
	Seat     string
	Horizon  model.DateRange
	Crew     []*model.CrewMember
	Pairings []*model.Pairing
	Rules    rules.BaseRules

	// Problems 组装名册时跳过的记录
	Problems []model.RosterProblem
}

// data 检查共用的派生数据
type data struct {
	*Input
	index *timeindex.Index
}

func newData(in *Input) *data {
	return &data{Input: in, index: timeindex.Build(in.Horizon, in.Pairings)}
}

// crewDays 全部机组的定额天数之和
func (d *data) crewDays() int {
	total := 0
	for _, c := range d.Crew {
		total += c.RequiredDays
	}
	return total
}

// pairingDays 全部任务的工作天数之和
func (d *data) pairingDays() int {
	total := 0
	for _, p := range d.Pairings {
		total += p.Mult
	}
	return total
}

// blockedOn 第 day 天被占用的机组数
func (d *data) blockedOn(day int) int {
	date, ok := d.index.Day(day)
	if !ok {
		return 0
	}
	n := 0
	for _, c := range d.Crew {
		if c.IsBlocked(date) {
			n++
		}
	}
	return n
}

// eligible 未在任务 p 占用的任何一天被占用的机组数
func (d *data) eligible(p int) int {
	days := d.index.DaysOf(p)
	n := 0
	for _, c := range d.Crew {
		free := true
		for _, off := range days {
			date, _ := d.index.Day(off)
			if c.IsBlocked(date) {
				free = false
				break
			}
		}
		if free {
			n++
		}
	}
	return n
}
