package runner

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/paiban/fca/internal/output"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/scheduler/builder"
	"github.com/paiban/fca/pkg/scheduler/preference"
	"github.com/paiban/fca/pkg/validator"
)

// Verify 读回已写出的分配矩阵，对照当前输入重新复核
//
// 文件中的机组与任务按名称和编号对齐到输入顺序；对不上的记为 shape 冲突。
func (r *Runner) Verify(ctx context.Context, job Job) (*Outcome, error) {
	log := logger.WithRun(job.Base, job.Seat)

	saved, err := r.files.ReadAssignment(job.Base)
	if err != nil {
		return nil, fmt.Errorf("读取分配矩阵失败: %w", err)
	}
	ds, br, err := r.load(ctx, job)
	if err != nil {
		return nil, err
	}

	assignment, mismatches := align(saved, ds.Crew, ds.Pairings)
	res := &builder.Result{
		Base:       job.Base,
		Seat:       job.Seat,
		Horizon:    job.Horizon,
		Crew:       ds.Crew,
		Pairings:   ds.Pairings,
		Assignment: assignment,
	}
	if scores, err := r.files.ReadSatisfaction(job.Base, job.Seat); err == nil {
		res.Satisfaction = satisfactionOf(ds.Crew, scores)
	} else {
		log.Warn().Err(err).Msg("满意度文件不可用，跳过公平性统计")
	}

	out := &Outcome{Job: job, Dataset: ds, Result: res}
	r.review(log, out, br)
	out.Conflicts = append(mismatches, out.Conflicts...)
	return out, nil
}

// align 把文件中的矩阵重排为 crew × pairings
func align(saved *output.Assignment, crew []*model.CrewMember, pairings []*model.Pairing) ([][]bool, []validator.Conflict) {
	var conflicts []validator.Conflict
	crewIdx := make(map[string]int, len(crew))
	for i, c := range crew {
		crewIdx[c.Name] = i
	}
	pairingIdx := make(map[string]int, len(pairings))
	for i, p := range pairings {
		pairingIdx[p.ID] = i
	}

	cols := make([]int, len(saved.Pairings))
	for j, id := range saved.Pairings {
		idx, ok := pairingIdx[id]
		if !ok {
			idx = -1
			conflicts = append(conflicts, validator.Conflict{
				Type:     validator.ConflictShape,
				Severity: "error",
				Message:  fmt.Sprintf("分配矩阵中的任务 %s 不在当前输入中", id),
				Pairings: []string{id},
			})
		}
		cols[j] = idx
	}

	out := make([][]bool, len(crew))
	for i := range out {
		out[i] = make([]bool, len(pairings))
	}
	seen := make(map[string]bool, len(saved.Crew))
	for i, name := range saved.Crew {
		c, ok := crewIdx[name]
		if !ok {
			conflicts = append(conflicts, validator.Conflict{
				Type:     validator.ConflictShape,
				Severity: "error",
				Crew:     name,
				Message:  fmt.Sprintf("分配矩阵中的机组 %s 不在当前名册中", name),
			})
			continue
		}
		seen[name] = true
		for j, v := range saved.Matrix[i] {
			if v && cols[j] >= 0 {
				out[c][cols[j]] = true
			}
		}
	}
	for _, c := range crew {
		if !seen[c.Name] {
			conflicts = append(conflicts, validator.Conflict{
				Type:     validator.ConflictShape,
				Severity: "error",
				Crew:     c.Name,
				Message:  fmt.Sprintf("机组 %s 不在分配矩阵中", c.Name),
			})
		}
	}
	return out, conflicts
}

func satisfactionOf(crew []*model.CrewMember, scores map[string]output.Scores) []preference.Satisfaction {
	return lo.Map(crew, func(c *model.CrewMember, _ int) preference.Satisfaction {
		s := scores[c.Name]
		return preference.Satisfaction{
			Crew:      c.Name,
			DaysOff:   s.DaysOff,
			Overnight: s.Overnight,
			Time:      s.Time,
			Reserve:   s.Reserve,
			Charter:   s.Charter,
		}
	})
}
