// Package loader 读取任务、机组记录与偏好，组装一次运行的输入
package loader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/paiban/fca/internal/repository"
	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/model"
	"github.com/paiban/fca/pkg/reserve"
	"github.com/paiban/fca/pkg/rules"
)

// Source 输入数据来源；第二个返回值为记录级问题，行被跳过但运行继续
type Source interface {
	Pairings(ctx context.Context, seat string) ([]*model.Pairing, []error, error)
	CrewRecords(ctx context.Context, seat string) ([]model.CrewRecord, []error, error)
	Preferences(ctx context.Context, seat string) ([]model.PreferenceRecord, []error, error)
}

// Request 一次运行的加载参数
type Request struct {
	Base    string
	Seat    string
	Horizon model.DateRange
	Rules   rules.BaseRules
	TDY     model.TDYRule

	// Reserve 额外生成的备份任务需求；为空时只使用任务表
	Reserve []reserve.Slate
}

// Dataset 加载结果
type Dataset struct {
	Crew     []*model.CrewMember
	Pairings []*model.Pairing
	Problems []model.RosterProblem

	// Skipped 无法解析而跳过的记录
	Skipped []error
}

// Load 读取数据并完成基地过滤、名册组装和备份任务补充
func Load(ctx context.Context, src Source, req Request) (*Dataset, error) {
	log := logger.WithRun(req.Base, req.Seat)

	all, skippedPairings, err := src.Pairings(ctx, req.Seat)
	if err != nil {
		return nil, err
	}
	records, skippedRecords, err := src.CrewRecords(ctx, req.Seat)
	if err != nil {
		return nil, err
	}
	prefs, skippedPrefs, err := src.Preferences(ctx, req.Seat)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	ds.Skipped = append(append(append(ds.Skipped, skippedPairings...), skippedRecords...), skippedPrefs...)
	for _, e := range ds.Skipped {
		log.Warn().Err(e).Msg("跳过无法解析的记录")
	}

	pairings := model.FilterPairings(all, req.Base, req.Rules.Aliases)
	inHorizon := lo.Filter(pairings, func(p *model.Pairing, _ int) bool { return req.Horizon.Contains(p.D1) })
	if dropped := len(pairings) - len(inHorizon); dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("horizon", req.Horizon.String()).Msg("任务首日不在排班期内，已忽略")
	}
	ds.Pairings = inHorizon

	slates := lo.Filter(req.Reserve, func(s reserve.Slate, _ int) bool { return s.Base == req.Base })
	if len(slates) > 0 {
		gen := reserve.NewGenerator(nextReserveNumber(ds.Pairings))
		extra, err := gen.Generate(req.Horizon, slates)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "生成备份任务失败")
		}
		ds.Pairings = append(ds.Pairings, extra...)
		log.Info().Int("reserve", len(extra)).Msg("补充备份任务")
	}

	ds.Crew, ds.Problems = model.BuildRoster(records, prefs, req.Base, req.Seat, req.TDY)
	for _, p := range ds.Problems {
		ev := log.Warn()
		if p.Fatal {
			ev = log.Error()
		}
		ev.Str("crew", p.Crew).Str("field", p.Field).Bool("rejected", p.Fatal).Msg(p.Reason)
	}

	log.Info().
		Int("crew", len(ds.Crew)).
		Int("pairings", len(ds.Pairings)).
		Int("pairing_days", lo.SumBy(ds.Pairings, func(p *model.Pairing) int { return p.Mult })).
		Int("crew_days", lo.SumBy(ds.Crew, func(c *model.CrewMember) int { return c.RequiredDays })).
		Msg("输入数据加载完成")
	return ds, nil
}

// nextReserveNumber 已有 R{n} 编号之后的第一个编号
func nextReserveNumber(pairings []*model.Pairing) int {
	next := 1
	for _, p := range pairings {
		if !p.IsReserve() {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(p.ID, "R")); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// PostgresSource 从数据库读取输入
type PostgresSource struct {
	pairings *repository.PairingRepository
	crew     *repository.CrewRepository
	filter   repository.ListFilter
}

// NewPostgresSource 创建数据库数据源；filter 限定基地与日期
func NewPostgresSource(db repository.DB, filter repository.ListFilter) *PostgresSource {
	return &PostgresSource{
		pairings: repository.NewPairingRepository(db),
		crew:     repository.NewCrewRepository(db),
		filter:   filter,
	}
}

// Pairings 读取任务
func (s *PostgresSource) Pairings(ctx context.Context, seat string) ([]*model.Pairing, []error, error) {
	out, err := s.pairings.List(ctx, s.filter.WithSeat(seat))
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取任务失败")
	}
	return out, nil, nil
}

// CrewRecords 读取机组记录
func (s *PostgresSource) CrewRecords(ctx context.Context, seat string) ([]model.CrewRecord, []error, error) {
	f := s.filter.WithSeat(seat)
	f.StartDate, f.EndDate = "", ""
	out, err := s.crew.ListRecords(ctx, f)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取机组记录失败")
	}
	return out, nil, nil
}

// Preferences 读取投标偏好
func (s *PostgresSource) Preferences(ctx context.Context, _ string) ([]model.PreferenceRecord, []error, error) {
	out, err := s.crew.ListPreferences(ctx)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "读取投标偏好失败")
	}
	return out, nil, nil
}

// String 便于日志输出
func (r Request) String() string {
	return fmt.Sprintf("%s/%s %s", r.Base, r.Seat, r.Horizon)
}
