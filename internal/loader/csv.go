package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paiban/fca/internal/config"
	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/model"
)

// 时间戳列允许的格式
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// table 按表头取值的 CSV 内容
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

func readTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s 没有表头", name)
	}
	t := &table{name: name, header: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		t.header[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return t, nil
}

func readTableFile(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "打开数据文件失败").WithField("path", path)
	}
	defer f.Close()
	return readTable(path, f)
}

func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.header[c]; !ok {
			return apperrors.InvalidInput(c, fmt.Sprintf("%s 缺少列", t.name))
		}
	}
	return nil
}

func (t *table) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "nat", "none", "null":
		return true
	}
	return false
}

// parseInt 接受 "3" 与 "3.0"
func parseInt(s string) (int, error) {
	if isMissing(s) {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("不是整数: %q", s)
	}
	return int(f), nil
}

func parseBool(s string) (bool, error) {
	if isMissing(s) {
		return false, nil
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, nil
	}
	return false, fmt.Errorf("不是布尔值: %q", s)
}

// parseTimestamp 没有时区的时间按 loc 解释
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if isMissing(s) {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("不是有效的时间戳: %q", s)
}

func parseDay(s string) (time.Time, error) {
	if isMissing(s) {
		return time.Time{}, nil
	}
	if len(s) > len(model.DateLayout) {
		s = s[:len(model.DateLayout)]
	}
	return model.ParseDate(s)
}

// CSVSource 从 CSV 文件读取输入
type CSVSource struct {
	cfg config.DataConfig
	loc *time.Location
}

// NewCSVSource 创建 CSV 数据源；loc 用于解释不带时区的时间戳
func NewCSVSource(cfg config.DataConfig, loc *time.Location) *CSVSource {
	if loc == nil {
		loc = time.UTC
	}
	return &CSVSource{cfg: cfg, loc: loc}
}

// Pairings 读取任务表；无法解析的行作为记录级错误返回
func (s *CSVSource) Pairings(_ context.Context, seat string) ([]*model.Pairing, []error, error) {
	t, err := readTableFile(s.cfg.PairingsPath(seat))
	if err != nil {
		return nil, nil, err
	}
	return parsePairings(t, s.loc)
}

// CrewRecords 读取机组记录表
func (s *CSVSource) CrewRecords(_ context.Context, seat string) ([]model.CrewRecord, []error, error) {
	t, err := readTableFile(s.cfg.CrewRecordsPath(seat))
	if err != nil {
		return nil, nil, err
	}
	return parseCrewRecords(t)
}

// Preferences 读取投标偏好表
func (s *CSVSource) Preferences(_ context.Context, seat string) ([]model.PreferenceRecord, []error, error) {
	t, err := readTableFile(s.cfg.PreferencesPath(seat))
	if err != nil {
		return nil, nil, err
	}
	return parsePreferences(t)
}

func parsePairings(t *table, loc *time.Location) ([]*model.Pairing, []error, error) {
	if err := t.require("idx", "d1", "mult", "dtime", "mlegs", "base_start"); err != nil {
		return nil, nil, err
	}

	var (
		out      []*model.Pairing
		problems []error
	)
	for _, row := range t.rows {
		id := t.get(row, "idx")
		p, err := parsePairingRow(t, row, loc)
		if err != nil {
			problems = append(problems, apperrors.DataError(id, err.field, err.reason))
			continue
		}
		out = append(out, p)
	}
	return out, problems, nil
}

type fieldError struct {
	field  string
	reason string
}

func parsePairingRow(t *table, row []string, loc *time.Location) (*model.Pairing, *fieldError) {
	p := &model.Pairing{ID: t.get(row, "idx"), BaseStart: t.get(row, "base_start"), StartHour: -1}
	if p.ID == "" {
		return nil, &fieldError{"idx", "任务编号为空"}
	}

	var err error
	if p.D1, err = parseDay(t.get(row, "d1")); err != nil || p.D1.IsZero() {
		return nil, &fieldError{"d1", "首日无效"}
	}
	if p.D2, err = parseDay(t.get(row, "d2")); err != nil {
		return nil, &fieldError{"d2", err.Error()}
	}

	ints := []struct {
		col string
		dst *int
	}{
		{"mult", &p.Mult},
		{"dtime", &p.DutySeconds},
		{"mlegs", &p.Legs},
		{"nlayovers", &p.Layovers},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(t.get(row, f.col)); err != nil {
			return nil, &fieldError{f.col, err.Error()}
		}
	}
	if p.Mult < 1 {
		return nil, &fieldError{"mult", "天数必须为正"}
	}

	if p.Charter, err = parseBool(t.get(row, "charter")); err != nil {
		return nil, &fieldError{"charter", err.Error()}
	}
	if p.Start, err = parseTimestamp(t.get(row, "pstart"), loc); err != nil {
		return nil, &fieldError{"pstart", err.Error()}
	}
	if p.End, err = parseTimestamp(t.get(row, "pend"), loc); err != nil {
		return nil, &fieldError{"pend", err.Error()}
	}
	if raw := t.get(row, "shour"); !isMissing(raw) {
		if p.StartHour, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, &fieldError{"shour", err.Error()}
		}
	}
	return p, nil
}

func parseCrewRecords(t *table) ([]model.CrewRecord, []error, error) {
	if err := t.require("name", "base", "non_tdy_days_worked"); err != nil {
		return nil, nil, err
	}

	var (
		out      []model.CrewRecord
		problems []error
	)
	for _, row := range t.rows {
		rec := model.CrewRecord{
			Name:   t.get(row, "name"),
			Base:   t.get(row, "base"),
			ToBase: t.get(row, "to_base"),
		}
		if isMissing(rec.ToBase) {
			rec.ToBase = ""
		}
		var err error
		if rec.NonTDYDaysWorked, err = parseInt(t.get(row, "non_tdy_days_worked")); err != nil {
			problems = append(problems, apperrors.DataError(rec.Name, "non_tdy_days_worked", err.Error()))
			continue
		}
		if rec.FiveDayTDY, err = parseBool(t.get(row, "five_day_tdy")); err != nil {
			problems = append(problems, apperrors.DataError(rec.Name, "five_day_tdy", err.Error()))
			continue
		}
		if rec.SixDayTDY, err = parseBool(t.get(row, "six_day_tdy")); err != nil {
			problems = append(problems, apperrors.DataError(rec.Name, "six_day_tdy", err.Error()))
			continue
		}
		out = append(out, rec)
	}
	return out, problems, nil
}

func parsePreferences(t *table) ([]model.PreferenceRecord, []error, error) {
	if err := t.require("user_name", "user_seniority"); err != nil {
		return nil, nil, err
	}

	var (
		out      []model.PreferenceRecord
		problems []error
	)
	for _, row := range t.rows {
		p := model.PreferenceRecord{
			UserName:             t.get(row, "user_name"),
			UserEmail:            t.get(row, "user_email"),
			UserBase:             t.get(row, "user_base"),
			UserRole:             t.get(row, "user_role"),
			OvernightPreference:  t.get(row, "overnight_preference"),
			TimePeriodPreference: t.get(row, "time_period_preference"),
			ReservePreference:    t.get(row, "reserve_preference"),
			PreferredDaysOff:     t.get(row, "preferred_days_off"),
			VacationDays:         t.get(row, "vacation_days"),
			WorkRestrictionDays:  t.get(row, "work_restriction_days"),
			TrainingDays:         t.get(row, "training_days"),
		}
		var err error
		if p.UserSeniority, err = parseInt(t.get(row, "user_seniority")); err != nil {
			problems = append(problems, apperrors.DataError(p.UserName, "user_seniority", err.Error()))
			continue
		}
		out = append(out, p)
	}
	return out, problems, nil
}
