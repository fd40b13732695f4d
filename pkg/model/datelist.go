package model

import (
	"fmt"
	"strings"
	"time"
)

// dateEntryLayouts 日期条目允许的格式，按顺序尝试
var dateEntryLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999",
}

// DateListError 日期列表中无法解析的条目
type DateListError struct {
	Entry  string
	Reason string
}

func (e *DateListError) Error() string {
	return fmt.Sprintf("日期条目 %q 无效: %s", e.Entry, e.Reason)
}

// ParseDateList 解析字符串编码的日期列表
//
// 支持 "['2024-05-01', '2024-05-02 00:00:00']"、JSON 数组以及逗号分隔的形式，
// 条目可以带 Timestamp(...) 包装。空串、"[]"、"nan" 视为空列表。
// 无法解析的条目逐个返回错误，其余条目照常保留。
func ParseDateList(raw string) ([]time.Time, []error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "[]", "nan", "none", "null":
		return nil, nil
	}
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	var (
		dates []time.Time
		errs  []error
		seen  = make(map[string]bool)
	)
	for _, part := range strings.Split(s, ",") {
		entry := cleanEntry(part)
		if entry == "" {
			continue
		}
		d, err := parseDateEntry(entry)
		if err != nil {
			errs = append(errs, &DateListError{Entry: entry, Reason: err.Error()})
			continue
		}
		key := FormatDate(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		dates = append(dates, d)
	}
	return dates, errs
}

func cleanEntry(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "Timestamp(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSuffix(strings.TrimPrefix(s, "Timestamp("), ")")
	}
	return strings.Trim(strings.TrimSpace(s), `'"`)
}

func parseDateEntry(entry string) (time.Time, error) {
	for _, layout := range dateEntryLayouts {
		if t, err := time.Parse(layout, entry); err == nil {
			return Truncate(t), nil
		}
	}
	// 时间部分格式不规范时，只要前 10 位是合法日期即可
	if len(entry) > len(DateLayout) && (entry[10] == ' ' || entry[10] == 'T') {
		if t, err := time.Parse(DateLayout, entry[:10]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("不是有效的日期或时间戳")
}
