package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/paiban/fca/pkg/model"
)

// PairingColumns 任务表的列，与输入任务表一致
var PairingColumns = []string{
	"idx", "d1", "d2", "mult", "dtime", "mlegs", "nlayovers",
	"base_start", "charter", "pstart", "pend", "shour",
}

const timestampLayout = "2006-01-02 15:04:05"

// WritePairings 按任务表格式写出任务，可直接追加到任务输入文件
func WritePairings(w io.Writer, pairings []*model.Pairing, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(PairingColumns); err != nil {
			return err
		}
	}
	for _, p := range pairings {
		shour := ""
		if p.StartHour >= 0 {
			shour = strconv.FormatFloat(p.StartHour, 'f', -1, 64)
		}
		if err := cw.Write([]string{
			p.ID,
			model.FormatDate(p.D1),
			model.FormatDate(p.LastDay()),
			strconv.Itoa(p.Mult),
			strconv.Itoa(p.DutySeconds),
			strconv.Itoa(p.Legs),
			strconv.Itoa(p.Layovers),
			p.BaseStart,
			boolText(p.Charter),
			formatTimestamp(p.Start),
			formatTimestamp(p.End),
			shour,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

func boolText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
