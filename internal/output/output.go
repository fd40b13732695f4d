// Package output 写出运行产物：状态文件、分配矩阵与满意度
package output

import (
	"encoding/csv"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paiban/fca/pkg/scheduler/builder"
)

// StatusPrefix 状态文件唯一一行的前缀
const StatusPrefix = "Status: "

// StatusRunning 求解开始前写入的状态
const StatusRunning = "running"

// Scores 单个机组的各项满意度
type Scores struct {
	DaysOff   float64
	Overnight float64
	Time      float64
	Reserve   float64
	Charter   float64
}

// FileSink 把产物写到目录，实现 builder.Sink
type FileSink struct {
	dir string
}

// NewFileSink 创建文件输出
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// StatusPath {BASE}.txt
func (s *FileSink) StatusPath(base string) string {
	return filepath.Join(s.dir, base+".txt")
}

// AssignmentPath xpv{BASE}.csv
func (s *FileSink) AssignmentPath(base string) string {
	return filepath.Join(s.dir, "xpv"+base+".csv")
}

// SatisfactionPath satd_{BASE}{SEAT}.gob
func (s *FileSink) SatisfactionPath(base, seat string) string {
	return filepath.Join(s.dir, "satd_"+base+seat+".gob")
}

// WriteStatus 写出状态文件
func (s *FileSink) WriteStatus(base, _ string, status string) error {
	return writeAtomic(s.StatusPath(base), func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s%s\n", StatusPrefix, status)
		return err
	})
}

// WriteResult 写出分配矩阵与满意度
func (s *FileSink) WriteResult(res *builder.Result) error {
	if err := writeAtomic(s.AssignmentPath(res.Base), func(w io.Writer) error {
		return writeAssignment(w, res)
	}); err != nil {
		return fmt.Errorf("写出分配矩阵失败: %w", err)
	}

	scores := make(map[string]Scores, len(res.Satisfaction))
	for _, sat := range res.Satisfaction {
		scores[sat.Crew] = Scores{
			DaysOff:   sat.DaysOff,
			Overnight: sat.Overnight,
			Time:      sat.Time,
			Reserve:   sat.Reserve,
			Charter:   sat.Charter,
		}
	}
	if err := writeAtomic(s.SatisfactionPath(res.Base, res.Seat), func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(scores)
	}); err != nil {
		return fmt.Errorf("写出满意度失败: %w", err)
	}
	return nil
}

func writeAssignment(w io.Writer, res *builder.Result) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(res.Pairings)+1)
	header = append(header, "crew")
	for _, p := range res.Pairings {
		header = append(header, p.ID)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for c, crew := range res.Crew {
		row := make([]string, 0, len(res.Pairings)+1)
		row = append(row, crew.Name)
		for _, assigned := range res.Assignment[c] {
			if assigned {
				row = append(row, "1")
			} else {
				row = append(row, "0")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeAtomic 先写临时文件再改名，读者不会看到半个文件
func writeAtomic(path string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadStatus 读取状态文件；文件不存在时返回 os.ErrNotExist
func (s *FileSink) ReadStatus(base string) (string, error) {
	data, err := os.ReadFile(s.StatusPath(base))
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, StatusPrefix) {
		return "", fmt.Errorf("状态文件格式无效: %q", line)
	}
	return strings.TrimPrefix(line, StatusPrefix), nil
}

// Assignment 从分配矩阵文件读回的内容
type Assignment struct {
	Crew     []string
	Pairings []string
	Matrix   [][]bool
}

// ReadAssignment 读取 xpv{BASE}.csv
func (s *FileSink) ReadAssignment(base string) (*Assignment, error) {
	f, err := os.Open(s.AssignmentPath(base))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取分配矩阵失败: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != "crew" {
		return nil, errors.New("分配矩阵缺少表头")
	}
	out := &Assignment{Pairings: records[0][1:]}
	for i, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return nil, fmt.Errorf("分配矩阵第 %d 行列数不符", i+2)
		}
		row := make([]bool, len(rec)-1)
		for p, v := range rec[1:] {
			switch v {
			case "1", "1.0":
				row[p] = true
			case "0", "0.0", "-0.0":
			default:
				return nil, fmt.Errorf("分配矩阵第 %d 行取值无效: %q", i+2, v)
			}
		}
		out.Crew = append(out.Crew, rec[0])
		out.Matrix = append(out.Matrix, row)
	}
	return out, nil
}

// ReadSatisfaction 读取满意度文件
func (s *FileSink) ReadSatisfaction(base, seat string) (map[string]Scores, error) {
	f, err := os.Open(s.SatisfactionPath(base, seat))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var scores map[string]Scores
	if err := gob.NewDecoder(f).Decode(&scores); err != nil {
		return nil, fmt.Errorf("读取满意度失败: %w", err)
	}
	return scores, nil
}

// Tee 依次写入多个输出；状态总是写到每个输出，结果遇错即停
func Tee(sinks ...builder.Sink) builder.Sink {
	return tee(sinks)
}

type tee []builder.Sink

func (t tee) WriteStatus(base, seat, status string) error {
	var errs []error
	for _, s := range t {
		if err := s.WriteStatus(base, seat, status); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) WriteResult(res *builder.Result) error {
	for _, s := range t {
		if err := s.WriteResult(res); err != nil {
			return err
		}
	}
	return nil
}
