package solver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/scheduler/mip"
)

// 超出时间上限后再等待求解器自行退出的时间
const cbcGrace = 30 * time.Second

func init() {
	Register("cbc", func(cfg Config) Solver { return NewCBCSolver(cfg.Binary) })
}

// CBCSolver 调用外部 cbc 可执行文件求解
type CBCSolver struct {
	binary string
}

// NewCBCSolver 创建 CBC 求解器；binary 为空时从 PATH 查找 cbc
func NewCBCSolver(binary string) *CBCSolver {
	if binary == "" {
		binary = "cbc"
	}
	return &CBCSolver{binary: binary}
}

// Name 返回求解器名称
func (s *CBCSolver) Name() string { return "cbc" }

// Available 可执行文件是否存在
func (s *CBCSolver) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

// Solve 写出 LP 文件，调用 cbc 并读回解文件
func (s *CBCSolver) Solve(ctx context.Context, m *mip.Model, opts Options) (*Solution, error) {
	start := time.Now()
	if m.NumVars() == 0 {
		return finish(m, solveTrivial(s.Name(), m), start), nil
	}

	path, err := exec.LookPath(s.binary)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeSolverUnavailable, fmt.Sprintf("找不到求解器 %s", s.binary))
	}

	dir, err := os.MkdirTemp(opts.WorkDir, "fca-cbc-")
	if err != nil {
		return nil, apperrors.SolverError(s.Name(), err)
	}
	if opts.KeepFiles {
		logger.Info().Str("dir", dir).Msg("保留求解器中间文件")
	} else {
		defer os.RemoveAll(dir)
	}

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")
	names, err := writeLPFile(lpPath, m)
	if err != nil {
		return nil, apperrors.SolverError(s.Name(), err)
	}

	args := []string{lpPath}
	if opts.TimeLimit > 0 {
		args = append(args, "sec", strconv.Itoa(int(opts.TimeLimit.Seconds())))
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit+cbcGrace)
		defer cancel()
	}
	if opts.Gap > 0 {
		args = append(args, "ratioGap", formatNumber(opts.Gap))
	}
	if opts.Threads > 0 {
		args = append(args, "threads", strconv.Itoa(opts.Threads))
	}
	args = append(args, "solve", "solu", solPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	logger.Debug().Str("binary", path).Strs("args", args).Msg("启动 cbc")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return finish(m, &Solution{Solver: s.Name(), Status: StatusNotSolved, Message: ctx.Err().Error()}, start), nil
		}
		return nil, apperrors.SolverError(s.Name(), fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())))
	}

	f, err := os.Open(solPath)
	if err != nil {
		return nil, apperrors.SolverError(s.Name(), fmt.Errorf("读取解文件失败: %w", err))
	}
	defer f.Close()

	sol, err := ParseCBCSolution(f, names)
	if err != nil {
		return nil, apperrors.SolverError(s.Name(), err)
	}
	sol.Solver = s.Name()
	return finish(m, sol, start), nil
}

func writeLPFile(path string, m *mip.Model) ([]string, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	names, err := WriteLP(f, m)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return names, err
}

// ParseCBCSolution 解析 cbc 的 solu 输出
//
// 首行为状态，如 "Optimal - objective value 12.5"；
// 其后每行 "<序号> <列名> <取值> <检验数>"，不可行列带 "**" 前缀。
func ParseCBCSolution(r io.Reader, names []string) (*Solution, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("解文件为空")
	}
	header := strings.TrimSpace(sc.Text())
	sol := &Solution{Status: cbcStatus(header), Message: header}
	if !sol.Status.HasSolution() {
		return sol, nil
	}

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	sol.Values = make([]float64, len(names))
	for sc.Scan() {
		fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "**"))
		if len(fields) < 3 {
			continue
		}
		i, ok := index[fields[1]]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("列 %s 取值无效: %w", fields[1], err)
		}
		sol.Values[i] = v
	}
	return sol, sc.Err()
}

func cbcStatus(header string) Status {
	h := strings.ToLower(header)
	switch {
	case strings.HasPrefix(h, "optimal"):
		return StatusOptimal
	case strings.Contains(h, "infeasible"):
		return StatusInfeasible
	case strings.Contains(h, "unbounded"):
		return StatusUnbounded
	case strings.HasPrefix(h, "stopped"):
		if strings.Contains(h, "no integer solution") {
			return StatusNotSolved
		}
		return StatusFeasible
	}
	return StatusError
}
