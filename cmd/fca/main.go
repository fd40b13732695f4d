// FCA 机组任务分配命令行
// 主程序入口

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/paiban/fca/internal/config"
	"github.com/paiban/fca/internal/database"
	"github.com/paiban/fca/internal/metrics"
	"github.com/paiban/fca/internal/runner"
	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/logger"
	"github.com/paiban/fca/pkg/model"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// 通用参数
var (
	cfgPath   string
	base      string
	seat      string
	startDate string
	endDate   string
	timeLimit int
)

var rootCmd = &cobra.Command{
	Use:           "fca",
	Short:         "机组任务分配优化",
	Version:       fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "配置文件（yaml/json），不指定时只使用默认值与 FCA_ 环境变量")
}

// addJobFlags 单任务命令共用的参数
func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&base, "base", "b", "", "基地代码，如 BUR")
	cmd.Flags().StringVarP(&seat, "seat", "s", "", "岗位，如 CA/FO")
	cmd.Flags().StringVar(&startDate, "start", "", "排班期首日 YYYY-MM-DD")
	cmd.Flags().StringVar(&endDate, "end", "", "排班期末日 YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("seat")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func addTimeLimitFlag(cmd *cobra.Command) {
	cmd.Flags().IntVar(&timeLimit, "time-limit", 0, "求解时限（秒），0 使用配置")
}

// jobFromFlags 由参数组装任务
func jobFromFlags() (runner.Job, error) {
	horizon, err := model.NewDateRange(startDate, endDate)
	if err != nil {
		return runner.Job{}, err
	}
	return runner.Job{
		Base:      base,
		Seat:      seat,
		Horizon:   horizon,
		TimeLimit: time.Duration(timeLimit) * time.Second,
	}, nil
}

// session 一次命令执行所需的配置、数据库与运行器
type session struct {
	cfg     *config.Config
	db      *database.DB
	metrics *metrics.Recorder
	runner  *runner.Runner
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	logger.Init(cfg.App.Logger())

	s := &session{cfg: cfg}
	opts := []runner.Option{}
	if cfg.Metrics.Enabled {
		s.metrics = metrics.New()
		opts = append(opts, runner.WithMetrics(s.metrics))
	}
	if cfg.Data.Source == "postgres" {
		db, err := database.New(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		s.db = db
		opts = append(opts, runner.WithDatabase(db))
	}

	s.runner, err = runner.New(cfg, opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close 写出指标并关闭数据库
func (s *session) Close() {
	if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		logger.Error().Err(err).Str("path", s.cfg.Metrics.Textfile).Msg("写出监控指标失败")
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭数据库失败")
		}
	}
}

// exitError 携带退出码的错误
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "错误:", err)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Details != "" {
		fmt.Fprintln(os.Stderr, appErr.Details)
	}
	os.Exit(exitCode(err))
}

// exitCode 不可行为 2，配置或输入问题为 3，其余为 1
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch apperrors.GetCode(err) {
	case apperrors.CodeNoFeasibleSolution:
		return 2
	case apperrors.CodeValidationFail, apperrors.CodeInvalidInput, apperrors.CodeInvalidTimeRange:
		return 3
	}
	return 1
}
