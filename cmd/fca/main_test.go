package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/model"
)

func TestParseJobs(t *testing.T) {
	horizon, err := model.NewDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)

	jobs, err := parseJobs([]string{"bur/ca", " OAK/FO "}, horizon)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "BUR/CA", jobs[0].Key())
	assert.Equal(t, "OAK/FO", jobs[1].Key())
	assert.Equal(t, horizon, jobs[1].Horizon)

	for _, bad := range []string{"BUR", "BUR/", "/CA"} {
		_, err := parseJobs([]string{bad}, horizon)
		assert.Error(t, err, bad)
	}
}

func TestSlateCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"slate", "--base", "BUR", "--counts", "1,0,0,0,0,0,2",
		"--start", "2024-03-04", "--end", "2024-03-10", "--first", "40"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "idx,d1,"))
	assert.True(t, strings.HasPrefix(lines[1], "R40,2024-03-04,"))
	assert.True(t, strings.HasPrefix(lines[2], "R41,2024-03-10,"))
	assert.True(t, strings.HasPrefix(lines[3], "R42,2024-03-10,"))
	assert.Contains(t, stderr.String(), "BUR: 3")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "显式退出码", err: &exitError{code: 4, msg: "x"}, want: 4},
		{name: "不可行", err: fmt.Errorf("BUR/CA 运行失败: %w", apperrors.NoFeasibleSolution("x")), want: 2},
		{name: "配置无效", err: apperrors.New(apperrors.CodeValidationFail, "x"), want: 3},
		{name: "其他", err: errors.New("x"), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
