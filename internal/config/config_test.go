package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paiban/fca/pkg/errors"
	"github.com/paiban/fca/pkg/rules"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "cbc", cfg.Solver.Backend)
	assert.Equal(t, 30*time.Second, cfg.Solver.StepTimeLimit)
	assert.Equal(t, filepath.Join(".", "selpair_setup_CA.csv"), cfg.Data.PairingsPath("CA"))
	assert.Equal(t, filepath.Join(".", "CA_crew_records.csv"), cfg.Data.CrewRecordsPath("CA"))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "fca.yaml", `app:
  log_level: debug
data:
  dir: /data
solver:
  time_limit: 20m
  gap: 0.02
  step_time_limit: 45s
rules:
  min_rest_hours: 10
  windows:
    - length: 7
      limit: 6
  bases:
    BUR:
      overage_cap: 6
      time_zone: America/Denver
      reference_hours: [5, 10, 15]
reserve:
  - base: BUR
    counts: [1, 1, 1, 1, 1, 2, 2]
    until: "2024-03-31"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "console", cfg.App.LogFormat)
	assert.Equal(t, filepath.Join("/data", "bid_dat_test.csv"), cfg.Data.PreferencesPath("CA"))
	assert.Equal(t, 20*time.Minute, cfg.Solver.TimeLimit)
	assert.InDelta(t, 0.02, cfg.Solver.Gap, 1e-9)
	assert.Equal(t, 4, cfg.Solver.Threads)

	step := cfg.Solver.StepOptions()
	assert.Equal(t, 45*time.Second, step.TimeLimit)
	assert.Zero(t, step.Gap)

	require.Len(t, cfg.Reserve, 1)
	assert.Equal(t, [7]int{1, 1, 1, 1, 1, 2, 2}, cfg.Reserve[0].Counts)

	bur := cfg.Rules.ForBase("BUR")
	assert.Equal(t, 10*time.Hour, bur.MinRest)
	assert.Equal(t, []rules.Window{{Length: 7, Limit: 6}}, bur.Windows)
	assert.Equal(t, 6, bur.OverageCap)
	assert.Equal(t, 6, bur.LongDutyCapacityPerCrew)
	assert.Equal(t, "America/Denver", bur.Location.String())
	assert.Equal(t, [3]float64{5, 10, 15}, bur.ReferenceHours)

	oak := cfg.Rules.ForBase("OAK")
	assert.Equal(t, 8, oak.OverageCap)
	assert.Equal(t, [3]float64{7, 9, 11}, oak.ReferenceHours)
}

func TestLoad_JSONAndEnv(t *testing.T) {
	path := writeFile(t, "fca.json", `{"solver": {"backend": "cbc", "threads": 2}}`)
	t.Setenv("FCA_SOLVER__THREADS", "8")
	t.Setenv("FCA_OUTPUT__DIR", "/tmp/out")
	t.Setenv("FCA_RULES__NEAR_CAPACITY_RATIO", "0.8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Solver.Threads)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.InDelta(t, 0.8, cfg.Rules.ForBase("DAL").NearCapacityRatio, 1e-9)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{name: "unsupported format", file: "fca.toml", data: "a = 1"},
		{name: "unknown backend", file: "fca.yaml", data: "solver:\n  backend: gurobi\n"},
		{name: "bad log level", file: "fca.yaml", data: "app:\n  log_level: loud\n"},
		{name: "bad time zone", file: "fca.yaml", data: "rules:\n  bases:\n    BUR:\n      time_zone: Mars/Olympus\n"},
		{name: "bad reference hours", file: "fca.yaml", data: "rules:\n  bases:\n    BUR:\n      reference_hours: [1, 2]\n"},
		{name: "bad reserve rule", file: "fca.yaml", data: "reserve:\n  - base: BUR\n    skip: NOT A RULE\n"},
		{name: "postgres without db name", file: "fca.yaml", data: "data:\n  source: postgres\ndatabase:\n  name: \"\"\n"},
		{name: "metrics without textfile", file: "fca.yaml", data: "metrics:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Solver, cfg.Solver)
}

func TestAppConfig_Logger(t *testing.T) {
	cfg := AppConfig{LogLevel: "warn", LogFormat: "json", LogOutput: "file", LogFile: "/tmp/fca.log"}
	lc := cfg.Logger()
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "/tmp/fca.log", lc.FilePath)
}

func TestRulesConfig_TDYRule(t *testing.T) {
	r := DefaultRules()
	r.TDYSixDays = 7
	tdy := r.TDYRule()
	assert.Equal(t, 5, tdy.FiveDays)
	assert.Equal(t, 7, tdy.SixDays)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Solver.Backend = "gurobi"
	cfg.Data.Source = SourcePostgres
	cfg.Database.Name = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFail))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "Config.Solver.Backend")
	assert.Contains(t, appErr.Fields, "Config.Database.Name")
	assert.Contains(t, appErr.Error(), "等 2 项")
}
