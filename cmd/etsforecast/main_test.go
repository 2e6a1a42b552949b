package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// seasonalCSV writes 48 monthly-style rows with a period-4 pattern.
func seasonalCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,y\n")
	pattern := []float64{6, -2, -8, 4}
	for i := 0; i < 48; i++ {
		v := 50 + 0.2*float64(i) + pattern[i%4] + 0.5*math.Sin(1.7*float64(i))
		fmt.Fprintf(&b, "2020-01-%02d,%.4f\n", i%28+1, v)
	}
	return writeFile(t, "series.csv", b.String())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"etsforecast", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "ETS(A,N,N)", cfg.Model)
	assert.Equal(t, 12, cfg.Horizon)
	assert.Equal(t, 0.95, cfg.Level)
	assert.Equal(t, "y", cfg.Data.Column)
	assert.Equal(t, 1, cfg.Data.Period)
	assert.Equal(t, "table", cfg.Format)
	assert.Equal(t, 4, cfg.Fit.Starts)
	assert.Equal(t, "rmse", cfg.Sweep.Metric)
	assert.Equal(t, "aicc", cfg.Select.Criterion)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, "ets.yaml", `
model: AAdA
horizon: 6
data:
  path: sales.csv
  period: 4
params:
  phi: 0.9
fit:
  starts: 2
  objective: loglik
sweep:
  target: gamma
  range:
    min: 0
    max: 0.5
    step: 0.05
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "AAdA", cfg.Model)
	assert.Equal(t, 6, cfg.Horizon)
	assert.Equal(t, "sales.csv", cfg.Data.Path)
	assert.Equal(t, 4, cfg.Data.Period)
	require.NotNil(t, cfg.Params.Phi)
	assert.Equal(t, 0.9, *cfg.Params.Phi)
	assert.Nil(t, cfg.Params.Alpha)
	assert.Equal(t, 2, cfg.Fit.Starts)
	assert.Equal(t, "loglik", string(cfg.Fit.Objective))
	assert.Equal(t, 500, cfg.Fit.MaxIterations, "unset fields keep their defaults")
	assert.Equal(t, "gamma", cfg.Sweep.Target)
	assert.Equal(t, 0.05, cfg.Sweep.Range.Step)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("ETS_HORIZON", "24")
	t.Setenv("ETS_DATA_PATH", "/tmp/x.csv")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Horizon)
	assert.Equal(t, "/tmp/x.csv", cfg.Data.Path)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := writeFile(t, "bad.yaml", "format: xml\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)

	path = writeFile(t, "bad.yaml", "level: 1.5\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigExplicitZero(t *testing.T) {
	path := writeFile(t, "zero.yaml", "horizon: 0\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "Horizon")
}

func TestFlagZeroIsValidated(t *testing.T) {
	data := seasonalCSV(t)

	_, err := run(t, "fit", "--data", data, "--model", "ANN", "--alpha", "0.5", "--level", "0")
	assert.ErrorContains(t, err, "Level")

	_, err = run(t, "fit", "--data", data, "--model", "ANN", "--alpha", "0.5", "--horizon", "0")
	assert.ErrorContains(t, err, "Horizon")
}

func TestFitCommandJSON(t *testing.T) {
	data := seasonalCSV(t)

	out, err := run(t, "--format", "json", "fit", "--data", data, "--period", "4",
		"--model", "ANA", "--alpha", "0.3", "--gamma", "0.2", "--horizon", "8", "--holdout", "4")
	require.NoError(t, err)

	var report struct {
		RunID string `json:"run_id"`
		Data  struct {
			N    int     `json:"n"`
			Mean float64 `json:"mean"`
		} `json:"data"`
		Model struct {
			Spec  string   `json:"spec"`
			Alpha float64  `json:"alpha"`
			Gamma *float64 `json:"gamma"`
			NObs  int      `json:"n_obs"`
		} `json:"model"`
		Method   string `json:"interval_method"`
		Forecast []struct {
			Step  int      `json:"step"`
			Value float64  `json:"value"`
			Lower *float64 `json:"lower"`
		} `json:"forecast"`
		Accuracy *struct {
			N    int     `json:"n"`
			RMSE float64 `json:"rmse"`
		} `json:"accuracy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Len(t, report.RunID, 36)
	assert.Equal(t, 44, report.Data.N)
	assert.InDelta(t, 54, report.Data.Mean, 1)
	assert.Equal(t, "ETS(A,N,A)", report.Model.Spec)
	assert.Equal(t, 0.3, report.Model.Alpha)
	require.NotNil(t, report.Model.Gamma)
	assert.Equal(t, 0.2, *report.Model.Gamma)
	assert.Equal(t, 44, report.Model.NObs)
	assert.Equal(t, "analytic", report.Method)
	assert.Len(t, report.Forecast, 8)
	require.NotNil(t, report.Accuracy)
	assert.Equal(t, 4, report.Accuracy.N)
	assert.Greater(t, report.Accuracy.RMSE, 0.0)
}

func TestFitCommandZeroHoldoutActual(t *testing.T) {
	var b strings.Builder
	b.WriteString("y\n")
	for i := 0; i < 20; i++ {
		v := 5 + math.Sin(float64(i))
		if i == 18 {
			v = 0
		}
		fmt.Fprintf(&b, "%.4f\n", v)
	}
	data := writeFile(t, "zero.csv", b.String())

	out, err := run(t, "--format", "json", "fit", "--data", data,
		"--model", "ANN", "--alpha", "0.5", "--horizon", "4", "--holdout", "4")
	require.NoError(t, err)

	var report struct {
		Accuracy struct {
			N    int      `json:"n"`
			MAE  float64  `json:"mae"`
			MAPE *float64 `json:"mape"`
		} `json:"accuracy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report.Accuracy.N)
	assert.Greater(t, report.Accuracy.MAE, 0.0)
	assert.Nil(t, report.Accuracy.MAPE)
}

func TestFitCommandEstimates(t *testing.T) {
	data := seasonalCSV(t)

	out, err := run(t, "fit", "--data", data, "--model", "AAN", "--horizon", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "ETS(A,A,N)")
	assert.Contains(t, out, "beta=")
}

func TestSweepCommandYAML(t *testing.T) {
	data := seasonalCSV(t)

	out, err := run(t, "--format", "yaml", "sweep", "--data", data, "--model", "ANN",
		"--target", "alpha", "--min", "0.1", "--max", "0.5", "--step", "0.1", "--holdout", "8", "-w", "2")
	require.NoError(t, err)

	var report struct {
		RunID  string `yaml:"run_id"`
		Target string `yaml:"target"`
		Best   float64
		Curve  []struct {
			Value float64  `yaml:"value"`
			Score *float64 `yaml:"score"`
		} `yaml:"curve"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "alpha", report.Target)
	assert.Len(t, report.Curve, 5)
	for _, row := range report.Curve {
		require.NotNil(t, row.Score)
	}
}

func TestSweepCommandNeedsHoldout(t *testing.T) {
	_, err := run(t, "sweep", "--data", seasonalCSV(t), "--model", "ANN")
	assert.ErrorContains(t, err, "holdout")
}

func TestSelectCommand(t *testing.T) {
	data := seasonalCSV(t)

	out, err := run(t, "--format", "json", "select", "--data", data, "--period", "4",
		"--candidate", "ANN", "--candidate", "ANA", "--criterion", "aic")
	require.NoError(t, err)

	var report struct {
		Criterion string `json:"criterion"`
		Model     struct {
			Spec string `json:"spec"`
		} `json:"model"`
		Evaluated int `json:"evaluated"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "aic", report.Criterion)
	assert.Equal(t, "ETS(A,N,A)", report.Model.Spec)
	assert.Equal(t, 2, report.Evaluated)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "etsforecast dev")
}

func TestMissingData(t *testing.T) {
	_, err := run(t, "fit", "--model", "ANN")
	assert.ErrorContains(t, err, "no input")
}
