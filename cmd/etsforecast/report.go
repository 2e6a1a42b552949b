package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goets/accuracy"
	"github.com/sartorproj/goets/ets"
	"github.com/sartorproj/goets/optimize"
	"github.com/sartorproj/goets/stats"
	"github.com/sartorproj/goets/timeseries"
)

// Header identifies one CLI run.
type Header struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Command   string    `json:"command" yaml:"command"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Source    string    `json:"source" yaml:"source"`
}

func newHeader(command, source string) Header {
	return Header{
		RunID:     uuid.NewString(),
		Command:   command,
		CreatedAt: time.Now().UTC(),
		Source:    source,
	}
}

// ModelInfo is the serializable view of a fitted model. Values that may be
// infinite or NaN are pointers so that JSON can carry them as null.
type ModelInfo struct {
	Spec     string   `json:"spec" yaml:"spec"`
	Alpha    float64  `json:"alpha" yaml:"alpha"`
	Beta     *float64 `json:"beta,omitempty" yaml:"beta,omitempty"`
	Gamma    *float64 `json:"gamma,omitempty" yaml:"gamma,omitempty"`
	Phi      *float64 `json:"phi,omitempty" yaml:"phi,omitempty"`
	Period   int      `json:"period" yaml:"period"`
	NObs     int      `json:"n_obs" yaml:"n_obs"`
	Sigma2   float64  `json:"sigma2" yaml:"sigma2"`
	LogLik   float64  `json:"loglik" yaml:"loglik"`
	AIC      *float64 `json:"aic" yaml:"aic"`
	AICc     *float64 `json:"aicc" yaml:"aicc"`
	BIC      *float64 `json:"bic" yaml:"bic"`
	LjungBox *float64 `json:"ljung_box_p,omitempty" yaml:"ljung_box_p,omitempty"`
	// SpikyLags counts residual autocorrelations outside the 95% bound.
	SpikyLags int `json:"spiky_lags" yaml:"spiky_lags"`
}

func modelInfo(m *ets.Model) ModelInfo {
	info := ModelInfo{
		Spec:   m.Spec.String(),
		Alpha:  m.Params.Alpha,
		Period: m.Period,
		NObs:   m.NObs,
		Sigma2: m.Sigma2,
		LogLik: m.LogLik,
		AIC:    finite(m.AIC),
		AICc:   finite(m.AICc),
		BIC:    finite(m.BIC),
	}
	if m.Spec.HasTrend() {
		info.Beta = finite(m.Params.Beta)
	}
	if m.Spec.Seasonal() {
		info.Gamma = finite(m.Params.Gamma)
	}
	if m.Spec.Damped() {
		info.Phi = finite(m.Params.Phi)
	}
	if s := m.Summary(); s != nil && s.LjungBox != nil {
		info.LjungBox = finite(s.LjungBox.PValue)
	}
	res := m.Residuals()
	bound := stats.ConfidenceBound(len(res))
	for lag, r := range stats.ACF(res, min(20, len(res)/4)) {
		if lag > 0 && math.Abs(r) > bound {
			info.SpikyLags++
		}
	}
	return info
}

// DataInfo summarizes the training series.
type DataInfo struct {
	N      int     `json:"n" yaml:"n"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	Median float64 `json:"median" yaml:"median"`
	Max    float64 `json:"max" yaml:"max"`
}

func dataInfo(s *timeseries.Series) DataInfo {
	return DataInfo{N: s.Len(), Mean: s.Mean(), Std: s.Std(), Min: s.Min(), Median: s.Median(), Max: s.Max()}
}

// AccuracyInfo mirrors accuracy.Metrics with MAPE nullable.
type AccuracyInfo struct {
	N    int      `json:"n" yaml:"n"`
	RMSE float64  `json:"rmse" yaml:"rmse"`
	MAE  float64  `json:"mae" yaml:"mae"`
	MAPE *float64 `json:"mape" yaml:"mape"`
	ME   float64  `json:"me" yaml:"me"`
}

// accuracyInfo converts m. MAPE is null when mapeErr is set.
func accuracyInfo(m *accuracy.Metrics, mapeErr error) *AccuracyInfo {
	if m == nil {
		return nil
	}
	info := &AccuracyInfo{N: m.N, RMSE: m.RMSE, MAE: m.MAE, ME: m.ME}
	if mapeErr == nil {
		info.MAPE = finite(m.MAPE)
	}
	return info
}

// FitReport is the output of the fit command.
type FitReport struct {
	Header   `yaml:",inline"`
	Data     DataInfo      `json:"data" yaml:"data"`
	Model    ModelInfo     `json:"model" yaml:"model"`
	Level    float64       `json:"level" yaml:"level"`
	Method   string        `json:"interval_method" yaml:"interval_method"`
	Forecast []ForecastRow `json:"forecast" yaml:"forecast"`
	Accuracy *AccuracyInfo `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

// ForecastRow is one forecast step. Bounds are null when every simulated
// path left the admissible range.
type ForecastRow struct {
	Step  int      `json:"step" yaml:"step"`
	Value float64  `json:"value" yaml:"value"`
	Lower *float64 `json:"lower" yaml:"lower"`
	Upper *float64 `json:"upper" yaml:"upper"`
}

func fitReport(h Header, train *timeseries.Series, m *ets.Model, fc *ets.Forecast, acc *AccuracyInfo) *FitReport {
	r := &FitReport{
		Header:   h,
		Data:     dataInfo(train),
		Model:    modelInfo(m),
		Level:    fc.Level,
		Method:   string(fc.Method),
		Forecast: make([]ForecastRow, fc.Horizon()),
		Accuracy: acc,
	}
	for i, p := range fc.Points {
		r.Forecast[i] = ForecastRow{Step: p.Step, Value: p.Value, Lower: finite(p.Lower), Upper: finite(p.Upper)}
	}
	return r
}

// CurveRow is one grid point of a sweep.
type CurveRow struct {
	Value float64  `json:"value" yaml:"value"`
	Score *float64 `json:"score" yaml:"score"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// SweepReport is the output of the sweep command.
type SweepReport struct {
	Header    `yaml:",inline"`
	Spec      string     `json:"spec" yaml:"spec"`
	Target    string     `json:"target" yaml:"target"`
	Metric    string     `json:"metric" yaml:"metric"`
	Best      float64    `json:"best" yaml:"best"`
	BestScore float64    `json:"best_score" yaml:"best_score"`
	Evaluated int        `json:"evaluated" yaml:"evaluated"`
	Curve     []CurveRow `json:"curve" yaml:"curve"`
}

func sweepReport(h Header, spec ets.Spec, res *optimize.GridResult) *SweepReport {
	r := &SweepReport{
		Header:    h,
		Spec:      spec.String(),
		Target:    string(res.Target),
		Metric:    string(res.Metric),
		Best:      res.Best,
		BestScore: res.BestScore,
		Evaluated: res.Evaluated,
		Curve:     make([]CurveRow, len(res.Curve)),
	}
	for i, p := range res.Curve {
		row := CurveRow{Value: p.Value, Score: finite(p.Score)}
		if p.Err != nil {
			row.Error = p.Err.Error()
		}
		r.Curve[i] = row
	}
	return r
}

// CandidateRow is one spec tried by the select command.
type CandidateRow struct {
	Spec  string   `json:"spec" yaml:"spec"`
	Score *float64 `json:"score" yaml:"score"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// SelectReport is the output of the select command.
type SelectReport struct {
	Header     `yaml:",inline"`
	Criterion  string         `json:"criterion" yaml:"criterion"`
	Model      ModelInfo      `json:"model" yaml:"model"`
	Evaluated  int            `json:"evaluated" yaml:"evaluated"`
	Candidates []CandidateRow `json:"candidates" yaml:"candidates"`
}

func selectReport(h Header, sel *optimize.Selection) *SelectReport {
	r := &SelectReport{
		Header:     h,
		Criterion:  string(sel.Criterion),
		Model:      modelInfo(sel.Model),
		Evaluated:  sel.Evaluated,
		Candidates: make([]CandidateRow, len(sel.Candidates)),
	}
	for i, c := range sel.Candidates {
		row := CandidateRow{Spec: c.Spec.String(), Score: finite(c.Score)}
		if c.Err != nil {
			row.Error = c.Err.Error()
		}
		r.Candidates[i] = row
	}
	return r
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func render(w io.Writer, format string, report any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	switch r := report.(type) {
	case *FitReport:
		renderModel(tw, r.Header, r.Model)
		fmt.Fprintf(tw, "data\tmean=%.4f  std=%.4f  min=%.4f  median=%.4f  max=%.4f\n",
			r.Data.Mean, r.Data.Std, r.Data.Min, r.Data.Median, r.Data.Max)
		if r.Accuracy != nil {
			fmt.Fprintf(tw, "holdout\tn=%d  rmse=%.4f  mae=%.4f  mape=%s  me=%.4f\n",
				r.Accuracy.N, r.Accuracy.RMSE, r.Accuracy.MAE, orDash(r.Accuracy.MAPE, "%.2f%%"), r.Accuracy.ME)
		}
		fmt.Fprintf(tw, "\nstep\tforecast\tlower %.0f%%\tupper %.0f%%\n", 100*r.Level, 100*r.Level)
		for _, p := range r.Forecast {
			fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\n", p.Step, p.Value, orDash(p.Lower, "%.4f"), orDash(p.Upper, "%.4f"))
		}
	case *SweepReport:
		fmt.Fprintf(tw, "run\t%s\n", r.RunID)
		fmt.Fprintf(tw, "spec\t%s\n", r.Spec)
		fmt.Fprintf(tw, "best %s\t%.4f (%s %.6f, %d valid)\n\n", r.Target, r.Best, r.Metric, r.BestScore, r.Evaluated)
		fmt.Fprintf(tw, "%s\t%s\t\n", r.Target, r.Metric)
		for _, row := range r.Curve {
			fmt.Fprintf(tw, "%.4f\t%s\t%s\n", row.Value, orDash(row.Score, "%.6f"), row.Error)
		}
	case *SelectReport:
		renderModel(tw, r.Header, r.Model)
		fmt.Fprintf(tw, "\nspec\t%s\t\n", r.Criterion)
		for _, row := range r.Candidates {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Spec, orDash(row.Score, "%.4f"), row.Error)
		}
	default:
		return fmt.Errorf("cannot render %T as a table", report)
	}
	return tw.Flush()
}

func renderModel(tw *tabwriter.Writer, h Header, m ModelInfo) {
	fmt.Fprintf(tw, "run\t%s\n", h.RunID)
	fmt.Fprintf(tw, "model\t%s  (n=%d, m=%d)\n", m.Spec, m.NObs, m.Period)
	fmt.Fprintf(tw, "params\talpha=%.4f", m.Alpha)
	for _, p := range []struct {
		name string
		v    *float64
	}{{"beta", m.Beta}, {"gamma", m.Gamma}, {"phi", m.Phi}} {
		if p.v != nil {
			fmt.Fprintf(tw, "  %s=%.4f", p.name, *p.v)
		}
	}
	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "fit\tsigma2=%.6g  loglik=%.4f  aic=%s  aicc=%s  bic=%s\n", m.Sigma2, m.LogLik,
		orDash(m.AIC, "%.4f"), orDash(m.AICc, "%.4f"), orDash(m.BIC, "%.4f"))
	if m.LjungBox != nil {
		fmt.Fprintf(tw, "ljung-box\tp=%.4f  spiky lags=%d\n", *m.LjungBox, m.SpikyLags)
	}
}

func orDash(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
