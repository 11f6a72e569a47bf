package linhypothesis

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aouyang1/go-linhypothesis/dataset"
	"github.com/aouyang1/go-linhypothesis/linearmodel"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitLongley(t *testing.T) *Analyzer {
	a, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, a.Fit(dataset.Longley()))
	return a
}

func TestOptionsValidate(t *testing.T) {
	testData := map[string]struct {
		opt   *Options
		err   error
		alpha float64
	}{
		"nil":            {nil, nil, DefaultAlpha},
		"zero alpha":     {&Options{}, nil, DefaultAlpha},
		"custom alpha":   {&Options{Alpha: 0.1}, nil, 0.1},
		"alpha too high": {&Options{Alpha: 1}, linearmodel.ErrInvalidAlpha, 0},
		"negative alpha": {&Options{Alpha: -0.2}, linearmodel.ErrInvalidAlpha, 0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt, err := td.opt.Validate()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.alpha, opt.Alpha)
			assert.NotNil(t, opt.OLSOptions)
			if td.opt != nil {
				assert.NotSame(t, td.opt, opt)
				assert.Nil(t, td.opt.OLSOptions)
			}
		})
	}
}

func TestAnalyzerOptionsEditedAfterFit(t *testing.T) {
	opt := NewDefaultOptions()
	a, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, a.Fit(dataset.Longley()))

	opt.Alpha = 0.5
	opt.OLSOptions.FitIntercept = false

	m, err := a.Model()
	require.Nil(t, err)
	assert.Equal(t, DefaultAlpha, m.Options.Alpha)
	assert.True(t, m.Options.OLSOptions.FitIntercept)
	assert.Equal(t, ConstName, m.ParamNames[0])

	// editing the exported options leaves the analyzer untouched
	m.Options.Alpha = 0.3
	again, err := a.Model()
	require.Nil(t, err)
	assert.Equal(t, DefaultAlpha, again.Options.Alpha)
}

func TestAnalyzerLongley(t *testing.T) {
	a := fitLongley(t)

	assert.Equal(t,
		[]string{ConstName, "GNPDEFL", "GNP", "UNEMP", "ARMED", "POP", "YEAR"},
		a.ParamNames(),
	)

	coef, err := a.Coefficients()
	require.Nil(t, err)
	assert.InEpsilon(t, -3482258.63459582, coef[ConstName], 1e-6)
	assert.InEpsilon(t, 1829.15146461355, coef["YEAR"], 1e-6)

	r, err := a.Restriction(
		map[string]float64{"GNP": 1, "UNEMP": -1},
		map[string]float64{"POP": 1, "YEAR": -1},
	)
	require.Nil(t, err)

	rows := [][]float64{
		{0, 0, 1, -1, 0, 0, 0},
		{0, 0, 0, 0, 0, 1, -1},
	}
	for i := range rows {
		assert.Equal(t, rows[i], r.RawRowView(i))
	}

	res, err := a.FTest(rows)
	require.Nil(t, err)
	assert.InEpsilon(t, 9.740461873303655, res.F, 1e-9)
	assert.InEpsilon(t, 0.0056052885317360301, res.PValue, 1e-9)
	assert.Equal(t, 2.0, res.DFNum)
	assert.Equal(t, 9.0, res.DFDenom)

	overall, err := a.OverallFTest()
	require.Nil(t, err)
	results, err := a.Results()
	require.Nil(t, err)
	assert.InEpsilon(t, 330.285339234588, overall.F, 1e-6)
	assert.InDelta(t, results.FValue(), overall.F, 1e-9*overall.F)
	assert.Equal(t, 6.0, overall.DFNum)

	tRes, err := a.TTest([]float64{0, 0, 0, 0, 0, 0, 1})
	require.Nil(t, err)
	assert.InEpsilon(t, 4.01588981, tRes.T, 1e-6)

	tRows, err := a.TTests(rows)
	require.Nil(t, err)
	require.Len(t, tRows, 2)
	for i, tr := range tRows {
		single, err := a.TTest(rows[i])
		require.Nil(t, err)
		assert.Equal(t, single, tr)
	}
}

func TestAnalyzerRestrictionErrors(t *testing.T) {
	a := fitLongley(t)

	_, err := a.Restriction()
	assert.ErrorIs(t, err, ErrEmptyHypothesis)

	_, err = a.Restriction(map[string]float64{})
	assert.ErrorIs(t, err, ErrEmptyHypothesis)

	_, err = a.Restriction(map[string]float64{"GDP": 1})
	assert.ErrorIs(t, err, ErrUnknownParam)
}

func TestAnalyzerNotFit(t *testing.T) {
	a, err := New(nil)
	require.Nil(t, err)

	_, err = a.Results()
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.Coefficients()
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.Restriction(map[string]float64{"x1": 1})
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.FTest([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.TTest([]float64{1})
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.TTests([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.OverallFTest()
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.ModelEq()
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.VIF()
	assert.ErrorIs(t, err, ErrNotFit)

	_, err = a.Model()
	assert.ErrorIs(t, err, ErrNotFit)

	assert.ErrorIs(t, a.PlotFit(filepath.Join(t.TempDir(), "fit.html")), ErrNotFit)

	assert.ErrorIs(t, a.Fit(nil), ErrNoDataset)
}

func TestAnalyzerFitArrays(t *testing.T) {
	d, err := dataset.NewLinear(200, []float64{3, -2}, 5, 0, 7)
	require.Nil(t, err)

	a, err := New(nil)
	require.Nil(t, err)
	require.Nil(t, a.FitArrays(d.Endog, d.Exog))

	assert.Equal(t, []string{ConstName, "x1", "x2"}, a.ParamNames())

	coef, err := a.Coefficients()
	require.Nil(t, err)
	assert.InDelta(t, 5.0, coef[ConstName], 1e-8)
	assert.InDelta(t, 3.0, coef["x1"], 1e-8)
	assert.InDelta(t, -2.0, coef["x2"], 1e-8)

	eq, err := a.ModelEq()
	require.Nil(t, err)
	assert.Equal(t, "y ~ 5*const + 3*x1 + -2*x2", eq)

	err = a.FitArrays([]float64{1, 2}, [][]float64{{1}})
	assert.ErrorIs(t, err, dataset.ErrDatasetLenMismatch)
}

func TestAnalyzerVIF(t *testing.T) {
	a := fitLongley(t)

	vif, err := a.VIF()
	require.Nil(t, err)
	require.Len(t, vif, 6)

	// GNP and YEAR are nearly collinear in the Longley data
	assert.Greater(t, vif["GNP"], 100.0)
	assert.Greater(t, vif["YEAR"], 100.0)
	for name, v := range vif {
		assert.GreaterOrEqual(t, v, 1.0, name)
	}
}

func TestAnalyzerNoIntercept(t *testing.T) {
	opt := NewDefaultOptions()
	opt.OLSOptions.FitIntercept = false

	d, err := dataset.NewLinear(50, []float64{1.5, 0.5}, 0, 0.1, 3)
	require.Nil(t, err)

	a, err := New(opt)
	require.Nil(t, err)
	require.Nil(t, a.Fit(d))

	assert.Equal(t, d.ExogNames, a.ParamNames())

	res, err := a.OverallFTest()
	require.Nil(t, err)
	assert.Equal(t, 2.0, res.DFNum)
}

func TestModelJSON(t *testing.T) {
	a := fitLongley(t)

	m, err := a.Model()
	require.Nil(t, err)
	assert.Equal(t, 16, m.NObs)
	assert.Equal(t, Value(9), m.DFResid)
	assert.NotEmpty(t, m.Warnings)
	for j := range m.Params {
		assert.Less(t, float64(m.ConfLower[j]), float64(m.Params[j]))
		assert.Greater(t, float64(m.ConfUpper[j]), float64(m.Params[j]))
	}

	var buf bytes.Buffer
	require.Nil(t, m.WriteJSON(&buf))

	loaded, err := ReadModel(&buf)
	require.Nil(t, err)
	assert.Equal(t, m, loaded)

	summary := m.Summary()
	for _, name := range m.ParamNames {
		assert.Contains(t, summary, name)
	}
	assert.True(t, strings.HasPrefix(summary, "Dep. Variable: TOTEMP"))
}

func TestModelSummaryTruncated(t *testing.T) {
	a := fitLongley(t)

	m, err := a.Model()
	require.Nil(t, err)

	var buf bytes.Buffer
	require.Nil(t, m.WriteJSON(&buf))

	var raw map[string]any
	require.Nil(t, json.Unmarshal(buf.Bytes(), &raw))
	raw["bse"] = raw["bse"].([]any)[:3]
	delete(raw, "conf_upper")

	edited, err := json.Marshal(raw)
	require.Nil(t, err)

	loaded, err := ReadModel(bytes.NewReader(edited))
	require.Nil(t, err)
	require.Len(t, loaded.BSE, 3)
	require.Empty(t, loaded.ConfUpper)

	var summary string
	require.NotPanics(t, func() { summary = loaded.Summary() })
	assert.Contains(t, summary, "7 of 7 parameters have incomplete statistics")

	loaded.ConfUpper = m.ConfUpper
	summary = loaded.Summary()
	assert.Contains(t, summary, "GNPDEFL")
	assert.NotContains(t, summary, "YEAR")
	assert.Contains(t, summary, "4 of 7 parameters have incomplete statistics")
}

func TestValueJSON(t *testing.T) {
	testData := map[string]struct {
		v        Value
		expected string
	}{
		"finite":   {Value(1.5), "1.5"},
		"nan":      {Value(math.NaN()), "null"},
		"positive": {Value(math.Inf(1)), "null"},
		"negative": {Value(math.Inf(-1)), "null"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out, err := json.Marshal(td.v)
			require.Nil(t, err)
			assert.Equal(t, td.expected, string(out))
		})
	}

	var v Value
	require.Nil(t, v.UnmarshalJSON([]byte("null")))
	assert.True(t, math.IsNaN(float64(v)))

	require.Nil(t, json.Unmarshal([]byte("2.25"), &v))
	assert.Equal(t, Value(2.25), v)
}

func TestPlotFit(t *testing.T) {
	a := fitLongley(t)

	path := filepath.Join(t.TempDir(), "fit.html")
	require.Nil(t, a.PlotFit(path))

	info, err := os.Stat(path)
	require.Nil(t, err)
	assert.Greater(t, info.Size(), int64(0))

	out, err := os.ReadFile(path)
	require.Nil(t, err)
	assert.Contains(t, string(out), "Regression Fit")
	assert.Contains(t, string(out), "Coefficient t Statistics")
}
