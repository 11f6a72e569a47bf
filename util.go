package linhypothesis

import (
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineFit generates an echart line chart of the observed response against the fitted values
// by observation index
func LineFit(name string, observed, fitted []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Regression Fit",
			},
		),
	)

	idx := make([]int, len(observed))
	lineDataActual := make([]opts.LineData, 0, len(observed))
	lineDataFitted := make([]opts.LineData, 0, len(fitted))
	for i := range observed {
		idx[i] = i
		lineDataActual = append(lineDataActual, opts.LineData{Value: observed[i]})
		lineDataFitted = append(lineDataFitted, opts.LineData{Value: fitted[i]})
	}

	line.SetXAxis(idx).
		AddSeries(name, lineDataActual).
		AddSeries("Fitted", lineDataFitted)
	return line
}

// LineResiduals generates an echart line chart of the fit residuals by observation index.
// Non-finite residuals are skipped.
func LineResiduals(residuals []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Regression Residual",
			},
		),
	)

	idx := make([]int, 0, len(residuals))
	lineData := make([]opts.LineData, 0, len(residuals))
	for i, r := range residuals {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		idx = append(idx, i)
		lineData = append(lineData, opts.LineData{Value: r})
	}

	line.SetXAxis(idx).AddSeries("Residual", lineData)
	return line
}

// BarT generates an echart bar chart of the t statistic of every coefficient
func BarT(names []string, t []float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Coefficient t Statistics",
			},
		),
	)

	barData := make([]opts.BarData, 0, len(t))
	for _, v := range t {
		barData = append(barData, opts.BarData{Value: v})
	}

	bar.SetXAxis(names).AddSeries("t", barData)
	return bar
}
