// Command olsfstat fits an ordinary least squares regression and reports the overall F test,
// a joint F test on pairwise coefficient equalities, and per coefficient t tests. Without a
// -data file it runs on the Longley dataset.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	linhypothesis "github.com/aouyang1/go-linhypothesis"
	"github.com/aouyang1/go-linhypothesis/dataset"

	"github.com/goccy/go-json"
	"github.com/lmittmann/tint"
	"github.com/pkg/profile"
)

func main() {
	var (
		dataPath   string
		outPath    string
		plotPath   string
		profileDir string
		alpha      float64
		verbose    bool
	)
	flag.StringVar(&dataPath, "data", "", "json dataset with endog_name, endog, exog_names and exog fields")
	flag.StringVar(&outPath, "out", "", "write the fit model summary as json to this path")
	flag.StringVar(&plotPath, "plot", "", "write an html plot of the fit to this path")
	flag.StringVar(&profileDir, "profile", "", "write a cpu profile into this directory")
	flag.Float64Var(&alpha, "alpha", linhypothesis.DefaultAlpha, "significance level of confidence intervals")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	))

	err := profiled(profileDir, func() error {
		return run(dataPath, outPath, plotPath, alpha)
	})
	if err != nil {
		slog.Error("olsfstat failed", "error", err)
		os.Exit(1)
	}
}

// profiled runs fn under a cpu profile written into dir. The profile is flushed before
// returning, including when fn fails. An empty dir runs fn without profiling.
func profiled(dir string, fn func() error) error {
	if dir == "" {
		return fn()
	}
	p := profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook)
	defer p.Stop()
	return fn()
}

func loadDataset(path string) (*dataset.Dataset, error) {
	if path == "" {
		return dataset.Longley(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw dataset.Dataset
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("unable to decode dataset, %w", err)
	}
	return dataset.New(raw.EndogName, raw.Endog, raw.ExogNames, raw.Exog)
}

// pairwise builds one restriction row per adjacent predictor pair, testing b_i = b_i+1
func pairwise(names []string, constIdx int) [][]float64 {
	var preds []int
	for j := range names {
		if j != constIdx {
			preds = append(preds, j)
		}
	}

	var rows [][]float64
	for i := 0; i+1 < len(preds); i++ {
		row := make([]float64, len(names))
		row[preds[i]] = 1
		row[preds[i+1]] = -1
		rows = append(rows, row)
	}
	return rows
}

func run(dataPath, outPath, plotPath string, alpha float64) error {
	d, err := loadDataset(dataPath)
	if err != nil {
		return err
	}
	slog.Debug("loaded dataset", "endog", d.EndogName, "exog", d.ExogNames, "n_obs", d.NumObs())

	opt := linhypothesis.NewDefaultOptions()
	opt.Alpha = alpha
	a, err := linhypothesis.New(opt)
	if err != nil {
		return err
	}
	if err := a.Fit(d); err != nil {
		return err
	}

	eq, err := a.ModelEq()
	if err != nil {
		return err
	}
	fmt.Println(eq)

	m, err := a.Model()
	if err != nil {
		return err
	}
	fmt.Println(m.Summary())
	fmt.Println()

	overall, err := a.OverallFTest()
	if err != nil {
		return err
	}
	fmt.Printf("overall %s\n", overall)

	res, err := a.Results()
	if err != nil {
		return err
	}
	names := a.ParamNames()
	if rows := pairwise(names, res.ConstantIndex()); len(rows) > 0 {
		fRes, err := a.FTest(rows)
		if err != nil {
			return err
		}
		fmt.Printf("adjacent equality %s rank=%d\n", fRes, fRes.Rank)

		tRes, err := a.TTests(rows)
		if err != nil {
			return err
		}
		for i, tr := range tRes {
			fmt.Printf("row %d %s\n", i, tr)
		}
	}

	vif, err := a.VIF()
	if err != nil {
		slog.Warn("unable to compute variance inflation factors", "error", err)
	}
	for _, name := range d.ExogNames {
		if v, exists := vif[name]; exists {
			fmt.Printf("vif %s=%.4g\n", name, v)
		}
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := m.WriteJSON(f); err != nil {
			return err
		}
		slog.Info("wrote model", "path", outPath)
	}

	if plotPath != "" {
		if err := a.PlotFit(plotPath); err != nil {
			return err
		}
		slog.Info("wrote plot", "path", plotPath)
	}
	return nil
}
