package linhypothesis

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

// Value is a float64 that serializes NaN and infinities as JSON null
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

func toValues(s []float64) []Value {
	out := make([]Value, len(s))
	for i, v := range s {
		out[i] = Value(v)
	}
	return out
}

// Model is a serializable summary of a fitted regression
type Model struct {
	Options *Options `json:"options"`

	EndogName  string   `json:"endog_name"`
	ParamNames []string `json:"param_names"`

	Params    []Value `json:"params"`
	BSE       []Value `json:"bse"`
	T         []Value `json:"t"`
	PValues   []Value `json:"p_values"`
	ConfLower []Value `json:"conf_lower"`
	ConfUpper []Value `json:"conf_upper"`

	NObs        int   `json:"n_obs"`
	DFResid     Value `json:"df_resid"`
	DFModel     Value `json:"df_model"`
	RSS         Value `json:"rss"`
	Scale       Value `json:"scale"`
	RSquared    Value `json:"r_squared"`
	AdjRSquared Value `json:"adj_r_squared"`
	FValue      Value `json:"f_value"`
	FPValue     Value `json:"f_p_value"`
	Condition   Value `json:"condition"`

	Warnings []string `json:"warnings,omitempty"`
}

// WriteJSON writes the model as indented JSON
func (m Model) WriteJSON(w io.Writer) error {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal model, %w", err)
	}
	_, err = w.Write(out)
	return err
}

// ReadModel decodes a model previously written with WriteJSON
func ReadModel(r io.Reader) (Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return Model{}, fmt.Errorf("unable to decode model, %w", err)
	}
	return m, nil
}

// Summary renders the coefficient table and fit statistics as aligned text
func (m Model) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Dep. Variable: %s  No. Observations: %d  Df Residuals: %g  Df Model: %g\n",
		m.EndogName, m.NObs, float64(m.DFResid), float64(m.DFModel))
	fmt.Fprintf(&sb, "R-squared: %.6f  Adj. R-squared: %.6f  F-statistic: %.6g  Prob (F-statistic): %.6g\n\n",
		float64(m.RSquared), float64(m.AdjRSquared), float64(m.FValue), float64(m.FPValue))

	alpha := DefaultAlpha
	if m.Options != nil {
		alpha = m.Options.Alpha
	}

	// decoded models may carry truncated columns, only rows present in every column are shown
	rows := min(
		len(m.ParamNames),
		len(m.Params),
		len(m.BSE),
		len(m.T),
		len(m.PValues),
		len(m.ConfLower),
		len(m.ConfUpper),
	)

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\tcoef\tstd err\tt\tP>|t|\t[%g\t%g]\t\n", alpha/2, 1-alpha/2)
	for j, name := range m.ParamNames[:rows] {
		fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%.4f\t%.4f\t%.6g\t%.6g\t\n",
			name,
			float64(m.Params[j]),
			float64(m.BSE[j]),
			float64(m.T[j]),
			float64(m.PValues[j]),
			float64(m.ConfLower[j]),
			float64(m.ConfUpper[j]),
		)
	}
	tw.Flush()

	if rows < len(m.ParamNames) {
		fmt.Fprintf(&sb, "\nWarning: %d of %d parameters have incomplete statistics", len(m.ParamNames)-rows, len(m.ParamNames))
	}

	for _, w := range m.Warnings {
		fmt.Fprintf(&sb, "\nWarning: %s", w)
	}
	return sb.String()
}
