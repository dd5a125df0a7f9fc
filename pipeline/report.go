package pipeline

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Report prints the walkthrough output of a run.
func Report(w io.Writer, r *Result) error {
	p := &printer{w: w}
	p.printf("Run %s: %s on %s\n", r.RunID, r.ModelName, r.Source)
	p.printf("Loaded %d rows, %d left after cleaning\n\n", r.LoadedRows, r.CleanedRows)

	if r.Description != nil {
		p.printf("%s\n", r.Description)
	}

	if r.Head != nil {
		rows, _ := r.Head.Dims()
		p.printf("Making predictions for the following %d houses:\n", rows)
		p.printf("%s\n", r.Head)
		p.printf("The predictions are\n%s\n\n", FormatPredictions(r.HeadPredictions))
	}

	if len(r.Importances) == len(r.Features) {
		p.printf("Feature importances:\n")
		for i, f := range r.Features {
			p.printf("  %-12s %s\n", f, decimal.NewFromFloat(r.Importances[i]).StringFixed(4))
		}
		p.printf("\n")
	}

	m := r.Metrics
	scope := fmt.Sprintf("validation, %d rows", m.Samples)
	if m.InSample {
		scope = fmt.Sprintf("in-sample, %d rows", m.Samples)
	}
	p.printf("Mean absolute error (%s): %s\n", scope, Money(m.MAE))
	p.printf("Root mean squared error: %s\n", Money(m.RMSE))
	if !math.IsNaN(m.R2) {
		p.printf("R²: %s\n", decimal.NewFromFloat(m.R2).StringFixed(4))
	}

	for _, a := range r.Artifacts {
		p.printf("wrote %s\n", a)
	}
	return p.err
}

// FormatPredictions renders values the way NumPy prints a float array:
// whole numbers keep a trailing dot.
func FormatPredictions(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		d := decimal.NewFromFloat(v)
		if d.IsInteger() {
			parts[i] = d.String() + "."
		} else {
			parts[i] = d.Round(2).String()
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Money formats an amount with two decimals and thousands separators.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + "." + frac
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
