package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds the DataFrame.describe() statistics of one column.
// NaN values are excluded; Std is the sample standard deviation.
type ColumnSummary struct {
	Count float64
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Description is the per-column summary of a FeatureMatrix.
type Description struct {
	Columns []string
	Stats   []ColumnSummary
}

// Describe computes count, mean, std, min, quartiles and max per column.
// Quartiles interpolate linearly between order statistics.
func Describe(X *FeatureMatrix) *Description {
	r, c := X.Dims()
	d := &Description{Columns: X.ColumnNames(), Stats: make([]ColumnSummary, c)}

	col := make([]float64, 0, r)
	for j := 0; j < c; j++ {
		col = col[:0]
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				col = append(col, v)
			}
		}
		d.Stats[j] = summarize(col)
	}
	return d
}

func summarize(values []float64) ColumnSummary {
	n := len(values)
	if n == 0 {
		nan := math.NaN()
		return ColumnSummary{Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if n == 1 {
		std = math.NaN()
	}
	return ColumnSummary{
		Count: float64(n),
		Mean:  mean,
		Std:   std,
		Min:   sorted[0],
		Q25:   linearQuantile(sorted, 0.25),
		Q50:   linearQuantile(sorted, 0.50),
		Q75:   linearQuantile(sorted, 0.75),
		Max:   sorted[n-1],
	}
}

// linearQuantile expects sorted input.
func linearQuantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Column returns the summary for a column name.
func (d *Description) Column(name string) (ColumnSummary, bool) {
	for i, c := range d.Columns {
		if c == name {
			return d.Stats[i], true
		}
	}
	return ColumnSummary{}, false
}

// String renders the table with statistics as rows and columns as columns.
func (d *Description) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "\t")
	for _, c := range d.Columns {
		fmt.Fprintf(w, "%s\t", c)
	}
	fmt.Fprintln(w)

	rows := []struct {
		name string
		get  func(ColumnSummary) float64
	}{
		{"count", func(s ColumnSummary) float64 { return s.Count }},
		{"mean", func(s ColumnSummary) float64 { return s.Mean }},
		{"std", func(s ColumnSummary) float64 { return s.Std }},
		{"min", func(s ColumnSummary) float64 { return s.Min }},
		{"25%", func(s ColumnSummary) float64 { return s.Q25 }},
		{"50%", func(s ColumnSummary) float64 { return s.Q50 }},
		{"75%", func(s ColumnSummary) float64 { return s.Q75 }},
		{"max", func(s ColumnSummary) float64 { return s.Max }},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t", row.name)
		for _, s := range d.Stats {
			fmt.Fprintf(w, "%f\t", row.get(s))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	return b.String()
}
