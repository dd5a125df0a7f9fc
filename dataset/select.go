package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
)

// FeatureMatrix is an n×p dense matrix with named columns. Row i carries
// the label of the record it was built from.
type FeatureMatrix struct {
	*mat.Dense
	columns []string
	labels  []int
}

// NewFeatureMatrix wraps m with column names and row labels. labels may be
// nil, in which case rows are labelled 0..n-1.
func NewFeatureMatrix(m *mat.Dense, columns []string, labels []int) *FeatureMatrix {
	r, c := m.Dims()
	if len(columns) != c {
		panic(fmt.Sprintf("dataset: %d column names for %d columns", len(columns), c))
	}
	if labels == nil {
		labels = make([]int, r)
		for i := range labels {
			labels[i] = i
		}
	}
	return &FeatureMatrix{Dense: m, columns: append([]string(nil), columns...), labels: labels}
}

// ColumnNames returns the feature names in column order.
func (fm *FeatureMatrix) ColumnNames() []string {
	return append([]string(nil), fm.columns...)
}

// Labels returns the record label of each row.
func (fm *FeatureMatrix) Labels() []int {
	return append([]int(nil), fm.labels...)
}

// Head returns the first n rows (at least one, at most all of them).
func (fm *FeatureMatrix) Head(n int) *FeatureMatrix {
	r, _ := fm.Dims()
	n = clampHead(n, r)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out, _ := fm.Rows(idx)
	return out
}

// Rows returns a copy holding the given rows in the given order.
func (fm *FeatureMatrix) Rows(idx []int) (*FeatureMatrix, error) {
	r, c := fm.Dims()
	if len(idx) == 0 {
		return nil, errors.NewValueError("FeatureMatrix.Rows", "no rows requested")
	}
	dst := mat.NewDense(len(idx), c, nil)
	labels := make([]int, len(idx))
	for k, i := range idx {
		if i < 0 || i >= r {
			return nil, errors.NewValueError("FeatureMatrix.Rows", fmt.Sprintf("row %d out of range [0,%d)", i, r))
		}
		dst.SetRow(k, fm.RawRowView(i))
		labels[k] = fm.labels[i]
	}
	return &FeatureMatrix{Dense: dst, columns: fm.columns, labels: labels}, nil
}

// String renders the matrix like a DataFrame: one line per row, prefixed
// with its record label.
func (fm *FeatureMatrix) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "\t")
	for _, c := range fm.columns {
		fmt.Fprintf(w, "%s\t", c)
	}
	fmt.Fprintln(w)
	r, _ := fm.Dims()
	for i := 0; i < r; i++ {
		fmt.Fprintf(w, "%d\t", fm.labels[i])
		for _, v := range fm.RawRowView(i) {
			fmt.Fprintf(w, "%s\t", formatCell(v))
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	return b.String()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TargetVector is a length-n column vector with a name. *mat.VecDense is an
// n×1 mat.Matrix, so a TargetVector can be passed to Fit as y directly.
type TargetVector struct {
	*mat.VecDense
	name   string
	labels []int
}

// NewTargetVector wraps v with a column name and row labels (nil for 0..n-1).
func NewTargetVector(v *mat.VecDense, name string, labels []int) *TargetVector {
	if labels == nil {
		labels = make([]int, v.Len())
		for i := range labels {
			labels[i] = i
		}
	}
	return &TargetVector{VecDense: v, name: name, labels: labels}
}

// Name returns the target column name.
func (tv *TargetVector) Name() string { return tv.name }

// Labels returns the record label of each element.
func (tv *TargetVector) Labels() []int {
	return append([]int(nil), tv.labels...)
}

// Values returns a copy of the elements.
func (tv *TargetVector) Values() []float64 {
	out := make([]float64, tv.Len())
	for i := range out {
		out[i] = tv.AtVec(i)
	}
	return out
}

// Head returns the first n elements (at least one, at most all of them).
func (tv *TargetVector) Head(n int) *TargetVector {
	n = clampHead(n, tv.Len())
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out, _ := tv.Rows(idx)
	return out
}

// Rows returns a copy holding the given elements in the given order.
func (tv *TargetVector) Rows(idx []int) (*TargetVector, error) {
	if len(idx) == 0 {
		return nil, errors.NewValueError("TargetVector.Rows", "no rows requested")
	}
	data := make([]float64, len(idx))
	labels := make([]int, len(idx))
	for k, i := range idx {
		if i < 0 || i >= tv.Len() {
			return nil, errors.NewValueError("TargetVector.Rows", fmt.Sprintf("row %d out of range [0,%d)", i, tv.Len()))
		}
		data[k] = tv.AtVec(i)
		labels[k] = tv.labels[i]
	}
	return &TargetVector{VecDense: mat.NewVecDense(len(idx), data), name: tv.name, labels: labels}, nil
}

func clampHead(n, total int) int {
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}

type selectOptions struct {
	allowMissing bool
}

// SelectOption configures Select.
type SelectOption func(*selectOptions)

// AllowMissing makes Select emit NaN for missing values instead of failing.
// Used with an imputation policy.
func AllowMissing() SelectOption {
	return func(o *selectOptions) { o.allowMissing = true }
}

// Select projects the target column and the ordered feature columns of ds.
// Every selected value must parse as a number.
func Select(ds *Dataset, target string, features []string, opts ...SelectOption) (*FeatureMatrix, *TargetVector, error) {
	o := &selectOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if len(features) == 0 {
		return nil, nil, errors.NewValueError("Select", "no feature columns requested")
	}

	tIdx, ok := ds.index[target]
	if !ok {
		return nil, nil, errors.NewSchemaError("Select", target, "target column not found")
	}
	fIdx := make([]int, len(features))
	for i, f := range features {
		j, ok := ds.index[f]
		if !ok {
			return nil, nil, errors.NewSchemaError("Select", f, "feature column not found")
		}
		fIdx[i] = j
	}

	n, p := ds.Len(), len(features)
	if n == 0 {
		return nil, nil, errors.NewValueError("Select", "dataset has no rows")
	}

	xData := make([]float64, n*p)
	yData := make([]float64, n)
	labels := make([]int, n)
	for i, r := range ds.records {
		labels[i] = r.label
		for k, j := range fIdx {
			v, err := parseCell(r, j, features[k], o.allowMissing)
			if err != nil {
				return nil, nil, err
			}
			xData[i*p+k] = v
		}
		v, err := parseCell(r, tIdx, target, o.allowMissing)
		if err != nil {
			return nil, nil, err
		}
		yData[i] = v
	}

	log.GetLoggerWithName("dataset").Debug("Columns selected",
		log.OperationKey, log.OperationSelect,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.ColumnsKey, features,
	)

	X := &FeatureMatrix{Dense: mat.NewDense(n, p, xData), columns: append([]string(nil), features...), labels: labels}
	y := &TargetVector{VecDense: mat.NewVecDense(n, yData), name: target, labels: append([]int(nil), labels...)}
	return X, y, nil
}

func parseCell(r Record, j int, column string, allowMissing bool) (float64, error) {
	f := r.values[j]
	if f.Missing {
		if allowMissing {
			return math.NaN(), nil
		}
		return 0, errors.NewValueError("Select",
			fmt.Sprintf("column %q has a missing value at row %d; drop incomplete records first", column, r.label))
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.Raw), 64)
	if err != nil {
		return 0, errors.NewSchemaError("Select", column, fmt.Sprintf("non-numeric value %q at row %d", f.Raw, r.label))
	}
	return v, nil
}
