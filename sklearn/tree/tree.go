// Package tree implements a CART decision-tree regressor on gonum matrices,
// API-compatible with scikit-learn's DecisionTreeRegressor.
//
// Splits minimise the squared error of the children. Thresholds are
// midpoints between consecutive distinct feature values, and each leaf
// predicts the mean target of its training rows.
//
//	model := tree.NewDecisionTreeRegressor(tree.WithRandomState(1))
//	if err := model.Fit(X, y); err != nil { ... }
//	preds, err := model.Predict(X.Head(5))
package tree

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/core/model"
	"github.com/YuminosukeSato/homeprice/metrics"
	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
)

const modelName = "DecisionTreeRegressor"

// DecisionTreeRegressor is a regression tree.
type DecisionTreeRegressor struct {
	state  *model.StateManager
	params Params

	nodes       Nodes
	importances []float64
	depth       int
	nLeaves     int
	seed        uint64
}

// NewDecisionTreeRegressor creates an unfitted tree.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	params := DefaultParams()
	for _, opt := range opts {
		opt(&params)
	}
	return &DecisionTreeRegressor{state: model.NewStateManager(), params: params}
}

// Fit grows the tree on X (n×p) and y (n×1).
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	n, _, err := ValidateFitInput("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	samples := make([]int, n)
	for i := range samples {
		samples[i] = i
	}
	return t.fit(FeatureColumns(X), TargetColumn(y), samples, model.ColumnNamesOf(X))
}

// FitSamples grows the tree on the rows of X and y listed in samples.
// Indices may repeat, which is how the forest feeds bootstrap draws.
func (t *DecisionTreeRegressor) FitSamples(cols [][]float64, y []float64, samples []int, featureNames []string) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.FitSamples")
	if len(samples) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.FitSamples", "empty data", errors.ErrEmptyData)
	}
	return t.fit(cols, y, append([]int(nil), samples...), featureNames)
}

func (t *DecisionTreeRegressor) fit(cols [][]float64, y []float64, samples []int, names []string) error {
	if err := t.params.Validate(len(cols)); err != nil {
		return err
	}
	start := time.Now()

	t.seed = t.resolveSeed()
	b := newBuilder(t.params, cols, y, samples, t.seed)
	b.build()

	t.nodes = b.nodes
	t.depth = b.maxDepth
	t.nLeaves = b.nLeaves
	t.importances = normalize(b.importance)

	t.state.Reset()
	t.state.SetDimensions(len(cols), len(samples))
	t.state.SetFeatureNames(names)
	t.state.SetFitted()

	log.GetLoggerWithName("tree").Debug("Tree fitted",
		log.ModelNameKey, modelName,
		log.OperationKey, log.OperationFit,
		log.SamplesKey, len(samples),
		log.FeaturesKey, len(cols),
		log.DepthKey, t.depth,
		log.LeavesKey, t.nLeaves,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (t *DecisionTreeRegressor) resolveSeed() uint64 {
	if t.params.RandomState != nil {
		return *t.params.RandomState
	}
	return rand.Uint64()
}

func normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	var total float64
	for _, x := range v {
		total += x
	}
	if total <= 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / total
	}
	return out
}

// Predict returns an n×1 matrix of leaf means for the rows of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.state.RequireFitted(modelName, "Predict"); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	if err := t.state.CheckFeatures("DecisionTreeRegressor.Predict", c, model.ColumnNamesOf(X)); err != nil {
		return nil, err
	}
	if err := errors.CheckMatrix("DecisionTreeRegressor.Predict", X, n, c); err != nil {
		return nil, err
	}

	out := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		out.SetVec(i, t.PredictRow(func(j int) float64 { return X.At(i, j) }))
	}
	return out, nil
}

// PredictRow predicts a single row given as an accessor. It performs no
// validation and is meant for callers that already checked the input.
func (t *DecisionTreeRegressor) PredictRow(row func(j int) float64) float64 {
	return t.nodes.predict(row)
}

// Score returns the R² of the predictions for X against y.
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// IsFitted reports whether Fit has completed.
func (t *DecisionTreeRegressor) IsFitted() bool { return t.state.IsFitted() }

// GetDepth returns the depth of the fitted tree (a lone root has depth 0).
func (t *DecisionTreeRegressor) GetDepth() int { return t.depth }

// GetNLeaves returns the number of leaves.
func (t *DecisionTreeRegressor) GetNLeaves() int { return t.nLeaves }

// GetFeatureImportances returns the normalised total impurity decrease per
// feature.
func (t *DecisionTreeRegressor) GetFeatureImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

// FeatureNames returns the column names seen in Fit, or nil.
func (t *DecisionTreeRegressor) FeatureNames() []string { return t.state.GetFeatureNames() }

// Nodes exposes the fitted node arrays.
func (t *DecisionTreeRegressor) Nodes() *Nodes { return &t.nodes }

// Params returns a copy of the hyperparameters.
func (t *DecisionTreeRegressor) Params() Params { return t.params }

// String implements fmt.Stringer.
func (t *DecisionTreeRegressor) String() string {
	rs := "None"
	if t.params.RandomState != nil {
		rs = fmt.Sprint(*t.params.RandomState)
	}
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_leaf=%d, random_state=%s)",
		t.params.MaxDepth, t.params.MinSamplesLeaf, rs)
}

// ValidateFitInput checks shapes and finiteness of a Fit call and returns
// the sample and feature counts.
func ValidateFitInput(op string, X, y mat.Matrix) (n, p int, err error) {
	n, p = X.Dims()
	yRows, yCols := y.Dims()
	if n == 0 || p == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if n != yRows {
		return 0, 0, errors.NewDimensionError(op, n, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if err := errors.CheckMatrix(op, X, n, p); err != nil {
		return 0, 0, err
	}
	if err := errors.CheckMatrix(op, y, n, 1); err != nil {
		return 0, 0, err
	}
	return n, p, nil
}

// FeatureColumns copies X into one slice per feature.
func FeatureColumns(X mat.Matrix) [][]float64 {
	n, p := X.Dims()
	cols := make([][]float64, p)
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	if d, ok := X.(mat.RawMatrixer); ok {
		raw := d.RawMatrix()
		for i := 0; i < n; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+p]
			for j, v := range row {
				cols[j][i] = v
			}
		}
		return cols
	}
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			cols[j][i] = X.At(i, j)
		}
	}
	return cols
}

// TargetColumn copies an n×1 matrix into a slice.
func TargetColumn(y mat.Matrix) []float64 {
	n, _ := y.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = y.At(i, 0)
	}
	return out
}
