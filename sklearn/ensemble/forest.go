// Package ensemble provides a random forest regressor built from
// sklearn/tree regressors.
package ensemble

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/core/model"
	"github.com/YuminosukeSato/homeprice/core/parallel"
	"github.com/YuminosukeSato/homeprice/metrics"
	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/pkg/log"
	"github.com/YuminosukeSato/homeprice/sklearn/tree"
)

const (
	modelName = "RandomForestRegressor"
	// bootstrapStream separates the row-sampling RNG from the tree's own
	// feature-order RNG, which is seeded with (seed, seed).
	bootstrapStream = 0x9e3779b97f4a7c15
)

// RandomForestRegressor averages decision trees fitted on bootstrap samples.
type RandomForestRegressor struct {
	state  *model.StateManager
	params Params

	trees       []*tree.DecisionTreeRegressor
	importances []float64
	seed        uint64
}

// NewRandomForestRegressor creates an unfitted forest with 100 trees.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	params := defaultParams()
	for _, opt := range opts {
		opt(&params)
	}
	return &RandomForestRegressor{state: model.NewStateManager(), params: params}
}

// Fit trains the forest. See FitContext.
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	return f.FitContext(context.Background(), X, y)
}

// FitContext trains NEstimators trees concurrently, at most NJobs at a time.
// Cancelling ctx stops trees that have not started yet.
func (f *RandomForestRegressor) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	n, p, err := tree.ValidateFitInput("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := f.params.validate(p); err != nil {
		return err
	}

	start := time.Now()
	cols := tree.FeatureColumns(X)
	target := tree.TargetColumn(y)
	names := model.ColumnNamesOf(X)
	f.seed = f.resolveSeed()

	logger := log.GetLoggerWithName("ensemble").With(log.ModelNameKey, modelName)
	trees := make([]*tree.DecisionTreeRegressor, f.params.NEstimators)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel.Workers(f.params.NJobs))
	for i := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			treeSeed := f.seed + uint64(i)
			t := tree.NewDecisionTreeRegressor(tree.WithParams(f.params.Tree), tree.WithRandomState(treeSeed))
			if err := t.FitSamples(cols, target, f.sampleRows(n, treeSeed), names); err != nil {
				return errors.Wrapf(err, "tree %d", i)
			}
			trees[i] = t
			logger.Debug("Tree fitted",
				log.TreeIndexKey, i,
				log.DepthKey, t.GetDepth(),
				log.LeavesKey, t.GetNLeaves(),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.importances = meanImportances(trees, p)
	f.state.Reset()
	f.state.SetDimensions(p, n)
	f.state.SetFeatureNames(names)
	f.state.SetFitted()

	logger.Info("Forest fitted",
		log.OperationKey, log.OperationFit,
		log.TreesKey, len(trees),
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.RandomSeedKey, f.seed,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// sampleRows returns the training rows of one tree: a bootstrap draw of n
// indices with replacement, or every row when bootstrapping is off.
func (f *RandomForestRegressor) sampleRows(n int, treeSeed uint64) []int {
	rows := make([]int, n)
	if !f.params.Bootstrap {
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	rng := rand.New(rand.NewPCG(treeSeed, bootstrapStream))
	for i := range rows {
		rows[i] = rng.IntN(n)
	}
	return rows
}

func (f *RandomForestRegressor) resolveSeed() uint64 {
	if f.params.Tree.RandomState != nil {
		return *f.params.Tree.RandomState
	}
	return rand.Uint64()
}

func meanImportances(trees []*tree.DecisionTreeRegressor, p int) []float64 {
	out := make([]float64, p)
	for _, t := range trees {
		for j, v := range t.GetFeatureImportances() {
			out[j] += v
		}
	}
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}

// Predict returns the mean prediction of all trees as an n×1 matrix.
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := f.state.RequireFitted(modelName, "Predict"); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	if err := f.state.CheckFeatures("RandomForestRegressor.Predict", c, model.ColumnNamesOf(X)); err != nil {
		return nil, err
	}
	if err := errors.CheckMatrix("RandomForestRegressor.Predict", X, n, c); err != nil {
		return nil, err
	}

	rows := mat.DenseCopyOf(X)
	out := make([]float64, n)
	nTrees := float64(len(f.trees))
	parallel.ParallelizeN(n, parallel.Workers(f.params.NJobs), func(start, end int) {
		for i := start; i < end; i++ {
			row := rows.RawRowView(i)
			at := func(j int) float64 { return row[j] }
			var sum float64
			for _, t := range f.trees {
				sum += t.PredictRow(at)
			}
			out[i] = sum / nTrees
		}
	})
	return mat.NewVecDense(n, out), nil
}

// Score returns the R² of the predictions for X against y.
func (f *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// IsFitted reports whether Fit has completed.
func (f *RandomForestRegressor) IsFitted() bool { return f.state.IsFitted() }

// Estimators returns the fitted trees.
func (f *RandomForestRegressor) Estimators() []*tree.DecisionTreeRegressor {
	return append([]*tree.DecisionTreeRegressor(nil), f.trees...)
}

// GetFeatureImportances returns the mean impurity-based importance over the
// trees, normalised to sum to one.
func (f *RandomForestRegressor) GetFeatureImportances() []float64 {
	return append([]float64(nil), f.importances...)
}

// FeatureNames returns the column names seen in Fit, or nil.
func (f *RandomForestRegressor) FeatureNames() []string { return f.state.GetFeatureNames() }

// String implements fmt.Stringer.
func (f *RandomForestRegressor) String() string {
	rs := "None"
	if f.params.Tree.RandomState != nil {
		rs = fmt.Sprint(*f.params.Tree.RandomState)
	}
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, max_depth=%d, random_state=%s)",
		f.params.NEstimators, f.params.Tree.MaxDepth, rs)
}
