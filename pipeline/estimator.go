package pipeline

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/config"
	"github.com/YuminosukeSato/homeprice/core/model"
	"github.com/YuminosukeSato/homeprice/sklearn/ensemble"
	"github.com/YuminosukeSato/homeprice/sklearn/tree"
)

// Regressor is what the pipeline needs from an estimator.
type Regressor interface {
	model.Regressor
	model.ParameterSetter
	GetFeatureImportances() []float64
}

type contextFitter interface {
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

// NewRegressor builds the estimator described by cfg.
func NewRegressor(cfg config.ModelConf) (Regressor, string) {
	switch cfg.Kind {
	case config.ModelForest:
		return ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(cfg.NEstimators),
			ensemble.WithBootstrap(cfg.Bootstrap),
			ensemble.WithNJobs(cfg.NJobs),
			ensemble.WithMaxDepth(cfg.MaxDepth),
			ensemble.WithMinSamplesLeaf(cfg.MinSamplesLeaf),
			ensemble.WithMaxLeafNodes(cfg.MaxLeafNodes),
			ensemble.WithMaxFeatures(cfg.MaxFeatures),
			ensemble.WithRandomState(cfg.RandomState),
		), "RandomForestRegressor"
	default:
		return tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(cfg.MaxDepth),
			tree.WithMinSamplesLeaf(cfg.MinSamplesLeaf),
			tree.WithMaxLeafNodes(cfg.MaxLeafNodes),
			tree.WithMaxFeatures(cfg.MaxFeatures),
			tree.WithRandomState(cfg.RandomState),
		), "DecisionTreeRegressor"
	}
}

func fit(ctx context.Context, est Regressor, X, y mat.Matrix) error {
	if cf, ok := est.(contextFitter); ok {
		return cf.FitContext(ctx, X, y)
	}
	return est.Fit(X, y)
}
