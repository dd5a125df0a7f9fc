package tree

import (
	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// Params are the hyperparameters of a DecisionTreeRegressor. Zero values of
// MaxDepth, MaxFeatures and MaxLeafNodes mean "no limit".
type Params struct {
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	MaxFeatures         int
	MaxLeafNodes        int
	MinImpurityDecrease float64
	// RandomState seeds the per-node feature order. nil draws a fresh seed
	// on every Fit.
	RandomState *uint64
}

// DefaultParams mirror scikit-learn's DecisionTreeRegressor defaults.
func DefaultParams() Params {
	return Params{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// Validate checks the hyperparameters against the number of features.
func (p Params) Validate(nFeatures int) error {
	switch {
	case p.MaxDepth < 0:
		return errors.NewValidationError("max_depth", "must be >= 0 (0 means unlimited)", p.MaxDepth)
	case p.MinSamplesSplit < 2:
		return errors.NewValidationError("min_samples_split", "must be >= 2", p.MinSamplesSplit)
	case p.MinSamplesLeaf < 1:
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", p.MinSamplesLeaf)
	case p.MaxFeatures < 0 || p.MaxFeatures > nFeatures:
		return errors.NewValidationError("max_features", "must be in [0, n_features]", p.MaxFeatures)
	case p.MaxLeafNodes == 1 || p.MaxLeafNodes < 0:
		return errors.NewValidationError("max_leaf_nodes", "must be 0 (unlimited) or >= 2", p.MaxLeafNodes)
	case p.MinImpurityDecrease < 0:
		return errors.NewValidationError("min_impurity_decrease", "must be >= 0", p.MinImpurityDecrease)
	}
	return nil
}

// Option configures a DecisionTreeRegressor.
type Option func(*Params)

// WithMaxDepth limits the depth of the tree. 0 grows until leaves are pure.
func WithMaxDepth(depth int) Option {
	return func(p *Params) { p.MaxDepth = depth }
}

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *Params) { p.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(p *Params) { p.MinSamplesLeaf = n }
}

// WithMaxFeatures sets how many features are examined per split. 0 means all.
func WithMaxFeatures(n int) Option {
	return func(p *Params) { p.MaxFeatures = n }
}

// WithMaxLeafNodes grows the tree best-first until it has at most n leaves.
func WithMaxLeafNodes(n int) Option {
	return func(p *Params) { p.MaxLeafNodes = n }
}

// WithMinImpurityDecrease requires each split to reduce the weighted
// impurity by at least d.
func WithMinImpurityDecrease(d float64) Option {
	return func(p *Params) { p.MinImpurityDecrease = d }
}

// WithRandomState fixes the seed.
func WithRandomState(seed uint64) Option {
	return func(p *Params) {
		s := seed
		p.RandomState = &s
	}
}

// WithParams replaces all hyperparameters at once.
func WithParams(params Params) Option {
	return func(p *Params) { *p = params }
}
