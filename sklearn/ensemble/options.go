package ensemble

import (
	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/sklearn/tree"
)

// DefaultNEstimators matches scikit-learn's n_estimators default.
const DefaultNEstimators = 100

// Params are the forest hyperparameters. Tree holds the settings passed to
// every member tree; its RandomState is the base seed of the forest.
type Params struct {
	NEstimators int
	Bootstrap   bool
	// NJobs bounds the number of trees fitted concurrently. <= 0 uses all CPUs.
	NJobs int
	Tree  tree.Params
}

func defaultParams() Params {
	return Params{
		NEstimators: DefaultNEstimators,
		Bootstrap:   true,
		Tree:        tree.DefaultParams(),
	}
}

func (p Params) validate(nFeatures int) error {
	if p.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", p.NEstimators)
	}
	return p.Tree.Validate(nFeatures)
}

// Option configures a RandomForestRegressor.
type Option func(*Params)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(p *Params) { p.NEstimators = n }
}

// WithBootstrap toggles sampling rows with replacement for each tree.
func WithBootstrap(on bool) Option {
	return func(p *Params) { p.Bootstrap = on }
}

// WithNJobs bounds training parallelism.
func WithNJobs(n int) Option {
	return func(p *Params) { p.NJobs = n }
}

// WithMaxDepth limits the depth of every tree.
func WithMaxDepth(depth int) Option {
	return func(p *Params) { p.Tree.MaxDepth = depth }
}

// WithMinSamplesSplit sets min_samples_split for every tree.
func WithMinSamplesSplit(n int) Option {
	return func(p *Params) { p.Tree.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets min_samples_leaf for every tree.
func WithMinSamplesLeaf(n int) Option {
	return func(p *Params) { p.Tree.MinSamplesLeaf = n }
}

// WithMaxFeatures sets the number of features drawn at each split.
func WithMaxFeatures(n int) Option {
	return func(p *Params) { p.Tree.MaxFeatures = n }
}

// WithMaxLeafNodes bounds the leaves of every tree.
func WithMaxLeafNodes(n int) Option {
	return func(p *Params) { p.Tree.MaxLeafNodes = n }
}

// WithRandomState fixes the base seed. Tree i is seeded with seed+i.
func WithRandomState(seed uint64) Option {
	return func(p *Params) {
		s := seed
		p.Tree.RandomState = &s
	}
}
