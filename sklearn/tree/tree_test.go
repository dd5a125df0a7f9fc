package tree

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// named attaches column names to a matrix, like dataset.FeatureMatrix.
type named struct {
	*mat.Dense
	names []string
}

func (n named) ColumnNames() []string { return n.names }

func housesXY() (*mat.Dense, *mat.Dense) {
	// Rooms, Bathroom, Landsize, Lattitude, Longtitude
	X := mat.NewDense(8, 5, []float64{
		2, 1, 202, -37.7996, 144.9984,
		2, 1, 156, -37.8079, 144.9934,
		3, 2, 134, -37.8093, 144.9944,
		3, 2, 94, -37.7969, 144.9969,
		4, 1, 120, -37.8072, 144.9941,
		2, 1, 181, -37.8041, 144.9953,
		3, 1, 245, -37.8024, 144.9993,
		2, 1, 256, -37.806, 144.9954,
	})
	y := mat.NewDense(8, 1, []float64{
		1480000, 1035000, 1465000, 850000, 1600000, 941000, 1876000, 1636000,
	})
	return X, y
}

func TestDecisionTreeRegressor_FullyGrownReproducesTargets(t *testing.T) {
	X, y := housesXY()
	dt := NewDecisionTreeRegressor(WithRandomState(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	pred, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	n, _ := X.Dims()
	for i := 0; i < n; i++ {
		if pred.At(i, 0) != y.At(i, 0) {
			t.Errorf("row %d: got %v, want %v", i, pred.At(i, 0), y.At(i, 0))
		}
	}
	if dt.GetNLeaves() != n {
		t.Errorf("leaves = %d, want %d", dt.GetNLeaves(), n)
	}
}

func TestDecisionTreeRegressor_KnownSplit(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{1, 1, 1, 5, 5, 5})

	dt := NewDecisionTreeRegressor(WithMaxDepth(1), WithRandomState(0))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	nodes := dt.Nodes()
	if nodes.Len() != 3 {
		t.Fatalf("nodes = %d, want 3", nodes.Len())
	}
	if nodes.Threshold[0] != 6.5 {
		t.Errorf("threshold = %v, want 6.5", nodes.Threshold[0])
	}
	if nodes.Impurity[0] != 4 {
		t.Errorf("root impurity = %v, want 4", nodes.Impurity[0])
	}

	pred, err := dt.Predict(mat.NewDense(2, 1, []float64{0, 100}))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if pred.At(0, 0) != 1 || pred.At(1, 0) != 5 {
		t.Errorf("predictions = %v, %v", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestDecisionTreeRegressor_SingleRow(t *testing.T) {
	X := mat.NewDense(1, 3, []float64{3, 2, 120})
	y := mat.NewDense(1, 1, []float64{1250000})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	pred, err := dt.Predict(mat.NewDense(2, 3, []float64{3, 2, 120, 9, 9, 9}))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	for i := 0; i < 2; i++ {
		if pred.At(i, 0) != 1250000 {
			t.Errorf("row %d: got %v", i, pred.At(i, 0))
		}
	}
	if dt.GetDepth() != 0 || dt.GetNLeaves() != 1 {
		t.Errorf("depth=%d leaves=%d", dt.GetDepth(), dt.GetNLeaves())
	}
}

func TestDecisionTreeRegressor_NotFitted(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	_, err := dt.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
}

func TestDecisionTreeRegressor_PredictShapeChecks(t *testing.T) {
	X, y := housesXY()
	names := []string{"Rooms", "Bathroom", "Landsize", "Lattitude", "Longtitude"}
	dt := NewDecisionTreeRegressor(WithRandomState(1))
	if err := dt.Fit(named{X, names}, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if diff := cmp.Diff(names, dt.FeatureNames()); diff != "" {
		t.Errorf("feature names (-want +got):\n%s", diff)
	}

	t.Run("wrong column count", func(t *testing.T) {
		_, err := dt.Predict(mat.NewDense(1, 4, []float64{1, 2, 3, 4}))
		var de *errors.DimensionError
		if !errors.As(err, &de) {
			t.Fatalf("expected DimensionError, got %v", err)
		}
	})

	t.Run("reordered columns", func(t *testing.T) {
		swapped := []string{"Bathroom", "Rooms", "Landsize", "Lattitude", "Longtitude"}
		_, err := dt.Predict(named{mat.DenseCopyOf(X), swapped})
		var ie *errors.InputShapeError
		if !errors.As(err, &ie) {
			t.Fatalf("expected InputShapeError, got %v", err)
		}
	})

	t.Run("unnamed input", func(t *testing.T) {
		if _, err := dt.Predict(X); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("NaN input", func(t *testing.T) {
		bad := mat.NewDense(1, 5, []float64{1, math.NaN(), 3, 4, 5})
		if _, err := dt.Predict(bad); err == nil {
			t.Error("expected error for NaN input")
		}
	})
}

func TestDecisionTreeRegressor_FitValidation(t *testing.T) {
	X, y := housesXY()
	tests := []struct {
		name string
		X, y mat.Matrix
		opts []Option
	}{
		{"row mismatch", X, mat.NewDense(3, 1, []float64{1, 2, 3}), nil},
		{"two target columns", X, mat.NewDense(8, 2, nil), nil},
		{"NaN target", mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{1, math.NaN()}), nil},
		{"negative depth", X, y, []Option{WithMaxDepth(-1)}},
		{"min_samples_split 1", X, y, []Option{WithMinSamplesSplit(1)}},
		{"min_samples_leaf 0", X, y, []Option{WithMinSamplesLeaf(0)}},
		{"too many features", X, y, []Option{WithMaxFeatures(6)}},
		{"one leaf", X, y, []Option{WithMaxLeafNodes(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := NewDecisionTreeRegressor(tt.opts...)
			if err := dt.Fit(tt.X, tt.y); err == nil {
				t.Error("expected error")
			}
			if dt.IsFitted() {
				t.Error("model should stay unfitted")
			}
		})
	}
}

func TestDecisionTreeRegressor_GrowthLimits(t *testing.T) {
	X, y := housesXY()
	tests := []struct {
		name       string
		opts       []Option
		maxDepth   int
		maxLeaves  int
		minInLeaf  int
	}{
		{"max_depth 2", []Option{WithMaxDepth(2)}, 2, 4, 1},
		{"max_leaf_nodes 3", []Option{WithMaxLeafNodes(3)}, 7, 3, 1},
		{"min_samples_leaf 3", []Option{WithMinSamplesLeaf(3)}, 7, 2, 3},
		{"min_samples_split 8", []Option{WithMinSamplesSplit(8)}, 1, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := NewDecisionTreeRegressor(append(tt.opts, WithRandomState(3))...)
			if err := dt.Fit(X, y); err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if dt.GetDepth() > tt.maxDepth {
				t.Errorf("depth = %d, want <= %d", dt.GetDepth(), tt.maxDepth)
			}
			if dt.GetNLeaves() > tt.maxLeaves {
				t.Errorf("leaves = %d, want <= %d", dt.GetNLeaves(), tt.maxLeaves)
			}
			nodes := dt.Nodes()
			for id := 0; id < nodes.Len(); id++ {
				if nodes.IsLeaf(id) && nodes.NSamples[id] < tt.minInLeaf {
					t.Errorf("leaf %d has %d samples", id, nodes.NSamples[id])
				}
			}
		})
	}
}

func TestDecisionTreeRegressor_MinImpurityDecrease(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{10, 10, 11, 11})

	// Variance 0.25 drops to 0 in one split; anything above that stops it.
	dt := NewDecisionTreeRegressor(WithMinImpurityDecrease(0.3), WithRandomState(0))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if dt.GetNLeaves() != 1 {
		t.Errorf("leaves = %d, want 1", dt.GetNLeaves())
	}

	dt = NewDecisionTreeRegressor(WithMinImpurityDecrease(0.25), WithRandomState(0))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if dt.GetNLeaves() != 2 {
		t.Errorf("leaves = %d, want 2", dt.GetNLeaves())
	}
}

func TestDecisionTreeRegressor_FeatureImportances(t *testing.T) {
	X := mat.NewDense(6, 3, []float64{
		1, 7, 0.5,
		2, 7, 0.1,
		3, 7, 0.9,
		10, 7, 0.3,
		11, 7, 0.7,
		12, 7, 0.2,
	})
	y := mat.NewDense(6, 1, []float64{1, 1, 1, 5, 5, 5})

	dt := NewDecisionTreeRegressor(WithRandomState(0))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	imp := dt.GetFeatureImportances()
	var sum float64
	for _, v := range imp {
		sum += v
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("importances sum to %v", sum)
	}
	if imp[1] != 0 {
		t.Errorf("constant feature importance = %v", imp[1])
	}
	if imp[0] != 1 {
		t.Errorf("separating feature importance = %v, want 1", imp[0])
	}
}

func TestDecisionTreeRegressor_Deterministic(t *testing.T) {
	X, y := housesXY()
	fit := func(seed uint64) mat.Matrix {
		dt := NewDecisionTreeRegressor(WithMaxFeatures(2), WithMaxDepth(3), WithRandomState(seed))
		if err := dt.Fit(X, y); err != nil {
			t.Fatalf("Fit: %v", err)
		}
		pred, err := dt.Predict(X)
		if err != nil {
			t.Fatalf("Predict: %v", err)
		}
		return pred
	}
	if !mat.Equal(fit(42), fit(42)) {
		t.Error("same seed produced different trees")
	}
}

func TestDecisionTreeRegressor_Score(t *testing.T) {
	X, y := housesXY()
	dt := NewDecisionTreeRegressor(WithRandomState(1))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score != 1 {
		t.Errorf("training R2 = %v, want 1", score)
	}
}

func TestDecisionTreeRegressor_Params(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	if err := dt.SetParams(map[string]interface{}{
		"max_depth":        4,
		"min_samples_leaf": float64(2),
		"random_state":     int64(7),
	}); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	p := dt.GetParams()
	if p["max_depth"] != 4 || p["min_samples_leaf"] != 2 || p["random_state"] != uint64(7) {
		t.Errorf("GetParams = %v", p)
	}

	for _, bad := range []map[string]interface{}{
		{"max_depth": 1.5},
		{"criterion": "absolute_error"},
		{"n_estimators": 10},
		{"random_state": -1},
	} {
		if err := dt.SetParams(bad); err == nil {
			t.Errorf("SetParams(%v) should fail", bad)
		}
	}
	if dt.Params().MaxDepth != 4 {
		t.Error("failed SetParams must not modify the model")
	}
}

func TestDecisionTreeRegressor_SaveLoad(t *testing.T) {
	X, y := housesXY()
	names := []string{"Rooms", "Bathroom", "Landsize", "Lattitude", "Longtitude"}
	for _, seed := range []uint64{5, 0} {
		dt := NewDecisionTreeRegressor(WithMaxDepth(3), WithRandomState(seed))
		if err := dt.Fit(named{X, names}, y); err != nil {
			t.Fatalf("seed %d: Fit: %v", seed, err)
		}
		path := filepath.Join(t.TempDir(), "tree.gob")
		if err := dt.Save(path); err != nil {
			t.Fatalf("seed %d: Save: %v", seed, err)
		}

		loaded := NewDecisionTreeRegressor()
		if err := loaded.Load(path); err != nil {
			t.Fatalf("seed %d: Load: %v", seed, err)
		}
		want, _ := dt.Predict(X)
		got, err := loaded.Predict(X)
		if err != nil {
			t.Fatalf("seed %d: Predict after Load: %v", seed, err)
		}
		if !mat.Equal(want, got) {
			t.Errorf("seed %d: loaded tree predicts differently", seed)
		}
		if diff := cmp.Diff(dt.FeatureNames(), loaded.FeatureNames()); diff != "" {
			t.Errorf("seed %d: feature names (-want +got):\n%s", seed, diff)
		}
		if loaded.GetDepth() != dt.GetDepth() {
			t.Errorf("seed %d: depth = %d, want %d", seed, loaded.GetDepth(), dt.GetDepth())
		}
		if rs := loaded.GetParams()["random_state"]; rs != seed {
			t.Errorf("seed %d: random_state after Load = %v", seed, rs)
		}
		if loaded.String() != dt.String() {
			t.Errorf("seed %d: String() = %q, want %q", seed, loaded.String(), dt.String())
		}
	}
}
