package ensemble

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/sklearn/tree"
)

// createBenchmarkData はベンチマーク用の住宅価格風データを生成する
func createBenchmarkData(rows, cols int) (*mat.Dense, *mat.Dense) {
	// シードを固定して再現性を確保
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		price := 500000.0
		for j := 0; j < cols; j++ {
			v := rng.Float64() * 10
			X.Set(i, j, v)
			price += float64(j+1) * 20000 * v
		}
		y.Set(i, 0, price+rng.NormFloat64()*50000)
	}
	return X, y
}

// BenchmarkDecisionTreeFit は単一の木の学習時間を計測する
func BenchmarkDecisionTreeFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Small_1000x5", 1000, 5},
		{"Melbourne_6196x5", 6196, 5},
		{"Large_20000x10", 20000, 10},
	}
	for _, size := range sizes {
		X, y := createBenchmarkData(size.rows, size.cols)
		b.Run(size.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				model := tree.NewDecisionTreeRegressor(tree.WithRandomState(1))
				if err := model.Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRandomForestFit は並列度ごとのフォレスト学習時間を計測する
func BenchmarkRandomForestFit(b *testing.B) {
	X, y := createBenchmarkData(4647, 5)
	for _, jobs := range []int{1, 4, 0} {
		b.Run("jobs_"+jobName(jobs), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				model := NewRandomForestRegressor(WithNEstimators(20), WithNJobs(jobs), WithRandomState(1))
				if err := model.Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRandomForestPredict は学習済みフォレストの予測時間を計測する
func BenchmarkRandomForestPredict(b *testing.B) {
	X, y := createBenchmarkData(4647, 5)
	model := NewRandomForestRegressor(WithNEstimators(50), WithRandomState(1))
	if err := model.Fit(X, y); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := model.Predict(X); err != nil {
			b.Fatal(err)
		}
	}
}

func jobName(jobs int) string {
	switch jobs {
	case 0:
		return "all"
	case 1:
		return "1"
	default:
		return "4"
	}
}
