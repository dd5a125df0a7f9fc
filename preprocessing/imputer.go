package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/homeprice/core/model"
	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// Imputation strategies.
const (
	StrategyMean   = "mean"
	StrategyMedian = "median"
)

// SimpleImputer はscikit-learn互換の欠損値補完器
// NaN を列ごとの平均値または中央値で置き換える
type SimpleImputer struct {
	state *model.StateManager

	// Strategy は補完方法 ("mean" または "median")
	Strategy string

	// Statistics は各特徴量の補完値
	Statistics []float64
}

// NewSimpleImputer は新しいSimpleImputerを作成する
//
// 使用例:
//
//	imp, err := preprocessing.NewSimpleImputer(preprocessing.StrategyMedian)
//	trainFilled, err := imp.FitTransform(trainX)
//	valFilled, err := imp.Transform(valX)
func NewSimpleImputer(strategy string) (*SimpleImputer, error) {
	switch strategy {
	case StrategyMean, StrategyMedian:
	default:
		return nil, errors.NewValidationError("strategy", "must be \"mean\" or \"median\"", strategy)
	}
	return &SimpleImputer{state: model.NewStateManager(), Strategy: strategy}, nil
}

// Fit は訓練データの非欠損値から列ごとの補完値を計算する。
// 全ての値が欠損している列がある場合はエラーを返す。
func (s *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	stats := make([]float64, c)
	col := make([]float64, 0, r)
	for j := 0; j < c; j++ {
		col = col[:0]
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				col = append(col, v)
			}
		}
		if len(col) == 0 {
			return errors.NewValueError("SimpleImputer.Fit", fmt.Sprintf("column %d has no observed values", j))
		}
		if s.Strategy == StrategyMedian {
			stats[j] = median(col)
		} else {
			stats[j] = stat.Mean(col, nil)
		}
	}

	s.Statistics = stats
	s.state.SetDimensions(c, r)
	s.state.SetFeatureNames(model.ColumnNamesOf(X))
	s.state.SetFitted()
	return nil
}

// Transform は NaN を学習済みの補完値で置き換えた新しい行列を返す
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("SimpleImputer", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.CheckFeatures("SimpleImputer.Transform", c, model.ColumnNamesOf(X)); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = s.Statistics[j]
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// GetParams は補完器のパラメータを取得する
func (s *SimpleImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{"strategy": s.Strategy}
}

// String は補完器の文字列表現を返す
func (s *SimpleImputer) String() string {
	return fmt.Sprintf("SimpleImputer(strategy=%q)", s.Strategy)
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
