package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

func TestMAE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(3, []float64{1035000, 1465000, 1600000}),
			yPred:     mat.NewVecDense(3, []float64{1035000, 1465000, 1600000}),
			want:      0,
			tolerance: 1e-10,
		},
		{
			name:      "mixed signs",
			yTrue:     mat.NewVecDense(4, []float64{1, 2, 3, 4}),
			yPred:     mat.NewVecDense(4, []float64{2, 1, 5, 4}),
			want:      1.0, // (1 + 1 + 2 + 0) / 4
			tolerance: 1e-10,
		},
		{
			name:      "house prices",
			yTrue:     mat.NewVecDense(2, []float64{850000, 1480000}),
			yPred:     mat.NewVecDense(2, []float64{900000, 1400000}),
			want:      65000, // (50000 + 80000) / 2
			tolerance: 1e-6,
		},
		{
			name:    "dimension mismatch",
			yTrue:   mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred:   mat.NewVecDense(2, []float64{1, 2}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MAE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("MAE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("MAE() = %v, want %v (tolerance: %v)", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestMAE_Properties(t *testing.T) {
	a := mat.NewVecDense(5, []float64{1480000, 1035000, 1465000, 850000, 1600000})
	b := mat.NewVecDense(5, []float64{1400000, 1100000, 1465000, 910000, 1500000})

	ab, err := MAE(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := MAE(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if ab != ba {
		t.Errorf("MAE is not symmetric: %v vs %v", ab, ba)
	}

	aa, err := MAE(a, a)
	if err != nil {
		t.Fatal(err)
	}
	if aa != 0 {
		t.Errorf("MAE(a, a) = %v, want 0", aa)
	}

	before := mat.VecDenseCopyOf(a)
	_, _ = MAE(a, b)
	if !mat.Equal(before, a) {
		t.Error("MAE must not modify its inputs")
	}
}

func TestMAE_DimensionErrorType(t *testing.T) {
	_, err := MAE(mat.NewVecDense(3, nil), mat.NewVecDense(2, nil))
	var dim *errors.DimensionError
	if !errors.As(err, &dim) {
		t.Fatalf("expected DimensionError, got %T: %v", err, err)
	}
	if dim.Expected != 3 || dim.Got != 2 || dim.Axis != 0 {
		t.Errorf("unexpected dimension error: %+v", dim)
	}
}

func TestMatrixVariants(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	mae, err := MAEMatrix(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mae-0.5) > 1e-12 {
		t.Errorf("MAEMatrix() = %v, want 0.5", mae)
	}

	mse, err := MSEMatrix(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mse-0.25) > 1e-12 {
		t.Errorf("MSEMatrix() = %v, want 0.25", mse)
	}

	rmse, err := RMSEMatrix(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rmse-0.5) > 1e-12 {
		t.Errorf("RMSEMatrix() = %v, want 0.5", rmse)
	}

	r2, err := R2ScoreMatrix(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	// TSS = 5, RSS = 1
	if math.Abs(r2-0.8) > 1e-12 {
		t.Errorf("R2ScoreMatrix() = %v, want 0.8", r2)
	}
}

func TestMatrixVariants_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yTrue mat.Matrix
		yPred mat.Matrix
	}{
		{"row mismatch", mat.NewDense(3, 1, nil), mat.NewDense(2, 1, nil)},
		{"not a column", mat.NewDense(2, 2, nil), mat.NewDense(2, 2, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MAEMatrix(tt.yTrue, tt.yPred); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMSEAndRMSE(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{10, 20, 30})
	yPred := mat.NewVecDense(3, []float64{12, 18, 33})

	mse, err := MSE(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(mse-17.0/3.0) > 1e-10 {
		t.Errorf("MSE() = %v, want %v", mse, 17.0/3.0)
	}
	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rmse-math.Sqrt(17.0/3.0)) > 1e-10 {
		t.Errorf("RMSE() = %v", rmse)
	}
}

func TestR2Score(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect",
			yTrue: mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred: mat.NewVecDense(3, []float64{1, 2, 3}),
			want:  1,
		},
		{
			name:  "mean predictor",
			yTrue: mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred: mat.NewVecDense(3, []float64{2, 2, 2}),
			want:  0,
		},
		{
			name:    "constant target",
			yTrue:   mat.NewVecDense(3, []float64{5, 5, 5}),
			yPred:   mat.NewVecDense(3, []float64{4, 5, 6}),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := R2Score(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("R2Score() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("R2Score() = %v, want %v", got, tt.want)
			}
		})
	}
}
