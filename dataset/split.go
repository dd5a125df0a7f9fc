package dataset

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// Split holds the result of TrainTestSplit.
type Split struct {
	TrainX *FeatureMatrix
	ValX   *FeatureMatrix
	TrainY *TargetVector
	ValY   *TargetVector
}

// TrainTestSplit shuffles the rows with a seeded permutation and holds out
// ceil(testSize*n) of them. The first rows of the permutation go to the
// validation set and the rest to training, both in permutation order.
func TrainTestSplit(X *FeatureMatrix, y *TargetVector, testSize float64, seed uint64) (*Split, error) {
	n, _ := X.Dims()
	if y.Len() != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, y.Len(), 0)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, errors.NewValueError("TrainTestSplit",
			"with the given test_size one of the splits would be empty; use more rows or another test_size")
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]

	s := &Split{}
	var err error
	if s.TrainX, err = X.Rows(trainIdx); err != nil {
		return nil, err
	}
	if s.ValX, err = X.Rows(testIdx); err != nil {
		return nil, err
	}
	if s.TrainY, err = y.Rows(trainIdx); err != nil {
		return nil, err
	}
	if s.ValY, err = y.Rows(testIdx); err != nil {
		return nil, err
	}
	return s, nil
}
