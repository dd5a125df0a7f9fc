package ensemble

import (
	"bytes"
	"encoding/gob"

	"github.com/YuminosukeSato/homeprice/core/model"
	"github.com/YuminosukeSato/homeprice/pkg/errors"
	"github.com/YuminosukeSato/homeprice/sklearn/tree"
)

// GetParams returns the hyperparameters using scikit-learn names.
func (f *RandomForestRegressor) GetParams() map[string]interface{} {
	m := f.params.Tree.ToMap()
	m["n_estimators"] = f.params.NEstimators
	m["bootstrap"] = f.params.Bootstrap
	m["n_jobs"] = f.params.NJobs
	return m
}

// SetParams updates hyperparameters by scikit-learn name.
func (f *RandomForestRegressor) SetParams(params map[string]interface{}) error {
	p := f.params
	treeParams := make(map[string]interface{}, len(params))
	for key, value := range params {
		var err error
		switch key {
		case "n_estimators":
			p.NEstimators, err = tree.IntParam(key, value)
		case "n_jobs":
			p.NJobs, err = tree.IntParam(key, value)
		case "bootstrap":
			b, ok := value.(bool)
			if !ok {
				err = errors.NewValidationError(key, "must be a bool", value)
			}
			p.Bootstrap = b
		default:
			treeParams[key] = value
		}
		if err != nil {
			return err
		}
	}
	if err := p.Tree.FromMap(treeParams); err != nil {
		return err
	}
	f.params = p
	return nil
}

type snapshot struct {
	Params      Params
	State       model.ModelState
	Trees       []*tree.DecisionTreeRegressor
	Importances []float64
	Seed        uint64
	// gob drops a pointer to zero, so random_state travels as a value
	RandomState    uint64
	HasRandomState bool
}

// GobEncode implements gob.GobEncoder.
func (f *RandomForestRegressor) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	s := snapshot{
		Params:      f.params,
		State:       f.state.GetState(),
		Trees:       f.trees,
		Importances: f.importances,
		Seed:        f.seed,
	}
	if rs := f.params.Tree.RandomState; rs != nil {
		s.RandomState, s.HasRandomState = *rs, true
	}
	err := gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (f *RandomForestRegressor) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if f.state == nil {
		f.state = model.NewStateManager()
	}
	f.params = s.Params
	f.params.Tree.RandomState = nil
	if s.HasRandomState {
		seed := s.RandomState
		f.params.Tree.RandomState = &seed
	}
	f.state.SetState(s.State)
	f.trees = s.Trees
	f.importances = s.Importances
	f.seed = s.Seed
	return nil
}

// Save writes the fitted forest to path with gob.
func (f *RandomForestRegressor) Save(path string) error {
	return model.SaveModel(f, path)
}

// Load replaces the forest with the one stored at path.
func (f *RandomForestRegressor) Load(path string) error {
	return model.LoadModel(f, path)
}
