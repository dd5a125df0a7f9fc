package tree

import (
	"bytes"
	"encoding/gob"

	"github.com/YuminosukeSato/homeprice/core/model"
)

// snapshot is the gob form of a DecisionTreeRegressor.
type snapshot struct {
	Params      Params
	State       model.ModelState
	Nodes       Nodes
	Importances []float64
	Depth       int
	Leaves      int
	Seed        uint64
	// gob drops a pointer to zero, so random_state travels as a value
	RandomState    uint64
	HasRandomState bool
}

func seedValue(p *uint64) (uint64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func seedPointer(v uint64, ok bool) *uint64 {
	if !ok {
		return nil
	}
	return &v
}

// GobEncode implements gob.GobEncoder.
func (t *DecisionTreeRegressor) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	s := snapshot{
		Params:      t.params,
		State:       t.state.GetState(),
		Nodes:       t.nodes,
		Importances: t.importances,
		Depth:       t.depth,
		Leaves:      t.nLeaves,
		Seed:        t.seed,
	}
	s.RandomState, s.HasRandomState = seedValue(t.params.RandomState)
	err := gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (t *DecisionTreeRegressor) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if t.state == nil {
		t.state = model.NewStateManager()
	}
	t.params = s.Params
	t.params.RandomState = seedPointer(s.RandomState, s.HasRandomState)
	t.state.SetState(s.State)
	t.nodes = s.Nodes
	t.importances = s.Importances
	t.depth = s.Depth
	t.nLeaves = s.Leaves
	t.seed = s.Seed
	return nil
}

// Save writes the fitted tree to path with gob.
func (t *DecisionTreeRegressor) Save(path string) error {
	return model.SaveModel(t, path)
}

// Load replaces the tree with the one stored at path.
func (t *DecisionTreeRegressor) Load(path string) error {
	return model.LoadModel(t, path)
}
