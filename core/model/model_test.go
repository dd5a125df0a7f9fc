package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

func TestStateManager_RequireFitted(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("DecisionTreeRegressor", "Predict")
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFittedError, got %v", err)
	}
	if nf.Method != "Predict" {
		t.Errorf("method = %q", nf.Method)
	}

	s.SetFitted()
	if err := s.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		t.Errorf("unexpected error after SetFitted: %v", err)
	}
	s.Reset()
	if s.IsFitted() {
		t.Error("Reset should clear fitted state")
	}
}

func TestStateManager_CheckFeatures(t *testing.T) {
	s := NewStateManager()
	s.SetDimensions(3, 10)
	s.SetFeatureNames([]string{"Rooms", "Bathroom", "Landsize"})

	tests := []struct {
		name    string
		nCols   int
		names   []string
		wantDim bool
		wantCol bool
	}{
		{"same names", 3, []string{"Rooms", "Bathroom", "Landsize"}, false, false},
		{"unnamed input", 3, nil, false, false},
		{"wrong count", 2, []string{"Rooms", "Bathroom"}, true, false},
		{"reordered", 3, []string{"Bathroom", "Rooms", "Landsize"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CheckFeatures("Predict", tt.nCols, tt.names)
			var dim *errors.DimensionError
			var shape *errors.InputShapeError
			if got := errors.As(err, &dim); got != tt.wantDim {
				t.Errorf("DimensionError = %v, want %v (err=%v)", got, tt.wantDim, err)
			}
			if got := errors.As(err, &shape); got != tt.wantCol {
				t.Errorf("InputShapeError = %v, want %v (err=%v)", got, tt.wantCol, err)
			}
			if tt.wantCol && shape.Feature != "Bathroom" {
				t.Errorf("first mismatching feature = %q", shape.Feature)
			}
		})
	}
}

func TestStateManager_StateRoundTrip(t *testing.T) {
	s := NewStateManager()
	s.SetFitted()
	s.SetDimensions(2, 5)
	s.SetFeatureNames([]string{"a", "b"})

	other := NewStateManager()
	other.SetState(s.GetState())

	nf, ns := other.GetDimensions()
	if !other.IsFitted() || nf != 2 || ns != 5 {
		t.Errorf("state not restored: %+v", other.GetState())
	}
	names := other.GetFeatureNames()
	if len(names) != 2 || names[1] != "b" {
		t.Errorf("feature names = %v", names)
	}
}

type persisted struct {
	Name  string
	State *StateManager
	Leaf  []float64
}

func TestSaveLoadModel(t *testing.T) {
	in := persisted{Name: "tree", State: NewStateManager(), Leaf: []float64{1.5, 2.5}}
	in.State.SetFitted()
	in.State.SetFeatureNames([]string{"Rooms"})

	path := filepath.Join(t.TempDir(), "m.gob")
	if err := SaveModel(&in, path); err != nil {
		t.Fatal(err)
	}
	var out persisted
	if err := LoadModel(&out, path); err != nil {
		t.Fatal(err)
	}
	if out.Name != "tree" || !out.State.IsFitted() || out.Leaf[1] != 2.5 {
		t.Errorf("loaded = %+v", out)
	}

	if err := LoadModel(&out, filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error for missing file")
	}
	if err := LoadModelFromReader(&out, bytes.NewBufferString("garbage")); err == nil {
		t.Error("expected decode error")
	}
}

func TestModelCard(t *testing.T) {
	card := &ModelCard{ModelType: "RandomForestRegressor", Target: "Price"}
	var ve *errors.ValidationError
	if err := card.Validate(); !errors.As(err, &ve) || ve.ParamName != "features" {
		t.Fatalf("expected features validation error, got %v", err)
	}

	card.Features = []string{"Rooms", "Bathroom"}
	card.Metrics = map[string]float64{"mae": 191669.75}
	path := filepath.Join(t.TempDir(), "card.json")
	if err := card.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	data, err := card.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	var back ModelCard
	if err := back.FromJSON(data); err != nil {
		t.Fatal(err)
	}
	if back.Metrics["mae"] != 191669.75 || back.Features[1] != "Bathroom" {
		t.Errorf("round trip = %+v", back)
	}
}
