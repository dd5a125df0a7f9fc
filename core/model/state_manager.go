package model

import (
	"sync"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Exported fields are kept for gob encoding.
type StateManager struct {
	Fitted bool
	mu     sync.RWMutex

	NFeatures    int
	NSamples     int
	FeatureNames []string
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the model as fitted.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
	s.FeatureNames = nil
}

// SetDimensions sets the number of features and samples seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// SetFeatureNames records the column names seen during fitting. nil means
// the training matrix carried no names.
func (s *StateManager) SetFeatureNames(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if names == nil {
		s.FeatureNames = nil
		return
	}
	s.FeatureNames = append([]string(nil), names...)
}

// GetFeatureNames returns a copy of the names seen during fitting.
func (s *StateManager) GetFeatureNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FeatureNames == nil {
		return nil
	}
	return append([]string(nil), s.FeatureNames...)
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// CheckFeatures validates a predict-time input against what Fit saw: the
// column count must match, and when both sides carry names they must be
// identical and in the same order.
func (s *StateManager) CheckFeatures(op string, nCols int, names []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if nCols != s.NFeatures {
		return errors.NewDimensionError(op, s.NFeatures, nCols, 1)
	}
	if s.FeatureNames == nil || names == nil {
		return nil
	}
	if len(names) != len(s.FeatureNames) {
		return errors.NewInputShapeError("prediction", s.FeatureNames, names, "")
	}
	for i := range s.FeatureNames {
		if names[i] != s.FeatureNames[i] {
			return errors.NewInputShapeError("prediction", s.FeatureNames, names, names[i])
		}
	}
	return nil
}

// ModelState represents the complete state of a model.
type ModelState struct {
	Fitted       bool     `json:"fitted"`
	NFeatures    int      `json:"n_features,omitempty"`
	NSamples     int      `json:"n_samples,omitempty"`
	FeatureNames []string `json:"feature_names,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ModelState{
		Fitted:       s.Fitted,
		NFeatures:    s.NFeatures,
		NSamples:     s.NSamples,
		FeatureNames: append([]string(nil), s.FeatureNames...),
	}
}

// SetState sets the state from a ModelState struct.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = state.Fitted
	s.NFeatures = state.NFeatures
	s.NSamples = state.NSamples
	s.FeatureNames = append([]string(nil), state.FeatureNames...)
	if len(s.FeatureNames) == 0 {
		s.FeatureNames = nil
	}
}
