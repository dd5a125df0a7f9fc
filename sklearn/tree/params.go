package tree

import (
	"fmt"

	"github.com/YuminosukeSato/homeprice/pkg/errors"
)

// GetParams returns the hyperparameters using scikit-learn names.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return t.params.ToMap()
}

// SetParams updates hyperparameters by scikit-learn name. The tree must be
// refitted for the change to take effect.
func (t *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	p := t.params
	if err := p.FromMap(params); err != nil {
		return err
	}
	t.params = p
	return nil
}

// ToMap renders the parameters with scikit-learn names. An unset
// random_state is reported as nil.
func (p Params) ToMap() map[string]interface{} {
	var rs interface{}
	if p.RandomState != nil {
		rs = *p.RandomState
	}
	return map[string]interface{}{
		"criterion":             "squared_error",
		"max_depth":             p.MaxDepth,
		"min_samples_split":     p.MinSamplesSplit,
		"min_samples_leaf":      p.MinSamplesLeaf,
		"max_features":          p.MaxFeatures,
		"max_leaf_nodes":        p.MaxLeafNodes,
		"min_impurity_decrease": p.MinImpurityDecrease,
		"random_state":          rs,
	}
}

// FromMap applies the recognised keys of m. Unknown keys are rejected.
func (p *Params) FromMap(m map[string]interface{}) error {
	for key, value := range m {
		var err error
		switch key {
		case "criterion":
			if s, ok := value.(string); !ok || s != "squared_error" {
				err = errors.NewValidationError(key, "only \"squared_error\" is supported", value)
			}
		case "max_depth":
			p.MaxDepth, err = IntParam(key, value)
		case "min_samples_split":
			p.MinSamplesSplit, err = IntParam(key, value)
		case "min_samples_leaf":
			p.MinSamplesLeaf, err = IntParam(key, value)
		case "max_features":
			p.MaxFeatures, err = IntParam(key, value)
		case "max_leaf_nodes":
			p.MaxLeafNodes, err = IntParam(key, value)
		case "min_impurity_decrease":
			p.MinImpurityDecrease, err = FloatParam(key, value)
		case "random_state":
			if value == nil {
				p.RandomState = nil
				continue
			}
			var seed int
			seed, err = IntParam(key, value)
			if err == nil && seed < 0 {
				err = errors.NewValidationError(key, "must be >= 0", value)
			}
			if err == nil {
				s := uint64(seed)
				p.RandomState = &s
			}
		default:
			err = errors.NewValidationError(key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// IntParam converts the numeric types found in parameter maps (including
// YAML and JSON decodes) to int.
func IntParam(key string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, errors.NewValidationError(key, "must be an integer", v)
		}
		return int(x), nil
	default:
		return 0, errors.NewValidationError(key, fmt.Sprintf("unsupported type %T", v), v)
	}
}

// FloatParam converts a numeric parameter value to float64.
func FloatParam(key string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, errors.NewValidationError(key, fmt.Sprintf("unsupported type %T", v), v)
	}
}
