package classifier

import (
	"errors"
	"fmt"
	"math"

	"phishguard/features"
)

// Class labels as they appear in the training data.
const (
	ClassPhishing   = -1
	ClassLegitimate = 1
)

// ErrInvalidModel reports a model artifact or object that cannot serve
// predictions. It is a configuration error: the service must not start.
var ErrInvalidModel = errors.New("invalid model")

// Model is the read-only contract the web handler relies on.
type Model interface {
	// Predict returns the predicted class label.
	Predict(v features.Vector) int
	// PredictProba returns (phishing, legitimate) probabilities.
	PredictProba(v features.Vector) (float64, float64)
}

type predictor interface {
	Predict(v features.Vector) int
}

type probabilityPredictor interface {
	PredictProba(v features.Vector) (float64, float64)
}

// Validate checks that obj exposes both prediction operations.
func Validate(obj any) (Model, error) {
	if obj == nil {
		return nil, fmt.Errorf("%w: no model loaded", ErrInvalidModel)
	}
	if _, ok := obj.(predictor); !ok {
		return nil, fmt.Errorf("%w: %T has no Predict operation", ErrInvalidModel, obj)
	}
	if _, ok := obj.(probabilityPredictor); !ok {
		return nil, fmt.Errorf("%w: %T has no PredictProba operation", ErrInvalidModel, obj)
	}
	return obj.(Model), nil
}

// Verdict is the outcome for one URL.
type Verdict struct {
	Label      int
	Phishing   float64
	Legitimate float64
}

// IsPhishing reports whether the predicted label is the phishing class.
func (v Verdict) IsPhishing() bool {
	return v.Label == ClassPhishing
}

// Classify runs m on vec and checks the returned probabilities.
func Classify(m Model, vec features.Vector) (Verdict, error) {
	p0, p1 := m.PredictProba(vec)
	if math.IsNaN(p0) || math.IsNaN(p1) || p0 < 0 || p1 < 0 || math.Abs(p0+p1-1) > 1e-6 {
		return Verdict{}, fmt.Errorf("model returned invalid probabilities (%v, %v)", p0, p1)
	}
	return Verdict{Label: m.Predict(vec), Phishing: p0, Legitimate: p1}, nil
}
