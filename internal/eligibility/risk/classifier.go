package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"sort"

	"saral/internal/eligibility/models"
)

// ErrModelMissing is returned when the classifier artifact does not exist.
var ErrModelMissing = errors.New("classifier artifact missing")

// Feature names understood by the logistic model.
const (
	FeatureAge            = "age"
	FeatureGenderFemale   = "gender_f"
	FeatureGenderMale     = "gender_m"
	FeatureGenderOther    = "gender_o"
	FeatureIncomeLakh     = "income_lakh"
	FeatureEducationYears = "education_years"
	FeatureRural          = "rural"
	FeatureMarginalized   = "marginalized"
)

// MaxTopReasons caps the explanation list.
const MaxTopReasons = 5

// Features is the numeric vector handed to a classifier.
type Features map[string]float64

// FeaturesOf encodes a profile. Unknown income is encoded as zero.
func FeaturesOf(p models.Profile) Features {
	annual, status := p.AnnualIncome()
	if status != models.IncomeKnown {
		annual = 0
	}
	f := Features{
		FeatureAge:            float64(p.Age),
		FeatureGenderFemale:   0,
		FeatureGenderMale:     0,
		FeatureGenderOther:    0,
		FeatureIncomeLakh:     float64(annual) / 100000,
		FeatureEducationYears: float64(p.EducationYears),
		FeatureRural:          boolFeature(p.Rural),
		FeatureMarginalized:   boolFeature(p.Marginalized),
	}
	switch p.Gender {
	case models.GenderFemale:
		f[FeatureGenderFemale] = 1
	case models.GenderMale:
		f[FeatureGenderMale] = 1
	default:
		f[FeatureGenderOther] = 1
	}
	return f
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Classifier returns the probability of a positive eligibility signal and
// the features that moved it most.
type Classifier interface {
	Predict(f Features) (probability float64, topReasons []string, err error)
}

// Loader produces a classifier. It is called at most once per Scorer.
type Loader interface {
	Load() (Classifier, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func() (Classifier, error)

// Load calls f.
func (f LoaderFunc) Load() (Classifier, error) { return f() }

// LogisticModel is the JSON classifier artifact.
type LogisticModel struct {
	Version   string             `json:"version"`
	Intercept float64            `json:"intercept"`
	Weights   map[string]float64 `json:"weights"`
}

// ParseModel decodes and validates a model artifact.
func ParseModel(r io.Reader) (*LogisticModel, error) {
	var m LogisticModel
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode classifier artifact: %w", err)
	}
	if len(m.Weights) == 0 {
		return nil, errors.New("classifier artifact has no weights")
	}
	known := FeaturesOf(models.Profile{})
	for name, w := range m.Weights {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("classifier artifact has unknown feature %q", name)
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("classifier artifact has non-finite weight for %q", name)
		}
	}
	return &m, nil
}

// Predict implements Classifier.
func (m *LogisticModel) Predict(f Features) (float64, []string, error) {
	type contribution struct {
		name  string
		value float64
	}

	// Summed in name order so the float result does not depend on map iteration.
	z := m.Intercept
	contribs := make([]contribution, 0, len(m.Weights))
	for _, name := range slices.Sorted(maps.Keys(m.Weights)) {
		v := m.Weights[name] * f[name]
		z += v
		if v != 0 {
			contribs = append(contribs, contribution{name: name, value: v})
		}
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return 0, nil, errors.New("classifier produced NaN")
	}

	sort.Slice(contribs, func(i, j int) bool {
		ai, aj := math.Abs(contribs[i].value), math.Abs(contribs[j].value)
		if ai != aj {
			return ai > aj
		}
		return contribs[i].name < contribs[j].name
	})
	n := min(len(contribs), MaxTopReasons)
	reasons := make([]string, n)
	for i := range n {
		reasons[i] = contribs[i].name
	}
	return p, reasons, nil
}

// FileLoader loads a LogisticModel from disk.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load() (Classifier, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelMissing, l.Path)
		}
		return nil, fmt.Errorf("open classifier artifact: %w", err)
	}
	defer f.Close()
	return ParseModel(f)
}
