package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"
)

// ErrModelMissing is returned when the intent artifact does not exist.
var ErrModelMissing = errors.New("intent artifact missing")

const (
	minTokenLen = 2
	maxNGram    = 2
)

// Classifier maps free text to an intent label and its confidence.
type Classifier interface {
	Classify(text string) (label string, confidence float64, err error)
}

// Loader produces a classifier. It is called at most once per Intent.
type Loader interface {
	Load() (Classifier, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func() (Classifier, error)

// Load calls f.
func (f LoaderFunc) Load() (Classifier, error) { return f() }

// Class is one label of a multinomial naive Bayes model. Log likelihoods are
// keyed by token or by space-joined bigram.
type Class struct {
	Label               string             `json:"label"`
	LogPrior            float64            `json:"log_prior"`
	LogLikelihood       map[string]float64 `json:"log_likelihood"`
	UnseenLogLikelihood float64            `json:"unseen_log_likelihood"`
}

// NaiveBayes is the JSON intent artifact. Terms outside the union of all
// class vocabularies are ignored.
type NaiveBayes struct {
	Version string  `json:"version"`
	NGram   int     `json:"ngram"`
	Classes []Class `json:"classes"`

	vocabulary map[string]struct{}
}

// ParseModel decodes and validates an intent artifact.
func ParseModel(r io.Reader) (*NaiveBayes, error) {
	var m NaiveBayes
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode intent artifact: %w", err)
	}
	if m.NGram == 0 {
		m.NGram = 1
	}
	if m.NGram < 1 || m.NGram > maxNGram {
		return nil, fmt.Errorf("intent artifact ngram %d not in 1..%d", m.NGram, maxNGram)
	}
	if len(m.Classes) < 2 {
		return nil, errors.New("intent artifact needs at least two classes")
	}

	seen := make(map[string]struct{}, len(m.Classes))
	m.vocabulary = make(map[string]struct{})
	for _, c := range m.Classes {
		if strings.TrimSpace(c.Label) == "" {
			return nil, errors.New("intent artifact has an empty label")
		}
		if _, dup := seen[c.Label]; dup {
			return nil, fmt.Errorf("intent artifact repeats label %q", c.Label)
		}
		seen[c.Label] = struct{}{}
		if !finite(c.LogPrior) || !finite(c.UnseenLogLikelihood) {
			return nil, fmt.Errorf("intent artifact has non-finite parameters for %q", c.Label)
		}
		for term, v := range c.LogLikelihood {
			if !finite(v) {
				return nil, fmt.Errorf("intent artifact has non-finite likelihood for %q/%q", c.Label, term)
			}
			m.vocabulary[term] = struct{}{}
		}
	}
	sort.Slice(m.Classes, func(i, j int) bool { return m.Classes[i].Label < m.Classes[j].Label })
	return &m, nil
}

// Classify implements Classifier. Ties go to the label that sorts first.
func (m *NaiveBayes) Classify(text string) (string, float64, error) {
	terms := Terms(text, m.NGram)

	scores := make([]float64, len(m.Classes))
	best := 0
	for i, c := range m.Classes {
		s := c.LogPrior
		for _, t := range terms {
			if _, ok := m.vocabulary[t]; !ok {
				continue
			}
			if v, ok := c.LogLikelihood[t]; ok {
				s += v
			} else {
				s += c.UnseenLogLikelihood
			}
		}
		scores[i] = s
		if s > scores[best] {
			best = i
		}
	}

	var total float64
	for _, s := range scores {
		total += math.Exp(s - scores[best])
	}
	confidence := 1 / total
	if math.IsNaN(confidence) {
		return "", 0, errors.New("intent classifier produced NaN")
	}
	return m.Classes[best].Label, math.Round(confidence*1000) / 1000, nil
}

// Terms lowercases text, splits it on anything that is not a letter or a
// digit, drops single-character tokens and appends bigrams when ngram is 2.
func Terms(text string, ngram int) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	terms := append([]string(nil), tokens...)
	if ngram >= 2 {
		for i := 0; i+1 < len(tokens); i++ {
			terms = append(terms, tokens[i]+" "+tokens[i+1])
		}
	}
	return terms
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FileLoader loads a NaiveBayes model from disk.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load() (Classifier, error) {
	if l.Path == "" {
		return nil, ErrModelMissing
	}
	f, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelMissing, l.Path)
		}
		return nil, fmt.Errorf("open intent artifact: %w", err)
	}
	defer f.Close()
	return ParseModel(f)
}
