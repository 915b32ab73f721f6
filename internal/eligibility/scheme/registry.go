package scheme

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed schemes.yaml
var defaultConfig []byte

// ErrInvalidConfig wraps every load-time validation failure.
var ErrInvalidConfig = errors.New("invalid scheme config")

type file struct {
	Version string   `yaml:"version"`
	Schemes []Config `yaml:"schemes"`
}

// Registry maps scheme codes to their configuration. It is immutable once
// loaded and safe for concurrent use.
type Registry struct {
	version string
	schemes map[string]Config
	codes   []string
}

// Default loads the embedded pilot configuration.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultConfig))
}

// LoadFile loads a YAML scheme file, falling back to the embedded default
// when path is empty.
func LoadFile(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scheme config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses and validates a YAML scheme document.
func Load(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode scheme config: %w", err)
	}
	return New(doc.Version, doc.Schemes...)
}

// New validates and normalizes the given configs into a registry.
func New(version string, configs ...Config) (*Registry, error) {
	reg := &Registry{
		version: version,
		schemes: make(map[string]Config, len(configs)),
	}
	for _, cfg := range configs {
		normalized, err := normalize(cfg)
		if err != nil {
			return nil, err
		}
		if _, dup := reg.schemes[normalized.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate scheme code %q", ErrInvalidConfig, normalized.Code)
		}
		reg.schemes[normalized.Code] = normalized
		reg.codes = append(reg.codes, normalized.Code)
	}
	sort.Strings(reg.codes)
	return reg, nil
}

// Get returns a copy of the scheme config for code.
func (r *Registry) Get(code string) (Config, bool) {
	cfg, ok := r.schemes[code]
	if !ok {
		return Config{}, false
	}
	return cfg.clone(), true
}

// Has reports whether code is a configured scheme.
func (r *Registry) Has(code string) bool {
	_, ok := r.schemes[code]
	return ok
}

// Codes lists configured scheme codes in sorted order.
func (r *Registry) Codes() []string {
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// Version is the ruleset version declared by the config document.
func (r *Registry) Version() string {
	return r.version
}

func normalize(cfg Config) (Config, error) {
	cfg.Code = strings.TrimSpace(cfg.Code)
	if cfg.Code == "" {
		return Config{}, fmt.Errorf("%w: scheme code is required", ErrInvalidConfig)
	}
	fail := func(format string, args ...any) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, cfg.Code, fmt.Sprintf(format, args...))
	}

	c := &cfg.Criteria
	if c.MinAge < 0 {
		return fail("min_age must be non-negative")
	}
	if c.MaxAge != nil && *c.MaxAge < c.MinAge {
		return fail("max_age must be at least min_age")
	}
	for _, g := range c.AllowedGenders {
		if !g.IsValid() {
			return fail("unknown gender %q", g)
		}
	}
	if c.MaxIncome != nil {
		if len(c.IncomeBands) > 0 {
			return fail("max_income and income_bands are mutually exclusive")
		}
		c.IncomeBands = []Band{{Name: CapBandName, Max: *c.MaxIncome}}
		c.MaxIncome = nil
	}
	for i, b := range c.IncomeBands {
		if b.Name == "" {
			return fail("income band %d has no name", i)
		}
		if b.Max < 0 {
			return fail("income band %s has a negative max", b.Name)
		}
		if i > 0 && b.Max <= c.IncomeBands[i-1].Max {
			return fail("income bands must be strictly ascending by max")
		}
	}

	if nm := cfg.NearMiss; nm != nil {
		if nm.Limit < 0 {
			return fail("near_miss limit must be non-negative")
		}
		switch nm.Tolerance.Kind {
		case ToleranceFixed, TolerancePercent:
		default:
			return fail("unknown tolerance kind %q", nm.Tolerance.Kind)
		}
		if nm.Tolerance.Value <= 0 {
			return fail("near_miss tolerance must be positive")
		}
		if nm.Label == "" {
			nm.Label = cfg.Code + " income just over limit"
		}
	}

	for _, h := range cfg.Hints {
		if strings.TrimSpace(h.Suggest) == "" {
			return fail("hint has no suggestion")
		}
		if h.Gender != "" && !h.Gender.IsValid() {
			return fail("hint has unknown gender %q", h.Gender)
		}
	}

	for _, rule := range cfg.Documents.Conditional {
		if !rule.When.valid() {
			return fail("unknown document predicate %q", rule.When)
		}
		if rule.When.needsAmount() && rule.Amount <= 0 {
			return fail("document predicate %s needs a positive amount", rule.When)
		}
	}
	return cfg.clone(), nil
}

func (c Config) clone() Config {
	out := c
	out.Criteria.AllowedGenders = append(c.Criteria.AllowedGenders[:0:0], c.Criteria.AllowedGenders...)
	out.Criteria.IncomeBands = append(c.Criteria.IncomeBands[:0:0], c.Criteria.IncomeBands...)
	if c.Criteria.MaxAge != nil {
		v := *c.Criteria.MaxAge
		out.Criteria.MaxAge = &v
	}
	out.Alternatives = append(c.Alternatives[:0:0], c.Alternatives...)
	if c.NearMiss != nil {
		nm := *c.NearMiss
		out.NearMiss = &nm
	}
	out.Hints = append(c.Hints[:0:0], c.Hints...)
	out.Documents.Base = append(c.Documents.Base[:0:0], c.Documents.Base...)
	out.Documents.Conditional = make([]DocumentRule, len(c.Documents.Conditional))
	for i, r := range c.Documents.Conditional {
		r.Add = append(r.Add[:0:0], r.Add...)
		out.Documents.Conditional[i] = r
	}
	return out
}
