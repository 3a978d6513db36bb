// Package config loads and validates detection profiles.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultTargetRate is the detection tick rate used when target_dps is absent.
const DefaultTargetRate = 30.0

var (
	ErrUnsupportedMethod = errors.New("unsupported difference method")
	ErrUnknownFilter     = errors.New("unknown filter")
	ErrUnknownPolicy     = errors.New("unknown error policy")
	ErrInvalidRegion     = errors.New("invalid region")
	ErrInvalidThreshold  = errors.New("invalid threshold")
	ErrInvalidRate       = errors.New("invalid target rate")
	ErrNoReferences      = errors.New("profile needs at least one reference")
)

// DiffMethod selects the scoring algorithm. Adding a method means adding a
// constant here and a branch in the scorer dispatch, checked at compile time.
type DiffMethod int

const (
	MethodNRMSE DiffMethod = iota
)

func (m DiffMethod) String() string {
	switch m {
	case MethodNRMSE:
		return "nrmse"
	default:
		return "unknown"
	}
}

func parseMethod(s string) (DiffMethod, error) {
	switch s {
	case "nrmse":
		return MethodNRMSE, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

// Filter names a buffer transform applied to references and live captures.
type Filter int

const (
	FilterMeanGreyscale Filter = iota
)

func (f Filter) String() string {
	switch f {
	case FilterMeanGreyscale:
		return "mean_greyscale"
	default:
		return "unknown"
	}
}

func parseFilter(s string) (Filter, error) {
	switch s {
	case "mean_greyscale":
		return FilterMeanGreyscale, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// ErrorPolicy decides what a capture or scoring failure does to the loop.
type ErrorPolicy int

const (
	// PolicyAbort stops the loop on the first per-tick failure.
	PolicyAbort ErrorPolicy = iota
	// PolicyRetry logs the failure and continues with the next tick.
	PolicyRetry
)

func (p ErrorPolicy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicyRetry:
		return "retry"
	default:
		return "unknown"
	}
}

func parsePolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "abort":
		return PolicyAbort, nil
	case "retry":
		return PolicyRetry, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Region is a rectangle relative to the selected monitor's origin.
type Region struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ReferenceEntry points at a reference image and an optional mask, both
// resolved relative to the profile file.
type ReferenceEntry struct {
	Image string
	Mask  string
}

// Profile is the immutable run configuration. Load once, read-only after.
type Profile struct {
	Monitor    int
	Region     Region
	Method     DiffMethod
	Threshold  float64
	TargetRate float64
	Filters    []Filter
	References []ReferenceEntry
	OnError    ErrorPolicy
	Debug      bool

	// Dir is the directory of the profile file; reference paths are
	// resolved against it.
	Dir string
}

type rawReference struct {
	Image string `yaml:"image"`
	Mask  string `yaml:"mask"`
}

type rawProfile struct {
	Monitor    int    `yaml:"monitor"`
	Region     Region `yaml:"region"`
	Difference struct {
		Method    string  `yaml:"method"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"difference"`
	TargetDPS  *float64       `yaml:"target_dps"`
	Filters    []string       `yaml:"filters"`
	References []rawReference `yaml:"references"`
	OnError    string         `yaml:"on_error"`
	Debug      bool           `yaml:"debug"`
}

// LoadProfile reads and validates a YAML profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var raw rawProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve profile path: %w", err)
	}
	p := &Profile{
		Monitor:    raw.Monitor,
		Region:     raw.Region,
		Threshold:  raw.Difference.Threshold,
		TargetRate: DefaultTargetRate,
		Debug:      raw.Debug,
		Dir:        filepath.Dir(abs),
	}
	if raw.TargetDPS != nil {
		p.TargetRate = *raw.TargetDPS
	}
	if p.Method, err = parseMethod(raw.Difference.Method); err != nil {
		return nil, err
	}
	if p.OnError, err = parsePolicy(raw.OnError); err != nil {
		return nil, err
	}
	for _, name := range raw.Filters {
		f, err := parseFilter(name)
		if err != nil {
			return nil, err
		}
		p.Filters = append(p.Filters, f)
	}
	p.Filters = canonicalFilters(p.Filters)
	for _, r := range raw.References {
		p.References = append(p.References, ReferenceEntry{
			Image: resolve(p.Dir, r.Image),
			Mask:  resolve(p.Dir, r.Mask),
		})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks structural constraints. It does not touch the filesystem;
// unreadable reference files surface later, at reference load time.
func (p *Profile) Validate() error {
	if p.Region.Left < 0 || p.Region.Top < 0 {
		return fmt.Errorf("%w: offsets must be non-negative (left=%d top=%d)", ErrInvalidRegion, p.Region.Left, p.Region.Top)
	}
	if p.Region.Width <= 0 || p.Region.Height <= 0 {
		return fmt.Errorf("%w: size must be positive (%dx%d)", ErrInvalidRegion, p.Region.Width, p.Region.Height)
	}
	if p.Threshold < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, p.Threshold)
	}
	if p.TargetRate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRate, p.TargetRate)
	}
	if len(p.References) == 0 {
		return ErrNoReferences
	}
	for i, r := range p.References {
		if r.Image == "" {
			return fmt.Errorf("reference %d: missing image path", i)
		}
	}
	return nil
}

// canonicalFilters sorts and deduplicates so the applied order never depends
// on the order filters were written in the profile.
func canonicalFilters(fs []Filter) []Filter {
	if len(fs) == 0 {
		return nil
	}
	out := make([]Filter, len(fs))
	copy(out, fs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:1]
	for _, f := range out[1:] {
		if f != dedup[len(dedup)-1] {
			dedup = append(dedup, f)
		}
	}
	return dedup
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
