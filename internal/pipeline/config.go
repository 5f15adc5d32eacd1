package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultHotspotPercentile = 97.0
	DefaultMinClusterSize    = 45
	DefaultOpeningIterations = 1
	DefaultClosingIterations = 1
	DefaultKernelSize        = 3
)

// ErrInvalidConfig is reported for configuration keys that do not exist.
// Unknown keys never stop processing; callers log the error as a warning.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config controls one pipeline run. It is a plain value: copying it takes a
// snapshot that later updates to a Processor cannot affect.
type Config struct {
	// HotspotPercentile selects the threshold, in [50,100].
	HotspotPercentile float64 `json:"hotspot_percentile" yaml:"hotspot_percentile"`

	// MinClusterSize is the smallest hotspot kept, in pixels, in [1,10000].
	MinClusterSize int `json:"min_cluster_size" yaml:"min_cluster_size"`

	// OpeningIterations and ClosingIterations are in [0,5]; zero skips the
	// operation.
	OpeningIterations int `json:"opening_iterations" yaml:"opening_iterations"`
	ClosingIterations int `json:"closing_iterations" yaml:"closing_iterations"`

	// KernelSize is the odd side of the square structuring element, in [3,9].
	KernelSize int `json:"kernel_size" yaml:"kernel_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		HotspotPercentile: DefaultHotspotPercentile,
		MinClusterSize:    DefaultMinClusterSize,
		OpeningIterations: DefaultOpeningIterations,
		ClosingIterations: DefaultClosingIterations,
		KernelSize:        DefaultKernelSize,
	}
}

// Clamp returns c with every field forced into its valid range. Out-of-range
// values are silently normalized; clamping never fails and is idempotent.
// KernelSize is clamped to [3,9] and then rounded down to an odd number, so
// 4 becomes 3 and 8 becomes 7.
func (c Config) Clamp() Config {
	p := c.HotspotPercentile
	if math.IsNaN(p) {
		p = DefaultHotspotPercentile
	}
	c.HotspotPercentile = math.Min(math.Max(p, 50), 100)
	c.MinClusterSize = clampInt(c.MinClusterSize, 1, 10000)
	c.OpeningIterations = clampInt(c.OpeningIterations, 0, 5)
	c.ClosingIterations = clampInt(c.ClosingIterations, 0, 5)
	k := clampInt(c.KernelSize, 3, 9)
	if k%2 == 0 {
		k--
	}
	c.KernelSize = k
	return c
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// Overrides is a partial configuration update. Nil fields are left
// unchanged.
type Overrides struct {
	HotspotPercentile *float64 `json:"hotspot_percentile,omitempty" yaml:"hotspot_percentile"`
	MinClusterSize    *int     `json:"min_cluster_size,omitempty" yaml:"min_cluster_size"`
	OpeningIterations *int     `json:"opening_iterations,omitempty" yaml:"opening_iterations"`
	ClosingIterations *int     `json:"closing_iterations,omitempty" yaml:"closing_iterations"`
	KernelSize        *int     `json:"kernel_size,omitempty" yaml:"kernel_size"`
}

// Apply returns c with the provided fields replaced, re-clamped.
func (o Overrides) Apply(c Config) Config {
	if o.HotspotPercentile != nil {
		c.HotspotPercentile = *o.HotspotPercentile
	}
	if o.MinClusterSize != nil {
		c.MinClusterSize = *o.MinClusterSize
	}
	if o.OpeningIterations != nil {
		c.OpeningIterations = *o.OpeningIterations
	}
	if o.ClosingIterations != nil {
		c.ClosingIterations = *o.ClosingIterations
	}
	if o.KernelSize != nil {
		c.KernelSize = *o.KernelSize
	}
	return c.Clamp()
}

// Merge returns o with every field that is set in other taking precedence.
func (o Overrides) Merge(other Overrides) Overrides {
	if other.HotspotPercentile != nil {
		o.HotspotPercentile = other.HotspotPercentile
	}
	if other.MinClusterSize != nil {
		o.MinClusterSize = other.MinClusterSize
	}
	if other.OpeningIterations != nil {
		o.OpeningIterations = other.OpeningIterations
	}
	if other.ClosingIterations != nil {
		o.ClosingIterations = other.ClosingIterations
	}
	if other.KernelSize != nil {
		o.KernelSize = other.KernelSize
	}
	return o
}

// IsZero reports whether no field is set.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

// ParseOverrides decodes YAML overrides from r.
//
// Known fields are always decoded. If the document also holds keys that are
// not configuration fields, the returned error wraps ErrInvalidConfig and the
// overrides still carry every known field, so the caller can warn and go on.
// Any other decoding problem is returned as a plain error.
func ParseOverrides(r io.Reader) (Overrides, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Overrides{}, fmt.Errorf("failed to read config: %w", err)
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Overrides{}, fmt.Errorf("failed to parse config: %w", err)
	}

	strict := yaml.NewDecoder(bytes.NewReader(data))
	strict.KnownFields(true)
	var known Overrides
	if err := strict.Decode(&known); err != nil && !errors.Is(err, io.EOF) {
		return o, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return o, nil
}

// LoadOverrides reads YAML overrides from the file at path. See
// ParseOverrides for error semantics.
func LoadOverrides(path string) (Overrides, error) {
	f, err := os.Open(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return ParseOverrides(f)
}

// Float64 returns a pointer to v, for building Overrides.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Overrides.
func Int(v int) *int { return &v }
