package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/gpinterp/internal/fsutil"
)

// Policy defaults. MaxTextLength and the grid constants are service policy,
// not algorithmic limits.
const (
	DefaultMaxTextLength   = 10000
	DefaultMaxBodyBytes    = 4 << 20
	DefaultGridSize        = 50
	DefaultMaxPoints       = 2000
	DefaultLengthScale     = 1.0
	DefaultAlpha           = 1e-6
	DefaultRateLimitBurst  = 20
	maxGridSize            = 500
	maxMaxPoints           = 10000
	maxConfigFileSizeBytes = 1 * 1024 * 1024
)

// ServiceConfig holds the tunable policy values of the service. Every field
// is optional; the Get* methods supply defaults for anything left unset, so
// partial JSON files are safe.
type ServiceConfig struct {
	// Text entropy limits
	MaxTextLength *int   `json:"max_text_length,omitempty"`
	MaxBodyBytes  *int64 `json:"max_body_bytes,omitempty"`

	// Interpolation params. MaxPoints bounds the n×n training covariance.
	MaxPoints           *int     `json:"max_points,omitempty"`
	GridSize            *int     `json:"grid_size,omitempty"`
	LengthScale         *float64 `json:"length_scale,omitempty"`
	Alpha               *float64 `json:"alpha,omitempty"`
	OptimizeLengthScale *bool    `json:"optimize_length_scale,omitempty"`

	// HTTP boundary
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
	RateLimit      *float64 `json:"rate_limit,omitempty"` // requests per second, 0 disables
	RateLimitBurst *int     `json:"rate_limit_burst,omitempty"`
}

// EmptyServiceConfig returns a ServiceConfig with all fields unset.
func EmptyServiceConfig() *ServiceConfig {
	return &ServiceConfig{}
}

// LoadServiceConfig loads a ServiceConfig from a JSON file on disk.
// The file must have a .json extension and be at most 1MB.
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	return LoadServiceConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadServiceConfigFS is LoadServiceConfig reading through fsys.
func LoadServiceConfigFS(fsys fsutil.FileSystem, path string) (*ServiceConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSizeBytes {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSizeBytes)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyServiceConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ServiceConfig) Validate() error {
	if c.MaxTextLength != nil && *c.MaxTextLength < 1 {
		return fmt.Errorf("max_text_length must be positive, got %d", *c.MaxTextLength)
	}

	if c.MaxBodyBytes != nil && *c.MaxBodyBytes < 1 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", *c.MaxBodyBytes)
	}

	if c.MaxPoints != nil && (*c.MaxPoints < 1 || *c.MaxPoints > maxMaxPoints) {
		return fmt.Errorf("max_points must be between 1 and %d, got %d", maxMaxPoints, *c.MaxPoints)
	}

	// A grid needs two points per axis to span its bounds.
	if c.GridSize != nil && (*c.GridSize < 2 || *c.GridSize > maxGridSize) {
		return fmt.Errorf("grid_size must be between 2 and %d, got %d", maxGridSize, *c.GridSize)
	}

	if c.LengthScale != nil && !(*c.LengthScale > 0) {
		return fmt.Errorf("length_scale must be positive, got %g", *c.LengthScale)
	}

	if c.Alpha != nil && !(*c.Alpha >= 0) {
		return fmt.Errorf("alpha must be non-negative, got %g", *c.Alpha)
	}

	if c.RateLimit != nil && *c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative, got %g", *c.RateLimit)
	}

	if c.RateLimitBurst != nil && *c.RateLimitBurst < 1 {
		return fmt.Errorf("rate_limit_burst must be positive, got %d", *c.RateLimitBurst)
	}

	for _, o := range c.AllowedOrigins {
		if o == "" {
			return fmt.Errorf("allowed_origins must not contain empty entries")
		}
	}

	return nil
}

// GetMaxTextLength returns the max_text_length value or the default.
func (c *ServiceConfig) GetMaxTextLength() int {
	if c.MaxTextLength == nil {
		return DefaultMaxTextLength
	}
	return *c.MaxTextLength
}

// GetMaxBodyBytes returns the max_body_bytes value or the default.
func (c *ServiceConfig) GetMaxBodyBytes() int64 {
	if c.MaxBodyBytes == nil {
		return DefaultMaxBodyBytes
	}
	return *c.MaxBodyBytes
}

// GetMaxPoints returns the max_points value or the default.
func (c *ServiceConfig) GetMaxPoints() int {
	if c.MaxPoints == nil {
		return DefaultMaxPoints
	}
	return *c.MaxPoints
}

// GetGridSize returns the grid_size value or the default.
func (c *ServiceConfig) GetGridSize() int {
	if c.GridSize == nil {
		return DefaultGridSize
	}
	return *c.GridSize
}

// GetLengthScale returns the length_scale value or the default.
func (c *ServiceConfig) GetLengthScale() float64 {
	if c.LengthScale == nil {
		return DefaultLengthScale
	}
	return *c.LengthScale
}

// GetAlpha returns the alpha value or the default.
func (c *ServiceConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return DefaultAlpha
	}
	return *c.Alpha
}

// GetOptimizeLengthScale returns the optimize_length_scale value or the default.
func (c *ServiceConfig) GetOptimizeLengthScale() bool {
	if c.OptimizeLengthScale == nil {
		return false // default: fixed length scale
	}
	return *c.OptimizeLengthScale
}

// GetAllowedOrigins returns the CORS origin allow list; "*" when unset.
func (c *ServiceConfig) GetAllowedOrigins() []string {
	if len(c.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return c.AllowedOrigins
}

// GetRateLimit returns the rate_limit value or the default.
func (c *ServiceConfig) GetRateLimit() float64 {
	if c.RateLimit == nil {
		return 0 // default: rate limiting disabled
	}
	return *c.RateLimit
}

// GetRateLimitBurst returns the rate_limit_burst value or the default.
func (c *ServiceConfig) GetRateLimitBurst() int {
	if c.RateLimitBurst == nil {
		return DefaultRateLimitBurst
	}
	return *c.RateLimitBurst
}
