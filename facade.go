package lasso

import (
	"github.com/lassohost/lasso/cell"
	"github.com/lassohost/lasso/config"
)

// Re-exported so a simple host program only needs to import lasso
// itself for the common path; the less-common pieces (wire.Codec
// implementations, codec.Encoder/Decoder, sampler.Config) stay in
// their own packages since only NewHost and config.Load name them.
type (
	Config   = config.Config
	Registry = cell.Registry
	Type     = cell.Type
	Kind     = cell.Kind
)

// NewRegistry forwards to cell.NewRegistry.
func NewRegistry(externalSource bool) *Registry { return cell.NewRegistry(externalSource) }

// LoadConfig forwards to config.Load.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// DefaultConfig forwards to config.Default.
func DefaultConfig() *Config { return config.Default() }
