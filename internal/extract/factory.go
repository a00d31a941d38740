package extract

import (
	"fmt"

	"rulebook/internal/config"
	"rulebook/internal/port"
)

// ProviderFactory is a function that creates a StructuredExtractor from a
// provider config.
type ProviderFactory func(cfg *config.ExtractorProviderConfig) (port.StructuredExtractor, error)

// registry of extractor provider factories, populated explicitly via
// RegisterProvider at startup.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extractor provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates a StructuredExtractor from a provider config using the
// registered factory, wrapping it with bounded retry when configured.
func NewExtractor(cfg *config.ExtractorProviderConfig) (port.StructuredExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extractor provider: %s", cfg.Provider)
	}
	ex, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.MaxRetries > 0 {
		ex = NewRetryExtractor(ex, cfg.MaxRetries)
	}
	return ex, nil
}
