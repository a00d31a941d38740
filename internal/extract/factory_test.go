package extract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rulebook/internal/config"
	"rulebook/internal/extract"
	"rulebook/internal/port"
	"rulebook/mocks"
)

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := extract.NewExtractor(&config.ExtractorProviderConfig{Provider: "nope"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extractor provider")
}

func TestNewExtractor_UsesRegisteredFactory(t *testing.T) {
	inner := new(mocks.MockStructuredExtractor)
	extract.RegisterProvider("fake", func(cfg *config.ExtractorProviderConfig) (port.StructuredExtractor, error) {
		return inner, nil
	})

	ex, err := extract.NewExtractor(&config.ExtractorProviderConfig{Provider: "fake"})

	require.NoError(t, err)
	assert.Same(t, inner, ex)
}

func TestNewExtractor_WrapsWithRetryWhenConfigured(t *testing.T) {
	inner := new(mocks.MockStructuredExtractor)
	extract.RegisterProvider("fake-retry", func(cfg *config.ExtractorProviderConfig) (port.StructuredExtractor, error) {
		return inner, nil
	})
	inner.On("Extract", mock.Anything, mock.Anything).Return(decisionOutput("m"), nil)

	ex, err := extract.NewExtractor(&config.ExtractorProviderConfig{Provider: "fake-retry", MaxRetries: 2})

	require.NoError(t, err)
	_, ok := ex.(*extract.RetryExtractor)
	assert.True(t, ok)

	out, err := ex.Extract(context.Background(), decisionInput())
	require.NoError(t, err)
	assert.Equal(t, "m", out.ModelUsed)
}
