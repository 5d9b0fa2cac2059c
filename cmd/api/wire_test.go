package main

import (
	"testing"
	"time"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporterOptions(t *testing.T) {
	cfg := &config.Config{
		Catalog: config.CatalogConfig{DuplicatePolicy: " Reject "},
		Import:  config.ImportConfig{CommitTimeout: 5 * time.Second},
	}

	opts, err := importerOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, catalog.DuplicateReject, opts.DuplicatePolicy)
	assert.Equal(t, 5*time.Second, opts.CommitTimeout)

	cfg.Catalog.DuplicatePolicy = "first_wins"
	_, err = importerOptions(cfg)
	assert.ErrorContains(t, err, `unknown duplicate policy "first_wins"`)
}

func TestMaxTokens(t *testing.T) {
	cfg := &config.Config{
		Bedrock:    config.BedrockConfig{MaxTokens: 512},
		OpenRouter: config.OpenRouterConfig{MaxTokens: 1024},
	}
	assert.Equal(t, 1024, maxTokens(cfg))

	cfg.Estimator.Provider = "bedrock"
	assert.Equal(t, 512, maxTokens(cfg))
}
