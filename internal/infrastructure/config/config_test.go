package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "last_wins", cfg.Catalog.DuplicatePolicy)
	assert.Equal(t, "openrouter", cfg.Estimator.Provider)
	assert.Equal(t, 30*time.Second, cfg.Import.CommitTimeout)
	assert.Equal(t, 4, cfg.Enrichment.Workers)
	assert.Equal(t, 45*time.Second, cfg.Enrichment.EstimateTimeout)
	assert.Equal(t, time.Second, cfg.DedupWindow)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/recipes?sslmode=disable")
	t.Setenv("CATALOG_DUPLICATE_POLICY", "reject")
	t.Setenv("ENRICHMENT_WORKERS", "8")
	t.Setenv("APP_ENRICHMENT_QUEUE_SIZE", "16")
	t.Setenv("IMPORT_COMMIT_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/recipes?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "reject", cfg.Catalog.DuplicatePolicy)
	assert.Equal(t, 8, cfg.Enrichment.Workers)
	assert.Equal(t, 16, cfg.Enrichment.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Import.CommitTimeout)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "postgres without dsn",
			env:  map[string]string{"DATABASE_DRIVER": "postgres"},
			want: "database dsn is required",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"DATABASE_DRIVER": "mongo"},
			want: "unknown database driver",
		},
		{
			name: "unknown duplicate policy",
			env:  map[string]string{"CATALOG_DUPLICATE_POLICY": "first_wins"},
			want: "unknown catalog duplicate policy",
		},
		{
			name: "unknown estimator",
			env:  map[string]string{"ESTIMATOR_PROVIDER": "local"},
			want: "unknown estimator provider",
		},
		{
			name: "zero workers",
			env:  map[string]string{"ENRICHMENT_WORKERS": "0"},
			want: "invalid enrichment workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "sk-o...cdef", MaskAPIKey("sk-or-v1-0123456789abcdef"))
}
