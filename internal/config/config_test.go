package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.EDGAR.RatePerSec)
	assert.Equal(t, "us-gaap", cfg.EDGAR.Taxonomy)
	assert.Equal(t, "2009-01-01", cfg.EDGAR.MinFilingYMD)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.EDGAR.Company)
	assert.NotEmpty(t, cfg.EDGAR.Email)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EDGARSYNC_EDGAR_RATE_PER_SEC", "5")
	t.Setenv("EDGARSYNC_STORE_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.EDGAR.RatePerSec)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
