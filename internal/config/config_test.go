package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openrouter", c.DefaultProvider)
	assert.Equal(t, 0.8, c.TypeThreshold)
	assert.Equal(t, 2.0, c.AnomalyThreshold)
	assert.Equal(t, int64(4718592), c.MaxUploadBytes)
	assert.Equal(t, ":8080", c.ListenAddr)

	opt, err := c.AnalysisOptions()
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultOptions(), opt)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("anomaly_threshold: 3\ndecimal_separator: \",\"\nlog_level: debug\n"), 0o644))
	t.Setenv("DATALENS_LOG_LEVEL", "warn")
	t.Setenv("DATALENS_API_KEY", "sk-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.AnomalyThreshold)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "sk-env", c.APIKey)

	opt, err := c.AnalysisOptions()
	require.NoError(t, err)
	assert.Equal(t, ',', opt.DecimalSeparator)
	assert.Equal(t, 3.0, opt.AnomalyThreshold)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)

	require.NoError(t, c.Set("default_provider", "Local"))
	require.NoError(t, c.Set("anomaly_direction", "UPPER"))
	require.NoError(t, c.Set("thousands_separator", "space"))
	require.NoError(t, c.Set("max_rows", "1000"))
	assert.Equal(t, "ollama", c.DefaultProvider)

	for key, bad := range map[string]string{
		"type_threshold":    "1.5",
		"anomaly_direction": "sideways",
		"decimal_separator": ",,",
		"sample_rows":       "0",
		"log_format":        "xml",
		"nope":              "x",
	} {
		assert.Error(t, c.Set(key, bad), key)
	}
	assert.Equal(t, 1000, c.MaxRows)

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, Save(c, path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, back)

	opt, err := back.AnalysisOptions()
	require.NoError(t, err)
	assert.Equal(t, analysis.Upper, opt.AnomalyDirection)
	assert.Equal(t, ' ', opt.ThousandsSeparator)
}

func TestKeysAreSettable(t *testing.T) {
	assert.Len(t, Keys(), len(defaults))
	for _, k := range Keys() {
		assert.Contains(t, defaults, k)
	}
}
