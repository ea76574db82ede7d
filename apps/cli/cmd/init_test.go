package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/formreq/packages/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefaultConfig(t *testing.T) {
	for _, asYAML := range []bool{false, true} {
		dir := t.TempDir()
		var out bytes.Buffer

		path, err := writeDefaultConfig(dir, asYAML, false, &out)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Created: "+path)

		// send finds it without --config
		cfg, err := config.FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultPreDelay, cfg.PreDelay)
		assert.Equal(t, config.DefaultSuccessStatus, cfg.SuccessStatus)
		assert.Equal(t, "formreq/"+version, cfg.Headers["User-Agent"])
	}
}

func TestWriteDefaultConfig_Exists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".formreq.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"preDelay": 5}`), 0644))

	_, err := writeDefaultConfig(dir, false, false, &bytes.Buffer{})
	assert.ErrorContains(t, err, "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"preDelay": 5}`, string(data))

	_, err = writeDefaultConfig(dir, false, true, &bytes.Buffer{})
	require.NoError(t, err)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPreDelay, cfg.PreDelay)
}
