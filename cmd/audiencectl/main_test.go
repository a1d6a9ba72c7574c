package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashCommand(t *testing.T) {
	out, err := execute(t, "hash", " Customer0@Example.com ", "")
	require.NoError(t, err)

	var lines []hashLine
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, "3c3b503668ec5bdada0e509ae7a1a29869ddcc4723358276b8a2c362cfc1f372", lines[0].Hashed)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", lines[1].Hashed)
}

func TestHashCommand_RequiresValue(t *testing.T) {
	_, err := execute(t, "hash")
	assert.Error(t, err)
}

func TestStatusCommand_RequiresJob(t *testing.T) {
	_, err := execute(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job")
}

func TestRunCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestRunCommand_RejectsMissingCredentials(t *testing.T) {
	for _, env := range []string{
		"GOOGLE_ADS_DEVELOPER_TOKEN", "GOOGLE_ADS_CLIENT_ID", "GOOGLE_ADS_CLIENT_SECRET",
		"GOOGLE_ADS_REFRESH_TOKEN", "GOOGLE_ADS_PROPERTIES_FILE",
	} {
		t.Setenv(env, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audience:\n  customer_id: \"1164191532\"\n"), 0o600))

	_, err := execute(t, "run", "--config", path, "--count", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google_ads.developer_token")
}
