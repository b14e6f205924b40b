package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"don-provisioner/internal/config"
)

func writeConfig(t *testing.T, contents string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoad(t *testing.T) {
	writeConfig(t, `
aws:
  region: eu-west-1
  sqs_queue_url: https://sqs.eu-west-1.amazonaws.com/123/stream-events
  dynamodb_table: stream-jobs
don:
  id: 7
  name: production
logging:
  level: info
`)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "stream-jobs", cfg.AWS.DynamoDBTable)
	assert.Equal(t, uint32(7), cfg.Don.ID)
	assert.Equal(t, "production", cfg.Don.Name)
}

func TestLoadEnvOverrides(t *testing.T) {
	writeConfig(t, `
aws:
  region: eu-west-1
don:
  id: 7
  name: production
`)
	t.Setenv("AWS_REGION", "us-east-2")
	t.Setenv("DON_ID", "12")
	t.Setenv("DON_NAME", "staging")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", cfg.AWS.Region)
	assert.Equal(t, uint32(12), cfg.Don.ID)
	assert.Equal(t, "staging", cfg.Don.Name)
}

func TestLoadInvalidDonID(t *testing.T) {
	writeConfig(t, `
don:
  name: production
`)
	t.Setenv("DON_ID", "not-a-number")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRequiresDonName(t *testing.T) {
	writeConfig(t, `
don:
  id: 7
`)

	_, err := config.Load()
	assert.Error(t, err)
}
