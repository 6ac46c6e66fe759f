package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_LoadConfig_Defaults_Without_File(t *testing.T) {
	t.Setenv("APPLICATION_ENVIRONMENT", "")

	c, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, Namespace, c.Namespace)
	require.Equal(t, Port, c.Port)
	require.Equal(t, AcceleratorResource, c.Accelerator.Resource)
	require.Equal(t, AcceleratorLabel, c.Accelerator.Label)
	require.Equal(t, AcceleratorType, c.Accelerator.Type)
	require.False(t, c.AggregatePods)
	require.Empty(t, c.MongoURI)
}

func Test_LoadConfig_Reads_File(t *testing.T) {
	t.Setenv("APPLICATION_ENVIRONMENT", "")
	dir := t.TempDir()
	content := `
namespace: gpu-jobs
aggregate-pods: true
cluster:
  endpoint: 10.0.0.1
  token-file: /var/run/token
accelerator:
  type: nvidia-l4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appconfig.yaml"), []byte(content), 0o600))

	c, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "gpu-jobs", c.Namespace)
	require.True(t, c.AggregatePods)
	require.Equal(t, "10.0.0.1", c.Cluster.Endpoint)
	require.Equal(t, "/var/run/token", c.Cluster.TokenFile)
	require.Equal(t, "nvidia-l4", c.Accelerator.Type)
	require.Equal(t, AcceleratorResource, c.Accelerator.Resource)
}

func Test_LoadConfig_Prefers_Environment_File(t *testing.T) {
	t.Setenv("APPLICATION_ENVIRONMENT", "Test")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appconfig.yaml"), []byte("namespace: base\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appconfig.test.yaml"), []byte("namespace: test\n"), 0o600))

	c, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "test", c.Namespace)
}

func Test_LoadConfig_Environment_Overrides(t *testing.T) {
	t.Setenv("APPLICATION_ENVIRONMENT", "")
	t.Setenv("GPUJOB__NAMESPACE", "from-env")
	t.Setenv("GPUJOB__CLUSTER__TOKEN", "secret")
	t.Setenv("GPUJOB__MONGO_URI", "mongo:27017")

	c, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "from-env", c.Namespace)
	require.Equal(t, "secret", c.Cluster.Token)
	require.Equal(t, "mongo:27017", c.MongoURI)
}
