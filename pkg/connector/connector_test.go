package connector

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/kerrors"
	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	core "k8s.io/client-go/testing"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://kubeconfig.example:6443
  name: test
contexts:
- context:
    cluster: test
    user: test
  name: test
current-context: test
users:
- name: test
  user:
    token: abc
`

func Test_BuildConfig_Endpoint(t *testing.T) {
	ca := []byte("-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n")
	c, err := BuildConfig(config.ClusterConfig{
		Endpoint:      "34.1.2.3",
		CACertificate: base64.StdEncoding.EncodeToString(ca),
		Token:         "token",
	})
	require.NoError(t, err)
	require.Equal(t, "https://34.1.2.3", c.Host)
	require.Equal(t, "token", c.BearerToken)
	require.Equal(t, ca, c.TLSClientConfig.CAData)
}

func Test_BuildConfig_Endpoint_Keeps_Scheme(t *testing.T) {
	c, err := BuildConfig(config.ClusterConfig{Endpoint: "https://api.example", TokenFile: "/var/run/token"})
	require.NoError(t, err)
	require.Equal(t, "https://api.example", c.Host)
	require.Equal(t, "/var/run/token", c.BearerTokenFile)
	require.Empty(t, c.TLSClientConfig.CAData)
}

func Test_BuildConfig_Endpoint_Requires_Token(t *testing.T) {
	_, err := BuildConfig(config.ClusterConfig{Endpoint: "34.1.2.3"})
	require.Error(t, err)
}

func Test_BuildConfig_Endpoint_Bad_CA(t *testing.T) {
	_, err := BuildConfig(config.ClusterConfig{Endpoint: "34.1.2.3", Token: "t", CACertificate: "%%%"})
	require.Error(t, err)
}

func Test_BuildConfig_Kubeconfig_Wins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

	c, err := BuildConfig(config.ClusterConfig{Kubeconfig: path, Endpoint: "ignored", Token: "t"})
	require.NoError(t, err)
	require.Equal(t, "https://kubeconfig.example:6443", c.Host)
	require.Equal(t, "abc", c.BearerToken)
}

func Test_Authenticate(t *testing.T) {
	kClient := k8sfake.NewSimpleClientset()
	require.NoError(t, Authenticate(context.Background(), kClient))
}

func Test_Authenticate_Rejected_Credential(t *testing.T) {
	kClient := k8sfake.NewSimpleClientset()
	kClient.PrependReactor("get", "version", func(action core.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewUnauthorized("token expired")
	})

	err := Authenticate(context.Background(), kClient)
	require.ErrorIs(t, err, kerrors.ErrAuth)
}

func Test_Authenticate_Cancelled_Context(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, Authenticate(ctx, k8sfake.NewSimpleClientset()), context.Canceled)
}
