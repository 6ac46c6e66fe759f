package connector

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/heyfey/gpujob/config"
	"github.com/heyfey/gpujob/pkg/common/kerrors"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"
)

// BuildConfig builds the rest config of the cluster. In order of precedence:
// a kubeconfig file, an explicit endpoint with CA certificate and bearer
// token, and the in-cluster service account.
func BuildConfig(c config.ClusterConfig) (*rest.Config, error) {
	switch {
	case c.Kubeconfig != "":
		klog.V(4).InfoS("Building config from kubeconfig", "kubeconfig", c.Kubeconfig)
		return clientcmd.BuildConfigFromFlags("", c.Kubeconfig)
	case c.Endpoint != "":
		klog.V(4).InfoS("Building config from endpoint", "endpoint", c.Endpoint)
		return endpointConfig(c)
	default:
		klog.V(4).InfoS("Building in-cluster config")
		return rest.InClusterConfig()
	}
}

func endpointConfig(c config.ClusterConfig) (*rest.Config, error) {
	if c.Token == "" && c.TokenFile == "" {
		return nil, fmt.Errorf("endpoint %s given without token or token file", c.Endpoint)
	}

	host := c.Endpoint
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}

	kConfig := &rest.Config{
		Host:            host,
		BearerToken:     c.Token,
		BearerTokenFile: c.TokenFile,
	}
	if c.CACertificate != "" {
		ca, err := base64.StdEncoding.DecodeString(c.CACertificate)
		if err != nil {
			return nil, fmt.Errorf("decode cluster CA certificate: %w", err)
		}
		kConfig.TLSClientConfig.CAData = ca
	}
	return kConfig, nil
}

// Connect creates a clientset for the cluster and verifies its credential.
func Connect(ctx context.Context, c config.ClusterConfig) (kubernetes.Interface, error) {
	kConfig, err := BuildConfig(c)
	if err != nil {
		return nil, err
	}

	kClient, err := kubernetes.NewForConfig(kConfig)
	if err != nil {
		return nil, err
	}

	if err := Authenticate(ctx, kClient); err != nil {
		return nil, err
	}
	klog.InfoS("Connected to cluster", "host", kConfig.Host)
	return kClient, nil
}

// Authenticate makes one discovery call with the client's credential. A
// rejected credential is reported as kerrors.ErrAuth, anything else as the
// classified API error.
func Authenticate(ctx context.Context, kClient kubernetes.Interface) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	version, err := kClient.Discovery().ServerVersion()
	if err != nil {
		return fmt.Errorf("verify cluster credential: %w", kerrors.Classify(err))
	}
	klog.V(4).InfoS("Cluster credential accepted", "serverVersion", version.GitVersion)
	return nil
}
