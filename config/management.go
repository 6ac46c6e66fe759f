package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"k8s.io/klog/v2"
)

// EnvPrefix of environment overrides, e.g. GPUJOB__CLUSTER__TOKEN_FILE.
const EnvPrefix = "GPUJOB_"

// AppConfig holds the settings of the job service.
type AppConfig struct {
	Namespace string `mapstructure:"namespace"`
	Port      string `mapstructure:"port"`
	LogDir    string `mapstructure:"log-dir"`

	Cluster     ClusterConfig     `mapstructure:"cluster"`
	Accelerator AcceleratorConfig `mapstructure:"accelerator"`

	// AggregatePods switches status inference from "first pod wins" to
	// aggregation over every pod matched by the job selector.
	AggregatePods bool `mapstructure:"aggregate-pods"`

	// Optional collaborators, disabled when empty.
	MongoURI    string `mapstructure:"mongo-uri"`
	RabbitMQURL string `mapstructure:"rabbitmq-url"`
	Queue       string `mapstructure:"queue"`
}

// ClusterConfig tells the connector how to reach the API server. Kubeconfig
// wins over Endpoint, and in-cluster config is used when both are empty.
type ClusterConfig struct {
	Kubeconfig string `mapstructure:"kubeconfig"`
	Endpoint   string `mapstructure:"endpoint"`
	// Base64 encoded PEM, as returned by the managed cluster API.
	CACertificate string `mapstructure:"ca-certificate"`
	Token         string `mapstructure:"token"`
	TokenFile     string `mapstructure:"token-file"`
}

type AcceleratorConfig struct {
	Resource string `mapstructure:"resource"`
	Label    string `mapstructure:"label"`
	Type     string `mapstructure:"type"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("namespace", Namespace)
	v.SetDefault("port", Port)
	v.SetDefault("log-dir", "/logs")
	v.SetDefault("accelerator__resource", AcceleratorResource)
	v.SetDefault("accelerator__label", AcceleratorLabel)
	v.SetDefault("accelerator__type", AcceleratorType)
	v.SetDefault("queue", Name)
	v.SetDefault("aggregate-pods", false)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"cluster__kubeconfig", "cluster__endpoint", "cluster__ca-certificate",
		"cluster__token", "cluster__token-file", "mongo-uri", "rabbitmq-url",
	} {
		v.SetDefault(key, "")
	}
}

func configExists(configPath string) (bool, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// LoadConfig reads appconfig.<APPLICATION_ENVIRONMENT>.yaml, or appconfig.yaml
// when no environment specific file exists, from dir. A missing file is not an
// error, defaults and environment variables still apply.
func LoadConfig(dir string) (*AppConfig, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	setDefaults(v)

	env := strings.ToLower(os.Getenv("APPLICATION_ENVIRONMENT"))
	candidates := []string{fmt.Sprintf("appconfig.%s.yaml", env), "appconfig.yaml"}
	if env == "" {
		candidates = candidates[1:]
	}

	for _, name := range candidates {
		path := name
		if dir != "" {
			path = dir + string(os.PathSeparator) + name
		}
		exists, err := configExists(path)
		if err != nil {
			return nil, fmt.Errorf("error checking config for existence: %w", err)
		}
		if exists {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			klog.InfoS("Loaded config file", "path", path)
			break
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	var appConfig AppConfig
	if err := v.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &appConfig, nil
}
