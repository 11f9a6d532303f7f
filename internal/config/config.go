package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	envPrefix         = "HMS_"
	defaultConfigFile = "hms.yaml"
	defaultEnvFile    = ".env"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	StoreConfig
}

type mainConfig struct {
	EnvVars
	API
	Session
	Store
}

// Option customises how the configuration is loaded.
type Option func(*loadOptions)

type loadOptions struct {
	configFile string
	envFile    string
	overrides  map[string]any
}

// WithConfigFile loads the YAML file at path instead of ./hms.yaml.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) {
		o.configFile = path
	}
}

// WithEnvFile loads the dotenv file at path instead of ./.env.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		o.envFile = path
	}
}

// WithOverrides sets keys after every other source has been loaded (primarily for testing).
func WithOverrides(values map[string]any) Option {
	return func(o *loadOptions) {
		o.overrides = values
	}
}

// New loads configuration from, in increasing order of precedence: an optional
// YAML file, an optional .env file, HMS_ prefixed environment variables and
// explicit overrides. Missing files are not an error.
func New(options ...Option) (Config, error) {
	opts := loadOptions{
		configFile: defaultConfigFile,
		envFile:    defaultEnvFile,
	}
	for _, opt := range options {
		opt(&opts)
	}

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "[config.New] load %s", opts.envFile)
		}
	}

	k := koanf.New(".")

	if opts.configFile != "" {
		if _, err := os.Stat(opts.configFile); err == nil {
			if err := k.Load(file.Provider(opts.configFile), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "[config.New] read %s", opts.configFile)
			}
		}
	}

	// HMS_API_BASEURL -> api.baseurl
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "[config.New] load env variables")
	}

	for key, value := range opts.overrides {
		if err := k.Set(key, value); err != nil {
			return nil, errors.Wrapf(err, "[config.New] override %s", key)
		}
	}

	values := values{k: k}
	return mainConfig{
		EnvVars: EnvVars{values},
		API:     API{values},
		Session: Session{values},
		Store:   Store{values},
	}, nil
}
