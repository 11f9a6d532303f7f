package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

const (
	appNameKey    = "app.name"
	envKey        = "env"
	logLevelKey   = "log.level"
	logPrettyKey  = "log.pretty"
	mockPortKey   = "mock.port"
	mockSecretKey = "mock.secret"
)

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetLogPretty() bool
	GetMockPort() string
	GetMockSecret() string
}

// values is the loaded key space shared by every config section.
type values struct {
	k *koanf.Koanf
}

func (v values) str(key, defaultValue string) string {
	if s := v.k.String(key); s != "" {
		return s
	}
	return defaultValue
}

func (v values) duration(key string, defaultValue time.Duration) time.Duration {
	if !v.k.Exists(key) {
		return defaultValue
	}
	if d := v.k.Duration(key); d > 0 {
		return d
	}
	return defaultValue
}

type EnvVars struct {
	values
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.str(appNameKey, "HMS")
}

func (e EnvVars) GetEnv() string {
	return e.str(envKey, "DEV")
}

func (e EnvVars) GetLogLevel() string {
	return e.str(logLevelKey, "info")
}

func (e EnvVars) GetLogPretty() bool {
	if !e.k.Exists(logPrettyKey) {
		return e.GetEnv() == "DEV"
	}
	return e.k.Bool(logPrettyKey)
}

func (e EnvVars) GetMockPort() string {
	port := e.str(mockPortKey, "8081")
	if port[0] != ':' {
		port = ":" + port
	}
	return port
}

// GetMockSecret returns the HMAC secret the mock backend signs access tokens with.
func (e EnvVars) GetMockSecret() string {
	return e.str(mockSecretKey, "hms-mock-secret")
}
