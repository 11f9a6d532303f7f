package app

import (
	"github.com/jrsteele09/go-hms-client/credentials"
	"github.com/jrsteele09/go-hms-client/credentials/filestore"
	"github.com/jrsteele09/go-hms-client/credentials/redisstore"
	"github.com/jrsteele09/go-hms-client/internal/config"
	hmserrors "github.com/jrsteele09/go-hms-client/internal/errors"
	"github.com/pkg/errors"
)

// NewStore opens the configured credential store. The returned close function releases any
// connection the store holds.
func NewStore(cfg config.StoreConfig) (credentials.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.GetStoreBackend() {
	case config.StoreBackendMemory:
		return credentials.NewMemoryStore(), noop, nil
	case config.StoreBackendFile:
		return filestore.New(cfg.GetStorePath(), cfg.GetStorePassphrase()), noop, nil
	case config.StoreBackendRedis:
		redisCfg := redisstore.Config{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
			Prefix:   cfg.GetRedisPrefix(),
		}
		client, err := redisstore.NewClient(redisCfg)
		if err != nil {
			return nil, nil, errors.Wrap(err, "[app.NewStore] connect redis")
		}
		return redisstore.New(client, redisCfg), client.Close, nil
	default:
		return nil, nil, errors.Wrapf(hmserrors.ErrUnknownBackend, "[app.NewStore] %q", cfg.GetStoreBackend())
	}
}
