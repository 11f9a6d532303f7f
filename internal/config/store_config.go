package config

const (
	storeBackendKey    = "store.backend"
	storePathKey       = "store.path"
	storePassphraseKey = "store.passphrase"
	redisAddrKey       = "redis.addr"
	redisPasswordKey   = "redis.password"
	redisDBKey         = "redis.db"
	redisPrefixKey     = "redis.prefix"
)

// Credential store backends
const (
	StoreBackendMemory = "memory"
	StoreBackendFile   = "file"
	StoreBackendRedis  = "redis"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetStorePath() string
	GetStorePassphrase() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type Store struct {
	values
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	return s.str(storeBackendKey, StoreBackendFile)
}

func (s Store) GetStorePath() string {
	return s.str(storePathKey, "./data/credentials.bin")
}

// GetStorePassphrase returns the passphrase the file store key is derived from.
// An empty passphrase leaves the file unencrypted.
func (s Store) GetStorePassphrase() string {
	return s.k.String(storePassphraseKey)
}

func (s Store) GetRedisAddr() string {
	return s.str(redisAddrKey, "localhost:6379")
}

func (s Store) GetRedisPassword() string {
	return s.k.String(redisPasswordKey)
}

func (s Store) GetRedisDB() int {
	return s.k.Int(redisDBKey)
}

func (s Store) GetRedisPrefix() string {
	return s.str(redisPrefixKey, "hms:session")
}
