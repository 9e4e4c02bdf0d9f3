package config

const EnvPrefix = "GEARSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
)

const (
	EnvAppEnv        = "GEARSTORE_APP_ENV"
	EnvPort          = "GEARSTORE_APP_PORT"
	EnvLogLevel      = "GEARSTORE_LOG_LEVEL"
	EnvAPIBaseURL    = "GEARSTORE_API_BASE_URL"
	EnvAPITimeout    = "GEARSTORE_API_TIMEOUT"
	EnvStorageDriver = "GEARSTORE_STORAGE_DRIVER"
	EnvStoragePath   = "GEARSTORE_STORAGE_PATH"
	EnvStorageDSN    = "GEARSTORE_STORAGE_DSN"
	EnvRedisURL      = "GEARSTORE_REDIS_URL"
	EnvCurrencyRate  = "GEARSTORE_CURRENCY_RATE"
	EnvToastTTL      = "GEARSTORE_TOAST_TTL"
)
