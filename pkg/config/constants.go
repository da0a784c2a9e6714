package config

// EnvPrefix namespaces every environment variable consumed by envconfig.
const EnvPrefix = "LOCALMART"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv  = "LOCALMART_APP_ENV"
	EnvAppPort = "LOCALMART_APP_PORT"

	EnvDBDSN  = "LOCALMART_DB_DSN"
	EnvDBHost = "LOCALMART_DB_HOST"
	EnvDBUser = "LOCALMART_DB_USER"
	EnvDBName = "LOCALMART_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
