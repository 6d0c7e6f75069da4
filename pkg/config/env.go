package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "OLIMP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "OLIMP_DB_DSN"
	EnvDBHost = "OLIMP_DB_HOST"
	EnvDBUser = "OLIMP_DB_USER"
	EnvDBName = "OLIMP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
