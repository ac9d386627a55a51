package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry the full
	// GOLFVIAJES_ names so this stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GOLFVIAJES_DB_DSN"
	EnvDBHost = "GOLFVIAJES_DB_HOST"
	EnvDBUser = "GOLFVIAJES_DB_USER"
	EnvDBName = "GOLFVIAJES_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
