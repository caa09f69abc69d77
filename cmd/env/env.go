package env

const (
	// Prefix is the prefix of every risd environment variable
	Prefix = "RIS_"

	// DBURLSuffix is the Postgres connection string variable
	DBURLSuffix = "DB_URL"

	// SessionTokenSuffix is the backend bearer token variable
	SessionTokenSuffix = "SESSION_TOKEN"
)
