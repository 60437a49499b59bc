package config

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetAPIBaseURL() string
	GetDataFolder() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Session
}

func New() Config {
	return mainConfig{}
}
