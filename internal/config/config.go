package config

type Config interface {
	EnvConfig
	CorsConfig
	IdentityConfig
	ModelConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetSiteOrigin() string
}

type CorsConfig interface {
	GetAllowedOrigins() []string
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type IdentityConfig interface {
	GetIdentityURL() string
	GetIdentityAnonKey() string
	GetJWTSecret() string
	GetOIDCIssuer() string
	GetLandingPath() string
}

type ModelConfig interface {
	GetModelEngine() string
	GetOpenRouterKey() string
	GetOpenRouterModel() string
	GetOpenRouterURL() string
	GetGeminiKey() string
	GetGeminiModel() string
}

type StorageConfig interface {
	GetDatabaseURL() string
}

type mainConfig struct {
	EnvVars
	Cors
	Identity
	Model
	Storage
}

func New() Config {
	return mainConfig{}
}
