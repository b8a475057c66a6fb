package config

type Cors struct{}

var _ CorsConfig = Cors{}

// The classify endpoint is called straight from the browser, so the policy
// is deliberately permissive: wildcard origin, no credentials.
func (Cors) GetAllowedOrigins() []string {
	return []string{"*"}
}

func (Cors) GetAllowedMethods() []string {
	return []string{"GET", "POST", "OPTIONS"}
}

func (Cors) GetAllowedHeaders() []string {
	return []string{"Authorization", "API-key", "Content-Type"}
}
