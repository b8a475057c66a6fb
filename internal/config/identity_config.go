package config

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetIdentityURL returns the base URL of the hosted identity provider.
// Empty means the self-hosted in-process provider is used instead.
func (Identity) GetIdentityURL() string {
	return GetEnv("IDENTITY_URL", "")
}

// GetIdentityAnonKey returns the public API key the hosted provider expects
// on every request.
func (Identity) GetIdentityAnonKey() string {
	return GetEnv("IDENTITY_ANON_KEY", "")
}

// GetJWTSecret returns the HS256 secret shared with the identity provider.
// Used to verify bearer tokens when no OIDC issuer is configured, and by the
// self-hosted provider to sign session tokens.
func (Identity) GetJWTSecret() string {
	return GetEnv("JWT_SECRET", "")
}

// GetOIDCIssuer returns the OIDC issuer URL for token verification via
// discovery. Empty means shared-secret verification.
func (Identity) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

// GetLandingPath is the fixed path users land on after confirming a signup.
func (Identity) GetLandingPath() string {
	return GetEnv("LANDING_PATH", "/scan")
}
