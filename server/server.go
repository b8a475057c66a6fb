// Package server wires the gate, the classification service and the scan
// store behind a plain net/http mux.
package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ecosnap/ecosnap-server/classify"
	"github.com/ecosnap/ecosnap-server/gate"
	"github.com/ecosnap/ecosnap-server/identity"
	"github.com/ecosnap/ecosnap-server/internal/config"
	"github.com/ecosnap/ecosnap-server/scans"
)

// tokenVerifyFunc validates a raw bearer token and returns the subject and
// email claims.
type tokenVerifyFunc func(ctx context.Context, raw string) (subject, email string, err error)

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	log      zerolog.Logger
	provider identity.Provider
	gate     *gate.Service
	classify *classify.Service
	scans    scans.Repository

	cors        *cors.Cors
	verifyToken tokenVerifyFunc
	metrics     *metrics
}

func New(cfg config.Config, provider identity.Provider, engine classify.Engine, repo scans.Repository, log zerolog.Logger) (*Server, error) {
	landingURL := cfg.GetSiteOrigin() + cfg.GetLandingPath()

	gateService, err := gate.NewService(provider, landingURL, log)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] create gate service")
	}

	classifyService, err := classify.NewService(engine, log)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] create classify service")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		log:      log.With().Str("component", "server").Logger(),
		provider: provider,
		gate:     gateService,
		classify: classifyService,
		scans:    repo,
		cors: cors.New(cors.Options{
			AllowedOrigins: cfg.GetAllowedOrigins(),
			AllowedMethods: cfg.GetAllowedMethods(),
			AllowedHeaders: cfg.GetAllowedHeaders(),
			MaxAge:         86400,
		}),
		metrics: newMetrics(),
	}

	s.verifyToken, err = newTokenVerifier(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] configure token verification")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			s.log.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}

// newTokenVerifier selects between OIDC discovery and an HS256 shared secret.
// Having neither configured is a deployment error: the protected routes would
// be unreachable.
func newTokenVerifier(cfg config.IdentityConfig) (tokenVerifyFunc, error) {
	if issuer := cfg.GetOIDCIssuer(); issuer != "" {
		oidcProvider, err := oidc.NewProvider(context.Background(), issuer)
		if err != nil {
			return nil, errors.Wrap(err, "[newTokenVerifier] OIDC discovery")
		}
		verifier := oidcProvider.Verifier(&oidc.Config{SkipClientIDCheck: true})

		return func(ctx context.Context, raw string) (string, string, error) {
			idToken, err := verifier.Verify(ctx, raw)
			if err != nil {
				return "", "", errors.Wrap(err, "verify ID token")
			}
			var claims struct {
				Email string `json:"email"`
			}
			_ = idToken.Claims(&claims)
			return idToken.Subject, claims.Email, nil
		}, nil
	}

	secret := cfg.GetJWTSecret()
	if secret == "" {
		return nil, errors.New("either OIDC_ISSUER or JWT_SECRET must be set")
	}
	key := []byte(secret)

	return func(_ context.Context, raw string) (string, string, error) {
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return "", "", errors.Wrap(err, "parse token")
		}

		subject, _ := claims.GetSubject()
		email, _ := claims["email"].(string)
		return subject, email, nil
	}, nil
}
