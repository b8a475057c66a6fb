package server

import (
	"net/http"

	"github.com/ecosnap/ecosnap-server/gate"
)

func (s *Server) initRoutes() {
	// Auth routes - password flows
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.AuthSubmitHandler(gate.ModePasswordLogin), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthSignup, ChainMiddleware(s.AuthSubmitHandler(gate.ModePasswordSignup), s.APIMiddleware()...))

	// Auth routes - passwordless flows
	s.RegisterRouteHandler("POST "+RouteAuthOTPSend, ChainMiddleware(s.AuthSubmitHandler(gate.ModePasswordlessRequest), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthOTPVerify, ChainMiddleware(s.AuthSubmitHandler(gate.ModePasswordlessVerify), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthOTPResend, ChainMiddleware(s.ResendCodeHandler(), s.APIMiddleware()...))

	// Auth routes - session
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthSignout, ChainMiddleware(s.SignOutHandler(), s.APIMiddleware()...))

	// Classification routes (require a bearer token)
	s.RegisterRouteHandler("POST "+RouteClassify, ChainMiddleware(s.ClassifyHandler(), s.ProtectedAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteScans, ChainMiddleware(s.ScanHistoryHandler(), s.ProtectedAPIMiddleware()...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(s.PreflightHandler(), s.CorsMiddleware))

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}

// PreflightHandler terminates OPTIONS requests the CORS middleware did not
// already answer.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
