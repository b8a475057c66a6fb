package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - password flows
	RouteAuthLogin  = "/api/auth/login"
	RouteAuthSignup = "/api/auth/signup"

	// Auth Routes - passwordless flows
	RouteAuthOTPSend   = "/api/auth/otp/send"
	RouteAuthOTPVerify = "/api/auth/otp/verify"
	RouteAuthOTPResend = "/api/auth/otp/resend"

	// Auth Routes - session
	RouteAuthSession = "/api/auth/session"
	RouteAuthSignout = "/api/auth/signout"

	// Classification Routes
	RouteClassify = "/api/classify"
	RouteScans    = "/api/scans"

	// Operational Routes
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)
