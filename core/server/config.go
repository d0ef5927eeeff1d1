package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// SessionHeader is the request header carrying the caller's session key.
	// Session issuance itself is handled outside this service.
	SessionHeader string `mapstructure:"session_header" default:"X-Session-Key"`
	// MetricsEnabled exposes /metrics when true.
	MetricsEnabled bool `mapstructure:"metrics_enabled" default:"true"`
}
