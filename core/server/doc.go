// Package server holds the HTTP server configuration.
//
// The application trusts an upstream identity provider: requests arrive with
// a session key header, which the authz middleware resolves to a user. The
// server config only names the header and the listen port.
package server
